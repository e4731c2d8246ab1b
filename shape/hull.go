package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"
)

// hillClimbThreshold is the vertex count above which the support mapping walks
// the hull adjacency graph instead of scanning every vertex.
const hillClimbThreshold = 8

// ConvexHull is the convex hull of a point cloud. Only the extreme points are
// kept; the triangulated boundary and vertex adjacency are computed once at
// construction.
type ConvexHull struct {
	points    []mgl64.Vec3
	faces     []HullFace
	adjacency [][]int

	aabbMin, aabbMax mgl64.Vec3
	sphereCenter     mgl64.Vec3
	sphereRadius     float64
}

// HullFace is one outward-facing triangle of a hull boundary.
// Points x on the face plane satisfy Normal·x == Offset.
type HullFace struct {
	Indices [3]int
	Normal  mgl64.Vec3
	Offset  float64
}

type buildFace struct {
	v      [3]int
	normal mgl64.Vec3
	offset float64
}

// NewConvexHull deduplicates points and builds their hull. It fails with
// ErrDegenerateShape when fewer than four affinely independent points remain.
func NewConvexHull(points []mgl64.Vec3) (*ConvexHull, error) {
	for _, p := range points {
		if !finiteVec(p) {
			return nil, errors.Wrapf(ErrDegenerateShape, "non-finite hull point %v", p)
		}
	}
	if len(points) < 4 {
		return nil, errors.Wrapf(ErrDegenerateShape, "convex hull needs 4 points, got %d", len(points))
	}

	min, max := pointsAABB(points)
	scale := max.Sub(min).Len()
	if scale == 0 {
		return nil, errors.Wrap(ErrDegenerateShape, "convex hull points are coincident")
	}
	unique := dedupPoints(points, scale*epsilon)
	if len(unique) < 4 {
		return nil, errors.Wrapf(ErrDegenerateShape, "convex hull has %d distinct points", len(unique))
	}
	if rank := affineRank(unique, scale); rank < 3 {
		return nil, errors.Wrapf(ErrDegenerateShape, "convex hull points span %d dimensions", rank)
	}

	faces, err := quickHull(unique, scale*epsilon)
	if err != nil {
		return nil, err
	}
	return newHullFromFaces(unique, faces), nil
}

// dedupPoints merges points falling in the same tolerance cell.
func dedupPoints(points []mgl64.Vec3, tolerance float64) []mgl64.Vec3 {
	return lo.UniqBy(points, func(p mgl64.Vec3) [3]int64 {
		return [3]int64{
			int64(math.Round(p[0] / tolerance)),
			int64(math.Round(p[1] / tolerance)),
			int64(math.Round(p[2] / tolerance)),
		}
	})
}

// affineRank is the numerical rank of the centered point matrix.
func affineRank(points []mgl64.Vec3, scale float64) int {
	var centroid mgl64.Vec3
	for _, p := range points {
		centroid = centroid.Add(p)
	}
	centroid = centroid.Mul(1 / float64(len(points)))

	data := make([]float64, 0, len(points)*3)
	for _, p := range points {
		d := p.Sub(centroid)
		data = append(data, d[0], d[1], d[2])
	}

	var svd mat.SVD
	if ok := svd.Factorize(mat.NewDense(len(points), 3, data), mat.SVDNone); !ok {
		return 0
	}
	rank := 0
	for _, s := range svd.Values(nil) {
		if s > scale*1e-7 {
			rank++
		}
	}
	return rank
}

// quickHull builds the hull incrementally: each point outside the current
// polytope replaces the faces it can see with a fan over their horizon.
func quickHull(points []mgl64.Vec3, eps float64) ([]buildFace, error) {
	i0, i1, i2, i3, ok := initialTetrahedron(points, eps)
	if !ok {
		return nil, errors.Wrap(ErrDegenerateShape, "no initial tetrahedron")
	}

	p0, p1, p2, p3 := points[i0], points[i1], points[i2], points[i3]
	var faces []buildFace
	if p1.Sub(p0).Cross(p2.Sub(p0)).Dot(p3.Sub(p0)) > 0 {
		faces = []buildFace{
			makeBuildFace(points, i0, i2, i1),
			makeBuildFace(points, i0, i1, i3),
			makeBuildFace(points, i0, i3, i2),
			makeBuildFace(points, i1, i2, i3),
		}
	} else {
		faces = []buildFace{
			makeBuildFace(points, i0, i1, i2),
			makeBuildFace(points, i0, i3, i1),
			makeBuildFace(points, i0, i2, i3),
			makeBuildFace(points, i1, i3, i2),
		}
	}

	var horizon [][2]int
	var visible []bool
	for idx, p := range points {
		if idx == i0 || idx == i1 || idx == i2 || idx == i3 {
			continue
		}

		visible = visible[:0]
		seen := false
		for _, f := range faces {
			v := f.normal.Dot(p)-f.offset > eps
			visible = append(visible, v)
			seen = seen || v
		}
		if !seen {
			continue
		}

		horizon = horizon[:0]
		for fi, f := range faces {
			if !visible[fi] {
				continue
			}
			for e := 0; e < 3; e++ {
				a, b := f.v[e], f.v[(e+1)%3]
				if k := lo.IndexOf(horizon, [2]int{b, a}); k >= 0 {
					horizon = append(horizon[:k], horizon[k+1:]...)
				} else {
					horizon = append(horizon, [2]int{a, b})
				}
			}
		}

		kept := faces[:0]
		for fi, f := range faces {
			if !visible[fi] {
				kept = append(kept, f)
			}
		}
		faces = kept
		for _, e := range horizon {
			faces = append(faces, makeBuildFace(points, e[0], e[1], idx))
		}
	}

	return faces, nil
}

func initialTetrahedron(points []mgl64.Vec3, eps float64) (i0, i1, i2, i3 int, ok bool) {
	for i, p := range points {
		if p.X() < points[i0].X() {
			i0 = i
		}
	}

	best := -1.0
	for i, p := range points {
		if d := p.Sub(points[i0]).LenSqr(); d > best {
			i1, best = i, d
		}
	}
	if best <= eps*eps {
		return 0, 0, 0, 0, false
	}

	axis := points[i1].Sub(points[i0])
	best = -1
	for i, p := range points {
		if d := axis.Cross(p.Sub(points[i0])).LenSqr(); d > best {
			i2, best = i, d
		}
	}
	if best <= eps*eps*axis.LenSqr() {
		return 0, 0, 0, 0, false
	}

	normal := axis.Cross(points[i2].Sub(points[i0])).Normalize()
	best = -1
	for i, p := range points {
		if d := math.Abs(normal.Dot(p.Sub(points[i0]))); d > best {
			i3, best = i, d
		}
	}
	if best <= eps {
		return 0, 0, 0, 0, false
	}

	return i0, i1, i2, i3, true
}

func makeBuildFace(points []mgl64.Vec3, a, b, c int) buildFace {
	n := points[b].Sub(points[a]).Cross(points[c].Sub(points[a]))
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}
	return buildFace{v: [3]int{a, b, c}, normal: n, offset: n.Dot(points[a])}
}

// newHullFromFaces keeps only the vertices referenced by faces and derives
// adjacency and bounds.
func newHullFromFaces(points []mgl64.Vec3, faces []buildFace) *ConvexHull {
	remap := make(map[int]int)
	h := &ConvexHull{}
	for _, f := range faces {
		var hf HullFace
		for k, v := range f.v {
			id, ok := remap[v]
			if !ok {
				id = len(h.points)
				remap[v] = id
				h.points = append(h.points, points[v])
			}
			hf.Indices[k] = id
		}
		hf.Normal = f.normal
		hf.Offset = f.offset
		h.faces = append(h.faces, hf)
	}

	h.adjacency = make([][]int, len(h.points))
	for _, f := range h.faces {
		for e := 0; e < 3; e++ {
			a, b := f.Indices[e], f.Indices[(e+1)%3]
			if !lo.Contains(h.adjacency[a], b) {
				h.adjacency[a] = append(h.adjacency[a], b)
			}
			if !lo.Contains(h.adjacency[b], a) {
				h.adjacency[b] = append(h.adjacency[b], a)
			}
		}
	}

	h.aabbMin, h.aabbMax = pointsAABB(h.points)
	h.sphereCenter, h.sphereRadius = pointsSphere(h.points)
	return h
}

func (h *ConvexHull) support(direction mgl64.Vec3) mgl64.Vec3 {
	if len(h.points) <= hillClimbThreshold {
		return supportPoints(h.points, direction)
	}

	current := 0
	currentDot := h.points[0].Dot(direction)
	for step := 0; step < len(h.points); step++ {
		improved := false
		for _, n := range h.adjacency[current] {
			if d := h.points[n].Dot(direction); d > currentDot {
				current, currentDot = n, d
				improved = true
			}
		}
		if !improved {
			break
		}
	}
	return h.points[current]
}

// NumPoints returns the number of hull vertices.
func (h *ConvexHull) NumPoints() int {
	return len(h.points)
}

// Point returns the i-th hull vertex.
func (h *ConvexHull) Point(i int) mgl64.Vec3 {
	return h.points[i]
}

// Points returns a copy of the hull vertices.
func (h *ConvexHull) Points() []mgl64.Vec3 {
	return append([]mgl64.Vec3(nil), h.points...)
}

// NumFaces returns the number of boundary triangles.
func (h *ConvexHull) NumFaces() int {
	return len(h.faces)
}

// Face returns the i-th boundary triangle.
func (h *ConvexHull) Face(i int) HullFace {
	return h.faces[i]
}

// FaceVertices returns the three vertices of face i.
func (h *ConvexHull) FaceVertices(i int) (a, b, c mgl64.Vec3) {
	f := h.faces[i]
	return h.points[f.Indices[0]], h.points[f.Indices[1]], h.points[f.Indices[2]]
}

// Neighbors returns the vertices sharing an edge with vertex i.
func (h *ConvexHull) Neighbors(i int) []int {
	return append([]int(nil), h.adjacency[i]...)
}

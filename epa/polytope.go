package epa

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/akmonengine/narrow/gjk"
)

var (
	errCapacity   = errors.New("polytope capacity exceeded")
	errDegenerate = errors.New("polytope lost its volume")
)

// planeTolerance scales the band around a face plane inside which a point
// counts as lying on the plane.
const planeTolerance = 1e-10

// PolytopeBuilder manages the polytope expansion in fixed-capacity buffers.
// A builder is meant to live on the stack of a single query.
type PolytopeBuilder struct {
	vertices    [MaxVertices]gjk.Vertex
	numVertices int

	faces    [MaxFaces]Face
	numFaces int
	maxFaces int

	// Horizon edges of the visible region
	edges    [maxEdges]EdgeEntry
	numEdges int

	visible [MaxFaces]bool
	seen    [MaxFaces]bool
	stack   [MaxFaces]int

	// interior is a point strictly inside every polytope the builder
	// produces; it orients new faces.
	interior mgl64.Vec3
}

// Reset prepares the builder for reuse.
func (b *PolytopeBuilder) Reset(maxFaces int) {
	b.numVertices = 0
	b.numFaces = 0
	b.numEdges = 0
	b.maxFaces = min(maxFaces, MaxFaces)
}

// BuildInitialFaces creates the initial polytope from a GJK tetrahedron
// simplex. It fails when the tetrahedron has no volume.
func (b *PolytopeBuilder) BuildInitialFaces(simplex *gjk.Simplex) error {
	if simplex.Count != 4 {
		return errors.Errorf("invalid simplex count: %d (expected 4)", simplex.Count)
	}

	v := simplex.Vertices
	p0, p1, p2, p3 := v[0].Point, v[1].Point, v[2].Point, v[3].Point
	volume := p1.Sub(p0).Cross(p2.Sub(p0)).Dot(p3.Sub(p0))

	scale := math.Max(math.Max(p1.Sub(p0).Len(), p2.Sub(p0).Len()), p3.Sub(p0).Len())
	if math.Abs(volume) <= 1e-10*scale*scale*scale {
		return errors.Errorf("flat simplex (volume %g)", volume)
	}
	if volume < 0 {
		v[1], v[2] = v[2], v[1]
	}

	for i := 0; i < 4; i++ {
		b.vertices[i] = v[i]
	}
	b.numVertices = 4
	b.interior = p0.Add(p1).Add(p2).Add(p3).Mul(0.25)

	// Positive orientation: (p1-p0)x(p2-p0) points toward p3
	b.faces[0] = b.createFaceOutward(0, 2, 1)
	b.faces[1] = b.createFaceOutward(0, 1, 3)
	b.faces[2] = b.createFaceOutward(0, 3, 2)
	b.faces[3] = b.createFaceOutward(1, 2, 3)
	b.numFaces = 4
	return nil
}

// createFaceOutward creates a Face with its normal pointing away from the
// interior point, swapping the winding when needed. Zero-area faces get an
// infinite distance so that they are never selected as the closest face.
func (b *PolytopeBuilder) createFaceOutward(i0, i1, i2 int) Face {
	p0 := b.vertices[i0].Point
	p1 := b.vertices[i1].Point
	p2 := b.vertices[i2].Point

	face := Face{Vertices: [3]int{i0, i1, i2}}

	normal := p1.Sub(p0).Cross(p2.Sub(p0))
	normalLength := normal.Len()
	if normalLength < 1e-12 {
		face.Distance = math.Inf(1)
		return face
	}
	normal = normal.Mul(1.0 / normalLength)

	// If normal points toward the interior, it's pointing inward
	if normal.Dot(p0.Sub(b.interior)) < 0 {
		normal = normal.Mul(-1)
		face.Vertices[1], face.Vertices[2] = face.Vertices[2], face.Vertices[1]
	}

	face.Normal = normal
	face.Distance = p0.Dot(normal)
	return face
}

// FindClosestFaceIndex returns the index of the face closest to the origin,
// or -1 when every face is degenerate.
func (b *PolytopeBuilder) FindClosestFaceIndex() int {
	closestIndex := -1
	minDistance := math.Inf(1)

	for i := 0; i < b.numFaces; i++ {
		if b.faces[i].Distance < minDistance {
			closestIndex = i
			minDistance = b.faces[i].Distance
		}
	}

	return closestIndex
}

// Face returns the i-th face.
func (b *PolytopeBuilder) Face(i int) Face {
	return b.faces[i]
}

// Vertex returns the i-th vertex.
func (b *PolytopeBuilder) Vertex(i int) gjk.Vertex {
	return b.vertices[i]
}

func (b *PolytopeBuilder) NumFaces() int {
	return b.numFaces
}

func (b *PolytopeBuilder) NumVertices() int {
	return b.numVertices
}

// hasVertex reports whether p is already a polytope vertex.
func (b *PolytopeBuilder) hasVertex(p mgl64.Vec3) bool {
	for i := 0; i < b.numVertices; i++ {
		if b.vertices[i].Point == p {
			return true
		}
	}
	return false
}

// height is the signed distance of p above the plane of face i.
func (b *PolytopeBuilder) height(i int, p mgl64.Vec3) float64 {
	return p.Dot(b.faces[i].Normal) - b.faces[i].Distance
}

// neighbor returns the face sharing edge e of face i, or -1.
func (b *PolytopeBuilder) neighbor(i, e int) int {
	f := &b.faces[i]
	a, c := f.Vertices[e], f.Vertices[(e+1)%3]
	for j := 0; j < b.numFaces; j++ {
		if j == i {
			continue
		}
		if b.faces[j].hasEdge(a, c) {
			return j
		}
	}
	return -1
}

// findVisibleFaces marks the faces seen from p and returns their count.
//
// The visible region grows from a seed face across shared edges, so it stays
// connected and its boundary is a single loop. A face is seen when p lies in
// front of its plane or on it within rounding; zero-area faces are swallowed
// whenever the region reaches them. The seed is the closest face when p is
// in front of it, the face p is highest above otherwise.
func (b *PolytopeBuilder) findVisibleFaces(p mgl64.Vec3, closestIndex int) int {
	for i := 0; i < b.numFaces; i++ {
		b.visible[i] = false
		b.seen[i] = false
	}

	eps := planeTolerance * math.Max(1, p.Len())
	seed := closestIndex
	if seed < 0 || seed >= b.numFaces || !(b.height(seed, p) > eps) {
		seed = -1
		best := eps
		for i := 0; i < b.numFaces; i++ {
			if h := b.height(i, p); h > best {
				seed, best = i, h
			}
		}
	}
	if seed < 0 {
		return 0
	}

	b.visible[seed] = true
	b.seen[seed] = true
	stack := append(b.stack[:0], seed)
	count := 1
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for e := 0; e < 3; e++ {
			n := b.neighbor(i, e)
			if n < 0 || b.seen[n] {
				continue
			}
			b.seen[n] = true
			if b.faces[n].degenerate() || b.height(n, p) > -eps {
				b.visible[n] = true
				count++
				stack = append(stack, n)
			}
		}
	}
	return count
}

// findBoundaryEdges collects the horizon of the visible region: the edges of
// visible faces whose neighbor stays. Each edge keeps the winding of its
// visible face.
func (b *PolytopeBuilder) findBoundaryEdges() error {
	b.numEdges = 0
	for i := 0; i < b.numFaces; i++ {
		if !b.visible[i] {
			continue
		}
		f := &b.faces[i]
		for e := 0; e < 3; e++ {
			if n := b.neighbor(i, e); n >= 0 && b.visible[n] {
				continue
			}
			if b.numEdges == maxEdges {
				return errCapacity
			}
			b.edges[b.numEdges] = EdgeEntry{A: f.Vertices[e], B: f.Vertices[(e+1)%3]}
			b.numEdges++
		}
	}
	return nil
}

// removeVisibleFaces compacts the face buffer, keeping face order stable.
func (b *PolytopeBuilder) removeVisibleFaces() {
	n := 0
	for i := 0; i < b.numFaces; i++ {
		if !b.visible[i] {
			b.faces[n] = b.faces[i]
			n++
		}
	}
	b.numFaces = n
}

// addBoundaryFaces connects every horizon edge to the new vertex.
func (b *PolytopeBuilder) addBoundaryFaces(vertex int) {
	for i := 0; i < b.numEdges; i++ {
		edge := b.edges[i]
		b.faces[b.numFaces] = b.createFaceOutward(edge.A, edge.B, vertex)
		b.numFaces++
	}
}

// AddPointAndRebuildFaces expands the polytope by adding a support point:
//  1. Finds faces visible from the support point
//  2. Identifies the horizon of the visible region
//  3. Removes visible faces
//  4. Connects the horizon to the support point
//
// The polytope is left untouched when the result would not fit the fixed
// buffers (errCapacity) or when the point sees no face or every face
// (errDegenerate).
func (b *PolytopeBuilder) AddPointAndRebuildFaces(support gjk.Vertex, closestIndex int) error {
	visible := b.findVisibleFaces(support.Point, closestIndex)
	if visible == 0 || visible == b.numFaces {
		return errDegenerate
	}

	if err := b.findBoundaryEdges(); err != nil {
		return err
	}
	if b.numEdges < 3 {
		return errDegenerate
	}
	if b.numVertices == MaxVertices || b.numFaces-visible+b.numEdges > b.maxFaces {
		return errCapacity
	}

	b.vertices[b.numVertices] = support
	b.numVertices++

	b.removeVisibleFaces()
	b.addBoundaryFaces(b.numVertices - 1)
	return nil
}

package gjk

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vertex is a point of the Minkowski difference together with the world-space
// support points of A and B that generated it.
type Vertex struct {
	Point mgl64.Vec3
	A, B  mgl64.Vec3
}

// Simplex represents a set of 1-4 points in the Minkowski difference space.
// Weights holds the barycentric coordinates of the point of the simplex
// closest to the origin, as computed by the last reduction.
type Simplex struct {
	Vertices [4]Vertex
	Weights  [4]float64
	Count    int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

func (s *Simplex) push(v Vertex) {
	s.Vertices[s.Count] = v
	s.Weights[s.Count] = 0
	s.Count++
}

// has reports whether p is already a vertex, within tolerance.
func (s *Simplex) has(p mgl64.Vec3, tolerance float64) bool {
	for i := 0; i < s.Count; i++ {
		if s.Vertices[i].Point.Sub(p).LenSqr() <= tolerance*tolerance {
			return true
		}
	}
	return false
}

// maxLenSqr is the squared norm of the vertex furthest from the origin.
func (s *Simplex) maxLenSqr() float64 {
	m := 0.0
	for i := 0; i < s.Count; i++ {
		m = math.Max(m, s.Vertices[i].Point.LenSqr())
	}
	return m
}

// ClosestPoint returns the weighted combination of the vertices.
func (s *Simplex) ClosestPoint() mgl64.Vec3 {
	var p mgl64.Vec3
	for i := 0; i < s.Count; i++ {
		p = p.Add(s.Vertices[i].Point.Mul(s.Weights[i]))
	}
	return p
}

// Witnesses returns the points of A and B whose difference is ClosestPoint.
func (s *Simplex) Witnesses() (a, b mgl64.Vec3) {
	for i := 0; i < s.Count; i++ {
		a = a.Add(s.Vertices[i].A.Mul(s.Weights[i]))
		b = b.Add(s.Vertices[i].B.Mul(s.Weights[i]))
	}
	return a, b
}

// reduce computes the point of the simplex closest to the origin, drops the
// vertices that do not support it and returns it. The second result is true
// when the simplex is a tetrahedron enclosing the origin; the simplex is then
// left untouched.
//
// Vertex order is preserved: the most recent vertex stays last.
func (s *Simplex) reduce() (mgl64.Vec3, bool) {
	var w [4]float64
	switch s.Count {
	case 1:
		w[0] = 1
	case 2:
		w[0], w[1] = segmentWeights(s.Vertices[0].Point, s.Vertices[1].Point)
	case 3:
		w[0], w[1], w[2] = triangleWeights(s.Vertices[0].Point, s.Vertices[1].Point, s.Vertices[2].Point)
	case 4:
		var inside bool
		if w, inside = s.tetrahedronWeights(); inside {
			s.Weights = s.originBarycentric()
			return mgl64.Vec3{}, true
		}
	}

	n := 0
	for i := 0; i < s.Count; i++ {
		if w[i] > 0 {
			s.Vertices[n] = s.Vertices[i]
			s.Weights[n] = w[i]
			n++
		}
	}
	s.Count = n
	return s.ClosestPoint(), false
}

// segmentWeights returns the barycentric weights of the point of [a, b]
// closest to the origin.
func segmentWeights(a, b mgl64.Vec3) (float64, float64) {
	ab := b.Sub(a)
	l := ab.LenSqr()
	if l == 0 {
		return 0, 1
	}
	t := -a.Dot(ab) / l
	if t <= 0 {
		return 1, 0
	}
	if t >= 1 {
		return 0, 1
	}
	return 1 - t, t
}

// triangleWeights walks the Voronoi regions of the triangle (Ericson, Real-Time
// Collision Detection 5.1.5) to find the point closest to the origin.
func triangleWeights(a, b, c mgl64.Vec3) (float64, float64, float64) {
	ab := b.Sub(a)
	ac := c.Sub(a)

	// vertex region A
	d1 := -ab.Dot(a)
	d2 := -ac.Dot(a)
	if d1 <= 0 && d2 <= 0 {
		return 1, 0, 0
	}

	// vertex region B
	d3 := -ab.Dot(b)
	d4 := -ac.Dot(b)
	if d3 >= 0 && d4 <= d3 {
		return 0, 1, 0
	}

	// edge region AB
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return 1 - v, v, 0
	}

	// vertex region C
	d5 := -ab.Dot(c)
	d6 := -ac.Dot(c)
	if d6 >= 0 && d5 <= d6 {
		return 0, 0, 1
	}

	// edge region AC
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return 1 - w, 0, w
	}

	// edge region BC
	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return 0, 1 - w, w
	}

	denom := va + vb + vc
	if denom <= 0 || math.IsInf(1/denom, 0) {
		return flatTriangleWeights(a, b, c)
	}
	v := vb / denom
	w := vc / denom
	return 1 - v - w, v, w
}

// flatTriangleWeights handles collinear triangles by picking the best edge.
func flatTriangleWeights(a, b, c mgl64.Vec3) (float64, float64, float64) {
	best := [3]float64{}
	bestDist := math.Inf(1)

	edges := [3][2]int{{0, 1}, {0, 2}, {1, 2}}
	pts := [3]mgl64.Vec3{a, b, c}
	for _, e := range edges {
		wa, wb := segmentWeights(pts[e[0]], pts[e[1]])
		p := pts[e[0]].Mul(wa).Add(pts[e[1]].Mul(wb))
		if d := p.LenSqr(); d < bestDist {
			bestDist = d
			best = [3]float64{}
			best[e[0]], best[e[1]] = wa, wb
		}
	}
	return best[0], best[1], best[2]
}

// tetrahedronFaces lists each face followed by the opposite vertex.
var tetrahedronFaces = [4][4]int{
	{0, 1, 2, 3},
	{0, 1, 3, 2},
	{0, 2, 3, 1},
	{1, 2, 3, 0},
}

// tetrahedronWeights tests the origin against every face plane. A face is a
// candidate when the origin and the opposite vertex lie on different sides;
// every face is a candidate when the tetrahedron is flat.
func (s *Simplex) tetrahedronWeights() ([4]float64, bool) {
	p := [4]mgl64.Vec3{s.Vertices[0].Point, s.Vertices[1].Point, s.Vertices[2].Point, s.Vertices[3].Point}

	scale := s.maxLenSqr()
	volume := p[1].Sub(p[0]).Cross(p[2].Sub(p[0])).Dot(p[3].Sub(p[0]))
	flat := math.Abs(volume) <= 1e-12*scale*math.Sqrt(scale)

	var best [4]float64
	bestDist := math.Inf(1)
	outside := false
	for _, f := range tetrahedronFaces {
		a, b, c, d := p[f[0]], p[f[1]], p[f[2]], p[f[3]]
		n := b.Sub(a).Cross(c.Sub(a))
		signOrigin := -a.Dot(n)
		signOpposite := d.Sub(a).Dot(n)
		if !flat && signOrigin*signOpposite >= 0 {
			continue
		}

		outside = true
		wa, wb, wc := triangleWeights(a, b, c)
		q := a.Mul(wa).Add(b.Mul(wb)).Add(c.Mul(wc))
		if dist := q.LenSqr(); dist < bestDist {
			bestDist = dist
			best = [4]float64{}
			best[f[0]], best[f[1]], best[f[2]] = wa, wb, wc
		}
	}
	return best, !outside
}

// originBarycentric expresses the origin in the barycentric coordinates of a
// tetrahedron enclosing it.
func (s *Simplex) originBarycentric() [4]float64 {
	p := [4]mgl64.Vec3{s.Vertices[0].Point, s.Vertices[1].Point, s.Vertices[2].Point, s.Vertices[3].Point}
	total := p[1].Sub(p[0]).Cross(p[2].Sub(p[0])).Dot(p[3].Sub(p[0]))
	if total == 0 {
		return [4]float64{0.25, 0.25, 0.25, 0.25}
	}

	var w [4]float64
	for i := 0; i < 4; i++ {
		q := p
		q[i] = mgl64.Vec3{}
		w[i] = q[1].Sub(q[0]).Cross(q[2].Sub(q[0])).Dot(q[3].Sub(q[0])) / total
	}
	return w
}

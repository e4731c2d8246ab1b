// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) algorithm for
// distance computation and collision detection between convex shapes.
//
// GJK works on the Minkowski difference A - B of two convex shapes: the shapes
// overlap when the difference contains the origin, and otherwise the distance
// between them is the distance from the origin to the difference. The
// algorithm builds a simplex incrementally from support points, converging
// toward the point of the difference closest to the origin.
//
// Every simplex vertex remembers the support points of A and B that produced
// it, so the closest points on each shape are recovered from the barycentric
// weights of the terminal simplex.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
//   - Ericson: "Real-Time Collision Detection" (2004)
package gjk

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/akmonengine/narrow/shape"
)

// fallbackAxis seeds the search when both shapes share the same center.
var fallbackAxis = mgl64.Vec3{1, 0, 0}

// Pair is the Minkowski difference A - B of two convex shapes, each under its
// own world transform.
type Pair struct {
	A, B shape.Placed
}

// Support computes a support point in the Minkowski difference (A - B):
// furthestPoint(A, direction) - furthestPoint(B, -direction).
//
// This is the fundamental query that makes GJK work for any convex shape.
func (p Pair) Support(direction mgl64.Vec3) Vertex {
	a := p.A.Support(direction)
	b := p.B.Support(direction.Mul(-1))
	return Vertex{Point: a.Sub(b), A: a, B: b}
}

// initialDirection points from the center of A toward the center of B.
func (p Pair) initialDirection(tolerance float64) mgl64.Vec3 {
	direction := p.B.Center().Sub(p.A.Center())
	if direction.LenSqr() <= tolerance*tolerance {
		return fallbackAxis
	}
	return direction
}

// Status tells which branch of a Result is populated.
type Status int

const (
	Separated Status = iota
	Overlapping
)

func (s Status) String() string {
	if s == Overlapping {
		return "overlapping"
	}
	return "separated"
}

// Result is the outcome of Closest.
//
// When Status is Separated, Distance, PointA and PointB describe the closest
// points in world space. When Status is Overlapping, Simplex is a tetrahedron
// of the Minkowski difference enclosing the origin, ready for EPA.
type Result struct {
	Status         Status
	Distance       float64
	PointA, PointB mgl64.Vec3
	Simplex        Simplex
	Iterations     int
	Estimate       Estimate
}

// Closest runs GJK on pair until the distance converges, the origin is
// enclosed, or cfg.MaxIterations support evaluations were spent.
//
// Running out of iterations is not an error: the best distance found so far is
// returned with a low-confidence estimate. The only error is
// ErrNumericDegeneracy, returned when the support mapping produces non-finite
// values.
func Closest(pair Pair, cfg Config) (Result, error) {
	var res Result
	s := &res.Simplex

	w := pair.Support(pair.initialDirection(cfg.AbsoluteTolerance))
	if !finite(w.Point) {
		return res, errors.Wrapf(ErrNumericDegeneracy, "support point %v", w.Point)
	}
	s.push(w)
	s.Weights[0] = 1
	v := w.Point
	vv := v.LenSqr()

	tolerance2 := cfg.AbsoluteTolerance * cfg.AbsoluteTolerance
	converged := false
	for res.Iterations < cfg.MaxIterations {
		if vv <= tolerance2 {
			return touching(pair, res, cfg)
		}

		res.Iterations++
		w := pair.Support(v.Mul(-1))
		if !finite(w.Point) {
			return res, errors.Wrapf(ErrNumericDegeneracy, "support point %v", w.Point)
		}

		// The new point does not move the separating plane toward the origin
		// by more than the tolerance: v is the closest point.
		if vv-v.Dot(w.Point) <= cfg.RelativeTolerance*vv || s.has(w.Point, cfg.AbsoluteTolerance) {
			converged = true
			break
		}

		s.push(w)
		next, inside := s.reduce()
		if inside {
			res.Status = Overlapping
			return res, nil
		}

		nextLen := next.LenSqr()
		if nextLen >= vv {
			// No progress: rounding keeps the simplex from getting closer.
			v, vv = next, nextLen
			converged = true
			break
		}
		v, vv = next, nextLen
	}

	if vv <= tolerance2 {
		return touching(pair, res, cfg)
	}
	if !converged {
		res.Estimate = LowConfidence(ReasonIterationBudgetExceeded)
	}
	res.Status = Separated
	res.Distance = math.Sqrt(vv)
	res.PointA, res.PointB = s.Witnesses()
	return res, nil
}

// touching handles a simplex passing through the origin. The shapes touch or
// overlap; the simplex is inflated into a tetrahedron so that EPA can measure
// the penetration. When the Minkowski difference is too flat for that, the
// shapes are reported as touching at distance zero.
func touching(pair Pair, res Result, cfg Config) (Result, error) {
	a, b := res.Simplex.Witnesses()
	if completeSimplex(pair, &res.Simplex, cfg) {
		res.Status = Overlapping
		return res, nil
	}
	res.Status = Separated
	res.Distance = 0
	res.PointA, res.PointB = a, b
	return res, nil
}

// searchAxes are the perturbation directions tried around a lone vertex.
var searchAxes = [6]mgl64.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// completeSimplex grows a simplex containing the origin into a tetrahedron,
// trying a bounded set of search directions at each dimension.
func completeSimplex(pair Pair, s *Simplex, cfg Config) bool {
	tolerance := cfg.AbsoluteTolerance * math.Max(1, math.Sqrt(s.maxLenSqr()))

	for s.Count < 4 {
		added := false
		switch s.Count {
		case 1:
			for _, axis := range searchAxes {
				w := pair.Support(axis)
				if w.Point.Sub(s.Vertices[0].Point).Len() > tolerance {
					s.push(w)
					added = true
					break
				}
			}

		case 2:
			line := s.Vertices[1].Point.Sub(s.Vertices[0].Point)
			axis := line.Normalize()
			perp := axis.Cross(leastAlignedAxis(axis)).Normalize()
			step := 2 * math.Pi / float64(cfg.MaxPerturbations)
			for k := 0; k < cfg.MaxPerturbations; k++ {
				dir := mgl64.QuatRotate(float64(k)*step, axis).Rotate(perp)
				w := pair.Support(dir)
				if axis.Cross(w.Point.Sub(s.Vertices[0].Point)).Len() > tolerance {
					s.push(w)
					added = true
					break
				}
			}

		case 3:
			p0 := s.Vertices[0].Point
			normal := s.Vertices[1].Point.Sub(p0).Cross(s.Vertices[2].Point.Sub(p0))
			if normal.LenSqr() == 0 {
				return false
			}
			normal = normal.Normalize()
			for _, dir := range [2]mgl64.Vec3{normal, normal.Mul(-1)} {
				w := pair.Support(dir)
				if math.Abs(w.Point.Sub(p0).Dot(normal)) > tolerance {
					s.push(w)
					added = true
					break
				}
			}
		}

		if !added {
			return false
		}
	}
	return true
}

// leastAlignedAxis returns the coordinate axis most orthogonal to v.
func leastAlignedAxis(v mgl64.Vec3) mgl64.Vec3 {
	x, y, z := math.Abs(v.X()), math.Abs(v.Y()), math.Abs(v.Z())
	switch {
	case x <= y && x <= z:
		return mgl64.Vec3{1, 0, 0}
	case y <= z:
		return mgl64.Vec3{0, 1, 0}
	}
	return mgl64.Vec3{0, 0, 1}
}

func finite(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}

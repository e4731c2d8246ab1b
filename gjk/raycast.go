package gjk

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// RayResult is the outcome of CastRay.
type RayResult struct {
	Hit bool
	// Toi is the ray parameter of the first contact with the Minkowski
	// difference: the hit point is origin + Toi*direction.
	Toi float64
	// Normal is the outward unit normal of the difference at the hit point.
	// It is zero when the ray origin is already inside.
	Normal mgl64.Vec3
	// PointA and PointB are the world-space points of A and B whose
	// difference is the hit point.
	PointA, PointB mgl64.Vec3
	Iterations     int
	Estimate       Estimate
}

// CastRay intersects the ray origin + t*direction, t in [0, maxToi], with the
// Minkowski difference of pair (van den Bergen, "Ray Casting against General
// Convex Objects with Application to Continuous Collision Detection").
//
// The simplex lives in the space of x - (A - B), x being the current point
// on the ray; x only moves forward, so the first contact is found. A point
// shape at the origin for B turns this into a plain ray cast against A.
func CastRay(pair Pair, origin, direction mgl64.Vec3, maxToi float64, cfg Config) (RayResult, error) {
	var res RayResult
	var s Simplex

	lambda := 0.0
	x := origin
	var normal mgl64.Vec3

	c := pair.Support(direction.Mul(-1))
	if !finite(c.Point) || !finite(origin) || !finite(direction) {
		return res, errors.Wrapf(ErrNumericDegeneracy, "ray %v %v", origin, direction)
	}
	v := x.Sub(c.Point)

	converged := false
	for res.Iterations < cfg.MaxIterations {
		vv := v.LenSqr()
		if vv <= rayTolerance(&s, cfg) {
			converged = true
			break
		}

		res.Iterations++
		p := pair.Support(v)
		if !finite(p.Point) {
			return res, errors.Wrapf(ErrNumericDegeneracy, "support point %v", p.Point)
		}
		w := x.Sub(p.Point)

		moved := false
		if vw := v.Dot(w); vw > 0 {
			vr := v.Dot(direction)
			if vr >= 0 {
				return RayResult{Iterations: res.Iterations}, nil
			}
			lambda -= vw / vr
			if lambda > maxToi {
				return RayResult{Iterations: res.Iterations}, nil
			}
			x = origin.Add(direction.Mul(lambda))
			normal = v
			moved = true
			for i := 0; i < s.Count; i++ {
				vert := &s.Vertices[i]
				vert.Point = x.Sub(vert.A.Sub(vert.B))
			}
		}

		if s.has(x.Sub(p.Point), 0) {
			if !moved {
				// The support point is already part of the simplex and
				// the ray did not advance: no further progress is possible.
				res.Estimate = LowConfidence(ReasonNumericDegeneracy)
				converged = true
				break
			}
		} else {
			s.push(Vertex{Point: x.Sub(p.Point), A: p.A, B: p.B})
		}

		next, inside := s.reduce()
		if inside {
			converged = true
			break
		}
		v = next
	}

	if !converged {
		res.Estimate = LowConfidence(ReasonIterationBudgetExceeded)
	}

	res.Hit = true
	res.Toi = lambda
	if l := normal.Len(); l > 0 {
		res.Normal = normal.Mul(1 / l)
	}
	if s.Count > 0 {
		res.PointA, res.PointB = s.Witnesses()
	} else {
		res.PointA, res.PointB = c.A, c.B
	}
	return res, nil
}

// rayTolerance is the squared distance under which x is considered to lie on
// the Minkowski difference.
func rayTolerance(s *Simplex, cfg Config) float64 {
	rel := cfg.RelativeTolerance * cfg.RelativeTolerance * s.maxLenSqr()
	abs := cfg.AbsoluteTolerance * cfg.AbsoluteTolerance
	return math.Max(rel, abs)
}

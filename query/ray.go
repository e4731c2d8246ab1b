// Package query implements ray casts and point queries against a single
// shape under a world transform.
//
// Ball, cuboid, capsule, cylinder and cone are intersected in closed form.
// Segments, triangles and convex hulls go through the GJK ray cast, with the
// ray treated as a point swept along its direction. Compound shapes query
// each of their parts and keep the first hit.
package query

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/akmonengine/narrow/bounding"
	"github.com/akmonengine/narrow/gjk"
	"github.com/akmonengine/narrow/shape"
)

// Mode selects how a ray starting inside a shape is answered.
type Mode int

const (
	// ModeSolid treats the shape as filled: a ray starting inside hits
	// immediately, with Toi 0 and a zero normal.
	ModeSolid Mode = iota
	// ModeHollow treats the shape as a surface: a ray starting inside hits
	// where it leaves the shape, with the normal facing back inside.
	ModeHollow
)

func (m Mode) String() string {
	if m == ModeHollow {
		return "hollow"
	}
	return "solid"
}

// Ray is the half-line Origin + t*Direction, t >= 0. Direction does not need
// to be normalized: every parameter is expressed in units of its length.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// PointAt returns the point of parameter t.
func (r Ray) PointAt(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// RayHit describes the first intersection of a ray with a shape.
type RayHit struct {
	Toi    float64
	Point  mgl64.Vec3
	Normal mgl64.Vec3
	// Inside is set when the ray origin lies inside the shape.
	Inside bool
	// Part is the index of the compound part that was hit.
	Part       int
	Iterations int
	Estimate   gjk.Estimate
}

// pointShape is the degenerate shape swept along the ray by the GJK cast.
var pointShape = shape.Placed{Shape: shape.Ball{}, Pose: shape.Identity()}

// CastRay returns the first intersection of ray with s placed at pose, with a
// parameter in [0, maxToi]. The boolean result is false on a miss.
//
// The only error is gjk.ErrNumericDegeneracy, for non-finite inputs or
// support points.
func CastRay(s shape.Shape, pose shape.Isometry, ray Ray, maxToi float64, mode Mode, cfg gjk.Config) (RayHit, bool, error) {
	if s == nil {
		return RayHit{}, false, errors.Wrap(shape.ErrDegenerateShape, "nil shape")
	}
	if !finite(ray.Origin) || !finite(ray.Direction) || math.IsNaN(maxToi) {
		return RayHit{}, false, errors.Wrapf(gjk.ErrNumericDegeneracy, "ray %v %v", ray.Origin, ray.Direction)
	}

	if c, ok := s.(*shape.Compound); ok {
		return castCompound(c, pose, ray, maxToi, mode, cfg)
	}

	o := pose.InverseTransformPoint(ray.Origin)
	d := pose.InverseRotate(ray.Direction)
	if sp, hit, analytic := localSpan(s, o, d); analytic {
		if !hit {
			return RayHit{}, false, nil
		}
		res, ok := resolve(sp, maxToi, mode)
		if !ok {
			return RayHit{}, false, nil
		}
		res.Point = ray.PointAt(res.Toi)
		res.Normal = pose.Rotate(res.Normal)
		return res, true, nil
	}

	return castSupport(s, pose, ray, maxToi, mode, cfg)
}

// resolve applies the ray policy to the span of the supporting line.
func resolve(sp span, maxToi float64, mode Mode) (RayHit, bool) {
	switch {
	case sp.exit < 0:
		return RayHit{}, false
	case sp.enter >= 0:
		if sp.enter > maxToi {
			return RayHit{}, false
		}
		return RayHit{Toi: sp.enter, Normal: sp.enterNormal}, true
	case mode == ModeSolid:
		return RayHit{Inside: true}, true
	}

	if math.IsInf(sp.exit, 1) || sp.exit > maxToi {
		return RayHit{}, false
	}
	return RayHit{Toi: sp.exit, Normal: sp.exitNormal.Mul(-1), Inside: true}, true
}

// castSupport runs the GJK ray cast against the Minkowski difference of the
// placed shape and a point.
func castSupport(s shape.Shape, pose shape.Isometry, ray Ray, maxToi float64, mode Mode, cfg gjk.Config) (RayHit, bool, error) {
	pair := gjk.Pair{A: shape.Placed{Shape: s, Pose: pose}, B: pointShape}
	res, err := gjk.CastRay(pair, ray.Origin, ray.Direction, maxToi, cfg)
	if err != nil || !res.Hit {
		return RayHit{Iterations: res.Iterations}, false, err
	}

	hit := RayHit{
		Toi:        res.Toi,
		Point:      ray.PointAt(res.Toi),
		Normal:     res.Normal,
		Iterations: res.Iterations,
		Estimate:   res.Estimate,
	}
	if res.Toi > 0 || res.Normal.LenSqr() > 0 {
		return hit, true, nil
	}

	hit.Inside = true
	if mode == ModeSolid {
		return hit, true, nil
	}
	return castBackward(pair, ray, maxToi, hit, cfg)
}

// castBackward finds where a ray starting inside leaves the shape: it casts
// the opposite ray from a point beyond the bounding sphere.
func castBackward(pair gjk.Pair, ray Ray, maxToi float64, inside RayHit, cfg gjk.Config) (RayHit, bool, error) {
	length := ray.Direction.Len()
	if length == 0 {
		return RayHit{}, false, nil
	}
	dir := ray.Direction.Mul(1 / length)

	sphere := bounding.SphereOf(pair.A.Shape, pair.A.Pose)
	pad := 1e-3 * math.Max(sphere.Radius, 1)
	far := (sphere.Center.Sub(ray.Origin).Dot(dir) + sphere.Radius + pad) / length
	start := ray.PointAt(far)

	back, err := gjk.CastRay(pair, start, ray.Direction.Mul(-1), far, cfg)
	iterations := inside.Iterations + back.Iterations
	if err != nil {
		return RayHit{Iterations: iterations}, false, err
	}
	if !back.Hit {
		return RayHit{Iterations: iterations}, false, nil
	}

	toi := math.Max(far-back.Toi, 0)
	if toi > maxToi {
		return RayHit{Iterations: iterations}, false, nil
	}
	hit := RayHit{
		Toi:        toi,
		Point:      ray.PointAt(toi),
		Normal:     back.Normal.Mul(-1),
		Inside:     true,
		Iterations: iterations,
		Estimate:   inside.Estimate,
	}
	if back.Estimate.LowConfidence {
		hit.Estimate = back.Estimate
	}
	return hit, true, nil
}

// castCompound casts the ray against every part and keeps the smallest
// parameter. In hollow mode the parts containing the origin contribute their
// exit point, so the hit is the first part surface crossed by the ray.
func castCompound(c *shape.Compound, pose shape.Isometry, ray Ray, maxToi float64, mode Mode, cfg gjk.Config) (RayHit, bool, error) {
	var best RayHit
	found := false
	iterations := 0
	var err error

	shape.Decompose(c, pose, func(i int, part shape.Placed) bool {
		hit, ok, castErr := CastRay(part.Shape, part.Pose, ray, maxToi, mode, cfg)
		iterations += hit.Iterations
		if castErr != nil {
			err = castErr
			return false
		}
		if ok && (!found || hit.Toi < best.Toi) {
			best, found = hit, true
			best.Part = i
		}
		return true
	})

	if err != nil {
		return RayHit{}, false, err
	}
	best.Iterations = iterations
	return best, found, nil
}

func finite(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}

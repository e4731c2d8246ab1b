package narrow

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/akmonengine/narrow/gjk"
	"github.com/akmonengine/narrow/shape"
)

// Motion is a shape translating at constant velocity.
type Motion struct {
	shape.Placed
	Velocity mgl64.Vec3
}

// Impact is the first contact of two moving shapes.
type Impact struct {
	// Toi is the time of the first contact, in the unit of the velocities.
	Toi float64
	// Normal points from A toward B at the contact. It is zero when the
	// shapes already overlap at time zero.
	Normal mgl64.Vec3
	// PointA and PointB are the contact points on the moved shapes.
	PointA, PointB mgl64.Vec3
	// Penetrating is set when the shapes overlap at time zero.
	Penetrating bool
	PartA       int
	PartB       int
	Iterations  int
	Estimate    Estimate
}

// TimeOfImpact returns the first time in [0, maxToi] at which a and b touch
// while translating with their velocities. Rotations are held fixed.
//
// The relative motion is cast as a ray against the Minkowski difference of
// the shapes at rest: they touch at time t when the difference contains
// t*(vb - va). Compound parts are cast pair by pair and the earliest impact
// wins.
func TimeOfImpact(a, b Motion, maxToi float64, cfg Config) (Impact, bool, error) {
	if err := checkPair(a.Placed, b.Placed); err != nil {
		cfg.report("time of impact", Estimate{}, 0, err)
		return Impact{}, false, err
	}
	if !finiteVec(a.Velocity) || !finiteVec(b.Velocity) || math.IsNaN(maxToi) {
		err := errors.Wrapf(ErrNumericDegeneracy, "velocities %v %v", a.Velocity, b.Velocity)
		cfg.report("time of impact", Estimate{}, 0, err)
		return Impact{}, false, err
	}
	if maxToi < 0 {
		return Impact{}, false, nil
	}

	relative := b.Velocity.Sub(a.Velocity)
	speed := relative.Len()

	var best Impact
	found := false
	iterations := 0
	var err error

	forEachPart(a.Placed, b.Placed, func(p partPair) bool {
		// The boxes must close their gap before anything can touch.
		if p.gap > 0 {
			if speed == 0 || p.gap/speed > maxToi || (found && p.gap/speed > best.Toi) {
				return true
			}
		}

		res, castErr := gjk.CastRay(p.gjk(), mgl64.Vec3{}, relative, maxToi, cfg.GJK)
		iterations += res.Iterations
		if castErr != nil {
			err = errors.Wrapf(castErr, "parts %d and %d", p.partA, p.partB)
			return false
		}
		if !res.Hit || (found && res.Toi >= best.Toi) {
			return true
		}

		best, found = Impact{
			Toi:         res.Toi,
			Normal:      res.Normal,
			PointA:      res.PointA.Add(a.Velocity.Mul(res.Toi)),
			PointB:      res.PointB.Add(b.Velocity.Mul(res.Toi)),
			Penetrating: res.Toi == 0 && res.Normal.LenSqr() == 0,
			PartA:       p.partA,
			PartB:       p.partB,
			Estimate:    res.Estimate,
		}, true
		return true
	})

	if err != nil {
		cfg.report("time of impact", Estimate{}, iterations, err)
		return Impact{}, false, err
	}
	best.Iterations = iterations
	cfg.report("time of impact", best.Estimate, iterations, nil)
	return best, found, nil
}

func finiteVec(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}

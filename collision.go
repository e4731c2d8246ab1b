package narrow

import (
	"math"

	"github.com/pkg/errors"

	"github.com/akmonengine/narrow/bounding"
	"github.com/akmonengine/narrow/epa"
	"github.com/akmonengine/narrow/gjk"
	"github.com/akmonengine/narrow/shape"
)

// partPair is one convex piece of each side of a query, with the gap between
// their world bounding boxes.
type partPair struct {
	a, b         shape.Placed
	partA, partB int
	gap          float64
}

func (p partPair) gjk() gjk.Pair {
	return gjk.Pair{A: p.a, B: p.b}
}

// forEachPart calls fn for every pair of convex parts of a and b, A-major.
// Iteration stops when fn returns false.
func forEachPart(a, b shape.Placed, fn func(p partPair) bool) {
	shape.Decompose(a.Shape, a.Pose, func(i int, pa shape.Placed) bool {
		boxA := bounding.AABBOf(pa.Shape, pa.Pose)
		keep := true
		shape.Decompose(b.Shape, b.Pose, func(j int, pb shape.Placed) bool {
			boxB := bounding.AABBOf(pb.Shape, pb.Pose)
			keep = fn(partPair{a: pa, b: pb, partA: i, partB: j, gap: boxA.Distance(boxB)})
			return keep
		})
		return keep
	})
}

// Contact runs GJK on every part pair and EPA on the overlapping ones. It
// returns the deepest overlap, or the closest separation when no part pair
// overlaps.
//
// Shapes whose penetration is within the EPA tolerance are reported as
// Separated at distance zero, so that an Overlapping result always has a
// positive depth.
func Contact(a, b shape.Placed, cfg Config) (Result, error) {
	if err := checkPair(a, b); err != nil {
		cfg.report("contact", Estimate{}, 0, err)
		return Result{}, err
	}

	var best Result
	found := false
	iterations := 0
	var err error

	forEachPart(a, b, func(p partPair) bool {
		if found && !reachable(best, p.gap) {
			return true
		}
		res, contactErr := contactConvex(p, cfg)
		iterations += res.Iterations
		if contactErr != nil {
			err = errors.Wrapf(contactErr, "parts %d and %d", p.partA, p.partB)
			return false
		}
		if !found || res.better(best) {
			best, found = res, true
		}
		return true
	})

	if err != nil {
		cfg.report("contact", Estimate{}, iterations, err)
		return Result{}, err
	}
	best.Iterations = iterations
	cfg.report("contact", best.Estimate, iterations, nil)
	return best, nil
}

// reachable reports whether a part pair whose bounding boxes are gap apart
// can produce a better result than best.
func reachable(best Result, gap float64) bool {
	if best.Status == Overlapping {
		return gap <= 0
	}
	return gap <= best.Distance
}

// contactConvex is the GJK then EPA query on two convex parts.
func contactConvex(p partPair, cfg Config) (Result, error) {
	pair := p.gjk()
	closest, err := gjk.Closest(pair, cfg.GJK)
	if err != nil {
		return Result{Iterations: closest.Iterations}, err
	}

	res := Result{PartA: p.partA, PartB: p.partB}
	if closest.Status == gjk.Separated {
		res.Status = Separated
		res.Distance = closest.Distance
		res.PointA, res.PointB = closest.PointA, closest.PointB
		res.Normal = separatedNormal(closest.PointA, closest.PointB)
		res.Iterations = closest.Iterations
		res.Estimate = closest.Estimate
		return res, nil
	}

	pen, err := epa.Penetration(pair, closest.Simplex, cfg.EPA)
	res.Iterations = closest.Iterations + pen.Iterations
	if err != nil {
		return res, err
	}

	res.Normal = pen.Normal
	res.PointA, res.PointB = pen.PointA, pen.PointB
	res.Estimate = pen.Estimate
	if !res.Estimate.LowConfidence {
		res.Estimate = closest.Estimate
	}
	if pen.Depth <= cfg.EPA.Tolerance {
		// Touching
		res.Status = Separated
		res.Distance = 0
		return res, nil
	}
	res.Status = Overlapping
	res.Depth = pen.Depth
	return res, nil
}

// Distance returns the separation distance of a and b, zero when they
// overlap. It never runs EPA.
func Distance(a, b shape.Placed, cfg Config) (float64, error) {
	if err := checkPair(a, b); err != nil {
		cfg.report("distance", Estimate{}, 0, err)
		return 0, err
	}

	best := math.Inf(1)
	var est Estimate
	iterations := 0
	var err error

	forEachPart(a, b, func(p partPair) bool {
		if p.gap >= best {
			return true
		}
		res, closestErr := gjk.Closest(p.gjk(), cfg.GJK)
		iterations += res.Iterations
		if closestErr != nil {
			err = errors.Wrapf(closestErr, "parts %d and %d", p.partA, p.partB)
			return false
		}
		if res.Status == gjk.Overlapping {
			best, est = 0, res.Estimate
			return false
		}
		if res.Distance < best {
			best, est = res.Distance, res.Estimate
		}
		return true
	})

	cfg.report("distance", est, iterations, err)
	if err != nil {
		return 0, err
	}
	return best, nil
}

// Intersects reports whether a and b overlap or touch, using the boolean GJK
// test that stops at the first separating plane. It is cheaper than Contact
// when neither the distance nor the depth is needed.
func Intersects(a, b shape.Placed, cfg Config) (bool, error) {
	if err := checkPair(a, b); err != nil {
		cfg.report("intersects", Estimate{}, 0, err)
		return false, err
	}

	hit := false
	var err error
	forEachPart(a, b, func(p partPair) bool {
		if p.gap > 0 {
			return true
		}
		var intersectErr error
		hit, _, intersectErr = gjk.Intersects(p.gjk(), cfg.GJK)
		if intersectErr != nil {
			err = errors.Wrapf(intersectErr, "parts %d and %d", p.partA, p.partB)
			return false
		}
		return !hit
	})

	cfg.report("intersects", Estimate{}, 0, err)
	if err != nil {
		return false, err
	}
	return hit, nil
}

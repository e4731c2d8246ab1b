package narrow

import (
	"github.com/pkg/errors"

	"github.com/akmonengine/narrow/epa"
	"github.com/akmonengine/narrow/gjk"
	"github.com/akmonengine/narrow/shape"
)

// ProximityStatus classifies two shapes against a distance margin.
type ProximityStatus int

const (
	// Disjoint shapes are farther apart than the margin.
	Disjoint ProximityStatus = iota
	// WithinMargin shapes do not overlap but are at most margin apart.
	// Touching shapes fall in this class.
	WithinMargin
	// Intersecting shapes overlap.
	Intersecting
)

func (p ProximityStatus) String() string {
	switch p {
	case WithinMargin:
		return "within margin"
	case Intersecting:
		return "intersecting"
	}
	return "disjoint"
}

// Proximity classifies a and b against margin, which must be non-negative.
// Part pairs whose bounding boxes are more than margin apart are never
// handed to GJK, and the query stops at the first intersecting pair.
func Proximity(a, b shape.Placed, margin float64, cfg Config) (ProximityStatus, error) {
	if !(margin >= 0) {
		return Disjoint, errors.Errorf("proximity margin must be non-negative, got %v", margin)
	}
	if err := checkPair(a, b); err != nil {
		cfg.report("proximity", Estimate{}, 0, err)
		return Disjoint, err
	}

	prox := Disjoint
	var est Estimate
	iterations := 0
	var err error

	forEachPart(a, b, func(p partPair) bool {
		if p.gap > margin {
			return true
		}
		res, closestErr := gjk.Closest(p.gjk(), cfg.GJK)
		iterations += res.Iterations
		if closestErr != nil {
			err = errors.Wrapf(closestErr, "parts %d and %d", p.partA, p.partB)
			return false
		}
		if res.Estimate.LowConfidence {
			est = res.Estimate
		}
		if res.Status == gjk.Separated {
			if res.Distance <= margin {
				prox = WithinMargin
			}
			return true
		}

		// Touching shapes may still enclose the origin: measure the depth
		// the way Contact does.
		pen, penErr := epa.Penetration(p.gjk(), res.Simplex, cfg.EPA)
		iterations += pen.Iterations
		if penErr != nil {
			err = errors.Wrapf(penErr, "parts %d and %d", p.partA, p.partB)
			return false
		}
		if pen.Estimate.LowConfidence {
			est = pen.Estimate
		}
		if pen.Depth <= cfg.EPA.Tolerance {
			prox = WithinMargin
			return true
		}
		prox = Intersecting
		return false
	})

	cfg.report("proximity", est, iterations, err)
	if err != nil {
		return Disjoint, err
	}
	return prox, nil
}

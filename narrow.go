// Package narrow answers pairwise geometric questions between convex shapes
// placed in a common world space: how far apart two shapes are, how deep they
// overlap, whether they come within a margin of each other and when they will
// touch under translation.
//
// Each query works on two shape.Placed values. Compound shapes are split
// into their convex parts before GJK and EPA run, part pairs whose bounding
// boxes cannot improve the answer are skipped, and the result records which
// parts produced it.
//
// Every function is safe for concurrent use: shapes are read-only and the
// working sets of GJK and EPA live on the stack of the call. ContactAll fans
// a batch of pairs out on a bounded worker pool.
package narrow

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/akmonengine/narrow/gjk"
	"github.com/akmonengine/narrow/shape"
)

var (
	// ErrDegenerateShape is returned by shape constructors given malformed
	// input.
	ErrDegenerateShape = shape.ErrDegenerateShape
	// ErrEmptyCompound is returned when building a compound without parts.
	ErrEmptyCompound = shape.ErrEmptyCompound
	// ErrNumericDegeneracy is returned when a query meets non-finite values.
	ErrNumericDegeneracy = gjk.ErrNumericDegeneracy
)

// Estimate flags results that are a best effort rather than a converged
// answer.
type Estimate = gjk.Estimate

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

// Result is the outcome of a contact query.
//
// A Separated result carries Distance >= 0 and the closest points of both
// shapes. An Overlapping result carries Depth > 0 and the deepest points:
// PointA is the point of A deepest inside B, PointB the point of B deepest
// inside A. In both cases Normal is a unit vector pointing from A toward B,
// zero only when separated shapes touch at a single point with no usable
// direction.
type Result struct {
	Status   Status
	Distance float64
	Depth    float64
	Normal   mgl64.Vec3
	PointA   mgl64.Vec3
	PointB   mgl64.Vec3

	// PartA and PartB index the compound parts the result comes from. They
	// are zero for convex shapes.
	PartA, PartB int
	// Iterations counts the GJK and EPA iterations of all part pairs.
	Iterations int
	Estimate   Estimate
}

// Overlaps reports whether the result is Overlapping.
func (r Result) Overlaps() bool {
	return r.Status == Overlapping
}

// SignedDistance is Distance for separated shapes and -Depth for overlapping
// ones.
func (r Result) SignedDistance() float64 {
	if r.Status == Overlapping {
		return -r.Depth
	}
	return r.Distance
}

// better reports whether r is a more significant contact than other: any
// overlap beats a separation, a deeper overlap beats a shallower one and a
// closer separation beats a farther one. Ties keep other.
func (r Result) better(other Result) bool {
	if r.Status != other.Status {
		return r.Status == Overlapping
	}
	if r.Status == Overlapping {
		return r.Depth > other.Depth
	}
	return r.Distance < other.Distance
}

// separatedNormal is the unit direction from a toward b, or zero.
func separatedNormal(a, b mgl64.Vec3) mgl64.Vec3 {
	d := b.Sub(a)
	l := d.Len()
	if l == 0 || math.IsNaN(l) {
		return mgl64.Vec3{}
	}
	return d.Mul(1 / l)
}

// checkPlaced rejects poses with non-finite components, which would only
// surface as NaN deep inside the iterations.
func checkPlaced(name string, p shape.Placed) error {
	if p.Shape == nil {
		return errors.Errorf("%s: nil shape", name)
	}
	t, q := p.Pose.Translation, p.Pose.Rotation
	values := [7]float64{t[0], t[1], t[2], q.W, q.V[0], q.V[1], q.V[2]}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrNumericDegeneracy, "%s: pose %v", name, p.Pose)
		}
	}
	return nil
}

func checkPair(a, b shape.Placed) error {
	if err := checkPlaced("shape A", a); err != nil {
		return err
	}
	return checkPlaced("shape B", b)
}

package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Part is one convex piece of a compound, placed relative to the compound frame.
type Part struct {
	Shape     Shape
	Transform Isometry
}

// Compound is a union of shapes. It does not need to be convex and is
// decomposed into its convex parts before any GJK or EPA call.
type Compound struct {
	parts []Part

	aabbMin, aabbMax mgl64.Vec3
	sphereCenter     mgl64.Vec3
	sphereRadius     float64
}

// NewCompound copies parts. Nested compounds are flattened so that every
// stored part is convex.
func NewCompound(parts []Part) (*Compound, error) {
	if len(parts) == 0 {
		return nil, ErrEmptyCompound
	}

	c := &Compound{}
	for i, p := range parts {
		if p.Shape == nil {
			return nil, errors.Wrapf(ErrDegenerateShape, "compound part %d has no shape", i)
		}
		if nested, ok := p.Shape.(*Compound); ok {
			for _, np := range nested.parts {
				c.parts = append(c.parts, Part{Shape: np.Shape, Transform: p.Transform.Mul(np.Transform)})
			}
			continue
		}
		c.parts = append(c.parts, p)
	}

	first := true
	for _, p := range c.parts {
		lmin, lmax := LocalAABB(p.Shape)
		wmin, wmax := TransformAABB(lmin, lmax, p.Transform)
		if first {
			c.aabbMin, c.aabbMax = wmin, wmax
			first = false
			continue
		}
		for i := 0; i < 3; i++ {
			c.aabbMin[i] = math.Min(c.aabbMin[i], wmin[i])
			c.aabbMax[i] = math.Max(c.aabbMax[i], wmax[i])
		}
	}

	c.sphereCenter = c.aabbMin.Add(c.aabbMax).Mul(0.5)
	c.sphereRadius = lo.Max(lo.Map(c.parts, func(p Part, _ int) float64 {
		center, radius := LocalBoundingSphere(p.Shape)
		return p.Transform.TransformPoint(center).Sub(c.sphereCenter).Len() + radius
	}))
	return c, nil
}

// NumParts returns the number of convex parts.
func (c *Compound) NumParts() int {
	return len(c.parts)
}

// Part returns the i-th convex part.
func (c *Compound) Part(i int) Part {
	return c.parts[i]
}

// Parts returns a copy of the convex parts.
func (c *Compound) Parts() []Part {
	return append([]Part(nil), c.parts...)
}

func (c *Compound) support(direction mgl64.Vec3) mgl64.Vec3 {
	var best mgl64.Vec3
	bestDot := math.Inf(-1)
	for _, p := range c.parts {
		s := Placed{Shape: p.Shape, Pose: p.Transform}.Support(direction)
		if d := s.Dot(direction); d > bestDot {
			best, bestDot = s, d
		}
	}
	return best
}

// Decompose calls fn for every convex piece of s placed in world space.
// A convex shape yields itself. Iteration stops when fn returns false.
func Decompose(s Shape, pose Isometry, fn func(index int, part Placed) bool) {
	c, ok := s.(*Compound)
	if !ok {
		fn(0, Placed{Shape: s, Pose: pose})
		return
	}
	for i, p := range c.parts {
		if !fn(i, Placed{Shape: p.Shape, Pose: pose.Mul(p.Transform)}) {
			return
		}
	}
}

// TransformAABB returns the axis-aligned box enclosing the local box [min, max]
// after applying m.
func TransformAABB(min, max mgl64.Vec3, m Isometry) (mgl64.Vec3, mgl64.Vec3) {
	center := m.TransformPoint(min.Add(max).Mul(0.5))
	half := max.Sub(min).Mul(0.5)
	rot := m.RotationMatrix()

	var extent mgl64.Vec3
	for i := 0; i < 3; i++ {
		extent[i] = math.Abs(rot.At(i, 0))*half[0] + math.Abs(rot.At(i, 1))*half[1] + math.Abs(rot.At(i, 2))*half[2]
	}
	return center.Sub(extent), center.Add(extent)
}

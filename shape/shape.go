// Package shape defines the convex primitives understood by the query engines
// and the support-mapping contract they all share.
//
// The variant set is closed: every function that needs per-variant behavior
// (Support, LocalAABB, LocalBoundingSphere, ContactFeature) is a single type
// switch over the variants declared in this package. Shapes are immutable
// values; none of the functions here mutate their inputs.
package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

var (
	// ErrDegenerateShape is returned by constructors given malformed input.
	ErrDegenerateShape = errors.New("degenerate shape")
	// ErrEmptyCompound is returned when a compound is built without parts.
	ErrEmptyCompound = errors.New("compound shape has no parts")
)

// Kind identifies a shape variant.
type Kind int

const (
	KindBall Kind = iota
	KindCuboid
	KindCapsule
	KindCone
	KindCylinder
	KindSegment
	KindTriangle
	KindConvexHull
	KindCompound
)

func (k Kind) String() string {
	switch k {
	case KindBall:
		return "ball"
	case KindCuboid:
		return "cuboid"
	case KindCapsule:
		return "capsule"
	case KindCone:
		return "cone"
	case KindCylinder:
		return "cylinder"
	case KindSegment:
		return "segment"
	case KindTriangle:
		return "triangle"
	case KindConvexHull:
		return "convex hull"
	case KindCompound:
		return "compound"
	}
	return "unknown"
}

// Shape is implemented only by the variants of this package.
type Shape interface {
	Kind() Kind
	shape()
}

// Ball is a sphere centered on the local origin. A zero radius ball is a point.
type Ball struct {
	Radius float64
}

// Cuboid is a box centered on the local origin.
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Cuboid struct {
	HalfExtents mgl64.Vec3
}

// Capsule is a segment from (0,-HalfHeight,0) to (0,HalfHeight,0) dilated by Radius.
type Capsule struct {
	HalfHeight float64
	Radius     float64
}

// Cone has its apex at (0,HalfHeight,0) and its base disc of the given Radius
// in the plane y = -HalfHeight.
type Cone struct {
	HalfHeight float64
	Radius     float64
}

// Cylinder is aligned with the local Y axis.
type Cylinder struct {
	HalfHeight float64
	Radius     float64
}

// Segment is the line segment between A and B.
type Segment struct {
	A, B mgl64.Vec3
}

// Triangle is a flat triangle. Its vertices are expected counter-clockwise when
// seen from the side its Normal points to.
type Triangle struct {
	A, B, C mgl64.Vec3
}

func (Ball) Kind() Kind        { return KindBall }
func (Cuboid) Kind() Kind      { return KindCuboid }
func (Capsule) Kind() Kind     { return KindCapsule }
func (Cone) Kind() Kind        { return KindCone }
func (Cylinder) Kind() Kind    { return KindCylinder }
func (Segment) Kind() Kind     { return KindSegment }
func (Triangle) Kind() Kind    { return KindTriangle }
func (*ConvexHull) Kind() Kind { return KindConvexHull }
func (*Compound) Kind() Kind   { return KindCompound }

func (Ball) shape()        {}
func (Cuboid) shape()      {}
func (Capsule) shape()     {}
func (Cone) shape()        {}
func (Cylinder) shape()    {}
func (Segment) shape()     {}
func (Triangle) shape()    {}
func (*ConvexHull) shape() {}
func (*Compound) shape()   {}

// IsConvex reports whether s can be handed directly to GJK/EPA.
func IsConvex(s Shape) bool {
	return s.Kind() != KindCompound
}

// NewBall validates the radius. Zero is accepted and yields a point.
func NewBall(radius float64) (Ball, error) {
	if !validLength(radius) {
		return Ball{}, errors.Wrapf(ErrDegenerateShape, "ball radius %v", radius)
	}
	return Ball{Radius: radius}, nil
}

// NewCuboid validates that every half-extent is finite and non-negative.
func NewCuboid(halfExtents mgl64.Vec3) (Cuboid, error) {
	for i := 0; i < 3; i++ {
		if !validLength(halfExtents[i]) {
			return Cuboid{}, errors.Wrapf(ErrDegenerateShape, "cuboid half-extents %v", halfExtents)
		}
	}
	return Cuboid{HalfExtents: halfExtents}, nil
}

func NewCapsule(halfHeight, radius float64) (Capsule, error) {
	if !validLength(halfHeight) || !validLength(radius) {
		return Capsule{}, errors.Wrapf(ErrDegenerateShape, "capsule half-height %v radius %v", halfHeight, radius)
	}
	return Capsule{HalfHeight: halfHeight, Radius: radius}, nil
}

func NewCone(halfHeight, radius float64) (Cone, error) {
	if !validLength(halfHeight) || !validLength(radius) || halfHeight == 0 {
		return Cone{}, errors.Wrapf(ErrDegenerateShape, "cone half-height %v radius %v", halfHeight, radius)
	}
	return Cone{HalfHeight: halfHeight, Radius: radius}, nil
}

func NewCylinder(halfHeight, radius float64) (Cylinder, error) {
	if !validLength(halfHeight) || !validLength(radius) {
		return Cylinder{}, errors.Wrapf(ErrDegenerateShape, "cylinder half-height %v radius %v", halfHeight, radius)
	}
	return Cylinder{HalfHeight: halfHeight, Radius: radius}, nil
}

// NewSegment rejects coincident or non-finite endpoints.
func NewSegment(a, b mgl64.Vec3) (Segment, error) {
	if !finiteVec(a) || !finiteVec(b) || b.Sub(a).LenSqr() < epsilon*epsilon {
		return Segment{}, errors.Wrapf(ErrDegenerateShape, "segment %v %v", a, b)
	}
	return Segment{A: a, B: b}, nil
}

// NewTriangle rejects collinear or non-finite vertices.
func NewTriangle(a, b, c mgl64.Vec3) (Triangle, error) {
	if !finiteVec(a) || !finiteVec(b) || !finiteVec(c) {
		return Triangle{}, errors.Wrapf(ErrDegenerateShape, "triangle %v %v %v", a, b, c)
	}
	scale := math.Max(b.Sub(a).LenSqr(), c.Sub(a).LenSqr())
	if b.Sub(a).Cross(c.Sub(a)).LenSqr() <= epsilon*epsilon*scale*scale {
		return Triangle{}, errors.Wrapf(ErrDegenerateShape, "collinear triangle %v %v %v", a, b, c)
	}
	return Triangle{A: a, B: b, C: c}, nil
}

// Normal returns the unit normal of the triangle, following the A, B, C winding.
func (t Triangle) Normal() mgl64.Vec3 {
	n := t.B.Sub(t.A).Cross(t.C.Sub(t.A))
	l := n.Len()
	if l == 0 {
		return mgl64.Vec3{}
	}
	return n.Mul(1 / l)
}

const epsilon = 1e-9

func validLength(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func finiteVec(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}

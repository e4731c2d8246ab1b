package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Support returns a point of s maximizing the dot product with direction, both
// expressed in the local frame of s. direction does not need to be normalized.
//
// Ties are broken deterministically: a zero direction component selects the
// positive half-extent of cuboids and the first maximizing vertex of polytopes.
//
// Compound shapes are not convex; their support is the support of the convex
// hull of their parts, which GJK/EPA never rely on (compounds are decomposed
// before those engines run).
func Support(s Shape, direction mgl64.Vec3) mgl64.Vec3 {
	switch v := s.(type) {
	case Ball:
		return supportBall(v, direction)
	case Cuboid:
		return supportCuboid(v, direction)
	case Capsule:
		return supportCapsule(v, direction)
	case Cone:
		return supportCone(v, direction)
	case Cylinder:
		return supportCylinder(v, direction)
	case Segment:
		if direction.Dot(v.B) > direction.Dot(v.A) {
			return v.B
		}
		return v.A
	case Triangle:
		return supportPoints([]mgl64.Vec3{v.A, v.B, v.C}, direction)
	case *ConvexHull:
		return v.support(direction)
	case *Compound:
		return v.support(direction)
	}
	panic("shape: unknown variant")
}

func supportBall(b Ball, direction mgl64.Vec3) mgl64.Vec3 {
	l := direction.Len()
	if l == 0 {
		return mgl64.Vec3{0, b.Radius, 0}
	}
	return direction.Mul(b.Radius / l)
}

func supportCuboid(b Cuboid, direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}

	return mgl64.Vec3{hx, hy, hz}
}

func supportCapsule(c Capsule, direction mgl64.Vec3) mgl64.Vec3 {
	center := mgl64.Vec3{0, c.HalfHeight, 0}
	if direction.Y() < 0 {
		center[1] = -c.HalfHeight
	}
	return center.Add(supportBall(Ball{Radius: c.Radius}, direction))
}

// radial returns the component of direction orthogonal to Y, scaled to radius.
func radial(direction mgl64.Vec3, radius float64) mgl64.Vec3 {
	l := math.Hypot(direction.X(), direction.Z())
	if l == 0 {
		return mgl64.Vec3{}
	}
	return mgl64.Vec3{direction.X() * radius / l, 0, direction.Z() * radius / l}
}

func supportCylinder(c Cylinder, direction mgl64.Vec3) mgl64.Vec3 {
	p := radial(direction, c.Radius)
	if direction.Y() < 0 {
		p[1] = -c.HalfHeight
	} else {
		p[1] = c.HalfHeight
	}
	return p
}

func supportCone(c Cone, direction mgl64.Vec3) mgl64.Vec3 {
	apex := mgl64.Vec3{0, c.HalfHeight, 0}
	rim := radial(direction, c.Radius)
	rim[1] = -c.HalfHeight
	if apex.Dot(direction) >= rim.Dot(direction) {
		return apex
	}
	return rim
}

// supportPoints is the brute-force support of a point cloud. The first maximum wins.
func supportPoints(points []mgl64.Vec3, direction mgl64.Vec3) mgl64.Vec3 {
	best := 0
	bestDot := points[0].Dot(direction)
	for i := 1; i < len(points); i++ {
		if d := points[i].Dot(direction); d > bestDot {
			best, bestDot = i, d
		}
	}
	return points[best]
}

// Placed is a shape positioned in world space.
type Placed struct {
	Shape Shape
	Pose  Isometry
}

// Support returns the world-space support point along a world-space direction.
func (p Placed) Support(direction mgl64.Vec3) mgl64.Vec3 {
	return p.Pose.TransformPoint(Support(p.Shape, p.Pose.InverseRotate(direction)))
}

// Center returns the world-space center of the local bounding sphere.
func (p Placed) Center() mgl64.Vec3 {
	c, _ := LocalBoundingSphere(p.Shape)
	return p.Pose.TransformPoint(c)
}

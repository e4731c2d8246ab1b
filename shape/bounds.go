package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// LocalAABB returns the axis-aligned box enclosing s in its local frame.
func LocalAABB(s Shape) (min, max mgl64.Vec3) {
	switch v := s.(type) {
	case Ball:
		r := mgl64.Vec3{v.Radius, v.Radius, v.Radius}
		return r.Mul(-1), r
	case Cuboid:
		return v.HalfExtents.Mul(-1), v.HalfExtents
	case Capsule:
		e := mgl64.Vec3{v.Radius, v.HalfHeight + v.Radius, v.Radius}
		return e.Mul(-1), e
	case Cone:
		e := mgl64.Vec3{v.Radius, v.HalfHeight, v.Radius}
		return e.Mul(-1), e
	case Cylinder:
		e := mgl64.Vec3{v.Radius, v.HalfHeight, v.Radius}
		return e.Mul(-1), e
	case Segment:
		return pointsAABB([]mgl64.Vec3{v.A, v.B})
	case Triangle:
		return pointsAABB([]mgl64.Vec3{v.A, v.B, v.C})
	case *ConvexHull:
		return v.aabbMin, v.aabbMax
	case *Compound:
		return v.aabbMin, v.aabbMax
	}
	panic("shape: unknown variant")
}

// LocalBoundingSphere returns a sphere enclosing s in its local frame.
func LocalBoundingSphere(s Shape) (center mgl64.Vec3, radius float64) {
	switch v := s.(type) {
	case Ball:
		return mgl64.Vec3{}, v.Radius
	case Cuboid:
		return mgl64.Vec3{}, v.HalfExtents.Len()
	case Capsule:
		return mgl64.Vec3{}, v.HalfHeight + v.Radius
	case Cone:
		return mgl64.Vec3{}, math.Hypot(v.Radius, v.HalfHeight)
	case Cylinder:
		return mgl64.Vec3{}, math.Hypot(v.Radius, v.HalfHeight)
	case Segment:
		return v.A.Add(v.B).Mul(0.5), v.B.Sub(v.A).Len() / 2
	case Triangle:
		return pointsSphere([]mgl64.Vec3{v.A, v.B, v.C})
	case *ConvexHull:
		return v.sphereCenter, v.sphereRadius
	case *Compound:
		return v.sphereCenter, v.sphereRadius
	}
	panic("shape: unknown variant")
}

func pointsAABB(points []mgl64.Vec3) (min, max mgl64.Vec3) {
	min, max = points[0], points[0]
	for _, p := range points[1:] {
		for i := 0; i < 3; i++ {
			min[i] = math.Min(min[i], p[i])
			max[i] = math.Max(max[i], p[i])
		}
	}
	return min, max
}

// pointsSphere centers the sphere on the AABB center. The result is not minimal.
func pointsSphere(points []mgl64.Vec3) (mgl64.Vec3, float64) {
	min, max := pointsAABB(points)
	center := min.Add(max).Mul(0.5)
	radius := 0.0
	for _, p := range points {
		radius = math.Max(radius, p.Sub(center).Len())
	}
	return center, radius
}

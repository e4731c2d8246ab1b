package bounding

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/narrow/shape"
)

// Sphere is a bounding sphere in world space.
type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

// SphereOf returns a world-space sphere enclosing s placed at pose. Rotations
// do not change the radius, so the local sphere is only moved.
func SphereOf(s shape.Shape, pose shape.Isometry) Sphere {
	if c, ok := s.(*shape.Compound); ok {
		var out Sphere
		for i := 0; i < c.NumParts(); i++ {
			p := c.Part(i)
			part := SphereOf(p.Shape, pose.Mul(p.Transform))
			if i == 0 {
				out = part
				continue
			}
			out = out.Merge(part)
		}
		return out
	}

	center, radius := shape.LocalBoundingSphere(s)
	return Sphere{Center: pose.TransformPoint(center), Radius: radius}
}

func (s Sphere) ContainsPoint(point mgl64.Vec3) bool {
	return point.Sub(s.Center).LenSqr() <= s.Radius*s.Radius
}

func (s Sphere) Overlaps(other Sphere) bool {
	r := s.Radius + other.Radius
	return s.Center.Sub(other.Center).LenSqr() <= r*r
}

// Merge returns the smallest sphere enclosing both s and other.
func (s Sphere) Merge(other Sphere) Sphere {
	d := other.Center.Sub(s.Center)
	dist := d.Len()
	if dist+other.Radius <= s.Radius {
		return s
	}
	if dist+s.Radius <= other.Radius {
		return other
	}
	radius := (dist + s.Radius + other.Radius) / 2
	center := s.Center.Add(d.Mul((radius - s.Radius) / dist))
	return Sphere{Center: center, Radius: radius}
}

// AABB returns the box enclosing the sphere.
func (s Sphere) AABB() AABB {
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return AABB{Min: s.Center.Sub(r), Max: s.Center.Add(r)}
}

// Distance returns the gap between two spheres, zero when they overlap.
func (s Sphere) Distance(other Sphere) float64 {
	return math.Max(0, s.Center.Sub(other.Center).Len()-s.Radius-other.Radius)
}

// Package bounding builds world-space bounding volumes for shapes. The volumes
// are meant for an external broad phase and are never consulted by GJK or EPA.
package bounding

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/narrow/shape"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// AABBOf returns the world-space box enclosing s placed at pose.
// For a compound, the result is the union of the transformed part boxes.
func AABBOf(s shape.Shape, pose shape.Isometry) AABB {
	if c, ok := s.(*shape.Compound); ok {
		var box AABB
		for i := 0; i < c.NumParts(); i++ {
			p := c.Part(i)
			partBox := AABBOf(p.Shape, pose.Mul(p.Transform))
			if i == 0 {
				box = partBox
				continue
			}
			box = box.Merge(partBox)
		}
		return box
	}

	if b, ok := s.(shape.Ball); ok {
		r := mgl64.Vec3{b.Radius, b.Radius, b.Radius}
		return AABB{Min: pose.Translation.Sub(r), Max: pose.Translation.Add(r)}
	}

	min, max := shape.LocalAABB(s)
	min, max = shape.TransformAABB(min, max, pose)
	return AABB{Min: min, Max: max}
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on all three axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Merge returns the smallest box enclosing both a and other.
func (a AABB) Merge(other AABB) AABB {
	var out AABB
	for i := 0; i < 3; i++ {
		out.Min[i] = math.Min(a.Min[i], other.Min[i])
		out.Max[i] = math.Max(a.Max[i], other.Max[i])
	}
	return out
}

// Loosened returns a grown by margin on every side.
func (a AABB) Loosened(margin float64) AABB {
	m := mgl64.Vec3{margin, margin, margin}
	return AABB{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

func (a AABB) HalfExtents() mgl64.Vec3 {
	return a.Max.Sub(a.Min).Mul(0.5)
}

// Distance returns the gap between two boxes, zero when they overlap.
// It is a lower bound on the distance between any shapes they enclose.
func (a AABB) Distance(other AABB) float64 {
	var gap mgl64.Vec3
	for i := 0; i < 3; i++ {
		gap[i] = math.Max(0, math.Max(other.Min[i]-a.Max[i], a.Min[i]-other.Max[i]))
	}
	return gap.Len()
}

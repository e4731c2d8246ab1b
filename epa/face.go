package epa

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// NormalSnapThreshold is used to clamp nearly-zero normal components to exactly zero.
// This helps with numerical stability and axis-aligned collisions.
const NormalSnapThreshold = 1e-8

// Face is a triangle of the polytope, indexing its vertices counter-clockwise
// when seen from outside.
type Face struct {
	Vertices [3]int
	Normal   mgl64.Vec3 // outward unit normal
	Distance float64    // signed distance from the origin to the face plane
}

// degenerate reports whether the face has no usable plane.
func (f *Face) degenerate() bool {
	return math.IsInf(f.Distance, 1)
}

// hasEdge reports whether a and c are both vertices of the face.
func (f *Face) hasEdge(a, c int) bool {
	hasA, hasC := false, false
	for _, v := range f.Vertices {
		hasA = hasA || v == a
		hasC = hasC || v == c
	}
	return hasA && hasC
}

// EdgeEntry is a directed edge of the horizon.
type EdgeEntry struct {
	A, B int
}

// snapNormalToAxis clamps nearly-zero components of a normal vector to exactly zero.
//
// This improves numerical stability for axis-aligned contacts by preventing
// tiny floating-point errors from leaking into tangent directions.
//
// Components with absolute value < NormalSnapThreshold are set to 0, then the
// vector is renormalized.
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	const threshold = NormalSnapThreshold

	x := normal[0]
	y := normal[1]
	z := normal[2]

	if math.Abs(x) < threshold {
		x = 0
	}
	if math.Abs(y) < threshold {
		y = 0
	}
	if math.Abs(z) < threshold {
		z = 0
	}

	clamped := mgl64.Vec3{x, y, z}

	// Renormalize (important!)
	length := math.Sqrt(clamped.Dot(clamped))
	if length > 1e-8 {
		clamped = clamped.Mul(1.0 / length)
	} else {
		// If all components were clamped to zero, return default
		return mgl64.Vec3{0, 1, 0}
	}

	return clamped
}

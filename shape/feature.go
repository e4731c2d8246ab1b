package shape

import (
	"cmp"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

const (
	// featureAlignment is the minimum cosine between a direction and a face
	// normal for the face to be reported as the contact feature.
	featureAlignment = 0.999

	// coplanarTolerance bounds the normal and offset differences of hull
	// triangles merged into one face polygon.
	coplanarTolerance = 1e-9
)

// ContactFeature returns the local-frame vertices of the feature of s most
// aligned with direction: a face polygon (counter-clockwise seen from outside),
// an edge, or a single support point.
func ContactFeature(s Shape, direction mgl64.Vec3) []mgl64.Vec3 {
	l := direction.Len()
	if l == 0 {
		return []mgl64.Vec3{Support(s, direction)}
	}
	dir := direction.Mul(1 / l)

	switch v := s.(type) {
	case Cuboid:
		return cuboidFeature(v, dir)
	case Cylinder:
		return cylinderFeature(v, dir)
	case Capsule:
		axis := mgl64.Vec3{0, 1, 0}
		if math.Abs(dir.Dot(axis)) < 1-featureAlignment {
			offset := radial(dir, v.Radius)
			return []mgl64.Vec3{
				offset.Add(mgl64.Vec3{0, -v.HalfHeight, 0}),
				offset.Add(mgl64.Vec3{0, v.HalfHeight, 0}),
			}
		}
	case Segment:
		axis := v.B.Sub(v.A).Normalize()
		if math.Abs(dir.Dot(axis)) < 1-featureAlignment {
			return []mgl64.Vec3{v.A, v.B}
		}
	case Triangle:
		if n := v.Normal(); math.Abs(n.Dot(dir)) >= featureAlignment {
			if n.Dot(dir) > 0 {
				return []mgl64.Vec3{v.A, v.B, v.C}
			}
			return []mgl64.Vec3{v.A, v.C, v.B}
		}
	case *ConvexHull:
		if face := hullFeature(v, dir); face != nil {
			return face
		}
	}
	return []mgl64.Vec3{Support(s, dir)}
}

func cuboidFeature(b Cuboid, dir mgl64.Vec3) []mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	// Six faces, vertices counter-clockwise seen from outside.
	faces := [6]struct {
		normal   mgl64.Vec3
		vertices [4]mgl64.Vec3
	}{
		{normal: mgl64.Vec3{1, 0, 0}, vertices: [4]mgl64.Vec3{{hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}, {hx, -hy, hz}}},
		{normal: mgl64.Vec3{-1, 0, 0}, vertices: [4]mgl64.Vec3{{-hx, -hy, hz}, {-hx, hy, hz}, {-hx, hy, -hz}, {-hx, -hy, -hz}}},
		{normal: mgl64.Vec3{0, 1, 0}, vertices: [4]mgl64.Vec3{{-hx, hy, -hz}, {-hx, hy, hz}, {hx, hy, hz}, {hx, hy, -hz}}},
		{normal: mgl64.Vec3{0, -1, 0}, vertices: [4]mgl64.Vec3{{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, -hy, hz}, {-hx, -hy, hz}}},
		{normal: mgl64.Vec3{0, 0, 1}, vertices: [4]mgl64.Vec3{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}},
		{normal: mgl64.Vec3{0, 0, -1}, vertices: [4]mgl64.Vec3{{-hx, -hy, -hz}, {-hx, hy, -hz}, {hx, hy, -hz}, {hx, -hy, -hz}}},
	}

	best := 0
	bestDot := math.Inf(-1)
	for i, face := range faces {
		if d := dir.Dot(face.normal); d > bestDot {
			best, bestDot = i, d
		}
	}
	return faces[best].vertices[:]
}

func cylinderFeature(c Cylinder, dir mgl64.Vec3) []mgl64.Vec3 {
	if math.Abs(dir.Y()) >= featureAlignment {
		y := c.HalfHeight
		if dir.Y() < 0 {
			y = -y
		}
		r := c.Radius
		rim := []mgl64.Vec3{{r, y, 0}, {0, y, -r}, {-r, y, 0}, {0, y, r}}
		if y < 0 {
			rim[1], rim[3] = rim[3], rim[1]
		}
		return rim
	}
	if math.Abs(dir.Y()) < 1-featureAlignment {
		p := radial(dir, c.Radius)
		return []mgl64.Vec3{
			{p.X(), -c.HalfHeight, p.Z()},
			{p.X(), c.HalfHeight, p.Z()},
		}
	}
	return []mgl64.Vec3{supportCylinder(c, dir)}
}

// hullFeature returns the face of h most aligned with dir as one polygon:
// the hull stores triangles, and every triangle on the plane of the best one
// contributes its vertices. It returns nil when no face is aligned enough.
func hullFeature(h *ConvexHull, dir mgl64.Vec3) []mgl64.Vec3 {
	best, bestDot := -1, featureAlignment
	for i, f := range h.faces {
		if d := f.Normal.Dot(dir); d >= bestDot {
			best, bestDot = i, d
		}
	}
	if best < 0 {
		return nil
	}

	ref := h.faces[best]
	offsetTol := coplanarTolerance * math.Max(1, math.Abs(ref.Offset))
	var indices []int
	for _, f := range h.faces {
		if f.Normal.Dot(ref.Normal) >= 1-coplanarTolerance && math.Abs(f.Offset-ref.Offset) <= offsetTol {
			indices = append(indices, f.Indices[:]...)
		}
	}
	polygon := lo.Map(lo.Uniq(indices), func(i int, _ int) mgl64.Vec3 {
		return h.points[i]
	})

	// Counter-clockwise around the outward normal
	var center mgl64.Vec3
	for _, p := range polygon {
		center = center.Add(p)
	}
	center = center.Mul(1 / float64(len(polygon)))
	u := polygon[0].Sub(center).Normalize()
	w := ref.Normal.Cross(u)
	angle := func(p mgl64.Vec3) float64 {
		d := p.Sub(center)
		return math.Atan2(d.Dot(w), d.Dot(u))
	}
	slices.SortFunc(polygon, func(a, b mgl64.Vec3) int {
		return cmp.Compare(angle(a), angle(b))
	})
	return polygon
}

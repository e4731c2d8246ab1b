package query

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/akmonengine/narrow/gjk"
	"github.com/akmonengine/narrow/shape"
)

// containsTolerance is the distance under which a point is considered to lie
// on the boundary.
const containsTolerance = 1e-9

// PointProjection is the closest boundary point of a shape to a query point.
type PointProjection struct {
	Point mgl64.Vec3
	// Distance is signed: negative when the query point is inside.
	Distance float64
	Inside   bool
	// Part is the index of the compound part the projection lies on.
	Part       int
	Iterations int
	Estimate   gjk.Estimate
}

// ProjectPoint returns the point of the boundary of s closest to point, with
// the signed distance between them.
//
// Outside points are projected with GJK against a point shape. Inside points
// use the direct interior distance of each variant. For a compound, an inside
// point reports the deepest part containing it, which may underestimate the
// depth in the union where parts overlap.
func ProjectPoint(s shape.Shape, pose shape.Isometry, point mgl64.Vec3, cfg gjk.Config) (PointProjection, error) {
	if s == nil {
		return PointProjection{}, errors.Wrap(shape.ErrDegenerateShape, "nil shape")
	}
	if !finite(point) {
		return PointProjection{}, errors.Wrapf(gjk.ErrNumericDegeneracy, "point %v", point)
	}
	if c, ok := s.(*shape.Compound); ok {
		return projectCompound(c, pose, point, cfg)
	}

	local := pose.InverseTransformPoint(point)
	if closest, depth, inside := interior(s, local); inside {
		return PointProjection{
			Point:    pose.TransformPoint(closest),
			Distance: -depth,
			Inside:   true,
		}, nil
	}

	pair := gjk.Pair{
		A: shape.Placed{Shape: s, Pose: pose},
		B: shape.Placed{Shape: shape.Ball{}, Pose: shape.Translation(point)},
	}
	res, err := gjk.Closest(pair, cfg)
	if err != nil {
		return PointProjection{}, err
	}
	proj := PointProjection{
		Point:      res.PointA,
		Distance:   res.Distance,
		Iterations: res.Iterations,
		Estimate:   res.Estimate,
	}
	if res.Status == gjk.Overlapping {
		// Within the tolerance of the boundary
		proj.Point = point
		proj.Distance = 0
	}
	return proj, nil
}

func projectCompound(c *shape.Compound, pose shape.Isometry, point mgl64.Vec3, cfg gjk.Config) (PointProjection, error) {
	var best PointProjection
	found := false
	iterations := 0
	var err error

	shape.Decompose(c, pose, func(i int, part shape.Placed) bool {
		proj, projErr := ProjectPoint(part.Shape, part.Pose, point, cfg)
		if projErr != nil {
			err = projErr
			return false
		}
		iterations += proj.Iterations
		if !found || proj.Distance < best.Distance {
			best, found = proj, true
			best.Part = i
		}
		return true
	})

	if err != nil {
		return PointProjection{}, err
	}
	best.Iterations = iterations
	return best, nil
}

// ContainsPoint reports whether point lies inside s placed at pose, boundary
// included.
func ContainsPoint(s shape.Shape, pose shape.Isometry, point mgl64.Vec3) bool {
	if s == nil {
		return false
	}
	contains := false
	shape.Decompose(s, pose, func(_ int, part shape.Placed) bool {
		contains = containsLocal(part.Shape, part.Pose.InverseTransformPoint(point))
		return !contains
	})
	return contains
}

func containsLocal(s shape.Shape, p mgl64.Vec3) bool {
	const tol = containsTolerance

	switch v := s.(type) {
	case shape.Ball:
		return p.Len() <= v.Radius+tol
	case shape.Cuboid:
		for i := 0; i < 3; i++ {
			if math.Abs(p[i]) > v.HalfExtents[i]+tol {
				return false
			}
		}
		return true
	case shape.Capsule:
		q := mgl64.Vec3{0, mgl64.Clamp(p.Y(), -v.HalfHeight, v.HalfHeight), 0}
		return p.Sub(q).Len() <= v.Radius+tol
	case shape.Cylinder:
		return math.Abs(p.Y()) <= v.HalfHeight+tol && math.Hypot(p.X(), p.Z()) <= v.Radius+tol
	case shape.Cone:
		if math.Abs(p.Y()) > v.HalfHeight+tol {
			return false
		}
		return coneSideDistance(p, v) <= tol
	case shape.Segment:
		return segmentClosest(v.A, v.B, p).Sub(p).Len() <= tol
	case shape.Triangle:
		return triangleClosest(v.A, v.B, v.C, p).Sub(p).Len() <= tol
	case *shape.ConvexHull:
		for i := 0; i < v.NumFaces(); i++ {
			f := v.Face(i)
			if f.Normal.Dot(p)-f.Offset > tol {
				return false
			}
		}
		return true
	}
	return false
}

// interior returns the closest boundary point and the depth of a point lying
// strictly inside a solid shape. Segments and triangles have no interior.
func interior(s shape.Shape, p mgl64.Vec3) (mgl64.Vec3, float64, bool) {
	switch v := s.(type) {
	case shape.Ball:
		return ballInterior(p, mgl64.Vec3{}, v.Radius, mgl64.Vec3{0, 1, 0})
	case shape.Cuboid:
		return cuboidInterior(p, v.HalfExtents)
	case shape.Capsule:
		q := mgl64.Vec3{0, mgl64.Clamp(p.Y(), -v.HalfHeight, v.HalfHeight), 0}
		return ballInterior(p, q, v.Radius, mgl64.Vec3{1, 0, 0})
	case shape.Cylinder:
		return cylinderInterior(p, v)
	case shape.Cone:
		return coneInterior(p, v)
	case *shape.ConvexHull:
		return hullInterior(p, v)
	}
	return mgl64.Vec3{}, 0, false
}

// ballInterior handles the points inside a ball centered on c. fallback is
// the projection direction of the center itself.
func ballInterior(p, c mgl64.Vec3, radius float64, fallback mgl64.Vec3) (mgl64.Vec3, float64, bool) {
	off := p.Sub(c)
	l := off.Len()
	if l >= radius {
		return mgl64.Vec3{}, 0, false
	}
	dir := fallback
	if l > 0 {
		dir = off.Mul(1 / l)
	}
	return c.Add(dir.Mul(radius)), radius - l, true
}

func cuboidInterior(p, half mgl64.Vec3) (mgl64.Vec3, float64, bool) {
	axis := -1
	depth := math.Inf(1)
	for i := 0; i < 3; i++ {
		gap := half[i] - math.Abs(p[i])
		if gap <= 0 {
			return mgl64.Vec3{}, 0, false
		}
		if gap < depth {
			axis, depth = i, gap
		}
	}

	closest := p
	closest[axis] = math.Copysign(half[axis], p[axis])
	if p[axis] == 0 {
		closest[axis] = half[axis]
	}
	return closest, depth, true
}

func cylinderInterior(p mgl64.Vec3, c shape.Cylinder) (mgl64.Vec3, float64, bool) {
	rho := math.Hypot(p.X(), p.Z())
	side := c.Radius - rho
	top := c.HalfHeight - p.Y()
	bottom := c.HalfHeight + p.Y()
	if side <= 0 || top <= 0 || bottom <= 0 {
		return mgl64.Vec3{}, 0, false
	}

	switch {
	case side <= top && side <= bottom:
		u := mgl64.Vec3{1, 0, 0}
		if rho > 0 {
			u = mgl64.Vec3{p.X() / rho, 0, p.Z() / rho}
		}
		return mgl64.Vec3{u.X() * c.Radius, p.Y(), u.Z() * c.Radius}, side, true
	case top <= bottom:
		return mgl64.Vec3{p.X(), c.HalfHeight, p.Z()}, top, true
	}
	return mgl64.Vec3{p.X(), -c.HalfHeight, p.Z()}, bottom, true
}

// coneSideNormal is the outward unit normal of the lateral line of the cone
// profile in the (radius, height) half-plane.
func coneSideNormal(c shape.Cone) (float64, float64) {
	l := math.Hypot(2*c.HalfHeight, c.Radius)
	return 2 * c.HalfHeight / l, c.Radius / l
}

// coneSideDistance is the signed distance from p to the infinite lateral
// surface, negative on the axis side.
func coneSideDistance(p mgl64.Vec3, c shape.Cone) float64 {
	nr, ny := coneSideNormal(c)
	rho := math.Hypot(p.X(), p.Z())
	return rho*nr + (p.Y()-c.HalfHeight)*ny
}

// coneInterior works in the meridian half-plane through p, where the cone is
// the triangle of apex (0, h), rim (r, -h) and base center (0, -h).
func coneInterior(p mgl64.Vec3, c shape.Cone) (mgl64.Vec3, float64, bool) {
	side := -coneSideDistance(p, c)
	base := c.HalfHeight + p.Y()
	if side <= 0 || base <= 0 || p.Y() >= c.HalfHeight {
		return mgl64.Vec3{}, 0, false
	}

	if base < side {
		return mgl64.Vec3{p.X(), -c.HalfHeight, p.Z()}, base, true
	}

	rho := math.Hypot(p.X(), p.Z())
	u := mgl64.Vec3{1, 0, 0}
	if rho > 0 {
		u = mgl64.Vec3{p.X() / rho, 0, p.Z() / rho}
	}
	nr, ny := coneSideNormal(c)
	rho += side * nr
	return u.Mul(rho).Add(mgl64.Vec3{0, p.Y() + side*ny, 0}), side, true
}

func hullInterior(p mgl64.Vec3, h *shape.ConvexHull) (mgl64.Vec3, float64, bool) {
	best := -1
	bestDist := math.Inf(-1)
	for i := 0; i < h.NumFaces(); i++ {
		f := h.Face(i)
		d := f.Normal.Dot(p) - f.Offset
		if d >= 0 {
			return mgl64.Vec3{}, 0, false
		}
		if d > bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return mgl64.Vec3{}, 0, false
	}
	return p.Sub(h.Face(best).Normal.Mul(bestDist)), -bestDist, true
}

// segmentClosest returns the point of [a, b] closest to p.
func segmentClosest(a, b, p mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	l := ab.LenSqr()
	if l == 0 {
		return a
	}
	t := mgl64.Clamp(p.Sub(a).Dot(ab)/l, 0, 1)
	return a.Add(ab.Mul(t))
}

// triangleClosest returns the point of triangle abc closest to p
// (Ericson, Real-Time Collision Detection 5.1.5).
func triangleClosest(a, b, c, p mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Mul(d1 / (d1 - d3)))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Mul(d2 / (d2 - d6)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(w))
	}

	denom := va + vb + vc
	if denom == 0 {
		return segmentClosest(a, b, p)
	}
	v := vb / denom
	w := vc / denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}

package gjk

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Intersects performs the boolean GJK test between two convex shapes.
//
// Unlike Closest it never refines a distance: it stops as soon as a separating
// plane is found, or as soon as the simplex encloses the origin. Touching
// shapes are reported as intersecting.
//
// The returned simplex contains 1-4 vertices. When the shapes intersect it is
// usually a tetrahedron containing the origin. A non-finite support point
// yields ErrNumericDegeneracy.
func Intersects(pair Pair, cfg Config) (bool, Simplex, error) {
	var simplex Simplex

	// Starting toward the other shape typically reduces iterations
	direction := pair.initialDirection(cfg.AbsoluteTolerance)

	w := pair.Support(direction)
	if !finite(w.Point) {
		return false, simplex, errors.Wrapf(ErrNumericDegeneracy, "support point %v", w.Point)
	}
	simplex.push(w)
	direction = w.Point.Mul(-1)

	// First support point at the origin: shapes are touching
	if direction.LenSqr() < 1e-16 {
		return true, simplex, nil
	}

	for i := 0; i < cfg.MaxIterations; i++ {
		w := pair.Support(direction)
		if !finite(w.Point) {
			return false, simplex, errors.Wrapf(ErrNumericDegeneracy, "support point %v", w.Point)
		}

		// The new point does not pass the origin in the search direction:
		// the origin cannot be reached, the shapes are separated.
		if w.Point.Dot(direction) <= 0 {
			return false, simplex, nil
		}

		simplex.push(w)

		// Reduces the simplex to its feature closest to the origin and
		// updates the direction for the next iteration.
		if containsOrigin(&simplex, &direction) {
			return true, simplex, nil
		}
	}

	return false, simplex, nil
}

// containsOrigin tests if the simplex contains the origin and refines the simplex.
//
// Behavior by simplex dimension:
//   - 2 points (line): Test Voronoi regions, reduce to closest point or keep edge
//   - 3 points (triangle): Test Voronoi regions, reduce to closest edge or keep face
//   - 4 points (tetrahedron): Test if origin is inside; if not, reduce to closest face
func containsOrigin(simplex *Simplex, direction *mgl64.Vec3) bool {
	switch simplex.Count {
	case 2:
		return line(simplex, direction)
	case 3:
		return triangle(simplex, direction)
	case 4:
		return tetrahedron(simplex, direction)
	}
	return false
}

func (s *Simplex) set(vertices ...Vertex) {
	copy(s.Vertices[:], vertices)
	s.Count = len(vertices)
}

// line handles the line simplex case. A is the most recent vertex.
func line(simplex *Simplex, direction *mgl64.Vec3) bool {
	va, vb := simplex.Vertices[1], simplex.Vertices[0]
	a, b := va.Point, vb.Point
	ab := b.Sub(a)
	ao := a.Mul(-1)

	// Identical points
	if ab.LenSqr() < 1e-8 {
		if ao.LenSqr() < 1e-8 {
			return true
		}
		simplex.set(va)
		*direction = ao
		return false
	}

	// Origin behind A, opposite direction from B
	if ab.Dot(ao) <= 0 {
		simplex.set(va)
		*direction = ao
		return false
	}

	abPerp := ab.Cross(ao).Cross(ab)
	if abPerp.LenSqr() < 1e-8 {
		// Origin is on the segment
		return true
	}

	*direction = abPerp
	return false
}

// triangle handles the triangle simplex case. A is the most recent vertex.
// Collinear points are handled as a line.
func triangle(simplex *Simplex, direction *mgl64.Vec3) bool {
	va, vb, vc := simplex.Vertices[2], simplex.Vertices[1], simplex.Vertices[0]
	a, b, c := va.Point, vb.Point, vc.Point

	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)

	abc := ab.Cross(ac)

	if abc.LenSqr() < 1e-10 {
		// Keep A and B, C is the oldest
		simplex.set(vb, va)
		return line(simplex, direction)
	}

	// Region AB (edge)
	if ab.Cross(abc).Dot(ao) > 0 {
		simplex.set(vb, va)
		*direction = ab.Cross(ao).Cross(ab)
		return false
	}

	// Region AC (edge)
	if abc.Cross(ac).Dot(ao) > 0 {
		simplex.set(vc, va)
		*direction = ac.Cross(ao).Cross(ac)
		return false
	}

	if abc.Dot(ao) > 0 {
		// Above the triangle
		*direction = abc
	} else {
		// Below, reverse order to maintain correct orientation
		simplex.set(va, vc, vb)
		*direction = abc.Mul(-1)
	}

	return false
}

// tetrahedron handles the tetrahedron simplex case. A is the most recent
// vertex. This is the only case that can report the origin as enclosed.
//
// Face normals must point away from the fourth vertex to correctly test which
// side of each face the origin is on.
func tetrahedron(simplex *Simplex, direction *mgl64.Vec3) bool {
	va, vb, vc, vd := simplex.Vertices[3], simplex.Vertices[2], simplex.Vertices[1], simplex.Vertices[0]
	a, b, c, d := va.Point, vb.Point, vc.Point, vd.Point

	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Mul(-1)

	// Face ABC (opposite to D)
	abc := ab.Cross(ac)
	if abc.Dot(ad) > 0 {
		abc = abc.Mul(-1)
	}

	// Face ACD (opposite to B)
	acd := ac.Cross(ad)
	if acd.Dot(ab) > 0 {
		acd = acd.Mul(-1)
	}

	// Face ADB (opposite to C)
	adb := ad.Cross(ab)
	if adb.Dot(ac) > 0 {
		adb = adb.Mul(-1)
	}

	if abc.LenSqr() < 1e-10 || acd.LenSqr() < 1e-10 || adb.LenSqr() < 1e-10 {
		simplex.set(vc, vb, va)
		return triangle(simplex, direction)
	}

	if abc.Dot(ao) > 0 {
		simplex.set(vc, vb, va)
		return triangle(simplex, direction)
	}

	if acd.Dot(ao) > 0 {
		simplex.set(vd, vc, va)
		return triangle(simplex, direction)
	}

	if adb.Dot(ao) > 0 {
		simplex.set(vb, vd, va)
		return triangle(simplex, direction)
	}

	return true
}

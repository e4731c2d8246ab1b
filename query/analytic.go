package query

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/narrow/shape"
)

var yAxis = mgl64.Vec3{0, 1, 0}

// span is the parameter interval of a line inside a convex solid, with the
// outward normals at both ends. Unbounded ends carry a zero normal.
type span struct {
	enter, exit             float64
	enterNormal, exitNormal mgl64.Vec3
}

func fullSpan() span {
	return span{enter: math.Inf(-1), exit: math.Inf(1)}
}

// intersect keeps the part of s inside o.
func (s span) intersect(o span) (span, bool) {
	if o.enter > s.enter {
		s.enter, s.enterNormal = o.enter, o.enterNormal
	}
	if o.exit < s.exit {
		s.exit, s.exitNormal = o.exit, o.exitNormal
	}
	return s, s.enter <= s.exit
}

// hull extends s to cover o. Ties keep the ends of s.
func (s span) hull(o span) span {
	if o.enter < s.enter {
		s.enter, s.enterNormal = o.enter, o.enterNormal
	}
	if o.exit > s.exit {
		s.exit, s.exitNormal = o.exit, o.exitNormal
	}
	return s
}

// localSpan intersects the line o + t*d with a shape having a closed-form
// solution, in the local frame of the shape. The last result is false for
// shapes that need the iterative cast.
func localSpan(s shape.Shape, o, d mgl64.Vec3) (span, bool, bool) {
	switch v := s.(type) {
	case shape.Ball:
		res, ok := sphereSpan(o, d, mgl64.Vec3{}, v.Radius)
		return res, ok, true
	case shape.Cuboid:
		res, ok := cuboidSpan(o, d, v.HalfExtents)
		return res, ok, true
	case shape.Capsule:
		res, ok := capsuleSpan(o, d, v)
		return res, ok, true
	case shape.Cylinder:
		res, ok := cylinderSpan(o, d, v)
		return res, ok, true
	case shape.Cone:
		res, ok := coneSpan(o, d, v)
		return res, ok, true
	}
	return span{}, false, false
}

// slab intersects the line with -half <= x <= half along axis, o and d being
// the coordinates of the line along that axis.
func slab(o, d, half float64, axis mgl64.Vec3) (span, bool) {
	if d == 0 {
		if o < -half || o > half {
			return span{}, false
		}
		return fullSpan(), true
	}

	t1 := (-half - o) / d
	t2 := (half - o) / d
	n1, n2 := axis.Mul(-1), axis
	if t1 > t2 {
		t1, t2 = t2, t1
		n1, n2 = n2, n1
	}
	return span{enter: t1, exit: t2, enterNormal: n1, exitNormal: n2}, true
}

func cuboidSpan(o, d, halfExtents mgl64.Vec3) (span, bool) {
	res := fullSpan()
	axes := [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i, axis := range axes {
		sl, ok := slab(o[i], d[i], halfExtents[i], axis)
		if !ok {
			return span{}, false
		}
		if res, ok = res.intersect(sl); !ok {
			return span{}, false
		}
	}
	return res, true
}

// quadraticRoots returns the real roots of a*t^2 + 2*b*t + c, sorted, using
// the cancellation-free form.
func quadraticRoots(a, b, c float64) (float64, float64, bool) {
	disc := b*b - a*c
	if disc < 0 {
		return 0, 0, false
	}
	q := -(b + math.Copysign(math.Sqrt(disc), b))
	if q == 0 {
		r := -b / a
		return r, r, true
	}
	r1, r2 := q/a, c/q
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	return r1, r2, true
}

func sphereSpan(o, d, center mgl64.Vec3, radius float64) (span, bool) {
	oc := o.Sub(center)
	a := d.LenSqr()
	b := oc.Dot(d)
	c := oc.LenSqr() - radius*radius
	if a == 0 {
		if c > 0 {
			return span{}, false
		}
		return fullSpan(), true
	}

	t0, t1, ok := quadraticRoots(a, b, c)
	if !ok {
		return span{}, false
	}
	return span{
		enter:       t0,
		exit:        t1,
		enterNormal: unit(oc.Add(d.Mul(t0))),
		exitNormal:  unit(oc.Add(d.Mul(t1))),
	}, true
}

// tubeSpan intersects the line with the infinite solid cylinder of the given
// radius around the Y axis.
func tubeSpan(o, d mgl64.Vec3, radius float64) (span, bool) {
	a := d.X()*d.X() + d.Z()*d.Z()
	b := o.X()*d.X() + o.Z()*d.Z()
	c := o.X()*o.X() + o.Z()*o.Z() - radius*radius
	if a == 0 {
		if c > 0 {
			return span{}, false
		}
		return fullSpan(), true
	}

	t0, t1, ok := quadraticRoots(a, b, c)
	if !ok {
		return span{}, false
	}
	return span{
		enter:       t0,
		exit:        t1,
		enterNormal: radialNormal(o.Add(d.Mul(t0))),
		exitNormal:  radialNormal(o.Add(d.Mul(t1))),
	}, true
}

func cylinderSpan(o, d mgl64.Vec3, c shape.Cylinder) (span, bool) {
	tube, ok := tubeSpan(o, d, c.Radius)
	if !ok {
		return span{}, false
	}
	caps, ok := slab(o.Y(), d.Y(), c.HalfHeight, yAxis)
	if !ok {
		return span{}, false
	}
	return tube.intersect(caps)
}

// capsuleSpan is the union of the spans of both end balls and of the
// cylindrical body. The balls come first so that they win the ties on the
// rims, where the cap plane of the body is not a boundary of the capsule.
func capsuleSpan(o, d mgl64.Vec3, c shape.Capsule) (span, bool) {
	var res span
	found := false
	add := func(s span, ok bool) {
		if !ok {
			return
		}
		if !found {
			res, found = s, true
			return
		}
		res = res.hull(s)
	}

	add(sphereSpan(o, d, mgl64.Vec3{0, c.HalfHeight, 0}, c.Radius))
	add(sphereSpan(o, d, mgl64.Vec3{0, -c.HalfHeight, 0}, c.Radius))
	if body, ok := cylinderSpan(o, d, shape.Cylinder{HalfHeight: c.HalfHeight, Radius: c.Radius}); ok {
		add(body, true)
	}
	return res, found
}

// coneSpan intersects the line with the cone: the slab -h <= y <= h, and the
// region x^2 + z^2 <= k^2 (h - y)^2 with k the slope of the lateral surface.
// Within the slab only the lower nappe of that double cone is reachable.
func coneSpan(o, d mgl64.Vec3, c shape.Cone) (span, bool) {
	h, r := c.HalfHeight, c.Radius
	caps, ok := slab(o.Y(), d.Y(), h, yAxis)
	if !ok {
		return span{}, false
	}

	k2 := (r / (2 * h)) * (r / (2 * h))
	q0 := h - o.Y()
	dq := -d.Y()
	a := d.X()*d.X() + d.Z()*d.Z() - k2*dq*dq
	b := o.X()*d.X() + o.Z()*d.Z() - k2*q0*dq
	cc := o.X()*o.X() + o.Z()*o.Z() - k2*q0*q0

	lateral := func(t float64) mgl64.Vec3 {
		return coneNormal(o.Add(d.Mul(t)), c)
	}

	// Pieces of the line where the quadratic is non-positive.
	var pieces [2]span
	n := 0
	switch {
	case a == 0:
		switch {
		case b == 0:
			if cc > 0 {
				return span{}, false
			}
			pieces[0] = fullSpan()
		case b > 0:
			t := -cc / (2 * b)
			pieces[0] = span{enter: math.Inf(-1), exit: t, exitNormal: lateral(t)}
		default:
			t := -cc / (2 * b)
			pieces[0] = span{enter: t, exit: math.Inf(1), enterNormal: lateral(t)}
		}
		n = 1
	case a > 0:
		t0, t1, ok := quadraticRoots(a, b, cc)
		if !ok {
			return span{}, false
		}
		pieces[0] = span{enter: t0, exit: t1, enterNormal: lateral(t0), exitNormal: lateral(t1)}
		n = 1
	default:
		t0, t1, ok := quadraticRoots(a, b, cc)
		if !ok {
			pieces[0] = fullSpan()
			n = 1
			break
		}
		pieces[0] = span{enter: math.Inf(-1), exit: t0, exitNormal: lateral(t0)}
		pieces[1] = span{enter: t1, exit: math.Inf(1), enterNormal: lateral(t1)}
		n = 2
	}

	var res span
	found := false
	for i := 0; i < n; i++ {
		s, ok := pieces[i].intersect(caps)
		if !ok {
			continue
		}
		if !found {
			res, found = s, true
			continue
		}
		res = res.hull(s)
	}
	return res, found
}

// coneNormal is the outward normal of the lateral surface through p: the
// gradient of x^2 + z^2 - k^2 (h - y)^2. The apex gets the Y axis.
func coneNormal(p mgl64.Vec3, c shape.Cone) mgl64.Vec3 {
	k := c.Radius / (2 * c.HalfHeight)
	n := mgl64.Vec3{p.X(), k * k * (c.HalfHeight - p.Y()), p.Z()}
	if n.LenSqr() == 0 {
		return yAxis
	}
	return n.Normalize()
}

func radialNormal(p mgl64.Vec3) mgl64.Vec3 {
	return unit(mgl64.Vec3{p.X(), 0, p.Z()})
}

// unit normalizes v, leaving the zero vector unchanged.
func unit(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Mul(1 / l)
}

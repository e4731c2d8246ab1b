// Package epa implements the Expanding Polytope Algorithm for computing penetration depth.
//
// EPA is run after GJK detects an overlap to determine:
//   - Penetration depth (how far shapes overlap)
//   - Contact normal (direction to separate shapes)
//   - Contact points (deepest point of each shape inside the other)
//
// The algorithm expands a polytope (starting from GJK's terminal simplex) in
// the Minkowski difference space, finding the face closest to the origin,
// which gives the minimum translation vector separating the shapes.
//
// The polytope lives in fixed-capacity arrays: a query never allocates and
// never grows past Config.MaxFaces. Running out of room or iterations yields
// the best face found so far, flagged as a low-confidence estimate, or a
// support-distance estimate when that face still touches the origin.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/akmonengine/narrow/gjk"
)

// Result describes the penetration of two overlapping shapes.
//
// Normal points from A toward B: translating B by Depth*Normal brings the
// shapes into touching contact. PointA is the point of A deepest inside B,
// PointB the point of B deepest inside A; PointA - PointB = Depth*Normal.
type Result struct {
	Depth          float64
	Normal         mgl64.Vec3
	PointA, PointB mgl64.Vec3
	Iterations     int
	Estimate       gjk.Estimate
}

// Penetration runs EPA from a GJK simplex enclosing the origin.
//
// A simplex that is not a tetrahedron with volume yields a shallow estimate
// flagged with gjk.ReasonNumericDegeneracy. The only error is
// gjk.ErrNumericDegeneracy for non-finite support points.
func Penetration(pair gjk.Pair, simplex gjk.Simplex, cfg Config) (Result, error) {
	var builder PolytopeBuilder
	builder.Reset(cfg.MaxFaces)

	if err := builder.BuildInitialFaces(&simplex); err != nil {
		return handleDegenerateSimplex(pair, &simplex)
	}

	var res Result
	for res.Iterations < cfg.MaxIterations {
		closest := builder.FindClosestFaceIndex()
		if closest < 0 {
			break
		}
		face := builder.Face(closest)

		res.Iterations++
		support := pair.Support(face.Normal)
		if !finiteVec(support.Point) {
			return Result{}, errors.Wrapf(gjk.ErrNumericDegeneracy, "support point %v", support.Point)
		}

		// The support point does not push the face further out: the face
		// lies on the boundary of the Minkowski difference.
		distance := support.Point.Dot(face.Normal)
		if distance-face.Distance <= cfg.tolerance(face.Distance) {
			builder.fill(&res, closest)
			return res, nil
		}

		// A known vertex in front of the closest face means the polytope is
		// no longer convex.
		if builder.hasVertex(support.Point) {
			return builder.bestEffort(pair, &simplex, res, closest, gjk.ReasonNumericDegeneracy, cfg)
		}

		if err := builder.AddPointAndRebuildFaces(support, closest); err != nil {
			reason := gjk.ReasonCapacityExceeded
			if errors.Is(err, errDegenerate) {
				reason = gjk.ReasonNumericDegeneracy
			}
			return builder.bestEffort(pair, &simplex, res, closest, reason, cfg)
		}
	}

	closest := builder.FindClosestFaceIndex()
	if closest < 0 {
		return handleDegenerateSimplex(pair, &simplex)
	}
	return builder.bestEffort(pair, &simplex, res, closest, gjk.ReasonIterationBudgetExceeded, cfg)
}

// bestEffort reports face i of an unfinished expansion as a low-confidence
// estimate. The face distance only bounds the depth from below; when it is
// within the tolerance of zero, as happens when the origin sits on a face
// of the GJK simplex, the contact is estimated from support distances
// instead so that an overlap never reads as a touching contact.
func (b *PolytopeBuilder) bestEffort(pair gjk.Pair, simplex *gjk.Simplex, res Result, i int, reason gjk.Reason, cfg Config) (Result, error) {
	b.fill(&res, i)
	res.Estimate = gjk.LowConfidence(reason)
	if res.Depth > cfg.Tolerance {
		return res, nil
	}

	estimate, err := handleDegenerateSimplex(pair, simplex)
	if err != nil {
		return Result{}, err
	}
	estimate.Iterations = res.Iterations
	estimate.Estimate = res.Estimate
	return estimate, nil
}

// fill reconstructs the contact from face i: the projection of the origin on
// the face is expressed in barycentric coordinates, which weight the
// generating support points of A and B.
func (b *PolytopeBuilder) fill(res *Result, i int) {
	face := b.faces[i]
	v0 := b.vertices[face.Vertices[0]]
	v1 := b.vertices[face.Vertices[1]]
	v2 := b.vertices[face.Vertices[2]]

	res.Depth = math.Max(face.Distance, 0)
	res.Normal = snapNormalToAxis(face.Normal)

	u, v, w := barycentric(face.Normal.Mul(face.Distance), v0.Point, v1.Point, v2.Point)
	res.PointA = v0.A.Mul(u).Add(v1.A.Mul(v)).Add(v2.A.Mul(w))
	res.PointB = v0.B.Mul(u).Add(v1.B.Mul(v)).Add(v2.B.Mul(w))
}

// barycentric returns the coordinates of p, assumed in the plane of the
// triangle, clamped to the triangle.
func barycentric(p, a, b, c mgl64.Vec3) (float64, float64, float64) {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := p.Sub(a)
	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)

	denom := d00*d11 - d01*d01
	if denom == 0 {
		return 1, 0, 0
	}
	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom
	v = math.Max(v, 0)
	w = math.Max(w, 0)
	if s := v + w; s > 1 {
		v, w = v/s, w/s
	}
	return 1 - v - w, v, w
}

// candidateAxes are the fallback separation directions of degenerate simplices.
var candidateAxes = [6]mgl64.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// handleDegenerateSimplex estimates a shallow contact when the GJK simplex is
// not a usable tetrahedron.
//
// For a direction n, the support of the Minkowski difference along n is the
// distance B must travel along n to stop overlapping A. The estimate keeps the
// smallest such distance over the simplex vertices, the center axis and the
// coordinate axes. The result is an upper bound of the true depth.
func handleDegenerateSimplex(pair gjk.Pair, simplex *gjk.Simplex) (Result, error) {
	res := Result{
		Depth:    math.Inf(1),
		Estimate: gjk.LowConfidence(gjk.ReasonNumericDegeneracy),
	}

	try := func(n mgl64.Vec3) error {
		l := n.Len()
		if l < NormalSnapThreshold {
			return nil
		}
		n = n.Mul(1 / l)
		res.Iterations++
		w := pair.Support(n)
		if !finiteVec(w.Point) {
			return errors.Wrapf(gjk.ErrNumericDegeneracy, "support point %v", w.Point)
		}
		if d := w.Point.Dot(n); d < res.Depth {
			res.Depth = d
			res.Normal = n
			res.PointA = w.A
			res.PointB = w.A.Sub(n.Mul(d))
		}
		return nil
	}

	for i := 0; i < simplex.Count; i++ {
		if err := try(simplex.Vertices[i].Point); err != nil {
			return Result{}, err
		}
	}
	if err := try(pair.B.Center().Sub(pair.A.Center())); err != nil {
		return Result{}, err
	}
	for _, axis := range candidateAxes {
		if err := try(axis); err != nil {
			return Result{}, err
		}
	}

	res.Depth = math.Max(res.Depth, 0)
	return res, nil
}

func finiteVec(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}

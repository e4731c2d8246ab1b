// Package manifold builds multi-point contact manifolds from a penetration
// result, for callers that need more than the single pair of deepest points.
package manifold

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"

	"github.com/akmonengine/narrow/epa"
	"github.com/akmonengine/narrow/shape"
)

// MaxContacts is the maximum number of contacts kept in a manifold.
const MaxContacts = 4

// clipTolerance is the slack accepted on the inner side of a clipping plane.
const clipTolerance = 1e-6

// Contact is a world-space contact point with its own penetration depth.
type Contact struct {
	Position mgl64.Vec3
	Depth    float64
}

// Generate creates contact points for a collision using Sutherland-Hodgman clipping.
//
// Algorithm:
//  1. Get the contact feature of each shape (point, edge, or face)
//  2. Transform features to world space
//  3. Determine incident (fewer points) and reference (more points) features
//  4. Clip incident feature against reference feature's side planes
//  5. Keep points that are penetrating
//  6. Reduce to MaxContacts points if needed
//
// pen.Normal points from A toward B. Both shapes must be convex: callers
// decompose compounds first.
func Generate(a, b shape.Placed, pen epa.Result) []Contact {
	normal := pen.Normal
	if normal.LenSqr() == 0 {
		return []Contact{{Position: pen.PointB, Depth: pen.Depth}}
	}

	featureA := worldFeature(a, normal)
	featureB := worldFeature(b, normal.Mul(-1))

	// Determine incident and reference. The reference face keeps its own
	// outward direction: +normal for A, -normal for B.
	incident, reference, refDir := featureB, featureA, normal
	if len(featureB) > len(featureA) {
		incident, reference, refDir = featureA, featureB, normal.Mul(-1)
	}

	// Trivial case: single incident point
	if len(incident) == 1 {
		return []Contact{{Position: incident[0], Depth: pen.Depth}}
	}

	clipped := clipIncidentAgainstReference(incident, reference, normal)

	var contacts []Contact
	if len(reference) >= 3 {
		refNormal := reference[1].Sub(reference[0]).Cross(reference[2].Sub(reference[0])).Normalize()
		if refNormal.Dot(refDir) < 0 {
			refNormal = refNormal.Mul(-1)
		}
		offset := reference[0].Dot(refNormal)

		for _, point := range clipped {
			// Keep points behind or on the reference plane
			distance := point.Dot(refNormal) - offset
			if distance <= clipTolerance {
				contacts = append(contacts, Contact{
					Position: point,
					Depth:    math.Max(-distance, 0),
				})
			}
		}
	} else {
		for _, point := range clipped {
			contacts = append(contacts, Contact{Position: point, Depth: pen.Depth})
		}
	}

	// Fallback if no point survived clipping
	if len(contacts) == 0 {
		contacts = append(contacts, Contact{Position: pen.PointB, Depth: pen.Depth})
	}

	if len(contacts) > MaxContacts {
		contacts = reduceTo4Points(contacts, normal)
	}

	return contacts
}

// worldFeature returns the contact feature of p along a world direction.
func worldFeature(p shape.Placed, direction mgl64.Vec3) []mgl64.Vec3 {
	local := shape.ContactFeature(p.Shape, p.Pose.InverseRotate(direction))
	return lo.Map(local, func(v mgl64.Vec3, _ int) mgl64.Vec3 {
		return p.Pose.TransformPoint(v)
	})
}

// clipIncidentAgainstReference clips the incident feature against the side
// planes of the reference feature, each plane containing a reference edge and
// the contact normal. References with fewer than two points are not clipped
// against.
func clipIncidentAgainstReference(incident, reference []mgl64.Vec3, normal mgl64.Vec3) []mgl64.Vec3 {
	if len(reference) < 2 {
		return incident
	}

	output := incident
	center := computeCenter(reference)

	edges := len(reference)
	if edges == 2 {
		// An edge has a single side plane pair: clip against both ends.
		return clipToEdge(output, reference[0], reference[1])
	}

	for i := 0; i < edges; i++ {
		if len(output) == 0 {
			break
		}

		v1 := reference[i]
		v2 := reference[(i+1)%edges]

		// Clipping plane normal, perpendicular to the edge, pointing inward
		clipNormal := v2.Sub(v1).Cross(normal)
		if clipNormal.LenSqr() < 1e-20 {
			continue
		}
		clipNormal = clipNormal.Normalize()
		if center.Sub(v1).Dot(clipNormal) < 0 {
			clipNormal = clipNormal.Mul(-1)
		}

		output = clipPolygonAgainstPlane(output, v1, clipNormal)
	}

	return output
}

// clipToEdge keeps the part of the incident feature lying between the planes
// through the edge ends, orthogonal to the edge.
func clipToEdge(polygon []mgl64.Vec3, a, b mgl64.Vec3) []mgl64.Vec3 {
	axis := b.Sub(a)
	if axis.LenSqr() < 1e-20 {
		return polygon
	}
	axis = axis.Normalize()
	polygon = clipPolygonAgainstPlane(polygon, a, axis)
	return clipPolygonAgainstPlane(polygon, b, axis.Mul(-1))
}

// clipPolygonAgainstPlane implements Sutherland-Hodgman for a single plane.
// A two-point polygon is treated as a segment.
func clipPolygonAgainstPlane(polygon []mgl64.Vec3, planePoint, planeNormal mgl64.Vec3) []mgl64.Vec3 {
	if len(polygon) == 0 {
		return polygon
	}

	var output []mgl64.Vec3
	n := len(polygon)
	for i := 0; i < n; i++ {
		current := polygon[i]
		next := polygon[(i+1)%n]

		currentDist := current.Sub(planePoint).Dot(planeNormal)
		nextDist := next.Sub(planePoint).Dot(planeNormal)

		closing := n == 2 && i == 1
		if currentDist >= -clipTolerance {
			output = append(output, current)

			// Next is outside: add intersection
			if nextDist < -clipTolerance && !closing {
				output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
			}
		} else if nextDist >= -clipTolerance && !closing {
			// Current is outside, next is inside: add intersection
			output = append(output, lineIntersectPlane(current, next, planePoint, planeNormal))
		}
	}

	return output
}

// lineIntersectPlane calculates the intersection between a line segment and a plane
func lineIntersectPlane(p1, p2, planePoint, planeNormal mgl64.Vec3) mgl64.Vec3 {
	dir := p2.Sub(p1)
	dist := p1.Sub(planePoint).Dot(planeNormal)
	denom := dir.Dot(planeNormal)

	if math.Abs(denom) < 1e-10 {
		return p1 // Segment parallel to plane
	}

	t := -dist / denom
	t = math.Max(0, math.Min(1, t))

	return p1.Add(dir.Mul(t))
}

// computeCenter calculates the centroid of a set of points
func computeCenter(points []mgl64.Vec3) mgl64.Vec3 {
	if len(points) == 0 {
		return mgl64.Vec3{0, 0, 0}
	}

	sum := mgl64.Vec3{0, 0, 0}
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1.0 / float64(len(points)))
}

// getTangentBasis returns two unit vectors completing normal into an
// orthonormal basis.
func getTangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	tangent1 := mgl64.Vec3{1, 0, 0}
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}

// reduceTo4Points keeps the extreme contacts along the two tangent axes, in
// their original order.
func reduceTo4Points(points []Contact, normal mgl64.Vec3) []Contact {
	tangent1, tangent2 := getTangentBasis(normal)

	minX, maxX, minY, maxY := 0, 0, 0, 0
	minXval, maxXval := math.Inf(1), math.Inf(-1)
	minYval, maxYval := math.Inf(1), math.Inf(-1)

	for i, p := range points {
		x := p.Position.Dot(tangent1)
		y := p.Position.Dot(tangent2)

		if x < minXval {
			minXval, minX = x, i
		}
		if x > maxXval {
			maxXval, maxX = x, i
		}
		if y < minYval {
			minYval, minY = y, i
		}
		if y > maxYval {
			maxYval, maxY = y, i
		}
	}

	indices := lo.Uniq([]int{minX, maxX, minY, maxY})
	slices.Sort(indices)

	return lo.Map(indices, func(i int, _ int) Contact {
		return points[i]
	})
}

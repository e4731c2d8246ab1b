package gjk

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"go.viam.com/test"

	"github.com/akmonengine/narrow/shape"
)

// Test helper functions

func vec3ApproxEqual(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance &&
		math.Abs(a.Z()-b.Z()) < tolerance
}

func at(s shape.Shape, position mgl64.Vec3) shape.Placed {
	return shape.Placed{Shape: s, Pose: shape.Translation(position)}
}

func ball(r float64) shape.Shape {
	return shape.Ball{Radius: r}
}

func box(hx, hy, hz float64) shape.Shape {
	return shape.Cuboid{HalfExtents: mgl64.Vec3{hx, hy, hz}}
}

// =============================================================================
// Pair support
// =============================================================================

func TestPairSupport(t *testing.T) {
	t.Run("two separated spheres along x-axis", func(t *testing.T) {
		pair := Pair{A: at(ball(1), mgl64.Vec3{0, 0, 0}), B: at(ball(1), mgl64.Vec3{3, 0, 0})}

		// max(A.x) - min(B.x) = 1 - 2
		v := pair.Support(mgl64.Vec3{1, 0, 0})
		test.That(t, v.Point.X(), test.ShouldEqual, -1.0)
		test.That(t, v.A, test.ShouldResemble, mgl64.Vec3{1, 0, 0})
		test.That(t, v.B, test.ShouldResemble, mgl64.Vec3{2, 0, 0})
	})

	t.Run("vertex tags reproduce the point", func(t *testing.T) {
		pair := Pair{
			A: shape.Placed{Shape: box(1, 2, 3), Pose: shape.NewIsometry(mgl64.Vec3{1, 0, 0}, 0.4, mgl64.Vec3{0, 1, 0})},
			B: at(shape.Cylinder{HalfHeight: 1, Radius: 0.5}, mgl64.Vec3{0, 5, 0}),
		}
		v := pair.Support(mgl64.Vec3{0.2, -1, 0.7})
		test.That(t, vec3ApproxEqual(v.Point, v.A.Sub(v.B), 1e-12), test.ShouldBeTrue)
	})
}

// =============================================================================
// Closest
// =============================================================================

func TestClosestSeparatedBalls(t *testing.T) {
	for _, d := range []float64{2.5, 3, 10, 1e3} {
		pair := Pair{A: at(ball(1), mgl64.Vec3{}), B: at(ball(1), mgl64.Vec3{d, 0, 0})}

		res, err := Closest(pair, DefaultConfig())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Status, test.ShouldEqual, Separated)
		test.That(t, res.Estimate.LowConfidence, test.ShouldBeFalse)
		test.That(t, res.Distance, test.ShouldAlmostEqual, d-2, 1e-9)
		test.That(t, vec3ApproxEqual(res.PointA, mgl64.Vec3{1, 0, 0}, 1e-9), test.ShouldBeTrue)
		test.That(t, vec3ApproxEqual(res.PointB, mgl64.Vec3{d - 1, 0, 0}, 1e-9), test.ShouldBeTrue)
	}
}

func TestClosestBoxes(t *testing.T) {
	tests := []struct {
		name     string
		posB     mgl64.Vec3
		status   Status
		distance float64
	}{
		{"separated on x", mgl64.Vec3{3, 0, 0}, Separated, 1},
		{"separated on diagonal", mgl64.Vec3{3, 3, 0}, Separated, math.Sqrt2},
		{"separated corner to corner", mgl64.Vec3{3, 3, 3}, Separated, math.Sqrt(3)},
		{"overlapping", mgl64.Vec3{1.9, 0, 0}, Overlapping, 0},
		{"concentric", mgl64.Vec3{}, Overlapping, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair := Pair{A: at(box(1, 1, 1), mgl64.Vec3{}), B: at(box(1, 1, 1), tt.posB)}
			res, err := Closest(pair, DefaultConfig())
			test.That(t, err, test.ShouldBeNil)
			test.That(t, res.Status, test.ShouldEqual, tt.status)
			if tt.status == Separated {
				test.That(t, res.Distance, test.ShouldAlmostEqual, tt.distance, 1e-6)
				test.That(t, res.PointA.Sub(res.PointB).Len(), test.ShouldAlmostEqual, res.Distance, 1e-9)
				return
			}
			test.That(t, res.Simplex.Count, test.ShouldEqual, 4)
		})
	}
}

func TestClosestTouchingPoints(t *testing.T) {
	pair := Pair{A: at(ball(0), mgl64.Vec3{1, 2, 3}), B: at(ball(0), mgl64.Vec3{1, 2, 3})}
	res, err := Closest(pair, DefaultConfig())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Status, test.ShouldEqual, Separated)
	test.That(t, res.Distance, test.ShouldEqual, 0.0)
	test.That(t, res.PointA, test.ShouldResemble, mgl64.Vec3{1, 2, 3})
}

func TestClosestIterationBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIterations = 1
	pair := Pair{A: at(ball(1), mgl64.Vec3{}), B: at(box(1, 1, 1), mgl64.Vec3{3, 0.5, 0})}

	res, err := Closest(pair, cfg)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Iterations, test.ShouldEqual, 1)
	test.That(t, res.Estimate.LowConfidence, test.ShouldBeTrue)
	test.That(t, res.Estimate.Reason, test.ShouldEqual, ReasonIterationBudgetExceeded)
	// the estimate is an upper bound of the true distance
	test.That(t, res.Distance, test.ShouldBeGreaterThanOrEqualTo, 1.0-1e-9)

	res, err = Closest(pair, DefaultConfig())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Estimate.LowConfidence, test.ShouldBeFalse)
	test.That(t, res.Distance, test.ShouldAlmostEqual, 1.0, 1e-6)
}

func TestClosestNonFinite(t *testing.T) {
	pair := Pair{A: at(ball(1), mgl64.Vec3{}), B: at(ball(1), mgl64.Vec3{math.NaN(), 0, 0})}
	_, err := Closest(pair, DefaultConfig())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, ErrNumericDegeneracy.Error())
}

func randomShape(rng *rand.Rand) shape.Shape {
	size := func() float64 { return 0.2 + rng.Float64()*1.5 }
	switch rng.IntN(6) {
	case 0:
		return shape.Ball{Radius: size()}
	case 1:
		return shape.Cuboid{HalfExtents: mgl64.Vec3{size(), size(), size()}}
	case 2:
		return shape.Capsule{HalfHeight: size(), Radius: size()}
	case 3:
		return shape.Cone{HalfHeight: size(), Radius: size()}
	case 4:
		return shape.Cylinder{HalfHeight: size(), Radius: size()}
	}
	return shape.Segment{A: mgl64.Vec3{-size(), 0, 0}, B: mgl64.Vec3{size(), size(), 0}}
}

func randomPose(rng *rand.Rand, spread float64) shape.Isometry {
	pos := mgl64.Vec3{
		(rng.Float64()*2 - 1) * spread,
		(rng.Float64()*2 - 1) * spread,
		(rng.Float64()*2 - 1) * spread,
	}
	axis := mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
	return shape.NewIsometry(pos, rng.Float64()*2*math.Pi, axis)
}

func TestClosestRandomSweep(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	cfg := DefaultConfig()

	for i := 0; i < 500; i++ {
		a := shape.Placed{Shape: randomShape(rng), Pose: randomPose(rng, 4)}
		b := shape.Placed{Shape: randomShape(rng), Pose: randomPose(rng, 4)}

		ab, err := Closest(Pair{A: a, B: b}, cfg)
		test.That(t, err, test.ShouldBeNil)
		ba, err := Closest(Pair{A: b, B: a}, cfg)
		test.That(t, err, test.ShouldBeNil)

		test.That(t, ab.Iterations, test.ShouldBeLessThanOrEqualTo, cfg.MaxIterations)
		test.That(t, ab.Distance, test.ShouldBeGreaterThanOrEqualTo, 0)
		test.That(t, ab.Status, test.ShouldEqual, ba.Status)
		if ab.Status == Separated && !ab.Estimate.LowConfidence && !ba.Estimate.LowConfidence {
			test.That(t, ab.Distance, test.ShouldAlmostEqual, ba.Distance, 1e-4*math.Max(1, ab.Distance))
		}

		again, err := Closest(Pair{A: a, B: b}, cfg)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, again, test.ShouldResemble, ab)
	}
}

// =============================================================================
// Intersects
// =============================================================================

func TestIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b shape.Placed
		want bool
	}{
		{"separated spheres", at(ball(1), mgl64.Vec3{}), at(ball(1), mgl64.Vec3{3, 0, 0}), false},
		{"overlapping spheres", at(ball(1), mgl64.Vec3{}), at(ball(1), mgl64.Vec3{1.5, 0, 0}), true},
		{"identical positions", at(box(1, 1, 1), mgl64.Vec3{}), at(box(1, 1, 1), mgl64.Vec3{}), true},
		{"box and sphere apart", at(box(1, 1, 1), mgl64.Vec3{}), at(ball(0.5), mgl64.Vec3{0, 3, 0}), false},
		{"box and sphere overlapping", at(box(1, 1, 1), mgl64.Vec3{}), at(ball(0.5), mgl64.Vec3{0, 1.2, 0}), true},
		{"segment through box", at(box(1, 1, 1), mgl64.Vec3{}), at(shape.Segment{A: mgl64.Vec3{-5, 0, 0}, B: mgl64.Vec3{5, 0, 0}}, mgl64.Vec3{0, 0.5, 0.5}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, simplex, err := Intersects(Pair{A: tt.a, B: tt.b}, DefaultConfig())
			test.That(t, err, test.ShouldBeNil)
			test.That(t, got, test.ShouldEqual, tt.want)
			test.That(t, simplex.Count, test.ShouldBeBetweenOrEqual, 1, 4)

			res, err := Closest(Pair{A: tt.a, B: tt.b}, DefaultConfig())
			test.That(t, err, test.ShouldBeNil)
			test.That(t, res.Status == Overlapping, test.ShouldEqual, tt.want)
		})
	}
}

// =============================================================================
// Simplex reduction
// =============================================================================

func vertexAt(p mgl64.Vec3) Vertex {
	return Vertex{Point: p, A: p}
}

func TestSimplexReduce(t *testing.T) {
	t.Run("segment interior", func(t *testing.T) {
		var s Simplex
		s.push(vertexAt(mgl64.Vec3{-1, 1, 0}))
		s.push(vertexAt(mgl64.Vec3{1, 1, 0}))
		v, inside := s.reduce()
		test.That(t, inside, test.ShouldBeFalse)
		test.That(t, s.Count, test.ShouldEqual, 2)
		test.That(t, vec3ApproxEqual(v, mgl64.Vec3{0, 1, 0}, 1e-12), test.ShouldBeTrue)
		test.That(t, s.Weights[0], test.ShouldAlmostEqual, 0.5, 1e-12)
	})

	t.Run("segment vertex region", func(t *testing.T) {
		var s Simplex
		s.push(vertexAt(mgl64.Vec3{1, 1, 0}))
		s.push(vertexAt(mgl64.Vec3{3, 1, 0}))
		v, _ := s.reduce()
		test.That(t, s.Count, test.ShouldEqual, 1)
		test.That(t, v, test.ShouldResemble, mgl64.Vec3{1, 1, 0})
	})

	t.Run("triangle face region", func(t *testing.T) {
		var s Simplex
		s.push(vertexAt(mgl64.Vec3{-1, -1, 2}))
		s.push(vertexAt(mgl64.Vec3{1, -1, 2}))
		s.push(vertexAt(mgl64.Vec3{0, 1, 2}))
		v, _ := s.reduce()
		test.That(t, s.Count, test.ShouldEqual, 3)
		test.That(t, vec3ApproxEqual(v, mgl64.Vec3{0, 0, 2}, 1e-12), test.ShouldBeTrue)
	})

	t.Run("triangle edge region keeps order", func(t *testing.T) {
		var s Simplex
		s.push(vertexAt(mgl64.Vec3{5, 5, 0}))
		s.push(vertexAt(mgl64.Vec3{-1, 1, 0}))
		s.push(vertexAt(mgl64.Vec3{1, 1, 0}))
		v, _ := s.reduce()
		test.That(t, s.Count, test.ShouldEqual, 2)
		test.That(t, s.Vertices[1].Point, test.ShouldResemble, mgl64.Vec3{1, 1, 0})
		test.That(t, vec3ApproxEqual(v, mgl64.Vec3{0, 1, 0}, 1e-12), test.ShouldBeTrue)
	})

	t.Run("collinear triangle", func(t *testing.T) {
		var s Simplex
		s.push(vertexAt(mgl64.Vec3{-1, 1, 0}))
		s.push(vertexAt(mgl64.Vec3{0, 1, 0}))
		s.push(vertexAt(mgl64.Vec3{1, 1, 0}))
		v, _ := s.reduce()
		test.That(t, vec3ApproxEqual(v, mgl64.Vec3{0, 1, 0}, 1e-12), test.ShouldBeTrue)
	})

	t.Run("tetrahedron enclosing the origin", func(t *testing.T) {
		var s Simplex
		s.push(vertexAt(mgl64.Vec3{1, 0, -1}))
		s.push(vertexAt(mgl64.Vec3{-1, 1, -1}))
		s.push(vertexAt(mgl64.Vec3{-1, -1, -1}))
		s.push(vertexAt(mgl64.Vec3{0, 0, 2}))
		_, inside := s.reduce()
		test.That(t, inside, test.ShouldBeTrue)
		test.That(t, s.Count, test.ShouldEqual, 4)

		sum := 0.0
		for _, w := range s.Weights {
			test.That(t, w, test.ShouldBeGreaterThan, 0)
			sum += w
		}
		test.That(t, sum, test.ShouldAlmostEqual, 1.0, 1e-12)
		test.That(t, s.ClosestPoint().Len(), test.ShouldBeLessThan, 1e-12)
	})

	t.Run("tetrahedron beside the origin", func(t *testing.T) {
		var s Simplex
		s.push(vertexAt(mgl64.Vec3{1, 0, 1}))
		s.push(vertexAt(mgl64.Vec3{-1, 1, 1}))
		s.push(vertexAt(mgl64.Vec3{-1, -1, 1}))
		s.push(vertexAt(mgl64.Vec3{0, 0, 3}))
		v, inside := s.reduce()
		test.That(t, inside, test.ShouldBeFalse)
		test.That(t, s.Count, test.ShouldEqual, 3)
		test.That(t, vec3ApproxEqual(v, mgl64.Vec3{0, 0, 1}, 1e-12), test.ShouldBeTrue)
	})
}

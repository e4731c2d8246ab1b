package gjk

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"go.viam.com/test"

	"github.com/akmonengine/narrow/shape"
)

// against turns a placed shape into a pair whose difference is the shape itself.
func against(s shape.Placed) Pair {
	return Pair{A: s, B: at(ball(0), mgl64.Vec3{})}
}

func TestCastRay(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("ray through sphere", func(t *testing.T) {
		res, err := CastRay(against(at(ball(1), mgl64.Vec3{})), mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{1, 0, 0}, math.Inf(1), cfg)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Hit, test.ShouldBeTrue)
		test.That(t, res.Toi, test.ShouldAlmostEqual, 4.0, 1e-6)
		test.That(t, vec3ApproxEqual(res.Normal, mgl64.Vec3{-1, 0, 0}, 1e-6), test.ShouldBeTrue)
		test.That(t, vec3ApproxEqual(res.PointA, mgl64.Vec3{-1, 0, 0}, 1e-6), test.ShouldBeTrue)
	})

	t.Run("ray against rotated box", func(t *testing.T) {
		target := shape.Placed{Shape: box(1, 1, 1), Pose: shape.NewIsometry(mgl64.Vec3{}, math.Pi/4, mgl64.Vec3{0, 0, 1})}
		res, err := CastRay(against(target), mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{1, 0, 0}, 100, cfg)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Hit, test.ShouldBeTrue)
		test.That(t, res.Toi, test.ShouldAlmostEqual, 5-math.Sqrt2, 1e-6)
	})

	t.Run("ray direction is not normalized", func(t *testing.T) {
		res, err := CastRay(against(at(box(1, 1, 1), mgl64.Vec3{})), mgl64.Vec3{0, 6, 0}, mgl64.Vec3{0, -2, 0}, 100, cfg)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Toi, test.ShouldAlmostEqual, 2.5, 1e-6)
		test.That(t, vec3ApproxEqual(res.Normal, mgl64.Vec3{0, 1, 0}, 1e-6), test.ShouldBeTrue)
	})

	t.Run("ray pointing away", func(t *testing.T) {
		res, err := CastRay(against(at(ball(1), mgl64.Vec3{})), mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{-1, 0, 0}, 100, cfg)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Hit, test.ShouldBeFalse)
	})

	t.Run("ray passing beside", func(t *testing.T) {
		res, err := CastRay(against(at(ball(1), mgl64.Vec3{})), mgl64.Vec3{-5, 1.5, 0}, mgl64.Vec3{1, 0, 0}, 100, cfg)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Hit, test.ShouldBeFalse)
	})

	t.Run("ray too short", func(t *testing.T) {
		res, err := CastRay(against(at(ball(1), mgl64.Vec3{})), mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{1, 0, 0}, 3.5, cfg)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Hit, test.ShouldBeFalse)
	})

	t.Run("origin inside", func(t *testing.T) {
		res, err := CastRay(against(at(box(1, 1, 1), mgl64.Vec3{})), mgl64.Vec3{0.2, 0.1, 0}, mgl64.Vec3{1, 0, 0}, 100, cfg)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Hit, test.ShouldBeTrue)
		test.That(t, res.Toi, test.ShouldEqual, 0.0)
		test.That(t, res.Normal, test.ShouldResemble, mgl64.Vec3{})
	})
}

func TestCastRayMinkowskiDifference(t *testing.T) {
	// A at the origin, B ahead on x: A - B is a ball of radius 2 centered
	// at (-6, 0, 0). Sweeping B toward A by (-1, 0, 0) per unit of time is
	// the ray from the origin along (-1, 0, 0).
	pair := Pair{A: at(ball(1), mgl64.Vec3{}), B: at(ball(1), mgl64.Vec3{6, 0, 0})}
	res, err := CastRay(pair, mgl64.Vec3{}, mgl64.Vec3{-1, 0, 0}, 10, DefaultConfig())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Hit, test.ShouldBeTrue)
	test.That(t, res.Toi, test.ShouldAlmostEqual, 4.0, 1e-6)
	test.That(t, vec3ApproxEqual(res.PointA, mgl64.Vec3{1, 0, 0}, 1e-6), test.ShouldBeTrue)
	test.That(t, vec3ApproxEqual(res.PointB, mgl64.Vec3{5, 0, 0}, 1e-6), test.ShouldBeTrue)
}

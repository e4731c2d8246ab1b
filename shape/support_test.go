package shape

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"go.viam.com/test"
)

func TestSupport(t *testing.T) {
	s2 := math.Sqrt2 / 2

	tests := []struct {
		name      string
		shape     Shape
		direction mgl64.Vec3
		want      mgl64.Vec3
	}{
		{"ball", Ball{Radius: 2}, mgl64.Vec3{0, 0, -3}, mgl64.Vec3{0, 0, -2}},
		{"ball zero direction", Ball{Radius: 2}, mgl64.Vec3{}, mgl64.Vec3{0, 2, 0}},
		{"cuboid corner", Cuboid{HalfExtents: mgl64.Vec3{1, 2, 3}}, mgl64.Vec3{-1, 1, -1}, mgl64.Vec3{-1, 2, -3}},
		{"cuboid tie", Cuboid{HalfExtents: mgl64.Vec3{1, 2, 3}}, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{1, -2, 3}},
		{"capsule top", Capsule{HalfHeight: 1, Radius: 0.5}, mgl64.Vec3{1, 1, 0}, mgl64.Vec3{0.5 * s2, 1 + 0.5*s2, 0}},
		{"capsule bottom", Capsule{HalfHeight: 1, Radius: 0.5}, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, -1.5, 0}},
		{"cone apex", Cone{HalfHeight: 1, Radius: 0.5}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 1, 0}},
		{"cone rim", Cone{HalfHeight: 1, Radius: 0.5}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0.5, -1, 0}},
		{"cone base", Cone{HalfHeight: 1, Radius: 0.5}, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, -1, 0}},
		{"cylinder rim", Cylinder{HalfHeight: 1, Radius: 2}, mgl64.Vec3{0, -1, 1}, mgl64.Vec3{0, -1, 2}},
		{"cylinder zero direction", Cylinder{HalfHeight: 1, Radius: 2}, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}},
		{"segment", Segment{A: mgl64.Vec3{-1, 0, 0}, B: mgl64.Vec3{1, 0, 0}}, mgl64.Vec3{1, 1, 0}, mgl64.Vec3{1, 0, 0}},
		{"segment tie", Segment{A: mgl64.Vec3{-1, 0, 0}, B: mgl64.Vec3{1, 0, 0}}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{-1, 0, 0}},
		{"triangle", Triangle{A: mgl64.Vec3{}, B: mgl64.Vec3{1, 0, 0}, C: mgl64.Vec3{0, 1, 0}}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 1, 0}},
		{"triangle tie", Triangle{A: mgl64.Vec3{}, B: mgl64.Vec3{1, 0, 0}, C: mgl64.Vec3{0, 1, 0}}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Support(tt.shape, tt.direction)
			test.That(t, vec3ApproxEqual(got, tt.want, 1e-12), test.ShouldBeTrue)
		})
	}
}

func TestSupportIsDeterministic(t *testing.T) {
	hull := cubeHull(t, 1)
	dirs := []mgl64.Vec3{{0, 0, 1}, {1, 0, 0}, {}, {1, 1, 0}}
	for _, d := range dirs {
		test.That(t, Support(hull, d), test.ShouldResemble, Support(hull, d))
		test.That(t, Support(Cuboid{HalfExtents: mgl64.Vec3{1, 1, 1}}, d), test.ShouldResemble, Support(Cuboid{HalfExtents: mgl64.Vec3{1, 1, 1}}, d))
	}
}

func TestPlacedSupport(t *testing.T) {
	p := Placed{
		Shape: Cuboid{HalfExtents: mgl64.Vec3{2, 1, 1}},
		Pose:  NewIsometry(mgl64.Vec3{5, 0, 0}, math.Pi/2, mgl64.Vec3{0, 0, 1}),
	}

	got := p.Support(mgl64.Vec3{0.3, 1, 0.2})
	test.That(t, vec3ApproxEqual(got, mgl64.Vec3{6, 2, 1}, 1e-12), test.ShouldBeTrue)
	test.That(t, vec3ApproxEqual(p.Center(), mgl64.Vec3{5, 0, 0}, 1e-12), test.ShouldBeTrue)

	// Scaling the direction does not move the support point
	test.That(t, vec3ApproxEqual(p.Support(mgl64.Vec3{3, 10, 2}), got, 1e-12), test.ShouldBeTrue)
}

func BenchmarkSupportHull(b *testing.B) {
	hull := sphereHull(b, 500)
	dir := mgl64.Vec3{0.3, -0.7, 0.2}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Support(hull, dir)
	}
}

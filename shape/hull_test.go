package shape

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

// cubeHull builds the hull of a cube of half size h, with an interior point
// that must be dropped.
func cubeHull(t testing.TB, h float64) *ConvexHull {
	t.Helper()
	points := []mgl64.Vec3{{0, 0, 0}}
	for _, x := range []float64{-h, h} {
		for _, y := range []float64{-h, h} {
			for _, z := range []float64{-h, h} {
				points = append(points, mgl64.Vec3{x, y, z})
			}
		}
	}
	hull, err := NewConvexHull(points)
	test.That(t, err, test.ShouldBeNil)
	return hull
}

// sphereHull builds the hull of n random points on the unit sphere.
func sphereHull(t testing.TB, n int) *ConvexHull {
	t.Helper()
	rng := rand.New(rand.NewPCG(11, 17))
	points := make([]mgl64.Vec3, n)
	for i := range points {
		points[i] = mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}.Normalize()
	}
	hull, err := NewConvexHull(points)
	test.That(t, err, test.ShouldBeNil)
	return hull
}

func assertHullIsClosed(t *testing.T, h *ConvexHull) {
	t.Helper()
	for i := 0; i < h.NumFaces(); i++ {
		f := h.Face(i)
		test.That(t, f.Normal.Len(), test.ShouldAlmostEqual, 1, 1e-9)
		for _, p := range h.Points() {
			test.That(t, f.Normal.Dot(p), test.ShouldBeLessThanOrEqualTo, f.Offset+1e-9)
		}
	}
}

func TestConvexHullCube(t *testing.T) {
	h := cubeHull(t, 1)

	test.That(t, h.NumPoints(), test.ShouldEqual, 8)
	test.That(t, h.NumFaces(), test.ShouldEqual, 12)
	for _, p := range h.Points() {
		test.That(t, p, test.ShouldNotResemble, mgl64.Vec3{})
	}
	assertHullIsClosed(t, h)

	// Each cube corner shares an edge with its 3 cube neighbors plus the
	// face diagonals of the triangulation.
	for i := 0; i < h.NumPoints(); i++ {
		test.That(t, len(h.Neighbors(i)), test.ShouldBeBetweenOrEqual, 3, 6)
	}

	min, max := LocalAABB(h)
	test.That(t, min, test.ShouldResemble, mgl64.Vec3{-1, -1, -1})
	test.That(t, max, test.ShouldResemble, mgl64.Vec3{1, 1, 1})

	test.That(t, Support(h, mgl64.Vec3{1, -2, 3}), test.ShouldResemble, mgl64.Vec3{1, -1, 1})
}

func TestConvexHullDeduplicates(t *testing.T) {
	points := []mgl64.Vec3{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1},
		{1, 0, 0}, {0, 0, 1}, {1e-14, 0, 0},
	}
	h, err := NewConvexHull(points)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, h.NumPoints(), test.ShouldEqual, 4)
	test.That(t, h.NumFaces(), test.ShouldEqual, 4)
	assertHullIsClosed(t, h)
}

func TestConvexHullDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		points []mgl64.Vec3
	}{
		{"too few points", []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}},
		{"coincident", []mgl64.Vec3{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}, {1, 1, 1}}},
		{"duplicates of a triangle", []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 0, 0}, {0, 1, 0}}},
		{"collinear", []mgl64.Vec3{{0, 0, 0}, {1, 1, 1}, {2, 2, 2}, {3, 3, 3}, {-1, -1, -1}}},
		{"coplanar", []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}, {0.5, 2, 0}}},
		{"non-finite", []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, math.Inf(1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConvexHull(tt.points)
			test.That(t, errors.Is(err, ErrDegenerateShape), test.ShouldBeTrue)
		})
	}
}

func TestConvexHullHillClimbing(t *testing.T) {
	h := sphereHull(t, 400)
	test.That(t, h.NumPoints(), test.ShouldBeGreaterThan, hillClimbThreshold)
	assertHullIsClosed(t, h)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		d := mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
		got := Support(h, d)
		want := supportPoints(h.Points(), d)
		test.That(t, got.Dot(d), test.ShouldAlmostEqual, want.Dot(d), 1e-9)
	}
}

func TestConvexHullCopies(t *testing.T) {
	h := cubeHull(t, 1)

	points := h.Points()
	points[0] = mgl64.Vec3{100, 100, 100}
	test.That(t, h.Point(0), test.ShouldNotResemble, points[0])

	neighbors := h.Neighbors(0)
	neighbors[0] = -1
	test.That(t, h.Neighbors(0)[0], test.ShouldNotEqual, -1)
}

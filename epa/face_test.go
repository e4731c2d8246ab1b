package epa

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"go.viam.com/test"

	"github.com/akmonengine/narrow/gjk"
)

// Helper function to compare vectors with tolerance
func vec3ApproxEqual(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance &&
		math.Abs(a.Z()-b.Z()) < tolerance
}

// Helper function to check if a vector is normalized
func isNormalized(v mgl64.Vec3, tolerance float64) bool {
	return math.Abs(v.Len()-1.0) < tolerance
}

func simplexOf(points ...mgl64.Vec3) *gjk.Simplex {
	s := &gjk.Simplex{}
	for i, p := range points {
		s.Vertices[i] = gjk.Vertex{Point: p, A: p}
	}
	s.Count = len(points)
	return s
}

// checkClosed verifies that every directed edge is matched by its reverse and
// that Euler's formula holds. Faces must also point away from the interior.
func checkClosed(t *testing.T, b *PolytopeBuilder) {
	t.Helper()
	for i := 0; i < b.numFaces; i++ {
		f := b.faces[i]
		for e := 0; e < 3; e++ {
			a, c := f.Vertices[e], f.Vertices[(e+1)%3]
			found := 0
			for j := 0; j < b.numFaces; j++ {
				g := b.faces[j]
				for k := 0; k < 3; k++ {
					if g.Vertices[k] == c && g.Vertices[(k+1)%3] == a {
						found++
					}
				}
			}
			if found != 1 {
				t.Errorf("edge %d->%d of face %d has %d reverse edges", a, c, i, found)
			}
		}
		if f.degenerate() {
			continue
		}
		p0 := b.vertices[f.Vertices[0]].Point
		if f.Normal.Dot(p0.Sub(b.interior)) <= 0 {
			t.Errorf("face %d normal %v points inward", i, f.Normal)
		}
	}
	used := map[int]bool{}
	for i := 0; i < b.numFaces; i++ {
		for _, v := range b.faces[i].Vertices {
			used[v] = true
		}
	}
	if b.numFaces != 2*len(used)-4 {
		t.Errorf("faces = %d, vertices = %d: not a closed triangulation", b.numFaces, len(used))
	}
}

// TestSnapNormalToAxis tests the normal snapping function for numerical stability
func TestSnapNormalToAxis(t *testing.T) {
	tests := []struct {
		name     string
		input    mgl64.Vec3
		expected mgl64.Vec3
	}{
		{
			name:     "small_x_component",
			input:    mgl64.Vec3{1e-9, 1.0, 0.0},
			expected: mgl64.Vec3{0.0, 1.0, 0.0},
		},
		{
			name:     "small_z_component",
			input:    mgl64.Vec3{0.0, 1.0, 1e-9},
			expected: mgl64.Vec3{0.0, 1.0, 0.0},
		},
		{
			name:     "already_axis_aligned_x",
			input:    mgl64.Vec3{1.0, 0.0, 0.0},
			expected: mgl64.Vec3{1.0, 0.0, 0.0},
		},
		{
			name:     "diagonal_normal",
			input:    mgl64.Vec3{1.0, 1.0, 1.0}.Normalize(),
			expected: mgl64.Vec3{1.0, 1.0, 1.0}.Normalize(),
		},
		{
			name:     "near_zero_vector",
			input:    mgl64.Vec3{1e-9, 1e-9, 1e-9},
			expected: mgl64.Vec3{0.0, 1.0, 0.0}, // Default fallback
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := snapNormalToAxis(tt.input)

			if !vec3ApproxEqual(result, tt.expected, 1e-6) {
				t.Errorf("snapNormalToAxis(%v) = %v, want %v", tt.input, result, tt.expected)
			}
			if !isNormalized(result, 1e-6) {
				t.Errorf("result is not normalized: length = %v", result.Len())
			}
		})
	}
}

// TestBuildInitialFaces tests initial tetrahedron face creation
func TestBuildInitialFaces(t *testing.T) {
	tests := []struct {
		name    string
		simplex *gjk.Simplex
		wantErr bool
	}{
		{
			name:    "positive orientation",
			simplex: simplexOf(mgl64.Vec3{1, 0, -1}, mgl64.Vec3{-1, 1, -1}, mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{0, 0, 2}),
		},
		{
			name:    "negative orientation",
			simplex: simplexOf(mgl64.Vec3{-1, 1, -1}, mgl64.Vec3{1, 0, -1}, mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{0, 0, 2}),
		},
		{
			name:    "flat simplex",
			simplex: simplexOf(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{0, -1, 0}),
			wantErr: true,
		},
		{
			name:    "triangle",
			simplex: simplexOf(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b PolytopeBuilder
			b.Reset(MaxFaces)
			err := b.BuildInitialFaces(tt.simplex)
			if tt.wantErr {
				test.That(t, err, test.ShouldNotBeNil)
				return
			}
			test.That(t, err, test.ShouldBeNil)
			test.That(t, b.NumFaces(), test.ShouldEqual, 4)
			checkClosed(t, &b)

			for i := 0; i < b.NumFaces(); i++ {
				f := b.Face(i)
				test.That(t, isNormalized(f.Normal, 1e-9), test.ShouldBeTrue)
				// the origin is inside
				test.That(t, f.Distance, test.ShouldBeGreaterThan, 0)
			}
		})
	}
}

func TestCreateFaceOutward(t *testing.T) {
	var b PolytopeBuilder
	b.Reset(MaxFaces)
	b.vertices[0] = gjk.Vertex{Point: mgl64.Vec3{1, 0, 0}}
	b.vertices[1] = gjk.Vertex{Point: mgl64.Vec3{0, 1, 0}}
	b.vertices[2] = gjk.Vertex{Point: mgl64.Vec3{0, 0, 0}}
	b.vertices[3] = gjk.Vertex{Point: mgl64.Vec3{2, 0, 0}}
	b.numVertices = 4
	b.interior = mgl64.Vec3{0.2, 0.2, -1}

	face := b.createFaceOutward(0, 1, 2)
	if !vec3ApproxEqual(face.Normal, mgl64.Vec3{0, 0, 1}, 1e-12) {
		t.Errorf("normal = %v, want +z", face.Normal)
	}
	if face.Vertices != [3]int{0, 1, 2} {
		t.Errorf("winding changed: %v", face.Vertices)
	}

	flipped := b.createFaceOutward(0, 2, 1)
	if !vec3ApproxEqual(flipped.Normal, mgl64.Vec3{0, 0, 1}, 1e-12) {
		t.Errorf("normal = %v, want +z", flipped.Normal)
	}
	if flipped.Vertices != [3]int{0, 1, 2} {
		t.Errorf("winding not restored: %v", flipped.Vertices)
	}

	degenerate := b.createFaceOutward(0, 2, 3)
	if !degenerate.degenerate() {
		t.Errorf("collinear face should be degenerate, distance = %v", degenerate.Distance)
	}
}

func TestAddPointAndRebuildFaces(t *testing.T) {
	var b PolytopeBuilder
	b.Reset(MaxFaces)
	err := b.BuildInitialFaces(simplexOf(
		mgl64.Vec3{1, 0, -1}, mgl64.Vec3{-1, 1, -1}, mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{0, 0, 2},
	))
	test.That(t, err, test.ShouldBeNil)

	points := []mgl64.Vec3{
		{0, 0, -3},
		{3, 0, 0},
		{-3, 2, 0},
		{0, -3, 1},
		{1, 1, 3},
	}
	for _, p := range points {
		closest := b.FindClosestFaceIndex()
		err := b.AddPointAndRebuildFaces(gjk.Vertex{Point: p, A: p}, closest)
		test.That(t, err, test.ShouldBeNil)
		checkClosed(t, &b)
	}
	test.That(t, b.NumVertices(), test.ShouldEqual, 9)
}

func TestAddPointOnFacePlane(t *testing.T) {
	var b PolytopeBuilder
	b.Reset(MaxFaces)
	err := b.BuildInitialFaces(simplexOf(
		mgl64.Vec3{1, 0, -1}, mgl64.Vec3{-1, 1, -1}, mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{0, 0, 2},
	))
	test.That(t, err, test.ShouldBeNil)

	// (2, 2, -1) extends the bottom face plane, (3, 3, -1) then lies on the
	// line through (-1, -1, -1) and (2, 2, -1).
	for _, p := range []mgl64.Vec3{{2, 2, -1}, {3, 3, -1}} {
		err := b.AddPointAndRebuildFaces(gjk.Vertex{Point: p, A: p}, b.FindClosestFaceIndex())
		test.That(t, err, test.ShouldBeNil)
		checkClosed(t, &b)
		for i := 0; i < b.NumFaces(); i++ {
			f := b.Face(i)
			test.That(t, f.degenerate(), test.ShouldBeFalse)
			// every vertex is on or behind every face plane
			for v := 0; v < b.NumVertices(); v++ {
				test.That(t, b.Vertex(v).Point.Dot(f.Normal)-f.Distance, test.ShouldBeLessThanOrEqualTo, 1e-9)
			}
		}
	}
}

func TestAddPointInside(t *testing.T) {
	var b PolytopeBuilder
	b.Reset(MaxFaces)
	err := b.BuildInitialFaces(simplexOf(
		mgl64.Vec3{1, 0, -1}, mgl64.Vec3{-1, 1, -1}, mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{0, 0, 2},
	))
	test.That(t, err, test.ShouldBeNil)

	err = b.AddPointAndRebuildFaces(gjk.Vertex{Point: mgl64.Vec3{0, 0, -0.5}}, b.FindClosestFaceIndex())
	test.That(t, err, test.ShouldEqual, errDegenerate)
	test.That(t, b.NumFaces(), test.ShouldEqual, 4)
	test.That(t, b.NumVertices(), test.ShouldEqual, 4)
}

func TestAddPointCapacity(t *testing.T) {
	var b PolytopeBuilder
	b.Reset(4)
	err := b.BuildInitialFaces(simplexOf(
		mgl64.Vec3{1, 0, -1}, mgl64.Vec3{-1, 1, -1}, mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{0, 0, 2},
	))
	test.That(t, err, test.ShouldBeNil)

	err = b.AddPointAndRebuildFaces(gjk.Vertex{Point: mgl64.Vec3{0, 0, -3}}, b.FindClosestFaceIndex())
	test.That(t, err, test.ShouldEqual, errCapacity)
	// untouched
	test.That(t, b.NumFaces(), test.ShouldEqual, 4)
	test.That(t, b.NumVertices(), test.ShouldEqual, 4)
	checkClosed(t, &b)
}

func BenchmarkBuildInitialFaces(b *testing.B) {
	simplex := simplexOf(mgl64.Vec3{1, 0, -1}, mgl64.Vec3{-1, 1, -1}, mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{0, 0, 2})
	builder := &PolytopeBuilder{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		builder.Reset(MaxFaces)
		if err := builder.BuildInitialFaces(simplex); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAddPointAndRebuildFaces(b *testing.B) {
	simplex := simplexOf(mgl64.Vec3{1, 0, -1}, mgl64.Vec3{-1, 1, -1}, mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{0, 0, 2})
	support := gjk.Vertex{Point: mgl64.Vec3{2, 0.5, 0.5}}
	builder := &PolytopeBuilder{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		builder.Reset(MaxFaces)
		_ = builder.BuildInitialFaces(simplex)
		b.StartTimer()

		if err := builder.AddPointAndRebuildFaces(support, builder.FindClosestFaceIndex()); err != nil {
			b.Fatal(err)
		}
	}
}

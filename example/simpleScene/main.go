// Command simpleScene moves a tilted cube down onto a ground slab and prints
// what each query sees along the way.
package main

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/akmonengine/narrow"
	"github.com/akmonengine/narrow/bounding"
	"github.com/akmonengine/narrow/epa"
	"github.com/akmonengine/narrow/manifold"
	"github.com/akmonengine/narrow/query"
	"github.com/akmonengine/narrow/shape"
)

// Debugger prints the intermediate results of the scene.
type Debugger interface {
	DebugContact(a, b shape.Placed, res narrow.Result)
	DebugManifold(a, b shape.Placed, contacts []manifold.Contact)
	DebugImpact(impact narrow.Impact, ok bool)
}

type SimpleDebugger struct{}

func (d *SimpleDebugger) DebugContact(a, b shape.Placed, res narrow.Result) {
	fmt.Printf("Contact (%s):\n", res.Status)
	fmt.Printf("   A pos: %v\n", a.Pose.Translation)
	fmt.Printf("   B pos: %v\n", b.Pose.Translation)
	fmt.Printf("   Signed distance: %.6f\n", res.SignedDistance())
	fmt.Printf("   Normal: %v\n", res.Normal)
	fmt.Printf("   Points: %v %v\n", res.PointA, res.PointB)
	if res.Estimate.LowConfidence {
		fmt.Printf("   Low confidence: %s\n", res.Estimate.Reason)
	}
}

func (d *SimpleDebugger) DebugManifold(a, b shape.Placed, contacts []manifold.Contact) {
	fmt.Printf("Manifold:\n")
	fmt.Printf("   Contact points: %d\n", len(contacts))
	for i, c := range contacts {
		rA := c.Position.Sub(a.Pose.Translation)
		rB := c.Position.Sub(b.Pose.Translation)
		fmt.Printf("   Point %d: position=%v depth=%.6f\n", i, c.Position, c.Depth)
		fmt.Printf("      rA (ground): %v (len=%.3f)\n", rA, rA.Len())
		fmt.Printf("      rB (cube):   %v (len=%.3f)\n", rB, rB.Len())
	}
}

func (d *SimpleDebugger) DebugImpact(impact narrow.Impact, ok bool) {
	if !ok {
		fmt.Printf("Impact: none this step\n")
		return
	}
	fmt.Printf("Impact: toi=%.6f normal=%v point=%v\n", impact.Toi, impact.Normal, impact.PointB)
}

// SetupScene creates the ground slab and the tilted cube above it.
func SetupScene() (ground, cube shape.Placed, err error) {
	slab, err := shape.NewCuboid(mgl64.Vec3{20, 0.5, 20})
	if err != nil {
		return ground, cube, err
	}
	box, err := shape.NewCuboid(mgl64.Vec3{1.5, 1.5, 1.5})
	if err != nil {
		return ground, cube, err
	}

	ground = shape.Placed{Shape: slab, Pose: shape.Translation(mgl64.Vec3{0, -0.5, 0})}
	cube = shape.Placed{Shape: box, Pose: shape.NewIsometry(mgl64.Vec3{-5, 5, -5}, mgl64.DegToRad(20), mgl64.Vec3{0, 0, 1})}
	return ground, cube, nil
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := narrow.DefaultConfig()
	cfg.Logger = logger.Sugar()
	debugger := &SimpleDebugger{}

	ground, cube, err := SetupScene()
	if err != nil {
		logger.Fatal("scene setup", zap.Error(err))
	}

	const dt = 1.0 / 60.0
	const steps = 120
	velocity := mgl64.Vec3{0, -4, 0}

	for step := 0; step < steps; step++ {
		fmt.Printf("--- STEP %d ---\n", step+1)
		box := bounding.AABBOf(cube.Shape, cube.Pose)
		fmt.Printf("Cube AABB: %v %v\n", box.Min, box.Max)

		impact, hit, err := narrow.TimeOfImpact(
			narrow.Motion{Placed: ground},
			narrow.Motion{Placed: cube, Velocity: velocity},
			dt, cfg)
		if err != nil {
			logger.Fatal("time of impact", zap.Error(err))
		}
		debugger.DebugImpact(impact, hit)

		res, err := narrow.Contact(ground, cube, cfg)
		if err != nil {
			logger.Fatal("contact", zap.Error(err))
		}
		debugger.DebugContact(ground, cube, res)

		if res.Overlaps() {
			pen := epa.Result{Depth: res.Depth, Normal: res.Normal, PointA: res.PointA, PointB: res.PointB}
			debugger.DebugManifold(ground, cube, manifold.Generate(ground, cube, pen))
			break
		}

		// The slab stops the cube: advance to the impact when it happens
		// within the step.
		move := dt
		if hit {
			move = math.Max(impact.Toi, 0) + 0.01*dt
		}
		cube.Pose.Translation = cube.Pose.Translation.Add(velocity.Mul(move))

		down := query.Ray{Origin: cube.Pose.Translation, Direction: mgl64.Vec3{0, -1, 0}}
		if h, ok, err := query.CastRay(ground.Shape, ground.Pose, down, math.Inf(1), query.ModeSolid, cfg.GJK); err == nil && ok {
			fmt.Printf("Height above ground: %.3f\n", h.Toi)
		}
		fmt.Println()
	}
}

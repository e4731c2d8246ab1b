package epa

import "github.com/pkg/errors"

const (
	// MaxFaces is the fixed face capacity of the polytope.
	MaxFaces = 256

	// MaxVertices follows from Euler's formula for a closed triangulated
	// polytope (F = 2V - 4).
	MaxVertices = MaxFaces/2 + 2

	// maxEdges bounds the transient horizon list: every visible face
	// contributes at most three edges before shared ones cancel out.
	maxEdges = 3 * MaxFaces
)

// Config bounds the work done by a single penetration query.
type Config struct {
	// MaxIterations caps the number of polytope expansions.
	MaxIterations int `json:"max_iterations"`
	// MaxFaces caps the polytope size; it cannot exceed the MaxFaces constant.
	MaxFaces int `json:"max_faces"`
	// Tolerance is the relative improvement of the closest face distance
	// below which the expansion stops. It is used as an absolute tolerance
	// for distances under one unit. Polyhedral pairs converge exactly; on
	// curved pairs the normal error grows like the square root of Tolerance.
	Tolerance float64 `json:"tolerance"`
}

func DefaultConfig() Config {
	return Config{
		MaxIterations: 128,
		MaxFaces:      MaxFaces,
		Tolerance:     1e-4,
	}
}

func (c Config) Validate() error {
	if c.MaxIterations <= 0 {
		return errors.Errorf("epa: max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.MaxFaces < 4 || c.MaxFaces > MaxFaces {
		return errors.Errorf("epa: max_faces must be in [4, %d], got %d", MaxFaces, c.MaxFaces)
	}
	if !(c.Tolerance > 0 && c.Tolerance < 1) {
		return errors.Errorf("epa: tolerance must be in (0, 1), got %v", c.Tolerance)
	}
	return nil
}

// tolerance is the convergence threshold for a face at the given distance.
func (c Config) tolerance(distance float64) float64 {
	if distance < 1 {
		return c.Tolerance
	}
	return c.Tolerance * distance
}

package gjk

import "github.com/pkg/errors"

// ErrNumericDegeneracy is returned when the support mapping or the search
// direction becomes non-finite and cannot be recovered by perturbation.
var ErrNumericDegeneracy = errors.New("numeric degeneracy")

// Config bounds the work done by a single query.
type Config struct {
	// MaxIterations caps the number of support evaluations of the main loop.
	MaxIterations int `json:"max_iterations"`
	// RelativeTolerance is the relative distance improvement below which the
	// closest point is considered converged.
	RelativeTolerance float64 `json:"relative_tolerance"`
	// AbsoluteTolerance is the distance under which the origin is considered
	// to lie on the simplex.
	AbsoluteTolerance float64 `json:"absolute_tolerance"`
	// MaxPerturbations caps the search directions tried when a touching
	// simplex has to be inflated into a tetrahedron.
	MaxPerturbations int `json:"max_perturbations"`
}

func DefaultConfig() Config {
	return Config{
		MaxIterations:     64,
		RelativeTolerance: 1e-6,
		AbsoluteTolerance: 1e-9,
		MaxPerturbations:  6,
	}
}

func (c Config) Validate() error {
	if c.MaxIterations <= 0 {
		return errors.Errorf("gjk: max_iterations must be positive, got %d", c.MaxIterations)
	}
	if !(c.RelativeTolerance > 0 && c.RelativeTolerance < 1) {
		return errors.Errorf("gjk: relative_tolerance must be in (0, 1), got %v", c.RelativeTolerance)
	}
	if !(c.AbsoluteTolerance > 0) {
		return errors.Errorf("gjk: absolute_tolerance must be positive, got %v", c.AbsoluteTolerance)
	}
	if c.MaxPerturbations < 1 {
		return errors.Errorf("gjk: max_perturbations must be at least 1, got %d", c.MaxPerturbations)
	}
	return nil
}

// Reason explains why a result is an estimate.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonIterationBudgetExceeded
	ReasonNumericDegeneracy
	ReasonCapacityExceeded
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonIterationBudgetExceeded:
		return "iteration budget exceeded"
	case ReasonNumericDegeneracy:
		return "numeric degeneracy"
	case ReasonCapacityExceeded:
		return "capacity exceeded"
	}
	return "unknown"
}

// Estimate flags results returned before the convergence criteria were met.
// Such results are still the best candidate found and are safe to use.
type Estimate struct {
	LowConfidence bool
	Reason        Reason
}

// LowConfidence builds an estimate flagged for reason r.
func LowConfidence(r Reason) Estimate {
	return Estimate{LowConfidence: true, Reason: r}
}

package ep

import (
	"fmt"
	"log/slog"
)

// Config holds every recognized solver option. Unknown options are
// impossible by construction; the zero value is not usable, start from
// DefaultConfig.
type Config struct {
	// MaxStepSize is the upper bound on the damping step size, in (0, 1].
	MaxStepSize float64 `yaml:"maxstepsize"`

	// Fraction is the EP power exponent: the share of each site removed and
	// refit per update, in (0, 1].
	Fraction float64 `yaml:"fraction"`

	// MaxIter is the outer iteration budget.
	MaxIter int `yaml:"niter"`

	// Tol is the convergence threshold on the evidence delta, scaled by the
	// current step size.
	Tol float64 `yaml:"tol"`

	// NWeights is the number of quadrature nodes for both the Hermite and
	// Laguerre rules.
	NWeights int `yaml:"nweights"`

	// Temperature divides the likelihood contribution during moment
	// matching; values below 1 sharpen the posterior toward the MAP
	// estimate.
	Temperature float64 `yaml:"temperature"`

	// Lambda is the initial regularizing scale for the feature-precision
	// site terms.
	Lambda float64 `yaml:"lambda"`

	// Logger receives per-round diagnostics; nil uses slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxStepSize: 1,
		Fraction:    0.99,
		MaxIter:     100,
		Tol:         1e-5,
		NWeights:    50,
		Temperature: 1,
		Lambda:      0.001,
	}
}

// Validate rejects out-of-range options.
func (c Config) Validate() error {
	if !(c.MaxStepSize > 0 && c.MaxStepSize <= 1) {
		return fmt.Errorf("ep: maxstepsize must be in (0, 1], got %v", c.MaxStepSize)
	}
	if !(c.Fraction > 0 && c.Fraction <= 1) {
		return fmt.Errorf("ep: fraction must be in (0, 1], got %v", c.Fraction)
	}
	if c.MaxIter < 1 {
		return fmt.Errorf("ep: niter must be at least 1, got %d", c.MaxIter)
	}
	if !(c.Tol > 0) {
		return fmt.Errorf("ep: tol must be positive, got %v", c.Tol)
	}
	if c.NWeights < 2 {
		return fmt.Errorf("ep: nweights must be at least 2, got %d", c.NWeights)
	}
	if !(c.Temperature > 0) {
		return fmt.Errorf("ep: temperature must be positive, got %v", c.Temperature)
	}
	if !(c.Lambda > 0) {
		return fmt.Errorf("ep: lambda must be positive, got %v", c.Lambda)
	}
	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

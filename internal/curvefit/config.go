// Package curvefit fits the four-parameter log-logistic dose-response model
// and derives inference from the fit: standard errors, cross-condition
// parameter contrasts, and predictions.
//
// Conditions are fit jointly over one stacked parameter vector (four
// parameters per condition, independently estimated) so the joint covariance
// needed by contrasts comes out of a single least-squares solve.
package curvefit

import "fmt"

// Weighting selects the least-squares weighting scheme.
type Weighting string

const (
	// WeightNone is ordinary least squares on the aggregated means.
	WeightNone Weighting = "none"
	// WeightInverseVariance weights each point by 1/sem^2. Every fitted
	// point must carry a defined SEM.
	WeightInverseVariance Weighting = "inverse_variance"
)

// Config bounds the optimizer and selects weighting.
type Config struct {
	MaxIterations int
	Tolerance     float64
	Weighting     Weighting
}

// DefaultConfig returns the documented defaults: 500 iterations, 1e-8
// relative tolerance, unweighted least squares.
func DefaultConfig() Config {
	return Config{
		MaxIterations: 500,
		Tolerance:     1e-8,
		Weighting:     WeightNone,
	}
}

func (c Config) validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be >= 1, got %d", c.MaxIterations)
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive, got %g", c.Tolerance)
	}
	switch c.Weighting {
	case WeightNone, WeightInverseVariance:
		return nil
	default:
		return fmt.Errorf("unknown weighting %q", c.Weighting)
	}
}

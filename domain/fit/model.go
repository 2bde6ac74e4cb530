// Package fit holds the fitted dose-response model and the read-only
// quantities derived from it. A Model is created once by the curve fitter
// and never mutated afterwards.
package fit

import (
	"fmt"
	"math"

	"dosefit/domain/dose"
)

// ParamName addresses one of the four log-logistic parameters.
type ParamName string

const (
	ParamHillSlope ParamName = "hill_slope"
	ParamMin       ParamName = "min"
	ParamMax       ParamName = "max"
	ParamEC50      ParamName = "ec50"
)

// ParamsPerCondition is the number of free parameters each condition owns.
const ParamsPerCondition = 4

// paramOrder fixes the layout of each condition's block in the joint
// covariance matrix.
var paramOrder = []ParamName{ParamHillSlope, ParamMin, ParamMax, ParamEC50}

// Params are the four log-logistic parameters for one condition.
//
//	f(d) = Min + (Max-Min) / (1 + exp(HillSlope * (log d - log EC50)))
//
// EC50 is strictly positive; it is estimated on the log scale internally.
type Params struct {
	HillSlope float64 `json:"hill_slope"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	EC50      float64 `json:"ec50"`
}

// Evaluate applies the parameters to a dose.
func (p Params) Evaluate(d float64) float64 {
	return p.Min + (p.Max-p.Min)/(1+math.Exp(p.HillSlope*(math.Log(d)-math.Log(p.EC50))))
}

// Model is the immutable result of a joint curve fit: per-condition
// parameter estimates plus the joint covariance over the stacked parameter
// vector, laid out condition-by-condition in paramOrder.
type Model struct {
	conditions []dose.Condition
	index      map[dose.Condition]int
	params     map[dose.Condition]Params
	stderr     map[dose.Condition]Params
	cov        [][]float64
	df         int
}

// NewModel assembles a fitted model. The covariance matrix must be square
// with ParamsPerCondition rows per condition, ordered as conditions is.
func NewModel(conditions []dose.Condition, params, stderr map[dose.Condition]Params, cov [][]float64, df int) (*Model, error) {
	n := len(conditions) * ParamsPerCondition
	if len(cov) != n {
		return nil, fmt.Errorf("covariance is %dx%d, want %dx%d", len(cov), len(cov), n, n)
	}
	index := make(map[dose.Condition]int, len(conditions))
	for i, c := range conditions {
		if _, ok := params[c]; !ok {
			return nil, dose.NewUnknownConditionError(c)
		}
		index[c] = i
	}
	conds := make([]dose.Condition, len(conditions))
	copy(conds, conditions)
	return &Model{
		conditions: conds,
		index:      index,
		params:     params,
		stderr:     stderr,
		cov:        cov,
		df:         df,
	}, nil
}

// Conditions lists the fitted conditions in fitting order.
func (m *Model) Conditions() []dose.Condition {
	out := make([]dose.Condition, len(m.conditions))
	copy(out, m.conditions)
	return out
}

// Params returns the parameter estimates for a condition.
func (m *Model) Params(c dose.Condition) (Params, error) {
	p, ok := m.params[c]
	if !ok {
		return Params{}, dose.NewUnknownConditionError(c)
	}
	return p, nil
}

// StdErr returns the per-parameter standard errors for a condition.
func (m *Model) StdErr(c dose.Condition) (Params, error) {
	se, ok := m.stderr[c]
	if !ok {
		return Params{}, dose.NewUnknownConditionError(c)
	}
	return se, nil
}

// DegreesOfFreedom is the residual degrees of freedom of the joint fit:
// fitted points minus free parameters.
func (m *Model) DegreesOfFreedom() int { return m.df }

// Evaluate predicts the response at a dose under one condition. Doses need
// not come from the fitting data.
func (m *Model) Evaluate(d float64, c dose.Condition) (float64, error) {
	if d <= 0 {
		return 0, fmt.Errorf("dose must be positive, got %g", d)
	}
	p, err := m.Params(c)
	if err != nil {
		return 0, err
	}
	return p.Evaluate(d), nil
}

// Covariance returns the estimated covariance between two named parameters,
// possibly of different conditions. Same-named parameters across conditions
// are what pairwise contrasts need.
func (m *Model) Covariance(c1 dose.Condition, p1 ParamName, c2 dose.Condition, p2 ParamName) (float64, error) {
	i, err := m.paramIndex(c1, p1)
	if err != nil {
		return 0, err
	}
	j, err := m.paramIndex(c2, p2)
	if err != nil {
		return 0, err
	}
	return m.cov[i][j], nil
}

func (m *Model) paramIndex(c dose.Condition, name ParamName) (int, error) {
	block, ok := m.index[c]
	if !ok {
		return 0, dose.NewUnknownConditionError(c)
	}
	for off, p := range paramOrder {
		if p == name {
			return block*ParamsPerCondition + off, nil
		}
	}
	return 0, dose.NewUnknownParameterError(string(name))
}

package curvefit

import (
	"fmt"
	"math"

	"dosefit/domain/dose"
	"dosefit/domain/fit"

	"gonum.org/v1/gonum/stat/distuv"
)

// Compare tests the difference of one named parameter between two fitted
// conditions: estimate = param[a] - param[b], with the standard error taken
// from the joint covariance,
//
//	se = sqrt(var_a + var_b - 2*cov_ab)
//
// and a two-sided t test with df = fitted points - free parameters.
func Compare(m *fit.Model, param fit.ParamName, a, b dose.Condition) (fit.Contrast, error) {
	pa, err := m.Params(a)
	if err != nil {
		return fit.Contrast{}, err
	}
	pb, err := m.Params(b)
	if err != nil {
		return fit.Contrast{}, err
	}

	varA, err := m.Covariance(a, param, a, param)
	if err != nil {
		return fit.Contrast{}, err
	}
	varB, err := m.Covariance(b, param, b, param)
	if err != nil {
		return fit.Contrast{}, err
	}
	covAB, err := m.Covariance(a, param, b, param)
	if err != nil {
		return fit.Contrast{}, err
	}

	df := m.DegreesOfFreedom()
	if df < 1 {
		return fit.Contrast{}, fmt.Errorf("%w: no residual degrees of freedom for contrast", dose.ErrUnderDetermined)
	}

	estimate := paramValue(pa, param) - paramValue(pb, param)
	se := math.Sqrt(varA + varB - 2*covAB)
	if !(se > 0) || math.IsInf(se, 0) {
		return fit.Contrast{}, fmt.Errorf("degenerate standard error %g for %s contrast %q vs %q", se, param, a, b)
	}

	statistic := estimate / se
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	pValue := 2 * (1 - tDist.CDF(math.Abs(statistic)))

	return fit.Contrast{
		Parameter:        param,
		ConditionA:       a,
		ConditionB:       b,
		Estimate:         estimate,
		StdError:         se,
		Statistic:        statistic,
		PValue:           pValue,
		DegreesOfFreedom: df,
	}, nil
}

func paramValue(p fit.Params, name fit.ParamName) float64 {
	switch name {
	case fit.ParamHillSlope:
		return p.HillSlope
	case fit.ParamMin:
		return p.Min
	case fit.ParamMax:
		return p.Max
	case fit.ParamEC50:
		return p.EC50
	}
	// Unreachable: Covariance already rejected unknown names.
	return math.NaN()
}

package curvefit

import (
	"fmt"
	"math"

	"dosefit/domain/dose"
	"dosefit/domain/fit"
)

// Fitter fits the four-parameter log-logistic model to aggregated points,
// jointly across conditions.
type Fitter struct {
	cfg Config
}

// NewFitter creates a fitter with the given configuration.
func NewFitter(cfg Config) *Fitter {
	return &Fitter{cfg: cfg}
}

// Fit estimates one parameter block per condition over a single stacked
// least-squares solve and returns the immutable fitted model.
//
// Under-determined conditions (fewer points than parameters) are rejected
// before the solve. With inverse-variance weighting, every point must carry
// a defined SEM.
func (f *Fitter) Fit(points []dose.AggregatedPoint) (*fit.Model, error) {
	if err := f.cfg.validate(); err != nil {
		return nil, err
	}

	conditions, perCondition := splitByCondition(points)
	if len(conditions) == 0 {
		return nil, fmt.Errorf("no points to fit")
	}
	for _, c := range conditions {
		if n := len(perCondition[c]); n < fit.ParamsPerCondition {
			return nil, dose.NewUnderDeterminedError(c, n, fit.ParamsPerCondition)
		}
	}

	weights, err := f.weights(points)
	if err != nil {
		return nil, err
	}

	// Stacked start vector: one data-driven block per condition.
	nPar := len(conditions) * fit.ParamsPerCondition
	p0 := make([]float64, 0, nPar)
	block := make(map[dose.Condition]int, len(conditions))
	for i, c := range conditions {
		block[c] = i * fit.ParamsPerCondition
		guess := initialGuess(perCondition[c])
		p0 = append(p0, guess[:]...)
	}

	resid := func(p, out []float64) {
		for i, pt := range points {
			b := block[pt.Condition]
			pred := logLogistic4(pt.Dose, p[b+idxHill], p[b+idxMin], p[b+idxMax], p[b+idxLogEC50])
			out[i] = (pred - pt.MeanResponse) * weights[i]
		}
	}

	res, err := levenbergMarquardt(resid, p0, len(points), f.cfg)
	if err != nil {
		return nil, err
	}

	return f.assemble(conditions, block, points, res)
}

// assemble moves the solution from the internal log(EC50) scale to the
// reporting scale and packages estimates, standard errors and the joint
// covariance into a model.
func (f *Fitter) assemble(conditions []dose.Condition, block map[dose.Condition]int, points []dose.AggregatedPoint, res *levmarResult) (*fit.Model, error) {
	nPar := len(conditions) * fit.ParamsPerCondition
	df := len(points) - nPar

	// Residual variance scale. With df == 0 the system is exactly
	// determined: estimates exist but no inference does, and the NaN scale
	// propagates into every standard error rather than faking zeros.
	sigma2 := math.NaN()
	if df > 0 {
		sigma2 = res.ssr / float64(df)
	}

	cov := make([][]float64, nPar)
	for i := range cov {
		cov[i] = make([]float64, nPar)
		for j := range cov[i] {
			cov[i][j] = sigma2 * res.unscaled.At(i, j)
		}
	}

	// Delta method for EC50 = exp(logEC50): scale its covariance row and
	// column by the estimate.
	for _, c := range conditions {
		b := block[c]
		ec50 := math.Exp(res.params[b+idxLogEC50])
		k := b + idxLogEC50
		for j := 0; j < nPar; j++ {
			cov[k][j] *= ec50
			cov[j][k] *= ec50
		}
	}

	params := make(map[dose.Condition]fit.Params, len(conditions))
	stderr := make(map[dose.Condition]fit.Params, len(conditions))
	for _, c := range conditions {
		b := block[c]
		params[c] = fit.Params{
			HillSlope: res.params[b+idxHill],
			Min:       res.params[b+idxMin],
			Max:       res.params[b+idxMax],
			EC50:      math.Exp(res.params[b+idxLogEC50]),
		}
		stderr[c] = fit.Params{
			HillSlope: math.Sqrt(cov[b+idxHill][b+idxHill]),
			Min:       math.Sqrt(cov[b+idxMin][b+idxMin]),
			Max:       math.Sqrt(cov[b+idxMax][b+idxMax]),
			EC50:      math.Sqrt(cov[b+idxLogEC50][b+idxLogEC50]),
		}
	}

	// The internal block order is [hill, min, max, logEC50]; the model's
	// canonical order is [hill, min, max, ec50], which matches position for
	// position once logEC50 is transformed, so cov can be passed through.
	return fit.NewModel(conditions, params, stderr, cov, df)
}

func (f *Fitter) weights(points []dose.AggregatedPoint) ([]float64, error) {
	w := make([]float64, len(points))
	for i, pt := range points {
		switch f.cfg.Weighting {
		case WeightInverseVariance:
			if !pt.HasSEM() {
				return nil, fmt.Errorf("%w: inverse-variance weighting needs >= 2 replicates at dose %g condition %q",
					dose.ErrUndefinedSEM, pt.Dose, pt.Condition)
			}
			if pt.SEM <= 0 {
				return nil, fmt.Errorf("%w: zero SEM at dose %g condition %q", dose.ErrUndefinedSEM, pt.Dose, pt.Condition)
			}
			w[i] = 1 / pt.SEM
		default:
			w[i] = 1
		}
	}
	return w, nil
}

// splitByCondition groups points per condition, preserving first-appearance
// order of both conditions and points.
func splitByCondition(points []dose.AggregatedPoint) ([]dose.Condition, map[dose.Condition][]dose.AggregatedPoint) {
	var conditions []dose.Condition
	per := make(map[dose.Condition][]dose.AggregatedPoint)
	for _, p := range points {
		if _, seen := per[p.Condition]; !seen {
			conditions = append(conditions, p.Condition)
		}
		per[p.Condition] = append(per[p.Condition], p)
	}
	return conditions, per
}

package curvefit

import (
	"math"

	"dosefit/domain/dose"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// residualFunc fills out with the weighted residuals at parameter vector p.
type residualFunc func(p, out []float64)

// levmarResult is the raw optimizer output before covariance scaling.
type levmarResult struct {
	params     []float64
	unscaled   *mat.Dense // (J'J)^-1 at the solution
	ssr        float64
	iterations int
}

// levenbergMarquardt minimizes the sum of squared residuals by damped
// Gauss-Newton steps with a numeric Jacobian. It stops when either the
// relative SSR improvement or the gradient norm drops below cfg.Tolerance,
// and fails with a Convergence error when the iteration budget runs out or
// the normal equations stay unsolvable.
func levenbergMarquardt(resid residualFunc, p0 []float64, nRes int, cfg Config) (*levmarResult, error) {
	nPar := len(p0)
	p := make([]float64, nPar)
	copy(p, p0)

	r := make([]float64, nRes)
	resid(p, r)
	ssr := dot(r, r)
	if math.IsNaN(ssr) || math.IsInf(ssr, 0) {
		return nil, dose.NewConvergenceError(0, ssr)
	}

	jacFn := func(y, x []float64) { resid(x, y) }
	jac := mat.NewDense(nRes, nPar, nil)
	trial := make([]float64, nPar)
	rTrial := make([]float64, nRes)

	lambda := 1e-3
	for iter := 1; iter <= cfg.MaxIterations; iter++ {
		fd.Jacobian(jac, jacFn, p, nil)

		var jtj mat.Dense
		jtj.Mul(jac.T(), jac)
		grad := mat.NewVecDense(nPar, nil)
		grad.MulVec(jac.T(), mat.NewVecDense(nRes, r))

		if mat.Norm(grad, math.Inf(1)) <= cfg.Tolerance {
			return finishLevmar(p, &jtj, ssr, iter)
		}

		accepted := false
		for attempt := 0; attempt < 25; attempt++ {
			damped := mat.DenseCopyOf(&jtj)
			for i := 0; i < nPar; i++ {
				// Marquardt scaling keeps the step sane when the
				// parameters differ by orders of magnitude.
				damped.Set(i, i, jtj.At(i, i)+lambda*(jtj.At(i, i)+1e-12))
			}

			var step mat.VecDense
			if err := step.SolveVec(damped, grad); err != nil {
				lambda *= 10
				continue
			}
			for i := 0; i < nPar; i++ {
				trial[i] = p[i] - step.AtVec(i)
			}

			resid(trial, rTrial)
			ssrTrial := dot(rTrial, rTrial)
			if math.IsNaN(ssrTrial) || ssrTrial >= ssr {
				lambda *= 10
				continue
			}

			improvement := ssr - ssrTrial
			copy(p, trial)
			copy(r, rTrial)
			ssr = ssrTrial
			lambda = math.Max(lambda/10, 1e-12)
			accepted = true

			if improvement <= cfg.Tolerance*(ssr+cfg.Tolerance) {
				fd.Jacobian(jac, jacFn, p, nil)
				var final mat.Dense
				final.Mul(jac.T(), jac)
				return finishLevmar(p, &final, ssr, iter)
			}
			break
		}

		if !accepted {
			// No downhill step at any damping. Floating point can stall
			// a step search right at the minimum, so accept stationarity
			// when the gradient is already numerically flat; otherwise
			// the surface is degenerate for this data.
			if mat.Norm(grad, math.Inf(1)) <= math.Sqrt(cfg.Tolerance)*(1+ssr) {
				return finishLevmar(p, &jtj, ssr, iter)
			}
			return nil, dose.NewConvergenceError(iter, ssr)
		}
	}
	return nil, dose.NewConvergenceError(cfg.MaxIterations, ssr)
}

func finishLevmar(p []float64, jtj *mat.Dense, ssr float64, iterations int) (*levmarResult, error) {
	var inv mat.Dense
	if err := inv.Inverse(jtj); err != nil {
		return nil, dose.NewConvergenceError(iterations, ssr)
	}
	out := make([]float64, len(p))
	copy(out, p)
	return &levmarResult{
		params:     out,
		unscaled:   &inv,
		ssr:        ssr,
		iterations: iterations,
	}, nil
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

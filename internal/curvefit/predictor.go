package curvefit

import (
	"fmt"
	"math"

	"dosefit/domain/dose"
	"dosefit/domain/fit"
)

// Request asks for a prediction at one (dose, condition) pair.
type Request struct {
	Dose      float64        `json:"dose"`
	Condition dose.Condition `json:"condition"`
}

// Point is a fitted-model prediction, used for overlaying curves against
// aggregated data.
type Point struct {
	Dose      float64        `json:"dose"`
	Condition dose.Condition `json:"condition"`
	Predicted float64        `json:"predicted"`
}

// Predict evaluates the model for each request, preserving input order.
// Doses outside the fitting range are allowed.
func Predict(m *fit.Model, requests []Request) ([]Point, error) {
	out := make([]Point, 0, len(requests))
	for _, req := range requests {
		pred, err := m.Evaluate(req.Dose, req.Condition)
		if err != nil {
			return nil, err
		}
		out = append(out, Point{Dose: req.Dose, Condition: req.Condition, Predicted: pred})
	}
	return out, nil
}

// CurveGrid predicts every fitted condition over n log-spaced doses in
// [minDose, maxDose], for plotting smooth overlay curves.
func CurveGrid(m *fit.Model, minDose, maxDose float64, n int) ([]Point, error) {
	if minDose <= 0 || maxDose <= minDose {
		return nil, fmt.Errorf("invalid dose range [%g, %g]", minDose, maxDose)
	}
	if n < 2 {
		return nil, fmt.Errorf("grid needs at least 2 points, got %d", n)
	}

	logLo := math.Log(minDose)
	logHi := math.Log(maxDose)
	requests := make([]Request, 0, n*len(m.Conditions()))
	for _, c := range m.Conditions() {
		for i := 0; i < n; i++ {
			d := math.Exp(logLo + (logHi-logLo)*float64(i)/float64(n-1))
			requests = append(requests, Request{Dose: d, Condition: c})
		}
	}
	return Predict(m, requests)
}

// Package app orchestrates the dose-response pipeline end to end:
// tidy -> normalize -> aggregate -> fit -> contrast/predict.
package app

import (
	"dosefit/domain/dose"
	"dosefit/domain/fit"
	"dosefit/internal/curvefit"
	"dosefit/internal/pipeline"
	"dosefit/ports"
)

// curveGridPoints is the per-condition resolution of the overlay curve.
const curveGridPoints = 50

// ConditionFit pairs a condition's estimates with their standard errors.
type ConditionFit struct {
	Condition dose.Condition `json:"condition"`
	Params    fit.Params     `json:"params"`
	StdErr    fit.Params     `json:"std_err"`
}

// AnalysisResult is everything a presentation layer needs: aggregated points
// for error-bar plots, fitted parameters, the EC50 contrast, and a smooth
// curve grid for overlays.
type AnalysisResult struct {
	Observations int                   `json:"observations"`
	Maxima       []dose.ConditionMax   `json:"maxima"`
	Aggregated   []dose.AggregatedPoint `json:"-"`
	Conditions   []ConditionFit        `json:"conditions"`
	EC50Contrast *fit.Contrast         `json:"ec50_contrast,omitempty"`
	Curve        []curvefit.Point      `json:"curve"`

	model *fit.Model
}

// Model exposes the fitted model for further contrasts or predictions.
func (r *AnalysisResult) Model() *fit.Model { return r.model }

// AnalysisService runs the full pipeline over a raw replicate table.
type AnalysisService struct {
	cfg curvefit.Config
}

// NewAnalysisService creates a service with the given fit configuration.
func NewAnalysisService(cfg curvefit.Config) *AnalysisService {
	return &AnalysisService{cfg: cfg}
}

// AnalyzeFile reads a table through the boundary reader and analyzes it.
func (s *AnalysisService) AnalyzeFile(reader ports.TableReader) (*AnalysisResult, error) {
	table, err := reader.ReadTable()
	if err != nil {
		return nil, err
	}
	return s.Analyze(table)
}

// Analyze runs tidy, normalize, aggregate and the joint curve fit, then
// derives the EC50 contrast (for exactly two conditions) and the fitted
// curve grid. Every stage failure propagates unchanged.
func (s *AnalysisService) Analyze(table dose.Table) (*AnalysisResult, error) {
	obs, err := pipeline.Tidy(table)
	if err != nil {
		return nil, err
	}

	maxima := pipeline.ConditionMaxima(obs)
	normalized, err := pipeline.NormalizeWith(obs, maxima)
	if err != nil {
		return nil, err
	}

	points := pipeline.Aggregate(normalized)

	fitter := curvefit.NewFitter(s.cfg)
	model, err := fitter.Fit(points)
	if err != nil {
		return nil, err
	}

	result := &AnalysisResult{
		Observations: len(obs),
		Aggregated:   points,
		model:        model,
	}
	for _, c := range model.Conditions() {
		if m, ok := maxima[c]; ok {
			result.Maxima = append(result.Maxima, m)
		}
		params, err := model.Params(c)
		if err != nil {
			return nil, err
		}
		stderr, err := model.StdErr(c)
		if err != nil {
			return nil, err
		}
		result.Conditions = append(result.Conditions, ConditionFit{
			Condition: c,
			Params:    params,
			StdErr:    stderr,
		})
	}

	// The potency comparison needs residual degrees of freedom; an exactly
	// determined fit still returns estimates and curves, just no contrast.
	if conditions := model.Conditions(); len(conditions) == 2 && model.DegreesOfFreedom() >= 1 {
		contrast, err := curvefit.Compare(model, fit.ParamEC50, conditions[0], conditions[1])
		if err != nil {
			return nil, err
		}
		result.EC50Contrast = &contrast
	}

	minDose, maxDose := doseRange(points)
	curve, err := curvefit.CurveGrid(model, minDose, maxDose, curveGridPoints)
	if err != nil {
		return nil, err
	}
	result.Curve = curve

	return result, nil
}

func doseRange(points []dose.AggregatedPoint) (float64, float64) {
	lo, hi := points[0].Dose, points[0].Dose
	for _, p := range points[1:] {
		if p.Dose < lo {
			lo = p.Dose
		}
		if p.Dose > hi {
			hi = p.Dose
		}
	}
	return lo, hi
}

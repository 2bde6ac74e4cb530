package app

import (
	"math"

	"dosefit/domain/dose"
	"dosefit/domain/fit"
	"dosefit/internal/curvefit"
)

// Wire shapes for JSON consumers. Undefined statistics (NaN SEMs, standard
// errors of an exactly determined fit) become nulls instead of breaking the
// encoder or masquerading as zeros.

type AggregatedPointDTO struct {
	Dose         float64        `json:"dose"`
	Condition    dose.Condition `json:"condition"`
	MeanResponse float64        `json:"mean_response"`
	SEM          *float64       `json:"sem"`
	Replicates   int            `json:"replicates"`
}

type ParamsDTO struct {
	HillSlope *float64 `json:"hill_slope"`
	Min       *float64 `json:"min"`
	Max       *float64 `json:"max"`
	EC50      *float64 `json:"ec50"`
}

type ConditionFitDTO struct {
	Condition dose.Condition `json:"condition"`
	Params    ParamsDTO      `json:"params"`
	StdErr    ParamsDTO      `json:"std_err"`
}

type ResultDTO struct {
	Observations int                  `json:"observations"`
	Maxima       []dose.ConditionMax  `json:"maxima"`
	Aggregated   []AggregatedPointDTO `json:"aggregated"`
	Conditions   []ConditionFitDTO    `json:"conditions"`
	EC50Contrast *fit.Contrast        `json:"ec50_contrast,omitempty"`
	Curve        []curvefit.Point     `json:"curve"`
}

// Wire converts the result into its JSON-safe shape.
func (r *AnalysisResult) Wire() ResultDTO {
	out := ResultDTO{
		Observations: r.Observations,
		Maxima:       r.Maxima,
		EC50Contrast: r.EC50Contrast,
		Curve:        r.Curve,
	}
	for _, p := range r.Aggregated {
		out.Aggregated = append(out.Aggregated, AggregatedPointDTO{
			Dose:         p.Dose,
			Condition:    p.Condition,
			MeanResponse: p.MeanResponse,
			SEM:          finitePtr(p.SEM),
			Replicates:   p.Replicates,
		})
	}
	for _, c := range r.Conditions {
		out.Conditions = append(out.Conditions, ConditionFitDTO{
			Condition: c.Condition,
			Params:    paramsDTO(c.Params),
			StdErr:    paramsDTO(c.StdErr),
		})
	}
	return out
}

func paramsDTO(p fit.Params) ParamsDTO {
	return ParamsDTO{
		HillSlope: finitePtr(p.HillSlope),
		Min:       finitePtr(p.Min),
		Max:       finitePtr(p.Max),
		EC50:      finitePtr(p.EC50),
	}
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

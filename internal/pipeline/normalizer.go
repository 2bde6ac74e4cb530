package pipeline

import (
	"sort"

	"dosefit/domain/dose"

	"github.com/montanaflynn/stats"
)

type groupKey struct {
	dose      float64
	condition dose.Condition
}

// groupMeans averages responses per (dose, condition), preserving first
// appearance order so the descending-sort tie-break below is deterministic.
func groupMeans(obs []dose.Observation) ([]groupKey, map[groupKey]float64) {
	order := make([]groupKey, 0)
	values := make(map[groupKey][]float64)
	for _, o := range obs {
		k := groupKey{dose: o.Dose, condition: o.Condition}
		if _, seen := values[k]; !seen {
			order = append(order, k)
		}
		values[k] = append(values[k], o.Response)
	}
	means := make(map[groupKey]float64, len(values))
	for k, v := range values {
		m, _ := stats.Mean(v)
		means[k] = m
	}
	return order, means
}

// ConditionMaxima computes each condition's normalization reference: the
// maximum over doses of the dose-level mean response. Averaging precedes
// max-selection; with tied means the group encountered first under the
// stable descending sort wins.
func ConditionMaxima(obs []dose.Observation) map[dose.Condition]dose.ConditionMax {
	order, means := groupMeans(obs)

	perCondition := make(map[dose.Condition][]groupKey)
	var conditions []dose.Condition
	for _, k := range order {
		if _, seen := perCondition[k.condition]; !seen {
			conditions = append(conditions, k.condition)
		}
		perCondition[k.condition] = append(perCondition[k.condition], k)
	}

	maxima := make(map[dose.Condition]dose.ConditionMax, len(conditions))
	for _, c := range conditions {
		groups := perCondition[c]
		sort.SliceStable(groups, func(i, j int) bool {
			return means[groups[i]] > means[groups[j]]
		})
		top := groups[0]
		maxima[c] = dose.ConditionMax{
			Condition:   c,
			Dose:        top.dose,
			MaxResponse: means[top],
		}
	}
	return maxima
}

// Normalize rescales every observation to percent of its condition's
// reference maximum, computing the maxima from the observations themselves.
func Normalize(obs []dose.Observation) ([]dose.NormalizedObservation, error) {
	return NormalizeWith(obs, ConditionMaxima(obs))
}

// NormalizeWith rescales against precomputed maxima. An observation whose
// condition has no reference, or whose reference is not strictly positive,
// fails with a MissingReference error rather than passing through raw.
func NormalizeWith(obs []dose.Observation, maxima map[dose.Condition]dose.ConditionMax) ([]dose.NormalizedObservation, error) {
	out := make([]dose.NormalizedObservation, 0, len(obs))
	for _, o := range obs {
		ref, ok := maxima[o.Condition]
		if !ok || ref.MaxResponse <= 0 {
			return nil, dose.NewMissingReferenceError(o.Condition)
		}
		out = append(out, dose.NormalizedObservation{
			Dose:         o.Dose,
			SampleID:     o.SampleID,
			Condition:    o.Condition,
			Replicate:    o.Replicate,
			NormResponse: 100 * o.Response / ref.MaxResponse,
		})
	}
	return out, nil
}

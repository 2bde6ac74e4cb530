package pipeline

import (
	"math"

	"dosefit/domain/dose"

	"github.com/montanaflynn/stats"
)

// Aggregate collapses normalized replicates into one point per
// (dose, condition): the mean and the standard error of the mean.
// A single-replicate group gets SEM = NaN - an undefined standard error is
// reported as undefined, never as zero.
// Output order follows first appearance in the input.
func Aggregate(obs []dose.NormalizedObservation) []dose.AggregatedPoint {
	order := make([]groupKey, 0)
	values := make(map[groupKey][]float64)
	for _, o := range obs {
		k := groupKey{dose: o.Dose, condition: o.Condition}
		if _, seen := values[k]; !seen {
			order = append(order, k)
		}
		values[k] = append(values[k], o.NormResponse)
	}

	points := make([]dose.AggregatedPoint, 0, len(order))
	for _, k := range order {
		v := values[k]
		mean, _ := stats.Mean(v)
		sem := math.NaN()
		if len(v) >= 2 {
			sd, _ := stats.StandardDeviationSample(v)
			sem = sd / math.Sqrt(float64(len(v)))
		}
		points = append(points, dose.AggregatedPoint{
			Dose:         k.dose,
			Condition:    k.condition,
			MeanResponse: mean,
			SEM:          sem,
			Replicates:   len(v),
		})
	}
	return points
}

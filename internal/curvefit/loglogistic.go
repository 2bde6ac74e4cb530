package curvefit

import (
	"math"
	"sort"

	"dosefit/domain/dose"

	"github.com/montanaflynn/stats"
)

// The internal parameter block per condition is [hill, min, max, logEC50].
// Fitting log(EC50) keeps the dose-scale parameter strictly positive without
// explicit constraints; the reporting scale transforms back via exp.
const (
	idxHill = iota
	idxMin
	idxMax
	idxLogEC50
)

// logLogistic4 evaluates the model with log(EC50) as the scale parameter:
//
//	f(d) = min + (max-min) / (1 + exp(hill * (log d - logEC50)))
func logLogistic4(d, hill, min, max, logEC50 float64) float64 {
	return min + (max-min)/(1+math.Exp(hill*(math.Log(d)-logEC50)))
}

// initialGuess derives per-condition starting values from the data so the
// optimizer converges without user-supplied seeds for the usual monotonic
// sigmoid over log-spaced doses.
func initialGuess(points []dose.AggregatedPoint) [4]float64 {
	sorted := make([]dose.AggregatedPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Dose < sorted[j].Dose })

	means := make([]float64, len(sorted))
	for i, p := range sorted {
		means[i] = p.MeanResponse
	}
	lo, _ := stats.Min(means)
	hi, _ := stats.Max(means)

	// Rising curves need a negative hill slope in this parameterization.
	hill := 1.0
	if sorted[len(sorted)-1].MeanResponse >= sorted[0].MeanResponse {
		hill = -1.0
	}

	return [4]float64{
		idxHill:    hill,
		idxMin:     lo,
		idxMax:     hi,
		idxLogEC50: halfMaxLogDose(sorted, lo, hi),
	}
}

// halfMaxLogDose interpolates, on the log-dose axis, where the mean response
// crosses halfway between its observed extremes. Falls back to the log
// midpoint of the dose range when no adjacent pair brackets the crossing.
func halfMaxLogDose(sorted []dose.AggregatedPoint, lo, hi float64) float64 {
	half := (lo + hi) / 2
	for i := 0; i+1 < len(sorted); i++ {
		a, b := sorted[i].MeanResponse, sorted[i+1].MeanResponse
		if (a-half)*(b-half) > 0 {
			continue
		}
		la := math.Log(sorted[i].Dose)
		lb := math.Log(sorted[i+1].Dose)
		if a == b {
			return (la + lb) / 2
		}
		return la + (half-a)/(b-a)*(lb-la)
	}
	return (math.Log(sorted[0].Dose) + math.Log(sorted[len(sorted)-1].Dose)) / 2
}

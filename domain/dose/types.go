package dose

import (
	"math"
	"strconv"
	"unicode"
)

// Condition identifies an experimental arm ("C" control, "E" exposed, etc.).
// The pipeline treats conditions as an open labeled set; nothing below is
// specific to two arms except the pairwise contrast.
type Condition string

// Observation is one replicate measurement at one dose. Missing cells never
// become Observations - they are dropped during tidying.
type Observation struct {
	Dose      float64
	SampleID  string
	Condition Condition
	Replicate int
	Response  float64
}

// NormalizedObservation is an Observation rescaled to percent of its
// condition's reference maximum.
type NormalizedObservation struct {
	Dose         float64
	SampleID     string
	Condition    Condition
	Replicate    int
	NormResponse float64
}

// ConditionMax is the per-condition normalization reference: the maximum,
// over doses, of the dose-level mean response.
// INVARIANT: computed from dose-level means, never from raw replicates.
type ConditionMax struct {
	Condition   Condition
	Dose        float64
	MaxResponse float64
}

// AggregatedPoint collapses the replicates at one (dose, condition) into a
// mean and its standard error. SEM is NaN when fewer than two replicates
// exist; it is never coerced to zero.
type AggregatedPoint struct {
	Dose         float64
	Condition    Condition
	MeanResponse float64
	SEM          float64
	Replicates   int
}

// HasSEM reports whether the standard error of the mean is defined.
func (p AggregatedPoint) HasSEM() bool {
	return !math.IsNaN(p.SEM)
}

// ParseSampleName splits a sample column name into condition and replicate.
// The expected shape is a leading condition letter followed by the replicate
// digits, e.g. "C1" or "E12".
func ParseSampleName(name string) (Condition, int, error) {
	runes := []rune(name)
	if len(runes) < 2 || !unicode.IsLetter(runes[0]) {
		return "", 0, NewParseError(name)
	}
	replicate, err := strconv.Atoi(string(runes[1:]))
	if err != nil || replicate < 1 {
		return "", 0, NewParseError(name)
	}
	return Condition(runes[0]), replicate, nil
}

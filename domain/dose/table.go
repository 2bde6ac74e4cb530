package dose

import "math"

// Table is the wide input shape: one shared dose column plus one column of
// responses per sample. Missing cells are NaN.
type Table struct {
	Doses   []float64
	Samples []SampleColumn
}

// SampleColumn holds one sample's responses, aligned with Table.Doses.
type SampleColumn struct {
	Name   string
	Values []float64
}

// Missing is the sentinel for an absent response cell.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether a cell value is the missing sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }

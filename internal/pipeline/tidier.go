// Package pipeline implements the pure data stages of the dose-response
// analysis: tidying, normalization and aggregation. Each stage consumes an
// immutable snapshot of its predecessor's output; none of them log, touch
// I/O, or impute values.
package pipeline

import (
	"fmt"

	"dosefit/domain/dose"
)

// Tidy reshapes a wide replicate table into long Observation records.
// Each non-missing cell becomes exactly one Observation; missing cells are
// dropped, which is the single intentional exception to fail-fast handling.
// Output preserves input order (row-major) so downstream tie-breaks are
// reproducible.
func Tidy(t dose.Table) ([]dose.Observation, error) {
	type column struct {
		name      string
		condition dose.Condition
		replicate int
	}

	cols := make([]column, 0, len(t.Samples))
	for _, s := range t.Samples {
		if len(s.Values) != len(t.Doses) {
			return nil, fmt.Errorf("sample %q has %d values for %d doses", s.Name, len(s.Values), len(t.Doses))
		}
		cond, rep, err := dose.ParseSampleName(s.Name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, column{name: s.Name, condition: cond, replicate: rep})
	}

	obs := make([]dose.Observation, 0, len(t.Doses)*len(t.Samples))
	for i, d := range t.Doses {
		if d <= 0 {
			return nil, fmt.Errorf("dose must be positive, got %g at row %d", d, i)
		}
		for j, c := range cols {
			v := t.Samples[j].Values[i]
			if dose.IsMissing(v) {
				continue
			}
			obs = append(obs, dose.Observation{
				Dose:      d,
				SampleID:  c.name,
				Condition: c.condition,
				Replicate: c.replicate,
				Response:  v,
			})
		}
	}
	return obs, nil
}

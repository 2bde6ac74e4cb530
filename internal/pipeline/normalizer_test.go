package pipeline

import (
	"errors"
	"math"
	"testing"

	"dosefit/domain/dose"
)

func obsFixture() []dose.Observation {
	// Two conditions, three doses, two replicates each. C peaks at dose
	// 100 with mean 90; E peaks at dose 100 with mean 60.
	return []dose.Observation{
		{Dose: 1, SampleID: "C1", Condition: "C", Replicate: 1, Response: 10},
		{Dose: 1, SampleID: "C2", Condition: "C", Replicate: 2, Response: 14},
		{Dose: 10, SampleID: "C1", Condition: "C", Replicate: 1, Response: 48},
		{Dose: 10, SampleID: "C2", Condition: "C", Replicate: 2, Response: 52},
		{Dose: 100, SampleID: "C1", Condition: "C", Replicate: 1, Response: 88},
		{Dose: 100, SampleID: "C2", Condition: "C", Replicate: 2, Response: 92},
		{Dose: 1, SampleID: "E1", Condition: "E", Replicate: 1, Response: 6},
		{Dose: 1, SampleID: "E2", Condition: "E", Replicate: 2, Response: 10},
		{Dose: 10, SampleID: "E1", Condition: "E", Replicate: 1, Response: 28},
		{Dose: 10, SampleID: "E2", Condition: "E", Replicate: 2, Response: 32},
		{Dose: 100, SampleID: "E1", Condition: "E", Replicate: 1, Response: 58},
		{Dose: 100, SampleID: "E2", Condition: "E", Replicate: 2, Response: 62},
	}
}

func TestConditionMaximaUsesDoseMeans(t *testing.T) {
	maxima := ConditionMaxima(obsFixture())

	c, ok := maxima["C"]
	if !ok {
		t.Fatal("no maximum for condition C")
	}
	// The maximum is the dose-level mean (90), not the raw replicate
	// maximum (92).
	if c.MaxResponse != 90 || c.Dose != 100 {
		t.Errorf("C maximum = %g at dose %g, want 90 at 100", c.MaxResponse, c.Dose)
	}

	e := maxima["E"]
	if e.MaxResponse != 60 || e.Dose != 100 {
		t.Errorf("E maximum = %g at dose %g, want 60 at 100", e.MaxResponse, e.Dose)
	}
}

func TestNormalizeMaxBecomesHundred(t *testing.T) {
	normalized, err := Normalize(obsFixture())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	points := Aggregate(normalized)
	best := map[dose.Condition]float64{}
	for _, p := range points {
		if p.MeanResponse > best[p.Condition] {
			best[p.Condition] = p.MeanResponse
		}
	}
	for cond, top := range best {
		if math.Abs(top-100) > 1e-9 {
			t.Errorf("condition %s peak normalized mean = %g, want 100", cond, top)
		}
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	obs := obsFixture()
	maxima := ConditionMaxima(obs)
	normalized, err := NormalizeWith(obs, maxima)
	if err != nil {
		t.Fatalf("NormalizeWith: %v", err)
	}

	for i, n := range normalized {
		back := n.NormResponse * maxima[n.Condition].MaxResponse / 100
		if math.Abs(back-obs[i].Response) > 1e-9 {
			t.Errorf("round trip for %s at dose %g: got %g, want %g", n.SampleID, n.Dose, back, obs[i].Response)
		}
	}
}

func TestConditionMaximaTieBreakIsDeterministic(t *testing.T) {
	// Doses 10 and 100 share the maximal mean. The first group under the
	// stable descending sort (first appearance: dose 10) must win, run
	// after run.
	obs := []dose.Observation{
		{Dose: 1, SampleID: "C1", Condition: "C", Replicate: 1, Response: 20},
		{Dose: 10, SampleID: "C1", Condition: "C", Replicate: 1, Response: 80},
		{Dose: 100, SampleID: "C1", Condition: "C", Replicate: 1, Response: 80},
	}

	first := ConditionMaxima(obs)["C"]
	for run := 0; run < 50; run++ {
		again := ConditionMaxima(obs)["C"]
		if again != first {
			t.Fatalf("tie-break changed between runs: %+v vs %+v", first, again)
		}
	}
	if first.Dose != 10 {
		t.Errorf("tie-break picked dose %g, want first-encountered 10", first.Dose)
	}
}

func TestNormalizeWithMissingReference(t *testing.T) {
	obs := []dose.Observation{
		{Dose: 1, SampleID: "C1", Condition: "C", Replicate: 1, Response: 10},
	}
	_, err := NormalizeWith(obs, map[dose.Condition]dose.ConditionMax{})
	if !errors.Is(err, dose.ErrMissingReference) {
		t.Errorf("expected ErrMissingReference, got %v", err)
	}
}

func TestNormalizeWithNonPositiveReference(t *testing.T) {
	obs := []dose.Observation{
		{Dose: 1, SampleID: "C1", Condition: "C", Replicate: 1, Response: 10},
	}
	maxima := map[dose.Condition]dose.ConditionMax{
		"C": {Condition: "C", Dose: 1, MaxResponse: 0},
	}
	_, err := NormalizeWith(obs, maxima)
	if !errors.Is(err, dose.ErrMissingReference) {
		t.Errorf("expected ErrMissingReference for zero reference, got %v", err)
	}
}

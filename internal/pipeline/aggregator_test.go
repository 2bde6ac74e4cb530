package pipeline

import (
	"math"
	"testing"

	"dosefit/domain/dose"
)

func TestAggregateMeanAndSEM(t *testing.T) {
	obs := []dose.NormalizedObservation{
		{Dose: 1, Condition: "C", Replicate: 1, NormResponse: 10},
		{Dose: 1, Condition: "C", Replicate: 2, NormResponse: 14},
		{Dose: 1, Condition: "C", Replicate: 3, NormResponse: 12},
	}

	points := Aggregate(obs)
	if len(points) != 1 {
		t.Fatalf("got %d points, want 1", len(points))
	}

	p := points[0]
	if p.MeanResponse != 12 {
		t.Errorf("mean = %g, want 12", p.MeanResponse)
	}
	// Sample sd of {10, 14, 12} is 2; sem = 2/sqrt(3).
	wantSEM := 2 / math.Sqrt(3)
	if math.Abs(p.SEM-wantSEM) > 1e-12 {
		t.Errorf("sem = %g, want %g", p.SEM, wantSEM)
	}
	if p.Replicates != 3 {
		t.Errorf("replicates = %d, want 3", p.Replicates)
	}
}

func TestAggregateSingleReplicateSEMUndefined(t *testing.T) {
	obs := []dose.NormalizedObservation{
		{Dose: 1, Condition: "C", Replicate: 1, NormResponse: 10},
		{Dose: 10, Condition: "C", Replicate: 1, NormResponse: 50},
	}

	for _, p := range Aggregate(obs) {
		if p.HasSEM() {
			t.Errorf("single-replicate point at dose %g has sem %g, want undefined", p.Dose, p.SEM)
		}
		if p.SEM == 0 {
			t.Errorf("sem must never be coerced to zero")
		}
	}
}

func TestAggregateIdempotentOnSingletonGroups(t *testing.T) {
	obs := []dose.NormalizedObservation{
		{Dose: 1, Condition: "C", Replicate: 1, NormResponse: 10},
		{Dose: 10, Condition: "C", Replicate: 1, NormResponse: 50},
		{Dose: 100, Condition: "E", Replicate: 1, NormResponse: 90},
	}

	first := Aggregate(obs)

	// Re-aggregating the aggregated means as singleton groups returns the
	// same points: mean of one value is that value, sem stays undefined.
	again := make([]dose.NormalizedObservation, 0, len(first))
	for _, p := range first {
		again = append(again, dose.NormalizedObservation{
			Dose:         p.Dose,
			Condition:    p.Condition,
			Replicate:    1,
			NormResponse: p.MeanResponse,
		})
	}
	second := Aggregate(again)

	if len(second) != len(first) {
		t.Fatalf("point count changed: %d vs %d", len(second), len(first))
	}
	for i := range first {
		if second[i].Dose != first[i].Dose || second[i].Condition != first[i].Condition {
			t.Errorf("point %d identity changed", i)
		}
		if second[i].MeanResponse != first[i].MeanResponse {
			t.Errorf("point %d mean changed: %g vs %g", i, second[i].MeanResponse, first[i].MeanResponse)
		}
		if second[i].HasSEM() {
			t.Errorf("point %d sem should stay undefined", i)
		}
	}
}

func TestAggregateGroupsByDoseAndCondition(t *testing.T) {
	obs := []dose.NormalizedObservation{
		{Dose: 1, Condition: "C", Replicate: 1, NormResponse: 10},
		{Dose: 1, Condition: "E", Replicate: 1, NormResponse: 20},
		{Dose: 1, Condition: "C", Replicate: 2, NormResponse: 12},
	}

	points := Aggregate(obs)
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2 (same dose, two conditions)", len(points))
	}
	if points[0].Condition != "C" || points[0].Replicates != 2 {
		t.Errorf("first group = %+v, want condition C with 2 replicates", points[0])
	}
	if points[1].Condition != "E" || points[1].Replicates != 1 {
		t.Errorf("second group = %+v, want condition E with 1 replicate", points[1])
	}
}

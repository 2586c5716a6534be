package stats

import (
	"math"
	"testing"

	"socialsim/internal/model"
)

func metricsAt(gen, size, offspring int, proportions map[model.Behavior]float64) model.GenerationMetrics {
	full := map[model.Behavior]float64{}
	for _, tag := range model.Behaviors() {
		full[tag] = proportions[tag]
	}
	return model.GenerationMetrics{Generation: gen, PopulationSize: size, Offspring: offspring, Proportions: full}
}

func TestSummarizeTracksPeakAndExtinction(t *testing.T) {
	series := model.MetricsSeries{
		metricsAt(1, 10, 14, map[model.Behavior]float64{model.Cowardice: 0.5, model.Spite: 0.5}),
		metricsAt(2, 14, 6, map[model.Behavior]float64{model.Cowardice: 0.75, model.Spite: 0.25}),
		metricsAt(3, 6, 0, map[model.Behavior]float64{model.Cowardice: 1}),
		metricsAt(4, 0, 0, nil),
		metricsAt(5, 0, 0, nil),
	}
	summary := Summarize(series)
	if summary.Generations != 5 || summary.InitialSize != 10 || summary.FinalSize != 0 {
		t.Fatalf("unexpected sizes: %+v", summary)
	}
	if summary.PeakSize != 14 || summary.PeakGeneration != 2 {
		t.Fatalf("unexpected peak: %+v", summary)
	}
	if summary.ExtinctAt != 4 {
		t.Fatalf("expected extinction at generation 4, got %d", summary.ExtinctAt)
	}
	if summary.Dominant != model.Cowardice || summary.FinalProportions[model.Cowardice] != 1 {
		t.Fatalf("unexpected final composition: %+v", summary)
	}
}

func TestSummarizeEmptyAndExtinctFromStart(t *testing.T) {
	if got := Summarize(nil); got.Generations != 0 || got.Dominant != "" {
		t.Fatalf("unexpected empty summary: %+v", got)
	}
	got := Summarize(model.MetricsSeries{metricsAt(1, 0, 0, nil)})
	if got.ExtinctAt != 1 || got.Dominant != "" {
		t.Fatalf("unexpected extinct summary: %+v", got)
	}
}

func TestAverageSeries(t *testing.T) {
	runs := []model.MetricsSeries{
		{
			metricsAt(1, 10, 8, map[model.Behavior]float64{model.Altruist: 0.4}),
			metricsAt(2, 8, 4, map[model.Behavior]float64{model.Altruist: 0.5}),
		},
		{
			metricsAt(1, 20, 12, map[model.Behavior]float64{model.Altruist: 0.6}),
		},
	}
	points := AverageSeries(runs)
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Replicates != 2 || points[0].MeanSize != 15 || math.Abs(points[0].Proportions[model.Altruist]-0.5) > 1e-12 {
		t.Fatalf("unexpected first point: %+v", points[0])
	}
	if points[1].Replicates != 1 || points[1].MeanSize != 8 || points[1].Proportions[model.Altruist] != 0.5 {
		t.Fatalf("unexpected second point: %+v", points[1])
	}
}

func TestSeriesExtraction(t *testing.T) {
	series := model.MetricsSeries{
		metricsAt(1, 4, 8, map[model.Behavior]float64{model.Spite: 0.25}),
		metricsAt(2, 8, 0, map[model.Behavior]float64{model.Spite: 0.5}),
	}
	sizes := SizeSeries(series)
	if len(sizes) != 2 || sizes[1] != 8 {
		t.Fatalf("unexpected sizes: %v", sizes)
	}
	shares := ProportionSeries(series, model.Spite)
	if len(shares) != 2 || shares[0] != 0.25 || shares[1] != 0.5 {
		t.Fatalf("unexpected spite shares: %v", shares)
	}
}

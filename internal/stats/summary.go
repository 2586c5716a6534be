package stats

import (
	"socialsim/internal/model"
)

// Summary condenses a metrics series.
type Summary struct {
	Generations      int                        `json:"generations"`
	InitialSize      int                        `json:"initial_size"`
	FinalSize        int                        `json:"final_size"`
	PeakSize         int                        `json:"peak_size"`
	PeakGeneration   int                        `json:"peak_generation"`
	ExtinctAt        int                        `json:"extinct_at,omitempty"`
	FinalProportions map[model.Behavior]float64 `json:"final_proportions"`
	Dominant         model.Behavior             `json:"dominant,omitempty"`
}

// Summarize reports sizes and the last non-extinct generation's composition.
// FinalSize is the offspring count of the last generation. ExtinctAt is the
// first generation that started with no individuals, 0 if none did.
func Summarize(series model.MetricsSeries) Summary {
	summary := Summary{
		Generations:      len(series),
		FinalProportions: map[model.Behavior]float64{},
	}
	if len(series) == 0 {
		return summary
	}
	summary.InitialSize = series[0].PopulationSize
	summary.FinalSize = series[len(series)-1].Offspring

	var last *model.GenerationMetrics
	for i := range series {
		m := series[i]
		if m.PopulationSize > summary.PeakSize {
			summary.PeakSize = m.PopulationSize
			summary.PeakGeneration = m.Generation
		}
		if m.Extinct() {
			if summary.ExtinctAt == 0 {
				summary.ExtinctAt = m.Generation
			}
			continue
		}
		last = &series[i]
	}
	if last == nil {
		return summary
	}

	best := -1.0
	for _, tag := range model.Behaviors() {
		p := last.Proportions[tag]
		summary.FinalProportions[tag] = p
		if p > best {
			best = p
			summary.Dominant = tag
		}
	}
	return summary
}

// SizeSeries extracts the pre-reproduction population size per generation.
func SizeSeries(series model.MetricsSeries) []float64 {
	out := make([]float64, 0, len(series))
	for _, m := range series {
		out = append(out, float64(m.PopulationSize))
	}
	return out
}

// ProportionSeries extracts one behavior's share per generation.
func ProportionSeries(series model.MetricsSeries, tag model.Behavior) []float64 {
	out := make([]float64, 0, len(series))
	for _, m := range series {
		out = append(out, m.Proportions[tag])
	}
	return out
}

// AveragePoint is the replicate mean of one generation.
type AveragePoint struct {
	Generation  int                        `json:"generation"`
	Replicates  int                        `json:"replicates"`
	MeanSize    float64                    `json:"mean_size"`
	Proportions map[model.Behavior]float64 `json:"proportions"`
}

// AverageSeries averages replicate runs generation by generation. Runs of
// different lengths contribute only to the generations they reached.
func AverageSeries(runs []model.MetricsSeries) []AveragePoint {
	longest := 0
	for _, run := range runs {
		if len(run) > longest {
			longest = len(run)
		}
	}

	points := make([]AveragePoint, 0, longest)
	for gen := 0; gen < longest; gen++ {
		sizes := make([]float64, 0, len(runs))
		shares := make(map[model.Behavior][]float64, len(model.Behaviors()))
		for _, run := range runs {
			if gen >= len(run) {
				continue
			}
			sizes = append(sizes, float64(run[gen].PopulationSize))
			for _, tag := range model.Behaviors() {
				shares[tag] = append(shares[tag], run[gen].Proportions[tag])
			}
		}
		point := AveragePoint{
			Generation:  gen + 1,
			Replicates:  len(sizes),
			MeanSize:    mean(sizes),
			Proportions: make(map[model.Behavior]float64, len(shares)),
		}
		for tag, values := range shares {
			point.Proportions[tag] = mean(values)
		}
		points = append(points, point)
	}
	return points
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

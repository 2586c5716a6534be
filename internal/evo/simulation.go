package evo

import (
	"fmt"

	"socialsim/internal/model"
)

// Config carries every parameter of a run. Nothing is read from package state.
type Config struct {
	Generations      int
	Initial          InitialSpec
	PredatorRate     float64
	ReproductionRate float64
	OddPolicy        OddPolicy
}

func (c Config) Validate() error {
	if c.Generations < 0 {
		return fmt.Errorf("generations must be >= 0, got %d", c.Generations)
	}
	if err := c.Initial.Validate(); err != nil {
		return err
	}
	return c.stepParams().Validate()
}

func (c Config) stepParams() StepParams {
	policy := c.OddPolicy
	if policy == "" {
		policy = OddDrop
	}
	return StepParams{
		PredatorRate:     c.PredatorRate,
		ReproductionRate: c.ReproductionRate,
		OddPolicy:        policy,
	}
}

// Observer receives each generation's metrics as soon as it is computed.
type Observer interface {
	ObserveGeneration(model.GenerationMetrics)
}

type ObserverFunc func(model.GenerationMetrics)

func (f ObserverFunc) ObserveGeneration(m model.GenerationMetrics) {
	f(m)
}

// Run applies Step exactly cfg.Generations times. Extinction does not end the
// run early; later generations report sentinel metrics.
func Run(cfg Config, rng Source, observers ...Observer) (model.MetricsSeries, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pop, err := Seed(cfg.Initial)
	if err != nil {
		return nil, err
	}

	params := cfg.stepParams()
	series := make(model.MetricsSeries, 0, cfg.Generations)
	for gen := 1; gen <= cfg.Generations; gen++ {
		next, metrics, err := Step(pop, params, rng)
		if err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen, err)
		}
		metrics.Generation = gen
		series = append(series, metrics)
		for _, observer := range observers {
			observer.ObserveGeneration(metrics)
		}
		pop = next
	}
	return series, nil
}

func RunSeeded(cfg Config, seed int64, observers ...Observer) (model.MetricsSeries, error) {
	return Run(cfg, NewSource(seed), observers...)
}

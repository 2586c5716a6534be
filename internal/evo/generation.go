package evo

import (
	"fmt"

	"socialsim/internal/model"
)

// OddPolicy decides the fate of the unpaired individual left over when an
// odd-sized population is split into pairs.
type OddPolicy string

const (
	// OddDrop leaves the remainder without an encounter; it gets no food and
	// cannot reproduce.
	OddDrop OddPolicy = "drop"
	// OddCarry lets the remainder survive without a predator check; it still
	// takes the reproduction check.
	OddCarry OddPolicy = "carry"
)

func ParseOddPolicy(s string) (OddPolicy, error) {
	switch OddPolicy(s) {
	case "", OddDrop:
		return OddDrop, nil
	case OddCarry:
		return OddCarry, nil
	default:
		return "", fmt.Errorf("unknown odd policy: %q", s)
	}
}

type StepParams struct {
	PredatorRate     float64
	ReproductionRate float64
	OddPolicy        OddPolicy
}

func (p StepParams) Validate() error {
	if !(p.PredatorRate >= 0 && p.PredatorRate <= 1) {
		return fmt.Errorf("predator rate must be in [0,1], got %g", p.PredatorRate)
	}
	if !(p.ReproductionRate >= 0 && p.ReproductionRate <= 1) {
		return fmt.Errorf("reproduction rate must be in [0,1], got %g", p.ReproductionRate)
	}
	if _, err := ParseOddPolicy(string(p.OddPolicy)); err != nil {
		return err
	}
	return nil
}

// Step runs one generation: shuffle, pair, predation, reproduction. The input
// population is not modified. The returned population holds offspring only.
//
// Draws are consumed in a fixed order: the shuffle, then for each pair its
// predation check followed by any encounter draws, then one reproduction
// check per survivor in shuffled order.
func Step(pop model.Population, p StepParams, rng Source) (model.Population, model.GenerationMetrics, error) {
	if err := p.Validate(); err != nil {
		return nil, model.GenerationMetrics{}, err
	}
	metrics := measure(pop)
	if len(pop) == 0 {
		return model.Population{}, metrics, nil
	}

	shuffled := shuffle(pop, rng)
	survived := make([]bool, len(shuffled))

	pairs := len(shuffled) / 2
	metrics.Pairs = pairs
	for i := 0; i < pairs; i++ {
		a, b := 2*i, 2*i+1
		if rng.Float64() > p.PredatorRate {
			survived[a], survived[b] = true, true
			continue
		}
		metrics.PredationEvents++
		outcome, err := Resolve(shuffled[a].Behavior, shuffled[b].Behavior, rng)
		if err != nil {
			return nil, model.GenerationMetrics{}, err
		}
		survived[a], survived[b] = outcome.SurvivedA, outcome.SurvivedB
	}
	if len(shuffled)%2 == 1 {
		metrics.Unpaired = 1
		if p.OddPolicy == OddCarry {
			survived[len(shuffled)-1] = true
		}
	}

	next := make(model.Population, 0, len(shuffled))
	for i := range shuffled {
		shuffled[i].Survived = survived[i]
		if !survived[i] {
			continue
		}
		metrics.Survivors++
		if rng.Float64() < p.ReproductionRate {
			tag := shuffled[i].Behavior
			next = append(next, model.Individual{Behavior: tag}, model.Individual{Behavior: tag})
		}
	}
	metrics.Offspring = len(next)
	return next, metrics, nil
}

// measure computes per-behavior counts and proportions. An empty population
// reports 0.0 for every proportion.
func measure(pop model.Population) model.GenerationMetrics {
	counts := pop.Counts()
	proportions := make(map[model.Behavior]float64, len(counts))
	for tag, count := range counts {
		if len(pop) == 0 {
			proportions[tag] = 0
			continue
		}
		proportions[tag] = float64(count) / float64(len(pop))
	}
	return model.GenerationMetrics{
		PopulationSize: len(pop),
		Counts:         counts,
		Proportions:    proportions,
	}
}

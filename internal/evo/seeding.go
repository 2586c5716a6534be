package evo

import (
	"fmt"

	"socialsim/internal/model"
)

type Composition string

const (
	// Homogeneous fills the population with the first listed behavior.
	Homogeneous Composition = "homogeneous"
	// Alternating splits two behaviors by index parity.
	Alternating Composition = "alternating"
	// RoundRobin cycles through every listed behavior by index.
	RoundRobin Composition = "round_robin"
)

// InitialSpec describes the founding population of a run.
type InitialSpec struct {
	Size        int
	Composition Composition
	Behaviors   []model.Behavior
}

func (s InitialSpec) Validate() error {
	if s.Size < 0 {
		return fmt.Errorf("initial population size must be >= 0, got %d", s.Size)
	}
	for _, b := range s.Behaviors {
		if !b.Valid() {
			return fmt.Errorf("unknown behavior: %q", b)
		}
	}
	switch s.Composition {
	case Homogeneous:
		if len(s.Behaviors) != 1 {
			return fmt.Errorf("homogeneous composition needs exactly 1 behavior, got %d", len(s.Behaviors))
		}
	case Alternating:
		if len(s.Behaviors) != 2 {
			return fmt.Errorf("alternating composition needs exactly 2 behaviors, got %d", len(s.Behaviors))
		}
	case RoundRobin:
	default:
		return fmt.Errorf("unknown composition: %q", s.Composition)
	}
	return nil
}

// Seed builds the founding population. RoundRobin without behaviors uses
// every social behavior.
func Seed(spec InitialSpec) (model.Population, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	tags := spec.Behaviors
	if spec.Composition == RoundRobin && len(tags) == 0 {
		tags = model.SocialBehaviors()
	}

	pop := make(model.Population, 0, spec.Size)
	for i := 0; i < spec.Size; i++ {
		pop = append(pop, model.Individual{Behavior: tags[i%len(tags)]})
	}
	return pop, nil
}

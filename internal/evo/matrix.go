package evo

import (
	"errors"
	"fmt"

	"socialsim/internal/model"
)

// ErrUnhandledBehaviorPair marks an encounter between tags missing from the
// payoff table. It indicates an incomplete table, not a runtime condition.
var ErrUnhandledBehaviorPair = errors.New("unhandled behavior pair")

type UnhandledBehaviorPairError struct {
	A model.Behavior
	B model.Behavior
}

func (e *UnhandledBehaviorPairError) Error() string {
	return fmt.Sprintf("%s: %s vs %s", ErrUnhandledBehaviorPair, e.A, e.B)
}

func (e *UnhandledBehaviorPairError) Is(target error) bool {
	return target == ErrUnhandledBehaviorPair
}

// Shape is the resolution form of a matrix cell.
type Shape int

const (
	// CoinFlip: exactly one side survives, chosen 50/50.
	CoinFlip Shape = iota
	// Independent: each side survives via its own Bernoulli draw.
	Independent
	// Guaranteed: one side survives unconditionally, the other with a probability.
	Guaranteed
)

func (s Shape) String() string {
	switch s {
	case CoinFlip:
		return "coin_flip"
	case Independent:
		return "independent"
	case Guaranteed:
		return "guaranteed"
	default:
		return "unknown"
	}
}

func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Cell is one entry of the payoff table. Probabilities belong to the tag in
// the same slot; a Guaranteed cell stores 1.0 for the guaranteed side.
type Cell struct {
	A     model.Behavior `json:"a"`
	B     model.Behavior `json:"b"`
	Shape Shape          `json:"shape"`
	PA    float64        `json:"p_a"`
	PB    float64        `json:"p_b"`
}

// Outcome records who survived a predation event, in call slot order.
type Outcome struct {
	SurvivedA bool
	SurvivedB bool
}

var matrix = []Cell{
	{A: model.Base, B: model.Base, Shape: CoinFlip, PA: 0.5, PB: 0.5},
	{A: model.Cowardice, B: model.Cowardice, Shape: Independent, PA: 0.75, PB: 0.75},
	// The first slot raises the alarm and risks itself; the other escapes.
	{A: model.Altruist, B: model.Altruist, Shape: Guaranteed, PA: 0.5, PB: 1.0},
	{A: model.Cowardice, B: model.Altruist, Shape: Guaranteed, PA: 1.0, PB: 0.5},
	{A: model.GBAltruist, B: model.GBAltruist, Shape: Guaranteed, PA: 0.5, PB: 1.0},
	// No shared green beard, so no alarm.
	{A: model.GBAltruist, B: model.Cowardice, Shape: Independent, PA: 0.75, PB: 0.75},
	{A: model.Spite, B: model.Cowardice, Shape: Independent, PA: 0.75, PB: 0.5},
	{A: model.Spite, B: model.Spite, Shape: Independent, PA: 0.25, PB: 0.25},
	{A: model.SelectiveSpite, B: model.Cowardice, Shape: Independent, PA: 0.75, PB: 0.5},
	{A: model.SelectiveSpite, B: model.SelectiveSpite, Shape: Independent, PA: 0.75, PB: 0.75},
	{A: model.Altruist, B: model.SelectiveSpite, Shape: Guaranteed, PA: 0.25, PB: 1.0},
	{A: model.Altruist, B: model.Spite, Shape: Guaranteed, PA: 0.25, PB: 1.0},
	{A: model.SelectiveSpite, B: model.GBAltruist, Shape: Independent, PA: 0.75, PB: 0.5},
	// Each side betrays the other; the predator takes one.
	{A: model.SelectiveSpite, B: model.Spite, Shape: CoinFlip, PA: 0.5, PB: 0.5},
	{A: model.Spite, B: model.GBAltruist, Shape: Independent, PA: 0.75, PB: 0.5},
	{A: model.GBAltruist, B: model.Altruist, Shape: Independent, PA: 0.75, PB: 0.5},
}

// Matrix returns a copy of the payoff table.
func Matrix() []Cell {
	return append([]Cell(nil), matrix...)
}

// lookup returns the cell for the ordered pair (a, b), oriented so that PA
// belongs to a. Same-tag cells are never swapped.
func lookup(a, b model.Behavior) (Cell, bool) {
	for _, cell := range matrix {
		if cell.A == a && cell.B == b {
			return cell, true
		}
	}
	for _, cell := range matrix {
		if cell.A == b && cell.B == a {
			return Cell{A: a, B: b, Shape: cell.Shape, PA: cell.PB, PB: cell.PA}, true
		}
	}
	return Cell{}, false
}

// SurvivalProbability returns the analytic survival probability of each side
// of a predation event between a and b.
func SurvivalProbability(a, b model.Behavior) (float64, float64, error) {
	cell, ok := lookup(a, b)
	if !ok {
		return 0, 0, &UnhandledBehaviorPairError{A: a, B: b}
	}
	return cell.PA, cell.PB, nil
}

// Resolve settles a predation event between a and b. Draw consumption:
// CoinFlip one, Independent two (a first), Guaranteed one.
func Resolve(a, b model.Behavior, rng Source) (Outcome, error) {
	cell, ok := lookup(a, b)
	if !ok {
		return Outcome{}, &UnhandledBehaviorPairError{A: a, B: b}
	}

	switch cell.Shape {
	case CoinFlip:
		if rng.Float64() < 0.5 {
			return Outcome{SurvivedA: true}, nil
		}
		return Outcome{SurvivedB: true}, nil
	case Independent:
		survivedA := rng.Float64() < cell.PA
		survivedB := rng.Float64() < cell.PB
		return Outcome{SurvivedA: survivedA, SurvivedB: survivedB}, nil
	case Guaranteed:
		if cell.PB >= 1 {
			return Outcome{SurvivedA: rng.Float64() < cell.PA, SurvivedB: true}, nil
		}
		return Outcome{SurvivedA: true, SurvivedB: rng.Float64() < cell.PB}, nil
	default:
		return Outcome{}, fmt.Errorf("unknown resolution shape %d for %s vs %s", cell.Shape, a, b)
	}
}

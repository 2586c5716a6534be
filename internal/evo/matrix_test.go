package evo

import (
	"errors"
	"math"
	"testing"

	"socialsim/internal/model"
)

func TestResolveCoversEverySocialPair(t *testing.T) {
	rng := NewSource(7)
	tags := model.SocialBehaviors()
	count := 0
	for _, a := range tags {
		for _, b := range tags {
			if _, err := Resolve(a, b, rng); err != nil {
				t.Fatalf("resolve %s vs %s: %v", a, b, err)
			}
			count++
		}
	}
	if count != 25 {
		t.Fatalf("expected 25 ordered pairs, got %d", count)
	}
	if _, err := Resolve(model.Base, model.Base, rng); err != nil {
		t.Fatalf("resolve base vs base: %v", err)
	}
}

func TestResolveRejectsUncoveredPairs(t *testing.T) {
	cases := []struct {
		a, b model.Behavior
	}{
		{model.Base, model.Cowardice},
		{model.Spite, model.Base},
		{model.Altruist, model.Behavior("hawk")},
	}
	for _, tc := range cases {
		_, err := Resolve(tc.a, tc.b, constantSource(0.5))
		if !errors.Is(err, ErrUnhandledBehaviorPair) {
			t.Fatalf("%s vs %s: expected unhandled pair error, got %v", tc.a, tc.b, err)
		}
		var pairErr *UnhandledBehaviorPairError
		if !errors.As(err, &pairErr) {
			t.Fatalf("expected *UnhandledBehaviorPairError, got %T", err)
		}
		if pairErr.A != tc.a || pairErr.B != tc.b {
			t.Fatalf("unexpected tags in error: %+v", pairErr)
		}
	}
}

func TestSurvivalProbabilityMatchesTable(t *testing.T) {
	cases := []struct {
		a, b   model.Behavior
		pa, pb float64
	}{
		{model.Base, model.Base, 0.5, 0.5},
		{model.Cowardice, model.Cowardice, 0.75, 0.75},
		{model.Altruist, model.Altruist, 0.5, 1.0},
		{model.Cowardice, model.Altruist, 1.0, 0.5},
		{model.Altruist, model.Cowardice, 0.5, 1.0},
		{model.GBAltruist, model.GBAltruist, 0.5, 1.0},
		{model.Cowardice, model.GBAltruist, 0.75, 0.75},
		{model.Cowardice, model.Spite, 0.5, 0.75},
		{model.Spite, model.Spite, 0.25, 0.25},
		{model.Cowardice, model.SelectiveSpite, 0.5, 0.75},
		{model.SelectiveSpite, model.SelectiveSpite, 0.75, 0.75},
		{model.SelectiveSpite, model.Altruist, 1.0, 0.25},
		{model.Spite, model.Altruist, 1.0, 0.25},
		{model.GBAltruist, model.SelectiveSpite, 0.5, 0.75},
		{model.Spite, model.SelectiveSpite, 0.5, 0.5},
		{model.GBAltruist, model.Spite, 0.5, 0.75},
		{model.Altruist, model.GBAltruist, 0.5, 0.75},
	}
	for _, tc := range cases {
		pa, pb, err := SurvivalProbability(tc.a, tc.b)
		if err != nil {
			t.Fatalf("%s vs %s: %v", tc.a, tc.b, err)
		}
		if pa != tc.pa || pb != tc.pb {
			t.Fatalf("%s vs %s: got (%v, %v), want (%v, %v)", tc.a, tc.b, pa, pb, tc.pa, tc.pb)
		}
	}
}

func TestResolveSurvivalFrequenciesAreSymmetric(t *testing.T) {
	const draws = 100000
	const tolerance = 0.01

	rng := NewSource(20240601)
	tags := model.SocialBehaviors()
	for _, a := range tags {
		for _, b := range tags {
			forwardA, _ := survivalFrequency(t, a, b, rng, draws)
			_, reverseA := survivalFrequency(t, b, a, rng, draws)
			// Same-tag cells bind probabilities to slots, not tags.
			if a != b && math.Abs(forwardA-reverseA) > tolerance {
				t.Fatalf("%s survival differs by slot against %s: %.4f vs %.4f", a, b, forwardA, reverseA)
			}
			want, _, err := SurvivalProbability(a, b)
			if err != nil {
				t.Fatalf("probability %s vs %s: %v", a, b, err)
			}
			if math.Abs(forwardA-want) > tolerance {
				t.Fatalf("%s vs %s: observed %.4f, table %.4f", a, b, forwardA, want)
			}
		}
	}
}

func survivalFrequency(t *testing.T, a, b model.Behavior, rng Source, draws int) (float64, float64) {
	t.Helper()
	survivedA, survivedB := 0, 0
	for i := 0; i < draws; i++ {
		outcome, err := Resolve(a, b, rng)
		if err != nil {
			t.Fatalf("resolve %s vs %s: %v", a, b, err)
		}
		if outcome.SurvivedA {
			survivedA++
		}
		if outcome.SurvivedB {
			survivedB++
		}
	}
	return float64(survivedA) / float64(draws), float64(survivedB) / float64(draws)
}

func TestResolveCoinFlipIsExclusive(t *testing.T) {
	rng := NewSource(3)
	pairs := [][2]model.Behavior{
		{model.Base, model.Base},
		{model.SelectiveSpite, model.Spite},
		{model.Spite, model.SelectiveSpite},
	}
	for _, pair := range pairs {
		for i := 0; i < 1000; i++ {
			outcome, err := Resolve(pair[0], pair[1], rng)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if outcome.SurvivedA == outcome.SurvivedB {
				t.Fatalf("%s vs %s: expected exactly one survivor, got %+v", pair[0], pair[1], outcome)
			}
		}
	}
}

func TestResolveGuaranteedSideAlwaysSurvives(t *testing.T) {
	cases := []struct {
		a, b       model.Behavior
		guaranteeA bool
	}{
		{model.Altruist, model.Altruist, false},
		{model.GBAltruist, model.GBAltruist, false},
		{model.Cowardice, model.Altruist, true},
		{model.Altruist, model.Cowardice, false},
		{model.Altruist, model.Spite, false},
		{model.SelectiveSpite, model.Altruist, true},
	}
	for _, tc := range cases {
		// A draw of 0.99 fails every probabilistic side in the table.
		outcome, err := Resolve(tc.a, tc.b, constantSource(0.99))
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if tc.guaranteeA && (!outcome.SurvivedA || outcome.SurvivedB) {
			t.Fatalf("%s vs %s: expected only slot A to survive, got %+v", tc.a, tc.b, outcome)
		}
		if !tc.guaranteeA && (outcome.SurvivedA || !outcome.SurvivedB) {
			t.Fatalf("%s vs %s: expected only slot B to survive, got %+v", tc.a, tc.b, outcome)
		}
	}
}

func TestResolveDrawCounts(t *testing.T) {
	cases := []struct {
		a, b  model.Behavior
		draws int
	}{
		{model.Base, model.Base, 1},
		{model.Cowardice, model.Cowardice, 2},
		{model.Altruist, model.Altruist, 1},
		{model.Spite, model.Cowardice, 2},
		{model.Spite, model.SelectiveSpite, 1},
		{model.Altruist, model.SelectiveSpite, 1},
	}
	for _, tc := range cases {
		src := &countingSource{inner: NewSource(1)}
		if _, err := Resolve(tc.a, tc.b, src); err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if src.draws != tc.draws {
			t.Fatalf("%s vs %s: expected %d draws, got %d", tc.a, tc.b, tc.draws, src.draws)
		}
	}
}

func TestResolveCowardiceSpiteReplay(t *testing.T) {
	// Cowardice survives below 0.5, spite below 0.75.
	src := newScriptedSource(t, 0.6, 0.6)
	outcome, err := Resolve(model.Cowardice, model.Spite, src)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	src.assertConsumed()
	if outcome != (Outcome{SurvivedA: false, SurvivedB: true}) {
		t.Fatalf("unexpected scripted outcome: %+v", outcome)
	}

	// Recorded outcome for seed 99: cowardice draws first, then spite.
	got, err := Resolve(model.Cowardice, model.Spite, NewSource(99))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != (Outcome{SurvivedA: true, SurvivedB: true}) {
		t.Fatalf("seed 99 outcome changed: %+v", got)
	}
}

func TestMatrixCellsAreUnique(t *testing.T) {
	seen := map[[2]model.Behavior]bool{}
	for _, cell := range Matrix() {
		key := [2]model.Behavior{cell.A, cell.B}
		if cell.A > cell.B {
			key = [2]model.Behavior{cell.B, cell.A}
		}
		if seen[key] {
			t.Fatalf("duplicate cell for %s vs %s", cell.A, cell.B)
		}
		seen[key] = true
		if cell.Shape == Guaranteed && cell.PA != 1 && cell.PB != 1 {
			t.Fatalf("guaranteed cell %s vs %s has no guaranteed side", cell.A, cell.B)
		}
	}
	if len(seen) != 16 {
		t.Fatalf("expected 16 cells, got %d", len(seen))
	}
}

package evo

import "testing"

// scriptedSource replays a fixed draw sequence and fails the test on overrun.
type scriptedSource struct {
	t      *testing.T
	values []float64
	pos    int
}

func newScriptedSource(t *testing.T, values ...float64) *scriptedSource {
	t.Helper()
	return &scriptedSource{t: t, values: values}
}

func (s *scriptedSource) Float64() float64 {
	if s.pos >= len(s.values) {
		s.t.Fatalf("random source exhausted after %d draws", s.pos)
	}
	v := s.values[s.pos]
	s.pos++
	return v
}

func (s *scriptedSource) assertConsumed() {
	s.t.Helper()
	if s.pos != len(s.values) {
		s.t.Fatalf("expected %d draws, got %d", len(s.values), s.pos)
	}
}

// constantSource returns the same value forever.
type constantSource float64

func (c constantSource) Float64() float64 {
	return float64(c)
}

// countingSource wraps another source and counts draws.
type countingSource struct {
	inner Source
	draws int
}

func (c *countingSource) Float64() float64 {
	c.draws++
	return c.inner.Float64()
}

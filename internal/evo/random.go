package evo

import (
	"math/rand"

	"socialsim/internal/model"
)

// Source is the single random stream threaded through a run. *rand.Rand
// satisfies it.
type Source interface {
	Float64() float64
}

func NewSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// shuffle returns a uniformly permuted copy of pop. It consumes exactly
// len(pop)-1 draws, walking indices from the end.
func shuffle(pop model.Population, rng Source) model.Population {
	shuffled := make(model.Population, len(pop))
	copy(shuffled, pop)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := int(rng.Float64() * float64(i+1))
		if j > i {
			j = i
		}
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

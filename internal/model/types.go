package model

import "fmt"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Behavior is a fixed social strategy carried by an individual for its lifetime.
type Behavior string

const (
	Base           Behavior = "base"
	Cowardice      Behavior = "cowardice"
	Altruist       Behavior = "altruist"
	GBAltruist     Behavior = "gb_altruist"
	Spite          Behavior = "spite"
	SelectiveSpite Behavior = "selective_spite"
)

var behaviors = []Behavior{Base, Cowardice, Altruist, GBAltruist, Spite, SelectiveSpite}

// Behaviors returns the closed behavior set in canonical order.
func Behaviors() []Behavior {
	return append([]Behavior(nil), behaviors...)
}

// SocialBehaviors returns every behavior except base, the set used by the
// mixed-population experiments.
func SocialBehaviors() []Behavior {
	return append([]Behavior(nil), behaviors[1:]...)
}

func (b Behavior) Valid() bool {
	for _, known := range behaviors {
		if b == known {
			return true
		}
	}
	return false
}

func ParseBehavior(s string) (Behavior, error) {
	b := Behavior(s)
	if !b.Valid() {
		return "", fmt.Errorf("unknown behavior: %q", s)
	}
	return b, nil
}

// Individual lives for exactly one generation. Survived is written at most
// once, while the generation resolves its encounters.
type Individual struct {
	Behavior Behavior `json:"behavior"`
	Survived bool     `json:"survived"`
}

// Population is an unordered collection; slice order is a shuffle artifact.
type Population []Individual

func NewPopulation(tags ...Behavior) Population {
	pop := make(Population, 0, len(tags))
	for _, tag := range tags {
		pop = append(pop, Individual{Behavior: tag})
	}
	return pop
}

// Counts tallies individuals per behavior. Every tag of the closed set is present.
func (p Population) Counts() map[Behavior]int {
	counts := make(map[Behavior]int, len(behaviors))
	for _, b := range behaviors {
		counts[b] = 0
	}
	for _, ind := range p {
		counts[ind.Behavior]++
	}
	return counts
}

// GenerationMetrics describes one generation. Counts and proportions are
// taken over the population before reproduction.
type GenerationMetrics struct {
	Generation      int                  `json:"generation"`
	PopulationSize  int                  `json:"population_size"`
	Pairs           int                  `json:"pairs"`
	Unpaired        int                  `json:"unpaired"`
	PredationEvents int                  `json:"predation_events"`
	Survivors       int                  `json:"survivors"`
	Offspring       int                  `json:"offspring"`
	Counts          map[Behavior]int     `json:"counts"`
	Proportions     map[Behavior]float64 `json:"proportions"`
}

// Extinct reports whether the generation started with no individuals.
func (m GenerationMetrics) Extinct() bool {
	return m.PopulationSize == 0
}

type MetricsSeries []GenerationMetrics

type RunRecord struct {
	VersionedRecord
	ID               string   `json:"id"`
	Scenario         string   `json:"scenario"`
	Generations      int      `json:"generations"`
	PopulationSize   int      `json:"population_size"`
	Composition      string   `json:"composition"`
	Behaviors        []string `json:"behaviors"`
	PredatorRate     float64  `json:"predator_rate"`
	ReproductionRate float64  `json:"reproduction_rate"`
	OddPolicy        string   `json:"odd_policy"`
	Seed             int64    `json:"seed"`
	Replicates       int      `json:"replicates"`
	FinalSize        int      `json:"final_size"`
	ExtinctAt        int      `json:"extinct_at,omitempty"`
	CreatedAtUTC     string   `json:"created_at_utc"`
}

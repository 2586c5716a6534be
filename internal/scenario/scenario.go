// Package scenario loads simulation scenarios from YAML and ships the
// built-in experiment presets.
package scenario

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"socialsim/internal/evo"
	"socialsim/internal/model"
)

//go:embed presets.yaml
var presetsYAML []byte

// Scenario is one experiment: a founding population, rates and a run length.
type Scenario struct {
	Name             string     `yaml:"name" json:"name"`
	Description      string     `yaml:"description,omitempty" json:"description,omitempty"`
	Generations      int        `yaml:"generations" json:"generations"`
	Population       Population `yaml:"population" json:"population"`
	PredatorRate     float64    `yaml:"predator_rate" json:"predator_rate"`
	ReproductionRate float64    `yaml:"reproduction_rate" json:"reproduction_rate"`
	OddPolicy        string     `yaml:"odd_policy,omitempty" json:"odd_policy,omitempty"`
	Seed             int64      `yaml:"seed" json:"seed"`
	// Replicates is the number of independent runs, seeded Seed, Seed+1, ...
	Replicates int `yaml:"replicates,omitempty" json:"replicates,omitempty"`
}

type Population struct {
	Size        int      `yaml:"size" json:"size"`
	Composition string   `yaml:"composition" json:"composition"`
	Behaviors   []string `yaml:"behaviors,omitempty" json:"behaviors,omitempty"`
}

// Validate reports every problem at once.
func (s Scenario) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("scenario name is required"))
	}
	if s.Replicates < 0 {
		errs = append(errs, fmt.Errorf("replicates must be >= 0, got %d", s.Replicates))
	}
	if _, err := evo.ParseOddPolicy(s.OddPolicy); err != nil {
		errs = append(errs, err)
	}
	for _, name := range s.Population.Behaviors {
		if _, err := model.ParseBehavior(name); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		if err := s.Config().Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("scenario %q: %w", s.Name, errors.Join(errs...))
	}
	return nil
}

// Config converts the scenario into a run configuration. Call Validate first;
// unknown names pass through and are rejected by evo.
func (s Scenario) Config() evo.Config {
	tags := make([]model.Behavior, 0, len(s.Population.Behaviors))
	for _, name := range s.Population.Behaviors {
		tags = append(tags, model.Behavior(name))
	}
	policy := evo.OddPolicy(s.OddPolicy)
	if policy == "" {
		policy = evo.OddDrop
	}
	return evo.Config{
		Generations: s.Generations,
		Initial: evo.InitialSpec{
			Size:        s.Population.Size,
			Composition: evo.Composition(s.Population.Composition),
			Behaviors:   tags,
		},
		PredatorRate:     s.PredatorRate,
		ReproductionRate: s.ReproductionRate,
		OddPolicy:        policy,
	}
}

// ReplicateCount is Replicates with 0 read as a single run.
func (s Scenario) ReplicateCount() int {
	if s.Replicates <= 0 {
		return 1
	}
	return s.Replicates
}

// Tracked lists the behaviors worth charting for this scenario: the seeded
// behaviors, or every social behavior for a default round robin.
func (s Scenario) Tracked() []model.Behavior {
	if len(s.Population.Behaviors) == 0 {
		return model.SocialBehaviors()
	}
	tags := make([]model.Behavior, 0, len(s.Population.Behaviors))
	for _, name := range s.Population.Behaviors {
		tags = append(tags, model.Behavior(name))
	}
	return tags
}

func Parse(data []byte) (Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	return Parse(data)
}

func Save(path string, s Scenario) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func Presets() ([]Scenario, error) {
	var presets []Scenario
	if err := yaml.Unmarshal(presetsYAML, &presets); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	for _, p := range presets {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return presets, nil
}

func PresetNames() ([]string, error) {
	presets, err := Presets()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(presets))
	for _, p := range presets {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names, nil
}

func Preset(name string) (Scenario, bool, error) {
	presets, err := Presets()
	if err != nil {
		return Scenario{}, false, err
	}
	for _, p := range presets {
		if p.Name == name {
			return p, true, nil
		}
	}
	return Scenario{}, false, nil
}

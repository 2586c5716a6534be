package storage

import "socialsim/internal/model"

func sampleRun(id, createdAt string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord:  CurrentVersion(),
		ID:               id,
		Scenario:         "cowardice_altruist",
		Generations:      3,
		PopulationSize:   4,
		Composition:      "alternating",
		Behaviors:        []string{"cowardice", "altruist"},
		PredatorRate:     0.7,
		ReproductionRate: 0.6,
		OddPolicy:        "drop",
		Seed:             7,
		Replicates:       1,
		FinalSize:        6,
		CreatedAtUTC:     createdAt,
	}
}

func sampleSeries() model.MetricsSeries {
	return model.MetricsSeries{
		{
			Generation:     1,
			PopulationSize: 4,
			Pairs:          2,
			Survivors:      3,
			Offspring:      5,
			Counts:         map[model.Behavior]int{model.Cowardice: 2, model.Altruist: 2},
			Proportions:    map[model.Behavior]float64{model.Cowardice: 0.5, model.Altruist: 0.5},
		},
		{
			Generation:     2,
			PopulationSize: 5,
			Pairs:          2,
			Unpaired:       1,
			Survivors:      2,
			Offspring:      3,
			Counts:         map[model.Behavior]int{model.Cowardice: 3, model.Altruist: 2},
			Proportions:    map[model.Behavior]float64{model.Cowardice: 0.6, model.Altruist: 0.4},
		},
	}
}

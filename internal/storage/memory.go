package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"socialsim/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	series      map[string]model.MetricsSeries
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.series = make(map[string]model.MetricsSeries)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	run.Behaviors = append([]string(nil), run.Behaviors...)
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return model.RunRecord{}, false, nil
	}
	run.Behaviors = append([]string(nil), run.Behaviors...)
	return run, true, nil
}

// ListRuns returns runs newest first.
func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		run.Behaviors = append([]string(nil), run.Behaviors...)
		runs = append(runs, run)
	}
	sortRuns(runs)
	return runs, nil
}

func (s *MemoryStore) DeleteRun(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.runs, id)
	delete(s.series, id)
	return nil
}

func (s *MemoryStore) SaveSeries(_ context.Context, runID string, series model.MetricsSeries) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.series[runID] = cloneSeries(series)
	return nil
}

func (s *MemoryStore) GetSeries(_ context.Context, runID string) (model.MetricsSeries, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.series[runID]
	if !ok {
		return nil, false, nil
	}
	return cloneSeries(series), true, nil
}

func cloneSeries(series model.MetricsSeries) model.MetricsSeries {
	copied := make(model.MetricsSeries, 0, len(series))
	for _, m := range series {
		counts := make(map[model.Behavior]int, len(m.Counts))
		for k, v := range m.Counts {
			counts[k] = v
		}
		proportions := make(map[model.Behavior]float64, len(m.Proportions))
		for k, v := range m.Proportions {
			proportions[k] = v
		}
		m.Counts = counts
		m.Proportions = proportions
		copied = append(copied, m)
	}
	return copied
}

func sortRuns(runs []model.RunRecord) {
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC == runs[j].CreatedAtUTC {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAtUTC > runs[j].CreatedAtUTC
	})
}

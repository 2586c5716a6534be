package socialsim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"socialsim/internal/evo"
	"socialsim/internal/logging"
	"socialsim/internal/model"
	"socialsim/internal/scenario"
	"socialsim/internal/sink"
	"socialsim/internal/stats"
	"socialsim/internal/storage"
)

const (
	defaultArtifactsDir = "runs"
	defaultExportsDir   = "exports"
	defaultDBPath       = "socialsim.db"
	defaultScenario     = "baseline"

	// Fixed width so creation times order lexically.
	createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

type (
	Behavior          = model.Behavior
	InitialSpec       = evo.InitialSpec
	Source            = evo.Source
	MetricsSeries     = model.MetricsSeries
	GenerationMetrics = model.GenerationMetrics
	Scenario          = scenario.Scenario
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
	Logger       *slog.Logger
}

type Client struct {
	store  storage.Store
	logger *slog.Logger

	artifactsDir string
	exportsDir   string
}

// Overrides replace scenario fields; nil fields keep the scenario value.
type Overrides struct {
	Generations      *int
	PopulationSize   *int
	PredatorRate     *float64
	ReproductionRate *float64
	OddPolicy        *string
	Seed             *int64
	Replicates       *int
}

type RunRequest struct {
	// Scenario names a built-in preset. ScenarioPath, when set, loads a YAML
	// file instead.
	Scenario     string
	ScenarioPath string
	Overrides    Overrides
}

// RunSummary describes a finished run. Series is the first replicate and
// Replicates holds every replicate in seed order, Series included.
type RunSummary struct {
	RunID        string
	Scenario     string
	ArtifactsDir string
	Series       model.MetricsSeries
	Replicates   []model.MetricsSeries
	Average      []stats.AveragePoint
	Summary      stats.Summary
	// Tracked lists the behaviors the scenario seeded.
	Tracked []model.Behavior
}

// RunDetails is a stored run's configuration, summary and per-behavior trends.
type RunDetails struct {
	RunID   string
	Config  stats.RunConfig
	Summary stats.Summary
	Series  model.MetricsSeries
	Tracked []model.Behavior
	Sizes   []float64
	Shares  map[model.Behavior][]float64
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID          string
	CreatedAtUTC   string
	Scenario       string
	Seed           int64
	PopulationSize int
	Generations    int
	Replicates     int
	FinalSize      int
	ExtinctAt      int
}

type SeriesRequest struct {
	RunID  string
	Latest bool
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

// RunSimulation runs one seeded simulation with the default odd-remainder
// policy and returns one metrics record per generation.
func RunSimulation(generations int, initial InitialSpec, predatorRate, reproductionRate float64, seed int64) (MetricsSeries, error) {
	return evo.RunSeeded(evo.Config{
		Generations:      generations,
		Initial:          initial,
		PredatorRate:     predatorRate,
		ReproductionRate: reproductionRate,
		OddPolicy:        evo.OddDrop,
	}, seed)
}

// ResolveEncounter reports whether each member of a predated pair survives.
func ResolveEncounter(a, b Behavior, rng Source) (bool, bool, error) {
	outcome, err := evo.Resolve(a, b, rng)
	if err != nil {
		return false, false, err
	}
	return outcome.SurvivedA, outcome.SurvivedB, nil
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		logger:       logger,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Scenario resolves the scenario a request would run, overrides applied.
func (c *Client) Scenario(req RunRequest) (Scenario, error) {
	var (
		s   scenario.Scenario
		err error
	)
	if req.ScenarioPath != "" {
		s, err = scenario.Load(req.ScenarioPath)
		if err != nil {
			return scenario.Scenario{}, err
		}
	} else {
		name := req.Scenario
		if name == "" {
			name = defaultScenario
		}
		var ok bool
		s, ok, err = scenario.Preset(name)
		if err != nil {
			return scenario.Scenario{}, err
		}
		if !ok {
			return scenario.Scenario{}, fmt.Errorf("unknown scenario: %s", name)
		}
	}

	o := req.Overrides
	if o.Generations != nil {
		s.Generations = *o.Generations
	}
	if o.PopulationSize != nil {
		s.Population.Size = *o.PopulationSize
	}
	if o.PredatorRate != nil {
		s.PredatorRate = *o.PredatorRate
	}
	if o.ReproductionRate != nil {
		s.ReproductionRate = *o.ReproductionRate
	}
	if o.OddPolicy != nil {
		s.OddPolicy = *o.OddPolicy
	}
	if o.Seed != nil {
		s.Seed = *o.Seed
	}
	if o.Replicates != nil {
		s.Replicates = *o.Replicates
	}
	if err := s.Validate(); err != nil {
		return scenario.Scenario{}, err
	}
	return s, nil
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	s, err := c.Scenario(req)
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.store.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	cfg := s.Config()
	replicates := s.ReplicateCount()
	runID := fmt.Sprintf("%s-%d-%s", s.Name, s.Seed, uuid.NewString()[:8])
	logger := c.logger.With("run_id", runID, "scenario", s.Name)
	logger.Info("run started",
		"generations", s.Generations,
		"population", s.Population.Size,
		"predator_rate", s.PredatorRate,
		"reproduction_rate", s.ReproductionRate,
		"replicates", replicates,
	)

	runs := make([]model.MetricsSeries, 0, replicates)
	for r := 0; r < replicates; r++ {
		if err := ctx.Err(); err != nil {
			return RunSummary{}, err
		}
		seed := s.Seed + int64(r)
		observer := evo.ObserverFunc(func(m model.GenerationMetrics) {
			logger.Debug("generation",
				"replicate", r+1,
				"generation", m.Generation,
				"population", m.PopulationSize,
				"predations", m.PredationEvents,
				"offspring", m.Offspring,
			)
		})
		series, err := evo.RunSeeded(cfg, seed, observer)
		if err != nil {
			logger.Error("run aborted", "replicate", r+1, "seed", seed, "error", err)
			return RunSummary{}, err
		}
		if replicates > 1 {
			logger.Info("replicate finished", "replicate", r+1, "seed", seed, "final_size", finalSize(series))
		}
		runs = append(runs, series)
	}

	first := runs[0]
	summary := stats.Summarize(first)
	var average []stats.AveragePoint
	if replicates > 1 {
		average = stats.AverageSeries(runs)
	}

	now := time.Now().UTC()
	record := model.RunRecord{
		VersionedRecord:  storage.CurrentVersion(),
		ID:               runID,
		Scenario:         s.Name,
		Generations:      s.Generations,
		PopulationSize:   s.Population.Size,
		Composition:      s.Population.Composition,
		Behaviors:        append([]string(nil), s.Population.Behaviors...),
		PredatorRate:     s.PredatorRate,
		ReproductionRate: s.ReproductionRate,
		OddPolicy:        string(cfg.OddPolicy),
		Seed:             s.Seed,
		Replicates:       replicates,
		FinalSize:        summary.FinalSize,
		ExtinctAt:        summary.ExtinctAt,
		CreatedAtUTC:     now.Format(createdAtLayout),
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveSeries(ctx, runID, first); err != nil {
		return RunSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:            runID,
			Scenario:         s.Name,
			Description:      s.Description,
			Generations:      s.Generations,
			PopulationSize:   s.Population.Size,
			Composition:      s.Population.Composition,
			Behaviors:        record.Behaviors,
			PredatorRate:     s.PredatorRate,
			ReproductionRate: s.ReproductionRate,
			OddPolicy:        record.OddPolicy,
			Seed:             s.Seed,
			Replicates:       replicates,
		},
		Series:     first,
		Replicates: runs[1:],
		Average:    average,
		Summary:    summary,
	})
	if err != nil {
		return RunSummary{}, err
	}

	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:          runID,
		Scenario:       s.Name,
		PopulationSize: s.Population.Size,
		Generations:    s.Generations,
		Seed:           s.Seed,
		Replicates:     replicates,
		FinalSize:      summary.FinalSize,
		ExtinctAt:      summary.ExtinctAt,
		CreatedAtUTC:   record.CreatedAtUTC,
	}); err != nil {
		return RunSummary{}, err
	}

	logger.Info("run finished",
		"final_size", summary.FinalSize,
		"peak_size", summary.PeakSize,
		"extinct_at", summary.ExtinctAt,
		"dominant", summary.Dominant,
	)

	return RunSummary{
		RunID:        runID,
		Scenario:     s.Name,
		ArtifactsDir: filepath.Clean(runDir),
		Series:       first,
		Replicates:   runs,
		Average:      average,
		Summary:      summary,
		Tracked:      s.Tracked(),
	}, nil
}

// Runs lists recorded runs newest first. The store is the source of truth;
// the artifacts index is used when the store holds no runs, as with a fresh
// memory store.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.store.Init(ctx); err != nil {
		return nil, err
	}

	records, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RunItem, 0, req.Limit)
	if len(records) > 0 {
		for _, r := range records {
			if len(out) == req.Limit {
				break
			}
			out = append(out, RunItem{
				RunID:          r.ID,
				CreatedAtUTC:   r.CreatedAtUTC,
				Scenario:       r.Scenario,
				Seed:           r.Seed,
				PopulationSize: r.PopulationSize,
				Generations:    r.Generations,
				Replicates:     r.Replicates,
				FinalSize:      r.FinalSize,
				ExtinctAt:      r.ExtinctAt,
			})
		}
		return out, nil
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:          e.RunID,
			CreatedAtUTC:   e.CreatedAtUTC,
			Scenario:       e.Scenario,
			Seed:           e.Seed,
			PopulationSize: e.PopulationSize,
			Generations:    e.Generations,
			Replicates:     e.Replicates,
			FinalSize:      e.FinalSize,
			ExtinctAt:      e.ExtinctAt,
		})
	}
	return out, nil
}

// Series returns a run's first-replicate series, from the store when it has
// the run and from the artifacts directory otherwise.
func (c *Client) Series(ctx context.Context, req SeriesRequest) (string, model.MetricsSeries, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return "", nil, err
	}
	if err := c.store.Init(ctx); err != nil {
		return "", nil, err
	}

	series, ok, err := c.store.GetSeries(ctx, runID)
	if err != nil {
		return "", nil, err
	}
	if ok {
		return runID, series, nil
	}

	series, ok, err = stats.ReadSeries(c.artifactsDir, runID)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, fmt.Errorf("series not found for run %s", runID)
	}
	return runID, series, nil
}

// Show loads a run's configuration and summary, from the store when it has
// the run and from the artifacts directory otherwise.
func (c *Client) Show(ctx context.Context, req SeriesRequest) (RunDetails, error) {
	runID, series, err := c.Series(ctx, req)
	if err != nil {
		return RunDetails{}, err
	}

	var cfg stats.RunConfig
	record, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return RunDetails{}, err
	}
	if ok {
		cfg = runConfigFromRecord(record)
	} else {
		cfg, ok, err = stats.ReadRunConfig(c.artifactsDir, runID)
		if err != nil {
			return RunDetails{}, err
		}
		if !ok {
			return RunDetails{}, fmt.Errorf("config not found for run %s", runID)
		}
	}

	summary, ok, err := stats.ReadSummary(c.artifactsDir, runID)
	if err != nil {
		return RunDetails{}, err
	}
	if !ok {
		summary = stats.Summarize(series)
	}

	tracked := scenario.Scenario{Population: scenario.Population{Behaviors: cfg.Behaviors}}.Tracked()
	shares := make(map[model.Behavior][]float64, len(tracked))
	for _, tag := range tracked {
		shares[tag] = stats.ProportionSeries(series, tag)
	}
	return RunDetails{
		RunID:   runID,
		Config:  cfg,
		Summary: summary,
		Series:  series,
		Tracked: tracked,
		Sizes:   stats.SizeSeries(series),
		Shares:  shares,
	}, nil
}

// SeriesRows reads a run's series.csv artifact.
func (c *Client) SeriesRows(ctx context.Context, req SeriesRequest) (string, []stats.SeriesRow, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return "", nil, err
	}
	rows, err := stats.ReadSeriesCSV(stats.SeriesCSVPath(c.artifactsDir, runID))
	if err != nil {
		return "", nil, fmt.Errorf("series csv for run %s: %w", runID, err)
	}
	return runID, rows, nil
}

// Delete removes a run from the store and from the artifacts directory.
func (c *Client) Delete(ctx context.Context, runID string) error {
	if runID == "" {
		return errors.New("run id is required")
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	if err := c.store.DeleteRun(ctx, runID); err != nil {
		return err
	}
	if err := stats.RemoveRunArtifacts(c.artifactsDir, runID); err != nil {
		return err
	}
	c.logger.Info("run deleted", "run_id", runID)
	return nil
}

func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	c.logger.Info("run exported", "run_id", runID, "dir", exportedDir)
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// Replay returns a WebSocket handler that streams a stored run.
func (c *Client) Replay(ctx context.Context, req SeriesRequest, interval time.Duration) (string, http.Handler, error) {
	runID, series, err := c.Series(ctx, req)
	if err != nil {
		return "", nil, err
	}
	return runID, sink.NewReplayHandler(series, interval, c.logger.With("run_id", runID)), nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID == "" && !latest {
		return "", errors.New("run id or latest is required")
	}
	if runID != "" {
		return runID, nil
	}

	if err := c.store.Init(ctx); err != nil {
		return "", err
	}
	records, err := c.store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(records) > 0 {
		return records[0].ID, nil
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

func runConfigFromRecord(r model.RunRecord) stats.RunConfig {
	return stats.RunConfig{
		RunID:            r.ID,
		Scenario:         r.Scenario,
		Generations:      r.Generations,
		PopulationSize:   r.PopulationSize,
		Composition:      r.Composition,
		Behaviors:        append([]string(nil), r.Behaviors...),
		PredatorRate:     r.PredatorRate,
		ReproductionRate: r.ReproductionRate,
		OddPolicy:        r.OddPolicy,
		Seed:             r.Seed,
		Replicates:       r.Replicates,
	}
}

func finalSize(series model.MetricsSeries) int {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1].Offspring
}

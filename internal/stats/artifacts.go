package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"socialsim/internal/model"
)

const runIndexFile = "run_index.json"

var artifactFiles = []string{"config.json", "metrics.json", "summary.json", "series.csv"}

type RunConfig struct {
	RunID            string   `json:"run_id"`
	Scenario         string   `json:"scenario"`
	Description      string   `json:"description,omitempty"`
	Generations      int      `json:"generations"`
	PopulationSize   int      `json:"population_size"`
	Composition      string   `json:"composition"`
	Behaviors        []string `json:"behaviors,omitempty"`
	PredatorRate     float64  `json:"predator_rate"`
	ReproductionRate float64  `json:"reproduction_rate"`
	OddPolicy        string   `json:"odd_policy"`
	Seed             int64    `json:"seed"`
	Replicates       int      `json:"replicates"`
}

// RunArtifacts is everything written for a run. Series is the first
// replicate; Replicates holds the rest.
type RunArtifacts struct {
	Config     RunConfig             `json:"config"`
	Series     model.MetricsSeries   `json:"series"`
	Replicates []model.MetricsSeries `json:"replicates,omitempty"`
	Average    []AveragePoint        `json:"average,omitempty"`
	Summary    Summary               `json:"summary"`
}

type RunIndexEntry struct {
	RunID          string `json:"run_id"`
	Scenario       string `json:"scenario"`
	PopulationSize int    `json:"population_size"`
	Generations    int    `json:"generations"`
	Seed           int64  `json:"seed"`
	Replicates     int    `json:"replicates"`
	FinalSize      int    `json:"final_size"`
	ExtinctAt      int    `json:"extinct_at,omitempty"`
	CreatedAtUTC   string `json:"created_at_utc"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "metrics.json"), artifacts.Series); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "summary.json"), artifacts.Summary); err != nil {
		return "", err
	}
	if err := WriteSeriesCSV(SeriesCSVPath(baseDir, artifacts.Config.RunID), artifacts.Series); err != nil {
		return "", err
	}
	if len(artifacts.Replicates) > 0 {
		if err := writeJSON(filepath.Join(runDir, "replicates.json"), artifacts.Replicates); err != nil {
			return "", err
		}
	}
	if len(artifacts.Average) > 0 {
		if err := writeJSON(filepath.Join(runDir, "average.json"), artifacts.Average); err != nil {
			return "", err
		}
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := readRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	entries, err := readRunIndex(baseDir)
	if err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// RemoveRunArtifacts deletes a run's directory and its index entry. Removing
// a run that was never written is not an error.
func RemoveRunArtifacts(baseDir, runID string) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	if filepath.Base(runID) != runID || runID == "." || runID == ".." {
		return fmt.Errorf("invalid run id %q", runID)
	}
	if err := os.RemoveAll(filepath.Join(baseDir, runID)); err != nil {
		return err
	}

	index, err := readRunIndex(baseDir)
	if err != nil {
		return err
	}
	kept := index[:0]
	for _, entry := range index {
		if entry.RunID != runID {
			kept = append(kept, entry)
		}
	}
	if len(kept) == len(index) {
		return nil
	}
	return writeJSON(filepath.Join(baseDir, runIndexFile), kept)
}

func readRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SeriesCSVPath is where WriteRunArtifacts puts a run's series.csv.
func SeriesCSVPath(baseDir, runID string) string {
	return filepath.Join(baseDir, runID, "series.csv")
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range artifactFiles {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	for _, optional := range []string{"replicates.json", "average.json"} {
		path := filepath.Join(src, optional)
		if _, err := os.Stat(path); err == nil {
			if err := copyFile(path, filepath.Join(dst, optional)); err != nil {
				return "", err
			}
		} else if !os.IsNotExist(err) {
			return "", err
		}
	}

	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(baseDir, runID, "config.json"), &cfg)
	return cfg, ok, err
}

func ReadSeries(baseDir, runID string) (model.MetricsSeries, bool, error) {
	var series model.MetricsSeries
	ok, err := readJSON(filepath.Join(baseDir, runID, "metrics.json"), &series)
	return series, ok, err
}

func ReadSummary(baseDir, runID string) (Summary, bool, error) {
	var summary Summary
	ok, err := readJSON(filepath.Join(baseDir, runID, "summary.json"), &summary)
	return summary, ok, err
}

// SeriesRow is one line of series.csv.
type SeriesRow struct {
	Generation     int
	PopulationSize int
	Survivors      int
	Offspring      int
	Proportions    map[model.Behavior]float64
}

func WriteSeriesCSV(path string, series model.MetricsSeries) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	tags := model.Behaviors()
	header := []string{"generation", "population_size", "survivors", "offspring"}
	for _, tag := range tags {
		header = append(header, string(tag))
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, m := range series {
		record := []string{
			strconv.Itoa(m.Generation),
			strconv.Itoa(m.PopulationSize),
			strconv.Itoa(m.Survivors),
			strconv.Itoa(m.Offspring),
		}
		for _, tag := range tags {
			record = append(record, strconv.FormatFloat(m.Proportions[tag], 'f', -1, 64))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadSeriesCSV(path string) ([]SeriesRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []SeriesRow{}, nil
		}
		return nil, err
	}
	if len(header) < 4 {
		return nil, fmt.Errorf("series header must have at least 4 columns")
	}
	tags := make([]model.Behavior, 0, len(header)-4)
	for _, name := range header[4:] {
		tag, err := model.ParseBehavior(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("series header: %w", err)
		}
		tags = append(tags, tag)
	}

	rows := make([]SeriesRow, 0, 64)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		ints := make([]int, 4)
		for i := range ints {
			if ints[i], err = strconv.Atoi(record[i]); err != nil {
				return nil, fmt.Errorf("series column %s: %w", header[i], err)
			}
		}
		row := SeriesRow{
			Generation:     ints[0],
			PopulationSize: ints[1],
			Survivors:      ints[2],
			Offspring:      ints[3],
			Proportions:    make(map[model.Behavior]float64, len(tags)),
		}
		for i, tag := range tags {
			value, err := strconv.ParseFloat(record[4+i], 64)
			if err != nil {
				return nil, fmt.Errorf("series column %s: %w", tag, err)
			}
			row.Proportions[tag] = value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

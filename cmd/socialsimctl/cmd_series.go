package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"socialsim/internal/model"
	"socialsim/internal/stats"
	"socialsim/pkg/socialsim"
)

func newSeriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Print the per-generation metrics of a run",
		Long: `Print the per-generation metrics of a run. --csv re-emits the run's
series.csv artifact, --summary prints its configuration, summary and
per-behavior share trend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := seriesRequestFromFlags(cmd)
			flags := cmd.Flags()
			jsonOut, _ := flags.GetBool("json")
			csvOut, _ := flags.GetBool("csv")
			summaryOut, _ := flags.GetBool("summary")
			modes := 0
			for _, on := range []bool{jsonOut, csvOut, summaryOut} {
				if on {
					modes++
				}
			}
			if modes > 1 {
				return fmt.Errorf("use only one of --json, --csv or --summary")
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			switch {
			case csvOut:
				_, rows, err := client.SeriesRows(cmd.Context(), req)
				if err != nil {
					return err
				}
				return writeSeriesRows(out, rows)
			case jsonOut:
				_, series, err := client.Series(cmd.Context(), req)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(series)
			}

			details, err := client.Show(cmd.Context(), req)
			if err != nil {
				return err
			}
			if summaryOut {
				printRunDetails(out, details)
				return nil
			}
			fmt.Fprintf(out, "run_id=%s generations=%d\n", details.RunID, len(details.Series))
			for _, m := range details.Series {
				printGeneration(cmd, m, details.Tracked)
			}
			return nil
		},
	}
	addRunSelectorFlags(cmd)
	cmd.Flags().Bool("json", false, "emit the series as JSON")
	cmd.Flags().Bool("csv", false, "emit the series.csv artifact")
	cmd.Flags().Bool("summary", false, "print the run configuration, summary and share trends")
	return cmd
}

func addRunSelectorFlags(cmd *cobra.Command) {
	cmd.Flags().String("run-id", "", "run id")
	cmd.Flags().Bool("latest", false, "use the most recent run")
}

func seriesRequestFromFlags(cmd *cobra.Command) socialsim.SeriesRequest {
	runID, _ := cmd.Flags().GetString("run-id")
	latest, _ := cmd.Flags().GetBool("latest")
	return socialsim.SeriesRequest{RunID: runID, Latest: latest}
}

func writeSeriesRows(w io.Writer, rows []stats.SeriesRow) error {
	tags := model.Behaviors()
	header := []string{"generation", "population_size", "survivors", "offspring"}
	for _, tag := range tags {
		header = append(header, string(tag))
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Generation),
			strconv.Itoa(row.PopulationSize),
			strconv.Itoa(row.Survivors),
			strconv.Itoa(row.Offspring),
		}
		for _, tag := range tags {
			record = append(record, strconv.FormatFloat(row.Proportions[tag], 'f', -1, 64))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func printRunDetails(w io.Writer, d socialsim.RunDetails) {
	cfg := d.Config
	behaviors := "all"
	if len(cfg.Behaviors) > 0 {
		behaviors = strings.Join(cfg.Behaviors, ",")
	}
	fmt.Fprintf(w, "run_id=%s scenario=%s gens=%d pop=%d composition=%s behaviors=%s\n",
		d.RunID, cfg.Scenario, cfg.Generations, cfg.PopulationSize, cfg.Composition, behaviors)
	fmt.Fprintf(w, "predator_rate=%.2f repro_rate=%.2f odd_policy=%s seed=%d replicates=%d\n",
		cfg.PredatorRate, cfg.ReproductionRate, cfg.OddPolicy, cfg.Seed, cfg.Replicates)

	s := d.Summary
	fmt.Fprintf(w, "initial_size=%s peak_size=%s peak_generation=%d final_size=%s extinct_at=%d\n",
		humanize.Comma(int64(s.InitialSize)),
		humanize.Comma(int64(s.PeakSize)),
		s.PeakGeneration,
		humanize.Comma(int64(s.FinalSize)),
		s.ExtinctAt,
	)
	if n := len(d.Sizes); n > 0 {
		fmt.Fprintf(w, "size first=%.0f last=%.0f\n", d.Sizes[0], d.Sizes[n-1])
	}
	for _, tag := range d.Tracked {
		shares := d.Shares[tag]
		if len(shares) == 0 {
			continue
		}
		fmt.Fprintf(w, "share behavior=%s first=%.4f last=%.4f\n", tag, shares[0], shares[len(shares)-1])
	}
}

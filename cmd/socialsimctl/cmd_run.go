package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"socialsim/internal/model"
	"socialsim/internal/scenario"
	"socialsim/pkg/socialsim"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario and record its artifacts",
		Long: `Run a built-in scenario (see "socialsimctl scenarios") or a YAML scenario
file. Flags override scenario fields only when given explicitly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := runRequestFromFlags(cmd)
			if err != nil {
				return err
			}
			showSeries, _ := cmd.Flags().GetBool("show-series")
			savePath, _ := cmd.Flags().GetString("save-scenario")

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			if savePath != "" {
				s, err := client.Scenario(req)
				if err != nil {
					return err
				}
				if err := scenario.Save(savePath, s); err != nil {
					return fmt.Errorf("save scenario: %w", err)
				}
				fmt.Fprintf(out, "scenario saved path=%s\n", savePath)
			}

			summary, err := client.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			s := summary.Summary
			fmt.Fprintf(out, "run completed run_id=%s scenario=%s gens=%d replicates=%d\n",
				summary.RunID, summary.Scenario, s.Generations, len(summary.Replicates))
			if showSeries {
				for _, m := range summary.Series {
					printGeneration(cmd, m, summary.Tracked)
				}
			}
			fmt.Fprintf(out, "initial_size=%s peak_size=%s peak_generation=%d final_size=%s\n",
				humanize.Comma(int64(s.InitialSize)),
				humanize.Comma(int64(s.PeakSize)),
				s.PeakGeneration,
				humanize.Comma(int64(s.FinalSize)),
			)
			if s.ExtinctAt > 0 {
				fmt.Fprintf(out, "extinct_at=%d\n", s.ExtinctAt)
			} else {
				fmt.Fprintf(out, "dominant=%s share=%.4f\n", s.Dominant, s.FinalProportions[s.Dominant])
			}
			fmt.Fprintf(out, "artifacts_dir=%s\n", summary.ArtifactsDir)
			return nil
		},
	}

	cmd.Flags().String("scenario", "baseline", "built-in scenario name")
	cmd.Flags().String("file", "", "YAML scenario file (overrides --scenario)")
	cmd.Flags().Int("gens", 0, "number of generations")
	cmd.Flags().Int("pop", 0, "founding population size")
	cmd.Flags().Float64("predator-rate", 0, "probability a pair is attacked, in [0,1]")
	cmd.Flags().Float64("repro-rate", 0, "probability a survivor leaves two offspring, in [0,1]")
	cmd.Flags().String("odd-policy", "", "unpaired individual handling: drop|carry")
	cmd.Flags().Int64("seed", 0, "random seed")
	cmd.Flags().Int("replicates", 0, "independent runs seeded seed, seed+1, ...")
	cmd.Flags().Bool("show-series", false, "print every generation")
	cmd.Flags().String("save-scenario", "", "write the resolved scenario, overrides applied, to this YAML file")
	return cmd
}

func runRequestFromFlags(cmd *cobra.Command) (socialsim.RunRequest, error) {
	flags := cmd.Flags()
	name, _ := flags.GetString("scenario")
	path, _ := flags.GetString("file")
	req := socialsim.RunRequest{Scenario: name, ScenarioPath: path}

	if flags.Changed("gens") {
		v, _ := flags.GetInt("gens")
		req.Overrides.Generations = &v
	}
	if flags.Changed("pop") {
		v, _ := flags.GetInt("pop")
		req.Overrides.PopulationSize = &v
	}
	if flags.Changed("predator-rate") {
		v, _ := flags.GetFloat64("predator-rate")
		req.Overrides.PredatorRate = &v
	}
	if flags.Changed("repro-rate") {
		v, _ := flags.GetFloat64("repro-rate")
		req.Overrides.ReproductionRate = &v
	}
	if flags.Changed("odd-policy") {
		v, _ := flags.GetString("odd-policy")
		req.Overrides.OddPolicy = &v
	}
	if flags.Changed("seed") {
		v, _ := flags.GetInt64("seed")
		req.Overrides.Seed = &v
	}
	if flags.Changed("replicates") {
		v, _ := flags.GetInt("replicates")
		if v <= 0 {
			return socialsim.RunRequest{}, fmt.Errorf("replicates must be > 0")
		}
		req.Overrides.Replicates = &v
	}
	return req, nil
}

// printGeneration prints one generation and the shares of the tracked
// behaviors, or every nonzero share when nothing is tracked.
func printGeneration(cmd *cobra.Command, m model.GenerationMetrics, tracked []model.Behavior) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "generation=%d size=%s pairs=%d predations=%d survivors=%s offspring=%s",
		m.Generation,
		humanize.Comma(int64(m.PopulationSize)),
		m.Pairs,
		m.PredationEvents,
		humanize.Comma(int64(m.Survivors)),
		humanize.Comma(int64(m.Offspring)),
	)
	if len(tracked) > 0 {
		for _, tag := range tracked {
			fmt.Fprintf(out, " %s=%.4f", tag, m.Proportions[tag])
		}
	} else {
		for _, tag := range model.Behaviors() {
			if share := m.Proportions[tag]; share > 0 {
				fmt.Fprintf(out, " %s=%.4f", tag, share)
			}
		}
	}
	fmt.Fprintln(out)
}

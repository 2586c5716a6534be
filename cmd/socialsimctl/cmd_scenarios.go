package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"socialsim/internal/scenario"
)

func newScenariosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := scenario.PresetNames()
			if err != nil {
				return err
			}
			presets := make([]scenario.Scenario, 0, len(names))
			for _, name := range names {
				p, ok, err := scenario.Preset(name)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("unknown scenario: %s", name)
				}
				presets = append(presets, p)
			}

			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(presets)
			}
			for _, p := range presets {
				behaviors := "all"
				if len(p.Population.Behaviors) > 0 {
					behaviors = strings.Join(p.Population.Behaviors, ",")
				}
				fmt.Fprintf(out, "name=%s gens=%d pop=%d composition=%s behaviors=%s predator_rate=%.2f repro_rate=%.2f seed=%d\n",
					p.Name,
					p.Generations,
					p.Population.Size,
					p.Population.Composition,
					behaviors,
					p.PredatorRate,
					p.ReproductionRate,
					p.Seed,
				)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "emit scenarios as JSON")
	return cmd
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"socialsim/pkg/socialsim"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				return fmt.Errorf("limit must be > 0")
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			items, err := client.Runs(cmd.Context(), socialsim.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				type runsItem struct {
					RunID          string `json:"run_id"`
					CreatedAtUTC   string `json:"created_at_utc"`
					Scenario       string `json:"scenario"`
					Seed           int64  `json:"seed"`
					PopulationSize int    `json:"population_size"`
					Generations    int    `json:"generations"`
					Replicates     int    `json:"replicates"`
					FinalSize      int    `json:"final_size"`
					ExtinctAt      int    `json:"extinct_at,omitempty"`
				}
				rows := make([]runsItem, 0, len(items))
				for _, item := range items {
					rows = append(rows, runsItem(item))
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			if len(items) == 0 {
				fmt.Fprintln(out, "no runs found")
				return nil
			}
			for _, item := range items {
				fmt.Fprintf(out, "run_id=%s created_at=%s scenario=%s seed=%d pop=%s gens=%d replicates=%d final_size=%s extinct_at=%d\n",
					item.RunID,
					item.CreatedAtUTC,
					item.Scenario,
					item.Seed,
					humanize.Comma(int64(item.PopulationSize)),
					item.Generations,
					item.Replicates,
					humanize.Comma(int64(item.FinalSize)),
					item.ExtinctAt,
				)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "max runs to list")
	cmd.Flags().Bool("json", false, "emit runs as JSON")
	return cmd
}

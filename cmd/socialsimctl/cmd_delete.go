package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove a run from the store and the artifacts directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, _ := cmd.Flags().GetString("run-id")
			if runID == "" {
				return fmt.Errorf("--run-id is required")
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Delete(cmd.Context(), runID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted run_id=%s\n", runID)
			return nil
		},
	}
	cmd.Flags().String("run-id", "", "run id")
	return cmd
}

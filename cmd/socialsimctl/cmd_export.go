package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"socialsim/pkg/socialsim"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy a run's artifacts to an export directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel := seriesRequestFromFlags(cmd)
			outDir, _ := cmd.Flags().GetString("out")

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			exported, err := client.Export(cmd.Context(), socialsim.ExportRequest{
				RunID:  sel.RunID,
				Latest: sel.Latest,
				OutDir: outDir,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s dir=%s\n", exported.RunID, exported.Directory)
			return nil
		},
	}
	addRunSelectorFlags(cmd)
	cmd.Flags().String("out", "exports", "export directory")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"socialsim/internal/logging"
	"socialsim/internal/storage"
	"socialsim/pkg/socialsim"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "socialsimctl",
		Short: "Simulate the evolution of social behaviors under predation",
		Long: `socialsimctl runs generation-by-generation simulations of populations
whose members carry one social behavior (cowardice, altruism, green-beard
altruism, spite, selective spite) and face predators in pairs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	rootCmd.PersistentFlags().String("db-path", "socialsim.db", "sqlite database path")
	rootCmd.PersistentFlags().String("artifacts-dir", "runs", "directory for run artifacts and the run index")

	rootCmd.AddCommand(
		newRunCmd(),
		newScenariosCmd(),
		newResolveCmd(),
		newRunsCmd(),
		newSeriesCmd(),
		newExportCmd(),
		newDeleteCmd(),
		newServeCmd(),
	)
	return rootCmd
}

func newClient(cmd *cobra.Command) (*socialsim.Client, error) {
	level, _ := cmd.Flags().GetString("log-level")
	storeKind, _ := cmd.Flags().GetString("store")
	dbPath, _ := cmd.Flags().GetString("db-path")
	artifactsDir, _ := cmd.Flags().GetString("artifacts-dir")

	return socialsim.New(socialsim.Options{
		StoreKind:    storeKind,
		DBPath:       dbPath,
		ArtifactsDir: artifactsDir,
		Logger:       logging.NewLogger(level, cmd.ErrOrStderr()),
	})
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Replay a run over WebSocket, one frame per generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			interval, _ := cmd.Flags().GetDuration("interval")
			if interval < 0 {
				return fmt.Errorf("interval must be >= 0")
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			runID, handler, err := client.Replay(cmd.Context(), seriesRequestFromFlags(cmd), interval)
			if err != nil {
				return err
			}

			mux := http.NewServeMux()
			mux.Handle("/replay", handler)
			srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "serving run_id=%s at ws://%s/replay\n", runID, addr)

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}
	addRunSelectorFlags(cmd)
	cmd.Flags().String("addr", "localhost:8080", "listen address")
	cmd.Flags().Duration("interval", 250*time.Millisecond, "delay between generation frames")
	return cmd
}

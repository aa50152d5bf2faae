package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/OCAP2/hologram/internal/daemon"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newRunCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the hologram service until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			settings := daemon.SettingsFromConfig()
			settings.Console = !quiet

			d, err := daemon.New(ctx, settings)
			if err != nil {
				return err
			}

			if err := d.Start(ctx); err != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				_ = d.Shutdown(shutdownCtx)
				return err
			}

			<-ctx.Done()
			d.Log.Info().Msg("Shutdown signal received")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return d.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not mirror component logs to the console")
	return cmd
}

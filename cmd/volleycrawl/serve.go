package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vbstat/volleycrawl/internal/app"
	"github.com/vbstat/volleycrawl/internal/config"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the control API and the auto-update daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Serve(ctx)
		},
	}
}

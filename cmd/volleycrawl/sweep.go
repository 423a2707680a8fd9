package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vbstat/volleycrawl/internal/app"
	"github.com/vbstat/volleycrawl/internal/config"
	"github.com/vbstat/volleycrawl/internal/plan"
	"github.com/vbstat/volleycrawl/internal/record"
)

func newSweepCmd() *cobra.Command {
	var (
		source       string
		from, to     int64
		season       int
		rescan       bool
		skipExisting bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one crawl for a source and wait for it to finish",
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := record.ParseSource(source)
			if err != nil {
				return err
			}
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

			opts := plan.Options{
				From:         from,
				To:           to,
				Season:       season,
				Rescan:       rescan,
				SkipExisting: skipExisting,
			}
			if err := a.Controller.Start(ctx, src, opts); err != nil {
				return err
			}
			snap, err := a.Controller.Await(ctx, src)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"%s: %s: found %d, empty %d, skipped %d, errors %d\n",
				src, snap.State, snap.Found, snap.Empty, snap.Skipped, snap.Errors)
			if snap.LastError != "" {
				return fmt.Errorf("crawl ended with error: %s", snap.LastError)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", string(record.SourceVolleyMSK), "source to crawl (volleymsk or bcl)")
	cmd.Flags().Int64Var(&from, "from", 0, "first match id (volleymsk)")
	cmd.Flags().Int64Var(&to, "to", 0, "last match id, 0 = open-ended (volleymsk)")
	cmd.Flags().IntVar(&season, "season", 0, "crawl one season only (bcl)")
	cmd.Flags().BoolVar(&rescan, "rescan", false, "start over from the beginning")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", true, "skip pages already fully parsed")

	return cmd
}

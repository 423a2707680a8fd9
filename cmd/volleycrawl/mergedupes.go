package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vbstat/volleycrawl/internal/app"
	"github.com/vbstat/volleycrawl/internal/config"
	"github.com/vbstat/volleycrawl/internal/record"
)

func newMergeDupesCmd() *cobra.Command {
	var (
		source string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "merge-dupes",
		Short: "Fold duplicate player records that share a name and birth date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := record.ParseSource(source)
			if err != nil {
				return err
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			// Merging rewrites player references; doing that under a live
			// crawl would race the ingest path. This only sees crawls
			// started by this process; a serve instance sharing the store
			// must have its crawls stopped first.
			if a.Controller.Running(src) {
				return fmt.Errorf("a crawl is running for %s, stop it first", src)
			}

			report, err := a.Resolver.MergeAll(ctx, src, dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			verb := "merged"
			if dryRun {
				verb = "would merge"
			}
			fmt.Fprintf(out, "%s %d players across %d duplicate groups, %d ambiguous left untouched\n",
				verb, report.Merged, report.Groups, len(report.Ambiguous))
			for _, f := range report.Ambiguous {
				fmt.Fprintf(out, "  %s: players %v (birth dates %v)\n",
					f.NameKey, f.PlayerIDs, f.BirthDates)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", string(record.SourceVolleyMSK), "source to deduplicate")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without changing anything")

	return cmd
}

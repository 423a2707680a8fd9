package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "volleycrawl",
		Short: "Incremental crawler for amateur volleyball match records",
		Long: `volleycrawl ingests match results, rosters and player statistics from
volleymsk.ru and volleyball.businesschampions.ru into a shared store,
resolving duplicate player identities across re-registrations.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (optional)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSweepCmd())
	cmd.AddCommand(newMergeDupesCmd())

	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

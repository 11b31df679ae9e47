package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

// configDir is where the .forge.yaml lookup starts.
var configDir string

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forge",
		Short: "Forge - competitive multi-agent story expansion",
		Long: `Forge runs competitive rounds between AI agents.

Producer agents each expand a seed plot for a genre, evaluator agents vote on
the anonymized candidates, and the winner is recorded in a persistent league
that tracks standings, form and evaluator fairness across rounds.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory to start searching for .forge.yaml")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newLeagueCommand())
	cmd.AddCommand(newAnalyticsCommand())
	cmd.AddCommand(newCacheCommand())
	cmd.AddCommand(newAgentsCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}

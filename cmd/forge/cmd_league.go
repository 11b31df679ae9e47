package main

import (
	"errors"
	"fmt"

	"github.com/spboyer/forge/internal/league"
	"github.com/spboyer/forge/internal/projectconfig"
	"github.com/spboyer/forge/internal/reporting"
	"github.com/spf13/cobra"
)

var (
	leagueFile   string
	leagueFormat string
	assumeYes    bool
	noArchive    bool
	pruneKeep    int
)

var errNotConfirmed = errors.New("aborted: not confirmed (use --yes to skip the prompt)")

func newLeagueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "league",
		Short: "Show and manage the league",
		Long: `Show and manage the persistent league.

The league ranks producers (teams) by points and evaluators (voters) by how
often they back the winner, and tracks how evenly each evaluator spreads its
votes.`,
	}

	cmd.PersistentFlags().StringVar(&leagueFile, "league", "", "League store file (default from config)")
	cmd.PersistentFlags().StringVar(&leagueFormat, "format", "text", "Output format: text, markdown, html")

	cmd.AddCommand(&cobra.Command{
		Use:   "table",
		Short: "Print the team and voter tables",
		Args:  cobra.NoArgs,
		RunE:  leagueTableE,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "fairness",
		Short: "Print the fairness report",
		Args:  cobra.NoArgs,
		RunE:  leagueFairnessE,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print store statistics",
		Args:  cobra.NoArgs,
		RunE:  leagueStatsE,
	})
	cmd.AddCommand(newLeagueResetCommand())
	cmd.AddCommand(newLeagueNewSeasonCommand())
	cmd.AddCommand(newLeaguePruneCommand())

	return cmd
}

func newLeagueResetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Empty the league",
		Long: `Empty the league back to season 1.

The current store is archived as a gzip file next to it first, unless
--no-archive is given.`,
		Args: cobra.NoArgs,
		RunE: leagueResetE,
	}
	cmd.Flags().BoolVar(&noArchive, "no-archive", false, "Do not archive the store before resetting")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newLeagueNewSeasonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new-season",
		Short: "Archive the league and start the next season",
		Long: `Archive the league and start the next season.

Teams and voters keep their names and join dates; their standings are
cleared. Round history is kept.`,
		Args: cobra.NoArgs,
		RunE: leagueNewSeasonE,
	}
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newLeaguePruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop old history entries",
		Args:  cobra.NoArgs,
		RunE:  leaguePruneE,
	}
	cmd.Flags().IntVar(&pruneKeep, "keep", 100, "Number of most recent history entries to keep")
	return cmd
}

func openLeague() (*league.Tracker, error) {
	cfg, err := projectconfig.Load(configDir)
	if err != nil {
		return nil, err
	}
	path := cfg.Paths.League
	if leagueFile != "" {
		path = leagueFile
	}

	tracker, err := league.Open(path, cfg.League)
	if err != nil {
		return nil, fmt.Errorf("failed to open league: %w", err)
	}
	return tracker, nil
}

func leagueTableE(cmd *cobra.Command, args []string) error {
	f, err := reporting.ParseFormat(leagueFormat)
	if err != nil {
		return err
	}
	tracker, err := openLeague()
	if err != nil {
		return err
	}

	teams, err := tracker.TeamTable()
	if err != nil {
		return err
	}
	voters, err := tracker.VoterTable()
	if err != nil {
		return err
	}

	teamReport, err := reporting.TeamTable(teams, f)
	if err != nil {
		return err
	}
	voterReport, err := reporting.VoterTable(voters, f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, teamReport)
	fmt.Fprintln(out)
	fmt.Fprint(out, voterReport)
	return nil
}

func leagueFairnessE(cmd *cobra.Command, args []string) error {
	f, err := reporting.ParseFormat(leagueFormat)
	if err != nil {
		return err
	}
	tracker, err := openLeague()
	if err != nil {
		return err
	}

	report, err := reporting.Fairness(tracker.FairnessReport(), f)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), report)
	return nil
}

func leagueStatsE(cmd *cobra.Command, args []string) error {
	f, err := reporting.ParseFormat(leagueFormat)
	if err != nil {
		return err
	}
	tracker, err := openLeague()
	if err != nil {
		return err
	}

	report, err := reporting.LeagueStats(tracker.Stats(), f)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), report)
	return nil
}

func confirm(cmd *cobra.Command, question string) bool {
	return assumeYes || promptConfirm(cmd.InOrStdin(), cmd.OutOrStdout(), question)
}

func leagueResetE(cmd *cobra.Command, args []string) error {
	tracker, err := openLeague()
	if err != nil {
		return err
	}

	stats := tracker.Stats()
	question := fmt.Sprintf("Reset the league (%d teams, %d voters, %d rounds)?", stats.Teams, stats.Voters, stats.Matches)
	if !confirm(cmd, question) {
		return errNotConfirmed
	}

	archivePath, err := tracker.Reset(!noArchive)
	if archivePath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Archived to: %s\n", archivePath)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "League reset to season 1")
	return nil
}

func leagueNewSeasonE(cmd *cobra.Command, args []string) error {
	tracker, err := openLeague()
	if err != nil {
		return err
	}

	season := tracker.Stats().Season
	if !confirm(cmd, fmt.Sprintf("End season %d and start season %d?", season, season+1)) {
		return errNotConfirmed
	}

	archivePath, err := tracker.NewSeason()
	if archivePath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Archived to: %s\n", archivePath)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Season %d started\n", tracker.Stats().Season)
	return nil
}

func leaguePruneE(cmd *cobra.Command, args []string) error {
	tracker, err := openLeague()
	if err != nil {
		return err
	}

	removed, err := tracker.Prune(pruneKeep)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d history entries (kept at most %d)\n", removed, pruneKeep)
	return nil
}

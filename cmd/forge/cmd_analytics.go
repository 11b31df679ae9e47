package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spboyer/forge/internal/analytics"
	"github.com/spboyer/forge/internal/projectconfig"
	"github.com/spboyer/forge/internal/reporting"
	"github.com/spf13/cobra"
)

var (
	analyticsDir    string
	analyticsFormat string
	headToHead      string
	showTimeline    bool
	jsonOutput      bool
)

func newAnalyticsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Analyze stored round artifacts",
		Long: `Analyze the run artifacts in the output directory.

By default prints team and voter performance, voting blocs, rivalries and
overall statistics. --head-to-head compares two teams; --timeline lists
every round in order.`,
		Args: cobra.NoArgs,
		RunE: analyticsE,
	}

	cmd.Flags().StringVarP(&analyticsDir, "output-dir", "o", "", "Directory holding run artifacts (default from config)")
	cmd.Flags().StringVar(&analyticsFormat, "format", "text", "Output format: text, markdown, html")
	cmd.Flags().StringVar(&headToHead, "head-to-head", "", "Compare two teams, given as \"Team A,Team B\"")
	cmd.Flags().BoolVar(&showTimeline, "timeline", false, "List every round in chronological order")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print raw statistics as JSON")

	return cmd
}

// analyticsDump is the --json document for the default view.
type analyticsDump struct {
	Teams    []analytics.TeamStats  `json:"team_performance"`
	Voters   []analytics.VoterStats `json:"voter_behavior"`
	Patterns analytics.Patterns     `json:"voting_patterns"`
	Overall  analytics.Overall      `json:"overall_statistics"`
}

func analyticsE(cmd *cobra.Command, args []string) error {
	f, err := reporting.ParseFormat(analyticsFormat)
	if err != nil {
		return err
	}

	dir := analyticsDir
	if dir == "" {
		cfg, err := projectconfig.Load(configDir)
		if err != nil {
			return err
		}
		dir = cfg.Paths.Output
	}

	a, err := analytics.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to load artifacts: %w", err)
	}

	var (
		doc    any
		report string
	)
	switch {
	case headToHead != "":
		team1, team2, ok := strings.Cut(headToHead, ",")
		team1, team2 = strings.TrimSpace(team1), strings.TrimSpace(team2)
		if !ok || team1 == "" || team2 == "" {
			return fmt.Errorf("--head-to-head wants two comma-separated team names, got %q", headToHead)
		}
		h := a.HeadToHead(team1, team2)
		doc = h
		if !jsonOutput {
			report, err = reporting.HeadToHead(h, f)
		}
	case showTimeline:
		entries := a.Timeline()
		doc = entries
		if !jsonOutput {
			report, err = reporting.Timeline(entries, f)
		}
	default:
		doc = analyticsDump{
			Teams:    a.TeamStats(),
			Voters:   a.VoterStats(),
			Patterns: a.Patterns(),
			Overall:  a.Overall(),
		}
		if !jsonOutput {
			report, err = reporting.Analytics(a, f)
		}
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	fmt.Fprint(out, report)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spboyer/forge/internal/agents"
	"github.com/spboyer/forge/internal/artifact"
	"github.com/spboyer/forge/internal/cache"
	"github.com/spboyer/forge/internal/execution"
	"github.com/spboyer/forge/internal/hooks"
	"github.com/spboyer/forge/internal/league"
	"github.com/spboyer/forge/internal/metrics"
	"github.com/spboyer/forge/internal/models"
	"github.com/spboyer/forge/internal/orchestration"
	"github.com/spboyer/forge/internal/projectconfig"
	"github.com/spboyer/forge/internal/reporting"
	"github.com/spboyer/forge/internal/retry"
	"github.com/spboyer/forge/internal/roundlog"
	"github.com/spboyer/forge/internal/voting"
	"github.com/spf13/cobra"
)

const metricsNamespace = "forge"

var (
	genre        string
	plotFile     string
	engineType   string
	modelID      string
	strategy     string
	outputDir    string
	leaguePath   string
	format       string
	verbose      bool
	noLeague     bool
	enableCache  bool
	disableCache bool
	runCacheDir  string
	eventLog     string
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [plot]",
		Short: "Run one competitive round",
		Long: `Run one competitive round for a seed plot.

Every active producer expands the plot for the genre in parallel, every
active evaluator votes on the anonymized candidates, and the winner is
selected from the tally. The round is written as a JSON artifact to the
output directory and recorded in the league.

The plot is taken from the argument, or from --plot-file ("-" reads stdin).`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCommandE,
	}

	cmd.Flags().StringVarP(&genre, "genre", "g", "", "Genre of the round (required)")
	cmd.Flags().StringVar(&plotFile, "plot-file", "", "Read the seed plot from a file, or - for stdin")
	cmd.Flags().StringVar(&engineType, "engine", "", "Model engine: copilot-sdk, mock (default from config)")
	cmd.Flags().StringVar(&modelID, "model", "", "Default model for agents that name none (default from config)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Voting strategy (default from config)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for run artifacts (default from config)")
	cmd.Flags().StringVar(&leaguePath, "league", "", "League store file (default from config)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, markdown, html")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with per-agent progress")
	cmd.Flags().BoolVar(&noLeague, "no-league", false, "Do not record the round in the league")
	cmd.Flags().BoolVar(&enableCache, "cache", false, "Enable candidate caching")
	cmd.Flags().BoolVar(&disableCache, "no-cache", false, "Disable candidate caching")
	cmd.Flags().StringVar(&runCacheDir, "cache-dir", "", "Cache directory for candidates (default from config)")
	cmd.Flags().StringVar(&eventLog, "event-log", "", "Append round events as JSON lines to this file (\"auto\" for a timestamped file in the output directory)")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := projectconfig.Load(configDir)
	if err != nil {
		return err
	}
	applyRunFlags(cfg)

	outFormat, err := reporting.ParseFormat(format)
	if err != nil {
		return err
	}

	plot, err := readPlot(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	input := models.RoundInput{Genre: strings.TrimSpace(genre), Plot: plot}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	engine, err := newEngine(cfg.Defaults.Engine, cfg.Defaults.Model)
	if err != nil {
		return err
	}
	if err := engine.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize %s engine: %w", cfg.Defaults.Engine, err)
	}
	defer func() {
		if err := engine.Shutdown(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] engine shutdown: %v\n", err)
		}
	}()

	handles := execution.NewHandleCache(engine, cfg.ModelFallbacks, cfg.Defaults.FallbackModel)
	roster, err := agents.BuildRoster(cfg, agents.NewRegistry(), agents.DepsFromConfig(cfg, handles))
	if err != nil {
		return err
	}

	voteStrategy, err := voting.NewStrategy(cfg.Defaults.Strategy)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector(metricsNamespace)
	opts := []orchestration.Option{
		orchestration.WithInvoker(retry.New(retry.PolicyFromConfig(cfg.Retry))),
		orchestration.WithStrategy(voteStrategy),
		orchestration.WithMetrics(collector),
		orchestration.WithHooks(&hooks.Runner{Verbose: verbose}, cfg.Hooks),
	}
	if cfg.Cache.Enabled != nil && *cfg.Cache.Enabled {
		absCacheDir, err := filepath.Abs(cfg.Cache.Dir)
		if err != nil {
			return fmt.Errorf("resolving cache directory: %w", err)
		}
		opts = append(opts, orchestration.WithCache(cache.New(absCacheDir)))
		if verbose {
			fmt.Fprintf(out, "Cache enabled: %s\n", absCacheDir)
		}
	}
	orch := orchestration.New(opts...)

	fmt.Fprintf(out, "Genre: %s\n", input.Genre)
	fmt.Fprintf(out, "Engine: %s\n", cfg.Defaults.Engine)
	fmt.Fprintf(out, "Producers: %d, Evaluators: %d\n\n", len(roster.Producers), len(roster.Evaluators))

	progress := newRoundProgress(out, verbose)
	orch.OnProgress(progress.listener)

	if eventLog != "" {
		path := eventLog
		if path == "auto" {
			path = roundlog.DefaultLogPath(cfg.Paths.Output, time.Now())
		}
		logger, err := roundlog.NewJSONLogger(path)
		if err != nil {
			return err
		}
		defer logger.Close()
		orch.OnProgress(roundLogListener(logger))
		if verbose {
			fmt.Fprintf(out, "Event log: %s\n", path)
		}
	}

	outcome, err := orch.Run(ctx, roster, input)
	progress.stop()
	if err != nil {
		var noProducers *orchestration.NoProducersError
		if errors.As(err, &noProducers) {
			return &RoundFailureError{Message: "round failed", Err: err}
		}
		return fmt.Errorf("round failed: %w", err)
	}

	run := outcome.Artifact()
	artifactPath, err := artifact.Write(cfg.Paths.Output, run)
	if err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}
	uploadArtifact(ctx, cfg.Storage, artifactPath, run)

	if !noLeague {
		if err := recordRound(cfg, outcome, collector); err != nil {
			return err
		}
	}

	if cfg.Storage.MetricsFile != "" {
		if err := collector.WriteTextfile(cfg.Storage.MetricsFile); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] failed to write metrics: %v\n", err)
		}
	}

	orch.AfterRound(ctx, outcome, artifactPath)

	report, err := reporting.Round(run, outFormat)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, report)
	fmt.Fprintf(out, "\nResults saved to: %s\n", artifactPath)

	if outcome.Result.Degraded {
		fmt.Fprintf(os.Stderr, "[WARN] round %s is degraded: %s\n", outcome.RunID, outcome.Result.DegradedReason)
	}
	return nil
}

// applyRunFlags overlays the flags that were set onto cfg.
func applyRunFlags(cfg *projectconfig.ProjectConfig) {
	if engineType != "" {
		cfg.Defaults.Engine = engineType
	}
	if modelID != "" {
		cfg.Defaults.Model = modelID
	}
	if strategy != "" {
		cfg.Defaults.Strategy = strategy
	}
	if outputDir != "" {
		cfg.Paths.Output = outputDir
	}
	if leaguePath != "" {
		cfg.Paths.League = leaguePath
	}
	if runCacheDir != "" {
		cfg.Cache.Dir = runCacheDir
	}
	if enableCache {
		cfg.Cache.Enabled = &enableCache
	}
	if disableCache {
		off := false
		cfg.Cache.Enabled = &off
	}
	if verbose {
		cfg.Defaults.Verbose = &verbose
	} else if cfg.Defaults.Verbose != nil {
		verbose = *cfg.Defaults.Verbose
	}
}

func readPlot(stdin io.Reader, args []string) (string, error) {
	var raw []byte
	switch {
	case len(args) == 1 && plotFile != "":
		return "", errors.New("give the plot as an argument or with --plot-file, not both")
	case len(args) == 1:
		raw = []byte(args[0])
	case plotFile == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading plot from stdin: %w", err)
		}
		raw = data
	case plotFile != "":
		data, err := os.ReadFile(plotFile)
		if err != nil {
			return "", fmt.Errorf("reading plot file: %w", err)
		}
		raw = data
	}
	return strings.TrimSpace(string(raw)), nil
}

func newEngine(engineType, modelID string) (execution.Engine, error) {
	switch engineType {
	case "mock":
		return execution.NewMockEngine(modelID), nil
	case "copilot-sdk":
		return execution.NewCopilotEngineBuilder(modelID, nil).Build(), nil
	default:
		return nil, fmt.Errorf("unknown engine type: %s", engineType)
	}
}

// recordRound applies the round to the league and refreshes the fairness
// gauge. A degraded round is kept in history only.
func recordRound(cfg *projectconfig.ProjectConfig, outcome *orchestration.RoundOutcome, collector *metrics.Collector) error {
	tracker, err := league.Open(cfg.Paths.League, cfg.League)
	if err != nil {
		return fmt.Errorf("failed to open league: %w", err)
	}

	err = tracker.RecordRound(league.Round{
		ID:     artifact.RoundID(outcome.Input.Genre, outcome.Input.Plot),
		Genre:  outcome.Input.Genre,
		Result: outcome.Result,
	})
	if err != nil {
		return fmt.Errorf("failed to update league: %w", err)
	}

	if report := tracker.FairnessReport(); report != nil {
		collector.SetFairness(report.OverallFairness)
	}
	return nil
}

// uploadArtifact copies the artifact to blob storage when it is configured.
// Upload failures never fail the round.
func uploadArtifact(ctx context.Context, storage projectconfig.StorageConfig, artifactPath string, run *models.RunArtifact) {
	if storage.BlobAccountURL == "" {
		return
	}

	sink, err := artifact.NewBlobSink(storage.BlobAccountURL, storage.BlobContainer, storage.BlobPrefix, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] artifact upload disabled: %v\n", err)
		return
	}

	data, err := artifact.Marshal(run)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] failed to encode artifact for upload: %v\n", err)
		return
	}
	if err := sink.Upload(ctx, filepath.Base(artifactPath), data, "application/json"); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] artifact upload failed: %v\n", err)
	}
}

// Package orchestration runs a round: every producer expands the input in
// parallel, every evaluator votes in parallel, and the votes are tallied.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spboyer/forge/internal/agents"
	"github.com/spboyer/forge/internal/cache"
	"github.com/spboyer/forge/internal/hooks"
	"github.com/spboyer/forge/internal/metrics"
	"github.com/spboyer/forge/internal/models"
	"github.com/spboyer/forge/internal/retry"
	"github.com/spboyer/forge/internal/voting"
)

// ErrMissingInput is returned when a round has no genre or no seed text.
var ErrMissingInput = errors.New("genre and plot are both required")

// Degraded reasons.
const (
	ReasonNoVotes      = "no evaluator returned a vote"
	ReasonInvalidVotes = "no vote named a candidate of this round"
)

// NoProducersError is returned when every producer failed.
type NoProducersError struct {
	Failures []models.AgentFailure
}

func (e *NoProducersError) Error() string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = f.Agent
	}
	return fmt.Sprintf("no producer returned a candidate (failed: %s)", strings.Join(names, ", "))
}

// Orchestrator runs rounds.
type Orchestrator struct {
	invoker  *retry.Invoker
	strategy voting.Strategy

	// Candidate caching
	cache *cache.Cache

	metrics *metrics.Collector

	// Lifecycle hooks
	hookRunner *hooks.Runner
	hooks      hooks.HooksConfig

	newRunID func() string
	now      func() time.Time

	// Progress tracking
	progressMu sync.Mutex
	listeners  []ProgressListener
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithInvoker sets the retry invoker wrapping every agent call.
func WithInvoker(inv *retry.Invoker) Option {
	return func(o *Orchestrator) {
		o.invoker = inv
	}
}

// WithStrategy sets the voting strategy.
func WithStrategy(s voting.Strategy) Option {
	return func(o *Orchestrator) {
		o.strategy = s
	}
}

// WithCache enables candidate caching
func WithCache(c *cache.Cache) Option {
	return func(o *Orchestrator) {
		o.cache = c
	}
}

// WithMetrics records round metrics into m.
func WithMetrics(m *metrics.Collector) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithHooks runs cfg's before_round hooks in Run and its after_round hooks
// in AfterRound.
func WithHooks(r *hooks.Runner, cfg hooks.HooksConfig) Option {
	return func(o *Orchestrator) {
		o.hookRunner = r
		o.hooks = cfg
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithRunIDs replaces the uuid run id generator.
func WithRunIDs(f func() string) Option {
	return func(o *Orchestrator) {
		o.newRunID = f
	}
}

// New creates an Orchestrator. Without options it retries with the default
// policy and tallies with the standard strategy.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		newRunID:  uuid.NewString,
		now:       time.Now,
		listeners: []ProgressListener{},
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.invoker == nil {
		o.invoker = retry.New(retry.DefaultPolicy())
	}
	if o.strategy == nil {
		o.strategy, _ = voting.NewStrategy(voting.StrategyStandard)
	}
	return o
}

// RoundOutcome is everything a completed round produced.
type RoundOutcome struct {
	RunID      string
	Input      models.RoundInput
	Candidates map[string]*models.Candidate
	Result     *models.VotingResult
	Dropped    []models.AgentFailure
	StartedAt  time.Time
	Elapsed    time.Duration
}

// Winner returns the selected candidate.
func (r *RoundOutcome) Winner() *models.Candidate {
	return r.Candidates[r.Result.Winner]
}

// Artifact builds the document persisted for the round.
func (r *RoundOutcome) Artifact() *models.RunArtifact {
	return &models.RunArtifact{
		RunID:             r.RunID,
		OriginalPlot:      r.Input.Plot,
		Genre:             r.Input.Genre,
		AllExpandedPlots:  r.Candidates,
		VotingResults:     r.Result,
		SelectedExpansion: r.Winner(),
		DroppedAgents:     r.Dropped,
		Timestamp:         r.StartedAt,
		ProcessingTime:    r.Elapsed.Seconds(),
	}
}

func validateInput(input models.RoundInput) error {
	if strings.TrimSpace(input.Genre) == "" || strings.TrimSpace(input.Plot) == "" {
		return ErrMissingInput
	}
	return nil
}

// Run executes one full round: produce, vote, tally. A round with no valid
// vote is not an error; its result is degraded.
func (o *Orchestrator) Run(ctx context.Context, roster *agents.Roster, input models.RoundInput) (*RoundOutcome, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	start := o.now()
	outcome := &RoundOutcome{
		RunID:     o.newRunID(),
		Input:     input,
		StartedAt: start,
	}

	if o.hookRunner != nil && len(o.hooks.BeforeRound) > 0 {
		env := hooks.RoundEnv{RunID: outcome.RunID, Genre: input.Genre}
		if err := o.hookRunner.Execute(ctx, hooks.BeforeRound, o.hooks.BeforeRound, env); err != nil {
			o.metrics.RecordRound("failed", 0)
			return nil, err
		}
	}

	o.notifyProgress(ProgressEvent{
		EventType: EventRoundStart,
		RunID:     outcome.RunID,
		Details: map[string]any{
			"genre":      input.Genre,
			"producers":  len(roster.Producers),
			"evaluators": len(roster.Evaluators),
		},
	})
	slog.Info("Round started", "round", outcome.RunID, "genre", input.Genre, "producers", len(roster.Producers), "evaluators", len(roster.Evaluators))

	candidates, failed, err := o.runRound(ctx, outcome.RunID, roster.Producers, input)
	outcome.Dropped = append(outcome.Dropped, failed...)
	if err != nil {
		o.metrics.RecordRound("failed", time.Since(start))
		return nil, err
	}
	outcome.Candidates = candidates

	votes, failed, err := o.collectVotes(ctx, outcome.RunID, roster.Evaluators, candidates)
	outcome.Dropped = append(outcome.Dropped, failed...)
	if err != nil {
		o.metrics.RecordRound("failed", time.Since(start))
		return nil, err
	}

	outcome.Result = o.tally(outcome.RunID, votes, candidates)
	outcome.Elapsed = o.now().Sub(start)

	status := "ok"
	if outcome.Result.Degraded {
		status = "degraded"
	}
	o.metrics.RecordRound(status, outcome.Elapsed)

	o.notifyProgress(ProgressEvent{
		EventType: EventRoundComplete,
		RunID:     outcome.RunID,
		Duration:  outcome.Elapsed,
		Details: map[string]any{
			"winner":   outcome.Result.Winner,
			"votes":    outcome.Result.TotalVotes,
			"dropped":  len(outcome.Dropped),
			"degraded": outcome.Result.Degraded,
		},
	})
	slog.Info("Round complete", "round", outcome.RunID, "winner", outcome.Result.Winner, "votes", outcome.Result.TotalVotes, "degraded", outcome.Result.Degraded)

	return outcome, nil
}

// AfterRound runs the after_round hooks once the round has been persisted.
// Hook failures are reported but never undo the round.
func (o *Orchestrator) AfterRound(ctx context.Context, outcome *RoundOutcome, artifactPath string) {
	if o.hookRunner == nil || len(o.hooks.AfterRound) == 0 {
		return
	}

	env := hooks.RoundEnv{
		RunID:        outcome.RunID,
		Genre:        outcome.Input.Genre,
		Winner:       outcome.Result.Winner,
		ArtifactPath: artifactPath,
		Degraded:     outcome.Result.Degraded,
	}
	if err := o.hookRunner.Execute(ctx, hooks.AfterRound, o.hooks.AfterRound, env); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] after_round hook error for %s: %v\n", outcome.RunID, err)
	}
}

// RunRound asks every producer for a candidate. Producers that fail after
// retries and the synchronous fallback are left out and listed as failures.
// It fails with *NoProducersError when no candidate is left.
func (o *Orchestrator) RunRound(ctx context.Context, producers []agents.Producer, input models.RoundInput) (map[string]*models.Candidate, []models.AgentFailure, error) {
	if err := validateInput(input); err != nil {
		return nil, nil, err
	}
	return o.runRound(ctx, "", producers, input)
}

func (o *Orchestrator) runRound(ctx context.Context, runID string, producers []agents.Producer, input models.RoundInput) (map[string]*models.Candidate, []models.AgentFailure, error) {
	candidates := make(map[string]*models.Candidate, len(producers))

	var (
		calls     []call[*models.Candidate]
		cacheKeys []string
	)

	for _, p := range producers {
		key := o.cacheKey(p, input)
		if key != "" {
			if c, ok := o.cache.Get(key); ok {
				o.metrics.RecordCacheLookup(true)
				o.notifyProgress(ProgressEvent{EventType: EventAgentCached, RunID: runID, Agent: p.Name(), Role: models.RoleProducer})
				slog.Info("Using cached candidate", "agent", p.Name(), "role", models.RoleProducer)

				c.Name = p.Name()
				candidates[p.Name()] = c
				continue
			}
			o.metrics.RecordCacheLookup(false)
		}

		calls = append(calls, call[*models.Candidate]{
			agent: p.Name(),
			do: func(ctx context.Context) (*models.Candidate, error) {
				c, err := p.Generate(ctx, input.Genre, input.Plot)
				if err != nil {
					return nil, err
				}
				if c == nil {
					return nil, fmt.Errorf("producer %s returned no candidate", p.Name())
				}
				c.Name = p.Name()
				return c, nil
			},
		})
		cacheKeys = append(cacheKeys, key)
	}

	values, ok, failures := fanOut(ctx, o, runID, models.RoleProducer, calls)

	if err := ctx.Err(); err != nil {
		return nil, failures, err
	}

	for i, c := range calls {
		if !ok[i] {
			continue
		}
		candidates[c.agent] = values[i]

		if cacheKeys[i] != "" {
			if err := o.cache.Put(cacheKeys[i], values[i]); err != nil {
				fmt.Fprintf(os.Stderr, "[WARN] Failed to write cache for producer %q: %v\n", c.agent, err)
			}
		}
	}

	o.notifyProgress(ProgressEvent{
		EventType: EventPhaseComplete,
		RunID:     runID,
		Role:      models.RoleProducer,
		Details:   map[string]any{"succeeded": len(candidates), "failed": len(failures)},
	})

	if len(candidates) == 0 {
		return nil, failures, &NoProducersError{Failures: failures}
	}
	return candidates, failures, nil
}

func (o *Orchestrator) cacheKey(p agents.Producer, input models.RoundInput) string {
	if o.cache == nil || o.cache.Dir() == "" {
		return ""
	}
	key, err := cache.CandidateKey(p.Fingerprint(), input.Genre, input.Plot)
	if err != nil {
		return ""
	}
	return key
}

// CollectVotes asks every evaluator for a vote over candidates. Votes come
// back in evaluator order. Evaluators that fail for good are left out and
// listed as failures.
func (o *Orchestrator) CollectVotes(ctx context.Context, evaluators []agents.Evaluator, candidates map[string]*models.Candidate) ([]models.Vote, []models.AgentFailure, error) {
	return o.collectVotes(ctx, "", evaluators, candidates)
}

func (o *Orchestrator) collectVotes(ctx context.Context, runID string, evaluators []agents.Evaluator, candidates map[string]*models.Candidate) ([]models.Vote, []models.AgentFailure, error) {
	calls := make([]call[*models.Vote], len(evaluators))
	for i, e := range evaluators {
		calls[i] = call[*models.Vote]{
			agent: e.Name(),
			do: func(ctx context.Context) (*models.Vote, error) {
				v, err := e.Evaluate(ctx, candidates)
				if err != nil {
					return nil, err
				}
				if v == nil {
					return nil, fmt.Errorf("evaluator %s returned no vote", e.Name())
				}
				v.AgentName = e.Name()
				return v, nil
			},
		}
	}

	values, ok, failures := fanOut(ctx, o, runID, models.RoleEvaluator, calls)

	if err := ctx.Err(); err != nil {
		return nil, failures, err
	}

	votes := make([]models.Vote, 0, len(calls))
	for i := range calls {
		if ok[i] {
			votes = append(votes, *values[i])
		}
	}

	o.notifyProgress(ProgressEvent{
		EventType: EventPhaseComplete,
		RunID:     runID,
		Role:      models.RoleEvaluator,
		Details:   map[string]any{"succeeded": len(votes), "failed": len(failures)},
	})

	return votes, failures, nil
}

func (o *Orchestrator) tally(runID string, votes []models.Vote, candidates map[string]*models.Candidate) *models.VotingResult {
	names := make([]string, 0, len(candidates))
	for name := range candidates {
		names = append(names, name)
	}

	if len(votes) == 0 {
		return o.degrade(runID, candidates, ReasonNoVotes, nil)
	}

	result := o.strategy.Tally(votes, names)
	o.metrics.RecordVotes(result.TotalVotes, len(result.Discarded))

	if result.TotalVotes == 0 {
		return o.degrade(runID, candidates, ReasonInvalidVotes, result.Discarded)
	}
	return result
}

func (o *Orchestrator) degrade(runID string, candidates map[string]*models.Candidate, reason string, discarded []models.DiscardedVote) *models.VotingResult {
	result := voting.SelectByComplexity(candidates, reason)
	result.Discarded = discarded

	slog.Warn("Round degraded, selecting by complexity", "round", runID, "reason", reason, "winner", result.Winner)
	fmt.Printf("[WARN] %s; selected %s by estimated complexity\n", reason, result.Winner)

	o.notifyProgress(ProgressEvent{
		EventType: EventDegraded,
		RunID:     runID,
		Details:   map[string]any{"reason": reason, "winner": result.Winner},
	})
	return result
}

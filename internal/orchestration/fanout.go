package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spboyer/forge/internal/models"
	"github.com/spboyer/forge/internal/retry"
)

// call is one agent invocation within a phase.
type call[T any] struct {
	agent string
	do    func(ctx context.Context) (T, error)
}

// slot is what one goroutine leaves behind for the fan-in.
type slot[T any] struct {
	value    T
	err      error
	attempts int
	elapsed  time.Duration
}

// fanOut runs every call concurrently under the retry policy and waits for
// all of them. Calls that still failed get one synchronous attempt each after
// the barrier unless the error is permanent; those that fail again are
// returned as failures. ok[i] reports
// whether values[i] is usable.
func fanOut[T any](ctx context.Context, o *Orchestrator, runID string, role models.Role, calls []call[T]) (values []T, ok []bool, failures []models.AgentFailure) {
	slots := make([]slot[T], len(calls))

	// every goroutine returns nil, so Wait is a pure barrier
	var g errgroup.Group
	for i, c := range calls {
		g.Go(func() error {
			start := time.Now()

			o.notifyProgress(ProgressEvent{EventType: EventAgentStart, RunID: runID, Agent: c.agent, Role: role})
			slog.Info("Agent started", "agent", c.agent, "role", role)

			attempt := 0
			value, err := retry.Do(ctx, o.invoker, c.agent, func(ctx context.Context) (T, error) {
				attempt++
				if attempt > 1 {
					o.metrics.RecordRetry(c.agent)
					o.notifyProgress(ProgressEvent{EventType: EventAgentRetry, RunID: runID, Agent: c.agent, Role: role, Attempt: attempt})
				}
				return c.do(ctx)
			})

			slots[i] = slot[T]{value: value, err: err, attempts: attempt, elapsed: time.Since(start)}

			if err != nil {
				slog.Warn("Agent failed", "agent", c.agent, "role", role, "attempt", attempt, "error", err)
				return nil
			}

			d := time.Since(start)
			o.metrics.RecordAgentCall(c.agent, string(role), "success", d)
			o.notifyProgress(ProgressEvent{EventType: EventAgentComplete, RunID: runID, Agent: c.agent, Role: role, Attempt: attempt, Duration: d})
			slog.Info("Agent succeeded", "agent", c.agent, "role", role, "attempt", attempt, "duration", d)
			return nil
		})
	}
	_ = g.Wait()

	values = make([]T, len(calls))
	ok = make([]bool, len(calls))

	for i, c := range calls {
		s := slots[i]
		if s.err == nil {
			values[i], ok[i] = s.value, true
			continue
		}

		// no fallback once the round is canceled or for a reply that cannot parse
		if ctx.Err() != nil || retry.Permanent(s.err) {
			failures = append(failures, models.AgentFailure{Agent: c.agent, Role: role, Attempts: s.attempts, Error: s.err.Error()})
			o.metrics.RecordAgentCall(c.agent, string(role), "failed", s.elapsed)
			o.notifyProgress(ProgressEvent{EventType: EventAgentFailed, RunID: runID, Agent: c.agent, Role: role, Attempt: s.attempts, Err: s.err})
			continue
		}

		start := time.Now()
		o.notifyProgress(ProgressEvent{EventType: EventAgentFallback, RunID: runID, Agent: c.agent, Role: role, Err: s.err})
		slog.Info("Trying synchronous fallback", "agent", c.agent, "role", role)

		value, err := c.do(ctx)
		d := time.Since(start)
		if err == nil {
			values[i], ok[i] = value, true
			o.metrics.RecordAgentCall(c.agent, string(role), "fallback", d)
			o.notifyProgress(ProgressEvent{EventType: EventAgentComplete, RunID: runID, Agent: c.agent, Role: role, Attempt: s.attempts + 1, Duration: d})
			slog.Info("Fallback succeeded", "agent", c.agent, "role", role)
			continue
		}

		failure := models.AgentFailure{Agent: c.agent, Role: role, Attempts: s.attempts + 1, Error: err.Error()}
		failures = append(failures, failure)

		o.metrics.RecordAgentCall(c.agent, string(role), "failed", d)
		o.notifyProgress(ProgressEvent{EventType: EventAgentFailed, RunID: runID, Agent: c.agent, Role: role, Attempt: failure.Attempts, Err: err})
		slog.Error("Agent dropped from round", "agent", c.agent, "role", role, "attempt", failure.Attempts, "error", err)
		fmt.Printf("[ERROR] %s %s dropped after %d attempt(s): %v\n", role, c.agent, failure.Attempts, err)
	}

	return values, ok, failures
}

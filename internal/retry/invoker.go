package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// AgentError is returned when a call to an agent fails for good. It carries
// the agent identity and the number of attempts made.
type AgentError struct {
	Agent    string
	Attempts int
	Err      error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent %s failed after %d attempt(s): %v", e.Agent, e.Attempts, e.Err)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

// RetryObserver is notified before every backoff wait.
type RetryObserver func(agent string, attempt int, delay time.Duration, err error)

// Invoker runs calls under a Policy.
type Invoker struct {
	policy   Policy
	observer RetryObserver

	// wait blocks for d or until ctx is done. Replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithObserver registers a callback invoked before each retry.
func WithObserver(o RetryObserver) InvokerOption {
	return func(inv *Invoker) {
		inv.observer = o
	}
}

// New creates an Invoker for policy.
func New(policy Policy, opts ...InvokerOption) *Invoker {
	inv := &Invoker{
		policy: policy,
		wait:   waitContext,
	}
	for _, o := range opts {
		o(inv)
	}
	return inv
}

// Policy returns the invoker's policy.
func (inv *Invoker) Policy() Policy {
	return inv.policy
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// policy runs out of attempts. Failures come back as *AgentError.
func Do[T any](ctx context.Context, inv *Invoker, agent string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := inv.policy.MaxAttempts()

	var lastErr error
	attempts := 0

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := inv.policy.Delay(attempt - 1)

			slog.Info("Retrying agent call", "agent", agent, "attempt", attempt+1, "max_attempts", maxAttempts, "delay", delay, "error", lastErr)
			if inv.observer != nil {
				inv.observer(agent, attempt, delay, lastErr)
			}

			if err := inv.wait(ctx, delay); err != nil {
				return zero, &AgentError{Agent: agent, Attempts: attempts, Err: errors.Join(lastErr, err)}
			}
		}

		attempts++
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, &AgentError{Agent: agent, Attempts: attempts, Err: errors.Join(err, ctxErr)}
		}

		if !inv.policy.Retryable(err) {
			slog.Debug("Agent call failed with non-retryable error", "agent", agent, "attempt", attempts, "error", err)
			break
		}
	}

	return zero, &AgentError{Agent: agent, Attempts: attempts, Err: lastErr}
}

func waitContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

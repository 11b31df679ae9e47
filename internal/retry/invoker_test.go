package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spboyer/forge/internal/projectconfig"
	"github.com/spboyer/forge/internal/validation"
)

type ConnectionError struct{ msg string }

func (e *ConnectionError) Error() string { return e.msg }

func recordingInvoker(policy Policy, delays *[]time.Duration) *Invoker {
	inv := New(policy)
	inv.wait = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
	return inv
}

func TestDoSucceedsFirstTry(t *testing.T) {
	var delays []time.Duration
	inv := recordingInvoker(DefaultPolicy(), &delays)

	calls := 0
	got, err := Do(context.Background(), inv, "Echo Chamber", func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	require.Equal(t, "ok", got)
	require.Equal(t, 1, calls)
	require.Empty(t, delays)
}

func TestDoBacksOffExponentially(t *testing.T) {
	var delays []time.Duration
	inv := recordingInvoker(DefaultPolicy(), &delays)

	calls := 0
	_, err := Do(context.Background(), inv, "Mythic Forge", func(ctx context.Context) (int, error) {
		calls++
		return 0, &ConnectionError{msg: "refused"}
	})

	require.Error(t, err)
	require.Equal(t, 4, calls)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, delays)

	var agentErr *AgentError
	require.ErrorAs(t, err, &agentErr)
	require.Equal(t, "Mythic Forge", agentErr.Agent)
	require.Equal(t, 4, agentErr.Attempts)
	require.Contains(t, err.Error(), "Mythic Forge")

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
}

func TestDoRecoversAfterTransientFailure(t *testing.T) {
	var delays []time.Duration
	inv := recordingInvoker(DefaultPolicy(), &delays)

	calls := 0
	got, err := Do(context.Background(), inv, "Quantum Plotters", func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("read tcp: Connection reset by peer")
		}
		return "done", nil
	})

	require.NoError(t, err)
	require.Equal(t, "done", got)
	require.Equal(t, 3, calls)
	require.Len(t, delays, 2)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	var delays []time.Duration
	inv := recordingInvoker(DefaultPolicy(), &delays)

	calls := 0
	_, err := Do(context.Background(), inv, "The Curator", func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("invalid api key")
	})

	require.Error(t, err)
	require.Equal(t, 1, calls)
	require.Empty(t, delays)
}

func TestDoDisabledMakesOneAttempt(t *testing.T) {
	var delays []time.Duration
	policy := DefaultPolicy()
	policy.Enabled = false
	inv := recordingInvoker(policy, &delays)

	calls := 0
	_, err := Do(context.Background(), inv, "Genre Maven", func(ctx context.Context) (int, error) {
		calls++
		return 0, &ConnectionError{msg: "down"}
	})

	require.Error(t, err)
	require.Equal(t, 1, calls)
	require.Empty(t, delays)
}

func TestDoHonorsCancellationDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inv := New(Policy{Enabled: true, MaxRetries: 3, BackoffFactor: 2, InitialDelay: time.Hour})

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, inv, "Mind Reader", func(ctx context.Context) (int, error) {
			calls++
			return 0, &ConnectionError{msg: "flaky"}
		})
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
	require.Equal(t, 1, calls)
}

func TestObserverSeesEveryRetry(t *testing.T) {
	type retryCall struct {
		attempt int
		delay   time.Duration
	}
	var seen []retryCall

	policy := DefaultPolicy()
	policy.MaxRetries = 2
	policy.InitialDelay = 10 * time.Millisecond
	inv := New(policy, WithObserver(func(agent string, attempt int, delay time.Duration, err error) {
		require.Equal(t, "Pulse Checker", agent)
		seen = append(seen, retryCall{attempt, delay})
	}))
	inv.wait = func(ctx context.Context, d time.Duration) error { return nil }

	_, err := Do(context.Background(), inv, "Pulse Checker", func(ctx context.Context) (int, error) {
		return 0, os.ErrDeadlineExceeded
	})

	require.Error(t, err)
	require.Equal(t, []retryCall{{1, 10 * time.Millisecond}, {2, 20 * time.Millisecond}}, seen)
}

func TestRetryable(t *testing.T) {
	policy := DefaultPolicy()

	// a cut-off reply fails JSON decoding with "unexpected EOF"
	_, truncated := validation.ParseBallot("e1", `{"vote_for_team":"A","reasoning":"r","scores":{"x":1}`)
	require.ErrorContains(t, truncated, "EOF")

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"type name", &ConnectionError{msg: "x"}, true},
		{"wrapped type name", fmt.Errorf("calling model: %w", &ConnectionError{msg: "x"}), true},
		{"message fragment", errors.New("Connection aborted by server"), true},
		{"case insensitive fragment", errors.New("CONNECTION RESET"), true},
		{"timeout interface", &net.DNSError{Err: "lookup", IsTimeout: true}, true},
		{"deadline exceeded", os.ErrDeadlineExceeded, true},
		{"joined errors", errors.Join(errors.New("first"), &ConnectionError{msg: "x"}), true},
		{"unrelated", errors.New("schema mismatch"), false},
		{"malformed reply", truncated, false},
		{"wrapped malformed reply", fmt.Errorf("evaluating: %w", truncated), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, policy.Retryable(tt.err))
		})
	}
}

func TestDoDoesNotRetryMalformedReply(t *testing.T) {
	var delays []time.Duration
	inv := recordingInvoker(DefaultPolicy(), &delays)

	calls := 0
	_, err := Do(context.Background(), inv, "Time Sage", func(ctx context.Context) (*validation.Ballot, error) {
		calls++
		return validation.ParseBallot("Time Sage", `{"vote_for_team": "A", "reasoning": "r"`)
	})

	require.ErrorIs(t, err, validation.ErrMalformedEvaluatorOutput)
	require.Equal(t, 1, calls)
	require.Empty(t, delays)

	var agentErr *AgentError
	require.ErrorAs(t, err, &agentErr)
	require.Equal(t, 1, agentErr.Attempts)
}

func TestRetryableCustomList(t *testing.T) {
	policy := Policy{Enabled: true, RetryOn: []string{"rate limited"}}

	require.True(t, policy.Retryable(errors.New("429: rate limited")))
	require.False(t, policy.Retryable(&ConnectionError{msg: "x"}))
}

func TestPolicyDelayAndAttempts(t *testing.T) {
	p := Policy{Enabled: true, MaxRetries: 3, BackoffFactor: 3, InitialDelay: 500 * time.Millisecond}

	require.Equal(t, 4, p.MaxAttempts())
	require.Equal(t, 500*time.Millisecond, p.Delay(0))
	require.Equal(t, 1500*time.Millisecond, p.Delay(1))
	require.Equal(t, 4500*time.Millisecond, p.Delay(2))

	p.Enabled = false
	require.Equal(t, 1, p.MaxAttempts())
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(projectconfig.RetryConfig{})
	require.Equal(t, DefaultPolicy(), p)

	off := false
	five := 5
	p = PolicyFromConfig(projectconfig.RetryConfig{
		Enabled:       &off,
		MaxRetries:    &five,
		BackoffFactor: 3,
		InitialDelay:  0.5,
		RetryOn:       []string{"RateLimited"},
	})
	require.False(t, p.Enabled)
	require.Equal(t, 5, p.MaxRetries)
	require.Equal(t, 3.0, p.BackoffFactor)
	require.Equal(t, 500*time.Millisecond, p.InitialDelay)
	require.Equal(t, []string{"RateLimited"}, p.RetryOn)
	require.Equal(t, 1, p.MaxAttempts())
}

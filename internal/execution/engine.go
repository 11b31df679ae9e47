// Package execution is the model transport: it sends a prompt to a model and
// returns the text it answered with.
package execution

import (
	"context"
	"errors"
	"time"

	"github.com/spboyer/forge/internal/models"
)

// DefaultTimeout bounds a single completion when the request sets none.
const DefaultTimeout = 120 * time.Second

// ErrEmptyCompletion is returned when a model finished without producing any
// text.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// Engine is the interface agents use to talk to a model.
type Engine interface {
	// Initialize sets up the engine
	Initialize(ctx context.Context) error

	// Complete sends a single prompt and waits for the full answer.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Shutdown cleans up resources
	Shutdown(ctx context.Context) error
}

// Prober is implemented by engines that can check whether a model is usable
// before any prompt is sent. The handle cache uses it to walk model
// fallbacks.
type Prober interface {
	Probe(ctx context.Context, modelID string) error
}

// CompletionRequest is one prompt for one agent.
type CompletionRequest struct {
	// AgentName identifies the caller in logs.
	AgentName string

	ModelID     string
	Temperature float64

	// SystemPrompt is sent ahead of Prompt. Optional.
	SystemPrompt string
	Prompt       string

	// Timeout for the whole exchange. DefaultTimeout when zero.
	Timeout time.Duration

	// Role, Choices and Criteria describe the expected answer. Only engines
	// that synthesize answers (MockEngine) read them.
	Role     models.Role
	Choices  []string
	Criteria []string
}

// CompletionResponse is what the model answered.
type CompletionResponse struct {
	Text      string
	ModelID   string
	SessionID string
	Duration  time.Duration
}

func (r *CompletionRequest) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

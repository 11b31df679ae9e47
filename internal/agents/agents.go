// Package agents builds the producers and evaluators that take part in a
// round from configuration.
package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/spboyer/forge/internal/execution"
	"github.com/spboyer/forge/internal/models"
	"github.com/spboyer/forge/internal/projectconfig"
)

//go:generate go run go.uber.org/mock/mockgen -source=agents.go -destination=agentsmock/mocks.go -package=agentsmock

type Kind string

const (
	// KindLLM agents prompt a model through the execution engine.
	KindLLM Kind = "llm"

	// KindStatic agents answer from their params without any model. Useful
	// for dry runs and fixtures.
	KindStatic Kind = "static"
)

// Producer expands the round input into a candidate.
type Producer interface {
	// Name is the team name; it becomes the candidate's name.
	Name() string

	Kind() Kind

	// Fingerprint describes everything about the producer that affects its
	// output. Used in candidate cache keys.
	Fingerprint() string

	Generate(ctx context.Context, genre, plot string) (*models.Candidate, error)
}

// Evaluator casts one vote over a round's candidates.
type Evaluator interface {
	Name() string

	Kind() Kind

	Evaluate(ctx context.Context, candidates map[string]*models.Candidate) (*models.Vote, error)
}

// Deps are the shared collaborators factories need.
type Deps struct {
	Handles *execution.HandleCache

	DefaultModel         string
	ProducerTemperature  float64
	EvaluatorTemperature float64
	Timeout              time.Duration

	Criteria []projectconfig.CriterionConfig

	// Shuffle reorders candidate names before they are shown to an
	// evaluator. Nil means a random shuffle.
	Shuffle func(names []string)
}

// DepsFromConfig fills Deps from a loaded configuration.
func DepsFromConfig(cfg *projectconfig.ProjectConfig, handles *execution.HandleCache) Deps {
	return Deps{
		Handles:              handles,
		DefaultModel:         cfg.Defaults.Model,
		ProducerTemperature:  cfg.Defaults.ProducerTemperature,
		EvaluatorTemperature: cfg.Defaults.EvaluatorTemperature,
		Timeout:              time.Duration(cfg.Defaults.Timeout) * time.Second,
		Criteria:             cfg.Criteria,
	}
}

// UnknownAgentKindError is returned when configuration names a kind nothing
// is registered for.
type UnknownAgentKindError struct {
	Kind Kind
	Role models.Role
}

func (e *UnknownAgentKindError) Error() string {
	return fmt.Sprintf("unknown %s kind %q", e.Role, e.Kind)
}

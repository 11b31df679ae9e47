package agents

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spboyer/forge/internal/projectconfig"
)

// ErrRosterSize is wrapped by errors about too few agents.
var ErrRosterSize = errors.New("roster size out of bounds")

// Roster is the set of agents taking part in a round.
type Roster struct {
	Producers  []Producer
	Evaluators []Evaluator
}

// BuildRoster creates the active producers and evaluators in cfg, enforcing
// the roster limits. Surplus agents beyond the maximum are left out, and the
// last evaluator is left out when an odd count is required.
func BuildRoster(cfg *projectconfig.ProjectConfig, registry *Registry, deps Deps) (*Roster, error) {
	limits := cfg.Roster

	producerCfgs := cfg.ActiveProducers()
	if len(producerCfgs) < limits.MinProducers {
		return nil, fmt.Errorf("%w: %d active producers, at least %d required", ErrRosterSize, len(producerCfgs), limits.MinProducers)
	}
	if limits.MaxProducers > 0 && len(producerCfgs) > limits.MaxProducers {
		slog.Warn("Too many producers, ignoring the rest", "active", len(producerCfgs), "max", limits.MaxProducers)
		producerCfgs = producerCfgs[:limits.MaxProducers]
	}

	evaluatorCfgs := cfg.ActiveEvaluators()
	if len(evaluatorCfgs) < limits.MinEvaluators {
		return nil, fmt.Errorf("%w: %d active evaluators, at least %d required", ErrRosterSize, len(evaluatorCfgs), limits.MinEvaluators)
	}
	if limits.MaxEvaluators > 0 && len(evaluatorCfgs) > limits.MaxEvaluators {
		slog.Warn("Too many evaluators, ignoring the rest", "active", len(evaluatorCfgs), "max", limits.MaxEvaluators)
		evaluatorCfgs = evaluatorCfgs[:limits.MaxEvaluators]
	}
	if requireOdd(limits) && len(evaluatorCfgs) > 1 && len(evaluatorCfgs)%2 == 0 {
		slog.Info("Adjusting to an odd number of evaluators", "from", len(evaluatorCfgs), "to", len(evaluatorCfgs)-1)
		evaluatorCfgs = evaluatorCfgs[:len(evaluatorCfgs)-1]
	}

	roster := &Roster{}
	seen := map[string]bool{}

	for _, c := range producerCfgs {
		if c.Name == "" {
			return nil, errors.New("producer with an empty name")
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate producer name %q", c.Name)
		}
		seen[c.Name] = true

		p, err := registry.NewProducer(c, deps)
		if err != nil {
			return nil, err
		}
		roster.Producers = append(roster.Producers, p)
	}

	seen = map[string]bool{}
	for _, c := range evaluatorCfgs {
		if c.Name == "" {
			return nil, errors.New("evaluator with an empty name")
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate evaluator name %q", c.Name)
		}
		seen[c.Name] = true

		e, err := registry.NewEvaluator(c, deps)
		if err != nil {
			return nil, err
		}
		roster.Evaluators = append(roster.Evaluators, e)
	}

	return roster, nil
}

func requireOdd(limits projectconfig.RosterConfig) bool {
	return limits.RequireOddEvaluators == nil || *limits.RequireOddEvaluators
}

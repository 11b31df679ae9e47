package agents

import (
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spboyer/forge/internal/models"
	"github.com/spboyer/forge/internal/projectconfig"
)

// ProducerFactory builds a producer from its configuration.
type ProducerFactory func(cfg projectconfig.AgentConfig, deps Deps) (Producer, error)

// EvaluatorFactory builds an evaluator from its configuration.
type EvaluatorFactory func(cfg projectconfig.AgentConfig, deps Deps) (Evaluator, error)

// Registry maps agent kinds to factories. There is no global registry; build
// one with NewRegistry and pass it where agents are created.
type Registry struct {
	producers  map[Kind]ProducerFactory
	evaluators map[Kind]EvaluatorFactory
}

// NewRegistry returns a registry with the built-in kinds registered.
func NewRegistry() *Registry {
	r := &Registry{
		producers:  map[Kind]ProducerFactory{},
		evaluators: map[Kind]EvaluatorFactory{},
	}

	r.RegisterProducer(KindLLM, newLLMProducer)
	r.RegisterEvaluator(KindLLM, newLLMEvaluator)
	r.RegisterProducer(KindStatic, newStaticProducer)
	r.RegisterEvaluator(KindStatic, newStaticEvaluator)

	return r
}

// RegisterProducer adds or replaces the factory for kind.
func (r *Registry) RegisterProducer(kind Kind, f ProducerFactory) {
	r.producers[kind] = f
}

// RegisterEvaluator adds or replaces the factory for kind.
func (r *Registry) RegisterEvaluator(kind Kind, f EvaluatorFactory) {
	r.evaluators[kind] = f
}

// Kinds lists the registered kinds for role, sorted.
func (r *Registry) Kinds(role models.Role) []Kind {
	var kinds []Kind
	if role == models.RoleEvaluator {
		for k := range r.evaluators {
			kinds = append(kinds, k)
		}
	} else {
		for k := range r.producers {
			kinds = append(kinds, k)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// NewProducer builds the producer cfg describes.
func (r *Registry) NewProducer(cfg projectconfig.AgentConfig, deps Deps) (Producer, error) {
	kind := kindOf(cfg)
	f, ok := r.producers[kind]
	if !ok {
		return nil, &UnknownAgentKindError{Kind: kind, Role: models.RoleProducer}
	}

	p, err := f(cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("producer %s: %w", cfg.Name, err)
	}
	return p, nil
}

// NewEvaluator builds the evaluator cfg describes.
func (r *Registry) NewEvaluator(cfg projectconfig.AgentConfig, deps Deps) (Evaluator, error) {
	kind := kindOf(cfg)
	f, ok := r.evaluators[kind]
	if !ok {
		return nil, &UnknownAgentKindError{Kind: kind, Role: models.RoleEvaluator}
	}

	e, err := f(cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("evaluator %s: %w", cfg.Name, err)
	}
	return e, nil
}

func kindOf(cfg projectconfig.AgentConfig) Kind {
	if cfg.Kind == "" {
		return Kind(projectconfig.DefaultAgentKind)
	}
	return Kind(cfg.Kind)
}

// decodeParams decodes an agent's free-form params into out, rejecting keys
// out does not declare.
func decodeParams(params map[string]any, out any) error {
	if len(params) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(params); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

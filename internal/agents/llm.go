package agents

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/spboyer/forge/internal/execution"
	"github.com/spboyer/forge/internal/models"
	"github.com/spboyer/forge/internal/projectconfig"
	"github.com/spboyer/forge/internal/template"
	"github.com/spboyer/forge/internal/validation"
)

var errNoEngine = errors.New("no model engine configured")

type llmParams struct {
	PromptTemplate string            `mapstructure:"prompt_template"`
	Vars           map[string]string `mapstructure:"vars"`

	// evaluators only
	Weights map[string]float64 `mapstructure:"weights"`
}

// llmAgent holds what llm producers and evaluators share.
type llmAgent struct {
	name        string
	model       string
	temperature float64
	direction   string
	prompt      string
	vars        map[string]string
	deps        Deps
}

func newLLMAgent(cfg projectconfig.AgentConfig, deps Deps, builtin string, defaultTemperature float64) (*llmAgent, *llmParams, error) {
	var params llmParams
	if err := decodeParams(cfg.Params, &params); err != nil {
		return nil, nil, err
	}

	prompt := params.PromptTemplate
	if prompt == "" {
		var err error
		if prompt, err = template.Builtin(builtin); err != nil {
			return nil, nil, err
		}
	}

	a := &llmAgent{
		name:        cfg.Name,
		model:       cfg.Model,
		temperature: defaultTemperature,
		direction:   cfg.Direction,
		prompt:      prompt,
		vars:        params.Vars,
		deps:        deps,
	}
	if a.model == "" {
		a.model = deps.DefaultModel
	}
	if cfg.Temperature != nil {
		a.temperature = *cfg.Temperature
	}
	if a.vars == nil {
		a.vars = map[string]string{}
	}
	return a, &params, nil
}

func (a *llmAgent) complete(ctx context.Context, prompt string, req execution.CompletionRequest) (*execution.CompletionResponse, error) {
	if a.deps.Handles == nil {
		return nil, errNoEngine
	}

	h, err := a.deps.Handles.Get(ctx, a.model, a.temperature)
	if err != nil {
		return nil, err
	}

	req.AgentName = a.name
	req.Prompt = prompt
	req.Timeout = a.deps.Timeout
	return h.Complete(ctx, req)
}

type llmProducer struct {
	*llmAgent
}

func newLLMProducer(cfg projectconfig.AgentConfig, deps Deps) (Producer, error) {
	a, _, err := newLLMAgent(cfg, deps, template.ProducerPrompt, deps.ProducerTemperature)
	if err != nil {
		return nil, err
	}
	return &llmProducer{a}, nil
}

func (p *llmProducer) Name() string { return p.name }
func (p *llmProducer) Kind() Kind   { return KindLLM }

func (p *llmProducer) Fingerprint() string {
	return strings.Join([]string{p.name, string(KindLLM), p.model, fmt.Sprint(p.temperature), p.direction, p.prompt}, "\x00")
}

func (p *llmProducer) Generate(ctx context.Context, genre, plot string) (*models.Candidate, error) {
	prompt, err := template.Render(p.prompt, &template.Context{
		AgentName: p.name,
		Direction: p.direction,
		Genre:     genre,
		Plot:      plot,
		Vars:      p.vars,
	})
	if err != nil {
		return nil, err
	}

	resp, err := p.complete(ctx, prompt, execution.CompletionRequest{Role: models.RoleProducer})
	if err != nil {
		return nil, err
	}

	c, err := validation.ParseCandidate(p.name, resp.Text)
	if err != nil {
		return nil, err
	}

	c.Name = p.name
	c.ModelUsed = resp.ModelID
	return c, nil
}

type llmEvaluator struct {
	*llmAgent
	criteria []template.Criterion
}

func newLLMEvaluator(cfg projectconfig.AgentConfig, deps Deps) (Evaluator, error) {
	a, params, err := newLLMAgent(cfg, deps, template.EvaluatorPrompt, deps.EvaluatorTemperature)
	if err != nil {
		return nil, err
	}

	criteria := make([]template.Criterion, 0, len(deps.Criteria))
	for _, c := range deps.Criteria {
		weight := c.Weight
		if w, ok := params.Weights[c.Name]; ok {
			weight = w
		}
		criteria = append(criteria, template.Criterion{
			Name:        c.Name,
			Description: c.Description,
			Percent:     int(math.Round(weight * 100)),
		})
	}

	return &llmEvaluator{llmAgent: a, criteria: criteria}, nil
}

func (e *llmEvaluator) Name() string { return e.name }
func (e *llmEvaluator) Kind() Kind   { return KindLLM }

func (e *llmEvaluator) Evaluate(ctx context.Context, candidates map[string]*models.Candidate) (*models.Vote, error) {
	if len(candidates) == 0 {
		return nil, errors.New("no candidates to evaluate")
	}

	names := candidateNames(candidates)

	// show candidates in a different order to every evaluator
	order := slices.Clone(names)
	e.shuffle(order)

	shown := make([]*models.Candidate, 0, len(order))
	for _, name := range order {
		c := *candidates[name]
		c.Name = name
		shown = append(shown, &c)
	}

	prompt, err := template.Render(e.prompt, &template.Context{
		AgentName:  e.name,
		Direction:  e.direction,
		Candidates: shown,
		Criteria:   e.criteria,
		Vars:       e.vars,
	})
	if err != nil {
		return nil, err
	}

	criterionNames := make([]string, len(e.criteria))
	for i, c := range e.criteria {
		criterionNames[i] = c.Name
	}

	resp, err := e.complete(ctx, prompt, execution.CompletionRequest{
		Role:     models.RoleEvaluator,
		Choices:  names,
		Criteria: criterionNames,
	})
	if err != nil {
		return nil, err
	}

	ballot, err := validation.ParseBallot(e.name, resp.Text)
	if err != nil {
		return nil, err
	}

	return &models.Vote{
		AgentName:      e.name,
		ModelUsed:      resp.ModelID,
		VoteForTeam:    ballot.VoteForTeam,
		Reasoning:      ballot.Reasoning,
		ScoreBreakdown: ballot.Scores,
	}, nil
}

func (e *llmEvaluator) shuffle(names []string) {
	if e.deps.Shuffle != nil {
		e.deps.Shuffle(names)
		return
	}
	rand.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
}

func candidateNames(candidates map[string]*models.Candidate) []string {
	names := make([]string, 0, len(candidates))
	for name := range candidates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spboyer/forge/internal/models"
	"github.com/spboyer/forge/internal/projectconfig"
)

type staticProducerParams struct {
	Title      string   `mapstructure:"title"`
	Logline    string   `mapstructure:"logline"`
	Summary    string   `mapstructure:"summary"`
	Themes     []string `mapstructure:"themes"`
	Complexity int      `mapstructure:"complexity"`
}

type staticProducer struct {
	name   string
	params staticProducerParams
}

func newStaticProducer(cfg projectconfig.AgentConfig, deps Deps) (Producer, error) {
	p := &staticProducer{name: cfg.Name}
	if err := decodeParams(cfg.Params, &p.params); err != nil {
		return nil, err
	}

	if p.params.Complexity == 0 {
		p.params.Complexity = 5
	}
	if p.params.Complexity < 1 || p.params.Complexity > 10 {
		return nil, fmt.Errorf("complexity must be between 1 and 10, got %d", p.params.Complexity)
	}
	return p, nil
}

func (p *staticProducer) Name() string { return p.name }
func (p *staticProducer) Kind() Kind   { return KindStatic }

func (p *staticProducer) Fingerprint() string {
	return strings.Join([]string{p.name, string(KindStatic), p.params.Title, p.params.Summary, fmt.Sprint(p.params.Complexity)}, "\x00")
}

// Generate echoes the input back as a minimal candidate.
func (p *staticProducer) Generate(ctx context.Context, genre, plot string) (*models.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	title := p.params.Title
	if title == "" {
		title = fmt.Sprintf("%s (%s)", p.name, genre)
	}
	summary := p.params.Summary
	if summary == "" {
		summary = plot
	}

	return &models.Candidate{
		Name:                p.name,
		ModelUsed:           string(KindStatic),
		Title:               title,
		Logline:             p.params.Logline,
		PlotSummary:         summary,
		Themes:              p.params.Themes,
		EstimatedComplexity: p.params.Complexity,
	}, nil
}

type staticEvaluatorParams struct {
	// Prefer lists candidates in order of preference. The first one present
	// gets the vote; otherwise the alphabetically first candidate does.
	Prefer    []string `mapstructure:"prefer"`
	Reasoning string   `mapstructure:"reasoning"`
	Score     int      `mapstructure:"score"`
}

type staticEvaluator struct {
	name     string
	params   staticEvaluatorParams
	criteria []string
}

func newStaticEvaluator(cfg projectconfig.AgentConfig, deps Deps) (Evaluator, error) {
	e := &staticEvaluator{name: cfg.Name}
	if err := decodeParams(cfg.Params, &e.params); err != nil {
		return nil, err
	}

	if e.params.Score == 0 {
		e.params.Score = 5
	}
	if e.params.Score < 1 || e.params.Score > 10 {
		return nil, fmt.Errorf("score must be between 1 and 10, got %d", e.params.Score)
	}

	for _, c := range deps.Criteria {
		e.criteria = append(e.criteria, c.Name)
	}
	return e, nil
}

func (e *staticEvaluator) Name() string { return e.name }
func (e *staticEvaluator) Kind() Kind   { return KindStatic }

func (e *staticEvaluator) Evaluate(ctx context.Context, candidates map[string]*models.Candidate) (*models.Vote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, errors.New("no candidates to evaluate")
	}

	choice := candidateNames(candidates)[0]
	for _, name := range e.params.Prefer {
		if _, ok := candidates[name]; ok {
			choice = name
			break
		}
	}

	scores := make(map[string]int, len(e.criteria))
	for _, c := range e.criteria {
		scores[c] = e.params.Score
	}

	reasoning := e.params.Reasoning
	if reasoning == "" {
		reasoning = fmt.Sprintf("%s prefers %s.", e.name, choice)
	}

	return &models.Vote{
		AgentName:      e.name,
		ModelUsed:      string(KindStatic),
		VoteForTeam:    choice,
		Reasoning:      reasoning,
		ScoreBreakdown: scores,
	}, nil
}

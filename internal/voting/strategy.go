package voting

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spboyer/forge/internal/models"
)

// Strategy names accepted by NewStrategy.
const (
	StrategyStandard     = "standard"
	StrategyRankedChoice = "ranked_choice"
	StrategyWeighted     = "weighted"
)

// Strategy turns a round's votes into a result.
type Strategy interface {
	Name() string
	Tally(votes []models.Vote, candidates []string) *models.VotingResult
}

// UnknownStrategyError is returned by NewStrategy for unrecognized names.
type UnknownStrategyError struct {
	Name string
}

func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("'%s' is not a valid voting strategy", e.Name)
}

// NewStrategy resolves a strategy by name. An empty name means standard.
// ranked_choice and weighted are reserved names that currently resolve to the
// standard count.
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "", StrategyStandard:
		return standardStrategy{}, nil
	case StrategyRankedChoice, StrategyWeighted:
		slog.Warn("Voting strategy not implemented, using standard", "strategy", name)
		fmt.Printf("[WARN] %s voting is not implemented yet, using standard voting\n", name)
		return standardStrategy{}, nil
	default:
		return nil, &UnknownStrategyError{Name: name}
	}
}

type standardStrategy struct{}

func (standardStrategy) Name() string { return StrategyStandard }

func (standardStrategy) Tally(votes []models.Vote, candidates []string) *models.VotingResult {
	return Tally(votes, candidates)
}

// SelectByComplexity builds the degraded result used when a round produced no
// valid votes: the candidate with the highest estimated complexity wins, ties
// broken by name. The tally is all zeros.
func SelectByComplexity(candidates map[string]*models.Candidate, reason string) *models.VotingResult {
	ranking := make([]string, 0, len(candidates))
	tally := make(map[string]int, len(candidates))
	for name := range candidates {
		ranking = append(ranking, name)
		tally[name] = 0
	}
	sort.Slice(ranking, func(i, j int) bool {
		ci, cj := candidates[ranking[i]].EstimatedComplexity, candidates[ranking[j]].EstimatedComplexity
		if ci != cj {
			return ci > cj
		}
		return ranking[i] < ranking[j]
	})

	result := &models.VotingResult{
		IndividualVotes: []models.Vote{},
		Tally:           tally,
		Ranking:         ranking,
		Strategy:        "complexity_fallback",
		Degraded:        true,
		DegradedReason:  reason,
	}
	if len(ranking) > 0 {
		result.Winner = ranking[0]
	}
	result.Summary = Summarize(nil, ranking, tally)
	return result
}

package voting

import (
	"sort"

	"github.com/spboyer/forge/internal/metrics"
	"github.com/spboyer/forge/internal/models"
)

// maxReasonRunes bounds the reasoning excerpt kept per evaluator.
const maxReasonRunes = 200

// patternSize is how many criteria are reported as unanimous or divisive.
const patternSize = 2

// Summarize derives the descriptive summary of a round. It never influences
// the winner.
func Summarize(votes []models.Vote, ranking []string, tally map[string]int) models.VotingSummary {
	s := models.VotingSummary{
		VoteDistribution: make([]models.TallyEntry, 0, len(ranking)),
		AgentVotes:       make(map[string]models.AgentVoteSummary, len(votes)),
		TeamAvgScores:    map[string]models.CandidateScores{},
		VoteReasons:      make(map[string]string, len(votes)),
	}

	for _, name := range ranking {
		s.VoteDistribution = append(s.VoteDistribution, models.TallyEntry{Candidate: name, Votes: tally[name]})
	}

	perCandidate := map[string]map[string][]float64{}
	perCriterion := map[string][]float64{}
	modelPrefs := map[string]map[string]int{}

	for _, v := range votes {
		s.AgentVotes[v.AgentName] = models.AgentVoteSummary{
			VotedFor:   v.VoteForTeam,
			ModelUsed:  v.ModelUsed,
			TotalScore: v.TotalScore(),
		}
		s.VoteReasons[v.AgentName] = truncateReason(v.Reasoning)

		if modelPrefs[v.ModelUsed] == nil {
			modelPrefs[v.ModelUsed] = map[string]int{}
		}
		modelPrefs[v.ModelUsed][v.VoteForTeam]++

		if perCandidate[v.VoteForTeam] == nil {
			perCandidate[v.VoteForTeam] = map[string][]float64{}
		}
		for criterion, score := range v.ScoreBreakdown {
			perCandidate[v.VoteForTeam][criterion] = append(perCandidate[v.VoteForTeam][criterion], float64(score))
			perCriterion[criterion] = append(perCriterion[criterion], float64(score))
		}
	}

	for candidate, criteria := range perCandidate {
		scores := models.CandidateScores{Criteria: make(map[string]float64, len(criteria))}
		var all []float64
		for criterion, values := range criteria {
			scores.Criteria[criterion] = metrics.Round(metrics.Mean(values), 1)
			all = append(all, values...)
		}
		scores.TotalAvg = metrics.Round(metrics.Mean(all), 1)
		s.TeamAvgScores[candidate] = scores
	}

	s.Patterns = patterns(perCriterion, modelPrefs)
	return s
}

func patterns(perCriterion map[string][]float64, modelPrefs map[string]map[string]int) models.VotingPatterns {
	p := models.VotingPatterns{
		CriterionVariance: make(map[string]float64, len(perCriterion)),
		Unanimous:         []string{},
		Divisive:          []string{},
		ModelPreferences:  modelPrefs,
	}

	names := make([]string, 0, len(perCriterion))
	for criterion, values := range perCriterion {
		p.CriterionVariance[criterion] = metrics.Variance(values)
		names = append(names, criterion)
	}
	if len(names) < patternSize {
		return p
	}

	sort.Slice(names, func(i, j int) bool {
		vi, vj := p.CriterionVariance[names[i]], p.CriterionVariance[names[j]]
		if vi != vj {
			return vi < vj
		}
		return names[i] < names[j]
	})
	p.Unanimous = append(p.Unanimous, names[:patternSize]...)
	for i := len(names) - 1; i >= len(names)-patternSize; i-- {
		p.Divisive = append(p.Divisive, names[i])
	}
	return p
}

func truncateReason(reason string) string {
	r := []rune(reason)
	if len(r) <= maxReasonRunes {
		return reason
	}
	return string(r[:maxReasonRunes]) + "..."
}

// Package voting turns a round's votes into a VotingResult: counts, a
// deterministic ranking and descriptive summary statistics.
package voting

import (
	"log/slog"
	"sort"

	"github.com/spboyer/forge/internal/models"
)

// Tally counts votes for the given candidates. Every candidate starts at
// zero; votes naming anything else are discarded. The ranking orders
// candidates by vote count, then by the summed criterion scores of the votes
// they received, then by name, and the winner is its first entry. The result
// does not depend on the order of votes or candidates.
func Tally(votes []models.Vote, candidates []string) *models.VotingResult {
	valid := make(map[string]bool, len(candidates))
	tally := make(map[string]int, len(candidates))
	for _, c := range candidates {
		valid[c] = true
		tally[c] = 0
	}

	counted := make([]models.Vote, 0, len(votes))
	var discarded []models.DiscardedVote
	scoreSums := make(models.Counter, len(candidates))

	for _, v := range votes {
		if !valid[v.VoteForTeam] {
			slog.Warn("Discarding vote for unknown candidate", "agent", v.AgentName, "candidate", v.VoteForTeam)
			discarded = append(discarded, models.DiscardedVote{
				AgentName:   v.AgentName,
				VoteForTeam: v.VoteForTeam,
				Reason:      "not a candidate in this round",
			})
			continue
		}
		tally[v.VoteForTeam]++
		scoreSums.RecordOrInit(v.VoteForTeam, v.TotalScore())
		counted = append(counted, v)
	}

	sortVotes(counted)
	sort.Slice(discarded, func(i, j int) bool {
		return discarded[i].AgentName < discarded[j].AgentName
	})

	ranking := Rank(tally, scoreSums)
	result := &models.VotingResult{
		IndividualVotes: counted,
		Tally:           tally,
		TotalVotes:      len(counted),
		Ranking:         ranking,
		Discarded:       discarded,
		Strategy:        StrategyStandard,
	}
	if len(ranking) > 0 {
		result.Winner = ranking[0]
	}
	result.Summary = Summarize(counted, ranking, tally)
	return result
}

// Rank orders candidates by count desc, score sum desc, name asc.
func Rank(tally map[string]int, scoreSums map[string]int) []string {
	ranking := make([]string, 0, len(tally))
	for name := range tally {
		ranking = append(ranking, name)
	}
	sort.Slice(ranking, func(i, j int) bool {
		a, b := ranking[i], ranking[j]
		if tally[a] != tally[b] {
			return tally[a] > tally[b]
		}
		if scoreSums[a] != scoreSums[b] {
			return scoreSums[a] > scoreSums[b]
		}
		return a < b
	})
	return ranking
}

func sortVotes(votes []models.Vote) {
	sort.SliceStable(votes, func(i, j int) bool {
		if votes[i].AgentName != votes[j].AgentName {
			return votes[i].AgentName < votes[j].AgentName
		}
		return votes[i].VoteForTeam < votes[j].VoteForTeam
	})
}

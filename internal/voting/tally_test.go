package voting

import (
	"strings"
	"testing"

	"github.com/spboyer/forge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func vote(agent, candidate string, scores map[string]int) models.Vote {
	return models.Vote{
		AgentName:      agent,
		ModelUsed:      "gpt-4o",
		VoteForTeam:    candidate,
		Reasoning:      agent + " liked " + candidate,
		ScoreBreakdown: scores,
	}
}

func TestTally_ClearWinner(t *testing.T) {
	votes := []models.Vote{
		vote("e1", "A", nil),
		vote("e2", "A", nil),
		vote("e3", "B", nil),
	}

	result := Tally(votes, []string{"A", "B", "C"})

	require.Equal(t, "A", result.Winner)
	require.Equal(t, map[string]int{"A": 2, "B": 1, "C": 0}, result.Tally)
	require.Equal(t, 3, result.TotalVotes)
	require.Equal(t, []string{"A", "B", "C"}, result.Ranking)
	require.Equal(t, "B", result.RunnerUp())
	require.Empty(t, result.Discarded)
}

func TestTally_TieBrokenByScoreSum(t *testing.T) {
	votes := []models.Vote{
		vote("e1", "A", map[string]int{"originality": 5}),
		vote("e2", "B", map[string]int{"originality": 9}),
	}

	result := Tally(votes, []string{"A", "B"})

	require.Equal(t, "B", result.Winner)
	require.Equal(t, []string{"B", "A"}, result.Ranking)
}

func TestTally_FullTieBrokenByName(t *testing.T) {
	votes := []models.Vote{
		vote("e1", "Zeta", map[string]int{"originality": 7}),
		vote("e2", "Alpha", map[string]int{"originality": 7}),
	}

	result := Tally(votes, []string{"Zeta", "Alpha"})

	require.Equal(t, "Alpha", result.Winner)
}

func TestTally_DiscardsUnknownCandidates(t *testing.T) {
	votes := []models.Vote{
		vote("e1", "A", nil),
		vote("e2", "Ghost", nil),
		vote("e3", "A", nil),
	}

	result := Tally(votes, []string{"A", "B"})

	require.Equal(t, 2, result.TotalVotes)
	require.Len(t, result.IndividualVotes, 2)
	require.NotContains(t, result.Tally, "Ghost")
	require.Len(t, result.Discarded, 1)
	assert.Equal(t, "e2", result.Discarded[0].AgentName)
	assert.Equal(t, "Ghost", result.Discarded[0].VoteForTeam)
}

func TestTally_NoVotes(t *testing.T) {
	result := Tally(nil, []string{"B", "A"})

	require.Equal(t, 0, result.TotalVotes)
	require.Equal(t, []string{"A", "B"}, result.Ranking)
	require.Equal(t, "A", result.Winner)
}

func TestSummarize(t *testing.T) {
	votes := []models.Vote{
		vote("e1", "A", map[string]int{"originality": 9, "coherence": 6, "market_potential": 5}),
		vote("e2", "A", map[string]int{"originality": 8, "coherence": 6, "market_potential": 9}),
		vote("e3", "B", map[string]int{"originality": 2, "coherence": 6, "market_potential": 1}),
	}
	votes[2].ModelUsed = "gpt-4o-mini"

	result := Tally(votes, []string{"A", "B"})
	s := result.Summary

	require.Equal(t, []models.TallyEntry{{Candidate: "A", Votes: 2}, {Candidate: "B", Votes: 1}}, s.VoteDistribution)
	require.Equal(t, models.AgentVoteSummary{VotedFor: "A", ModelUsed: "gpt-4o", TotalScore: 20}, s.AgentVotes["e1"])

	a := s.TeamAvgScores["A"]
	assert.Equal(t, 8.5, a.Criteria["originality"])
	assert.Equal(t, 6.0, a.Criteria["coherence"])
	assert.Equal(t, 7.0, a.Criteria["market_potential"])
	assert.Equal(t, 7.2, a.TotalAvg) // (9+6+5+8+6+9)/6 = 7.1666
	assert.NotContains(t, s.TeamAvgScores, "C")

	assert.Equal(t, 0.0, s.Patterns.CriterionVariance["coherence"])
	assert.Equal(t, []string{"coherence", "originality"}, s.Patterns.Unanimous)
	assert.Equal(t, []string{"market_potential", "originality"}, s.Patterns.Divisive)
	assert.Equal(t, map[string]int{"A": 2}, s.Patterns.ModelPreferences["gpt-4o"])
	assert.Equal(t, map[string]int{"B": 1}, s.Patterns.ModelPreferences["gpt-4o-mini"])
}

func TestSummarize_SingleCriterionHasNoPatterns(t *testing.T) {
	votes := []models.Vote{
		vote("e1", "A", map[string]int{"originality": 9}),
		vote("e2", "A", map[string]int{"originality": 3}),
	}

	s := Tally(votes, []string{"A"}).Summary

	assert.Empty(t, s.Patterns.Unanimous)
	assert.Empty(t, s.Patterns.Divisive)
	assert.Equal(t, 9.0, s.Patterns.CriterionVariance["originality"])
}

func TestSummarize_TruncatesReasons(t *testing.T) {
	v := vote("e1", "A", nil)
	v.Reasoning = strings.Repeat("é", 250)

	s := Tally([]models.Vote{v, vote("e2", "A", nil)}, []string{"A"}).Summary

	assert.Equal(t, strings.Repeat("é", 200)+"...", s.VoteReasons["e1"])
	assert.Equal(t, "e2 liked A", s.VoteReasons["e2"])
}

func TestTally_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nCandidates := rapid.IntRange(1, 6).Draw(t, "candidates")
		candidates := make([]string, nCandidates)
		for i := range candidates {
			candidates[i] = string(rune('A' + i))
		}
		nVotes := rapid.IntRange(0, 15).Draw(t, "votes")
		votes := make([]models.Vote, nVotes)
		for i := range votes {
			// Index nCandidates names a candidate outside the round.
			pick := rapid.IntRange(0, nCandidates).Draw(t, "pick")
			name := "Ghost"
			if pick < nCandidates {
				name = candidates[pick]
			}
			votes[i] = vote(string(rune('a'+i)), name, map[string]int{
				"originality": rapid.IntRange(1, 10).Draw(t, "originality"),
				"coherence":   rapid.IntRange(1, 10).Draw(t, "coherence"),
			})
		}

		result := Tally(votes, candidates)

		sum := 0
		for _, c := range result.Tally {
			sum += c
		}
		if sum != result.TotalVotes || result.TotalVotes != len(result.IndividualVotes) {
			t.Fatalf("tally sum %d, total %d, individual %d", sum, result.TotalVotes, len(result.IndividualVotes))
		}
		if result.TotalVotes+len(result.Discarded) != nVotes {
			t.Fatalf("counted %d + discarded %d != %d", result.TotalVotes, len(result.Discarded), nVotes)
		}
		if _, ok := result.Tally[result.Winner]; !ok || result.Ranking[0] != result.Winner {
			t.Fatalf("winner %q not first in ranking %v", result.Winner, result.Ranking)
		}
		for _, c := range result.Tally {
			if c > result.Tally[result.Winner] {
				t.Fatalf("winner %q does not hold the max count", result.Winner)
			}
		}

		shuffledVotes := rapid.Permutation(votes).Draw(t, "shuffledVotes")
		shuffledCandidates := rapid.Permutation(candidates).Draw(t, "shuffledCandidates")
		again := Tally(shuffledVotes, shuffledCandidates)
		if again.Winner != result.Winner {
			t.Fatalf("winner changed with input order: %q vs %q", again.Winner, result.Winner)
		}
		for i := range result.Ranking {
			if again.Ranking[i] != result.Ranking[i] {
				t.Fatalf("ranking changed with input order: %v vs %v", again.Ranking, result.Ranking)
			}
		}
	})
}

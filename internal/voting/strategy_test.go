package voting

import (
	"testing"

	"github.com/spboyer/forge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStrategy(t *testing.T) {
	for _, name := range []string{"", StrategyStandard, StrategyRankedChoice, StrategyWeighted} {
		s, err := NewStrategy(name)
		require.NoError(t, err, name)
		assert.Equal(t, StrategyStandard, s.Name())
	}

	_, err := NewStrategy("borda")
	var unknown *UnknownStrategyError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "borda", unknown.Name)
}

func TestStandardStrategyTally(t *testing.T) {
	s, err := NewStrategy(StrategyStandard)
	require.NoError(t, err)

	result := s.Tally([]models.Vote{vote("e1", "B", nil)}, []string{"A", "B"})
	assert.Equal(t, "B", result.Winner)
	assert.Equal(t, StrategyStandard, result.Strategy)
}

func TestSelectByComplexity(t *testing.T) {
	candidates := map[string]*models.Candidate{
		"Echo Chamber":  {Name: "Echo Chamber", EstimatedComplexity: 6},
		"Mythic Forge":  {Name: "Mythic Forge", EstimatedComplexity: 9},
		"Neural Narrat": {Name: "Neural Narrat", EstimatedComplexity: 9},
	}

	result := SelectByComplexity(candidates, "no valid votes")

	require.True(t, result.Degraded)
	assert.Equal(t, "no valid votes", result.DegradedReason)
	assert.Equal(t, "Mythic Forge", result.Winner)
	assert.Equal(t, []string{"Mythic Forge", "Neural Narrat", "Echo Chamber"}, result.Ranking)
	assert.Equal(t, 0, result.TotalVotes)
	assert.Equal(t, map[string]int{"Echo Chamber": 0, "Mythic Forge": 0, "Neural Narrat": 0}, result.Tally)
}

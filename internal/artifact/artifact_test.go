package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spboyer/forge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeGenre(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Sci-Fi", "sci-fi"},
		{"Hard Boiled Noir", "hard_boiled_noir"},
		{"  Romance!? ", "romance"},
		{"café", "caf"},
		{"", "unknown"},
		{"???", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeGenre(tt.input))
		})
	}
}

func TestInputHash(t *testing.T) {
	// sha256("abc") = ba7816bf8f01cfea...
	assert.Equal(t, "ba7816bf8f01cfea", InputHash("abc"))
	assert.Len(t, InputHash(""), 16)
}

func TestFilename(t *testing.T) {
	ts := time.Date(2026, 2, 18, 14, 30, 5, 123456000, time.UTC)
	got := Filename("Sci Fi", "abc", ts)
	assert.Equal(t, "plot_sci_fi_ba7816bf8f01cfea_2026-02-18T14-30-05.123456.json", got)
	assert.Equal(t, "sci_fi_ba7816bf8f01cfea", RoundID("Sci Fi", "abc"))
}

func sampleArtifact(genre string, ts time.Time) *models.RunArtifact {
	winner := &models.Candidate{Name: "Team A", Title: "The Door", EstimatedComplexity: 6}
	return &models.RunArtifact{
		RunID:            "run-1",
		OriginalPlot:     "a door that remembers",
		Genre:            genre,
		AllExpandedPlots: map[string]*models.Candidate{"Team A": winner},
		VotingResults: &models.VotingResult{
			Tally:      map[string]int{"Team A": 1},
			Winner:     "Team A",
			TotalVotes: 1,
			Ranking:    []string{"Team A"},
		},
		SelectedExpansion: winner,
		Timestamp:         ts,
		ProcessingTime:    1.5,
	}
}

func TestWriteLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	ts := time.Date(2026, 2, 18, 14, 30, 5, 0, time.UTC)
	a := sampleArtifact("fantasy", ts)

	path, err := Write(dir, a)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "plot_fantasy_"))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, a.RunID, loaded.RunID)
	assert.Equal(t, "Team A", loaded.VotingResults.Winner)
	assert.Equal(t, "The Door", loaded.SelectedExpansion.Title)
	assert.True(t, ts.Equal(loaded.Timestamp))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"winning_team": "Team A"`)
	assert.Contains(t, string(raw), `"all_expanded_plots"`)
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)

	_, err := Write(dir, sampleArtifact("noir", base.Add(time.Hour)))
	require.NoError(t, err)
	_, err = Write(dir, sampleArtifact("fantasy", base))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plot_broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "league_tables.json"), []byte("{}"), 0o644))

	paths, err := List(dir)
	require.NoError(t, err)
	assert.Len(t, paths, 3)

	all, err := LoadAll(dir)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "fantasy", all[0].Genre)
	assert.Equal(t, "noir", all[1].Genre)
}

func TestLoadAllMissingDir(t *testing.T) {
	all, err := LoadAll(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, all)
}

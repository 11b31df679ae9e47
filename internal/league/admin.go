package league

import (
	"fmt"
	"time"

	"github.com/spboyer/forge/internal/models"
)

// Stats summarizes the store for the admin CLI.
type Stats struct {
	Season      int       `json:"season"`
	Teams       int       `json:"teams"`
	Voters      int       `json:"voters"`
	Matches     int       `json:"matches"`
	FileSizeKB  float64   `json:"file_size_kb"`
	LastUpdated time.Time `json:"last_updated"`
}

// Stats reports store-level counts.
func (t *Tracker) Stats() Stats {
	return Stats{
		Season:      t.data.Season,
		Teams:       len(t.data.Teams),
		Voters:      len(t.data.Voters),
		Matches:     len(t.data.History),
		FileSizeKB:  t.store.SizeKB(),
		LastUpdated: t.data.LastUpdated,
	}
}

// Reset empties the league back to season 1. When archive is set the
// previous store is first saved as a gzip archive, whose path is returned.
func (t *Tracker) Reset(archive bool) (string, error) {
	var archivePath string
	if archive {
		p, err := t.store.Archive(t.now(), "archive")
		if err != nil {
			return "", fmt.Errorf("archiving league before reset: %w", err)
		}
		archivePath = p
	}

	if err := t.commit(models.NewLeagueData(t.now())); err != nil {
		return archivePath, fmt.Errorf("resetting league: %w", err)
	}
	return archivePath, nil
}

// NewSeason archives the league and starts the next season. Every team and
// voter keeps its name and join date but all per-season standings are
// cleared. History is kept across seasons.
func (t *Tracker) NewSeason() (string, error) {
	archivePath, err := t.store.Archive(t.now(), fmt.Sprintf("season%d", t.data.Season))
	if err != nil {
		return "", fmt.Errorf("archiving season %d: %w", t.data.Season, err)
	}

	staged := t.data.Clone()
	staged.Season++
	for name, team := range staged.Teams {
		staged.Teams[name] = &models.TeamEntry{
			Name:             team.Name,
			JoinedDate:       team.JoinedDate,
			Form:             models.Form{},
			VoteSources:      []models.VoteSource{},
			GenrePerformance: map[string]models.GenreRecord{},
		}
	}
	for name, voter := range staged.Voters {
		staged.Voters[name] = &models.VoterEntry{
			Name:            voter.Name,
			JoinedDate:      voter.JoinedDate,
			Form:            models.Form{},
			TeamPreferences: models.Counter{},
		}
	}

	if err := t.commit(staged); err != nil {
		return archivePath, fmt.Errorf("starting season %d: %w", staged.Season, err)
	}
	return archivePath, nil
}

// Prune keeps only the most recent keep history entries, and the most recent
// keep vote sources per team. It returns how many history entries were
// removed.
func (t *Tracker) Prune(keep int) (int, error) {
	if keep < 0 {
		return 0, fmt.Errorf("keep must be >= 0, got %d", keep)
	}

	staged := t.data.Clone()
	removed := 0
	if len(staged.History) > keep {
		removed = len(staged.History) - keep
		staged.History = append([]models.HistoryEntry{}, staged.History[removed:]...)
	}
	for _, team := range staged.Teams {
		if n := len(team.VoteSources); n > keep {
			team.VoteSources = append([]models.VoteSource{}, team.VoteSources[n-keep:]...)
		}
	}

	if err := t.commit(staged); err != nil {
		return 0, fmt.Errorf("pruning league: %w", err)
	}
	return removed, nil
}

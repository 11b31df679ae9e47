// Package analytics computes statistics over stored run artifacts: how teams
// and voters performed, how voters group together, and how rounds trend over
// time. It reads artifacts only and never touches the league store.
package analytics

import (
	"sort"

	"github.com/spboyer/forge/internal/artifact"
	"github.com/spboyer/forge/internal/metrics"
	"github.com/spboyer/forge/internal/models"
	"github.com/spboyer/forge/internal/statistics"
)

const unknownModel = "unknown"

// intervalSeed keeps confidence intervals stable between report runs.
const intervalSeed = 1

// Analyzer answers questions about a fixed set of rounds.
type Analyzer struct {
	runs []*models.RunArtifact
}

// New creates an Analyzer over runs, ordered oldest first.
func New(runs []*models.RunArtifact) *Analyzer {
	sorted := make([]*models.RunArtifact, 0, len(runs))
	for _, r := range runs {
		if r != nil && r.VotingResults != nil {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return &Analyzer{runs: sorted}
}

// Load reads every artifact in dir. Unreadable files are skipped.
func Load(dir string) (*Analyzer, error) {
	runs, err := artifact.LoadAll(dir)
	if err != nil {
		return nil, err
	}
	return New(runs), nil
}

// Rounds is the number of rounds analyzed.
func (a *Analyzer) Rounds() int {
	return len(a.runs)
}

// TeamStats summarizes one producer across all rounds it took part in.
type TeamStats struct {
	Name           string                        `json:"name"`
	Participations int                           `json:"total_participations"`
	Wins           int                           `json:"wins"`
	VotesReceived  int                           `json:"total_votes_received"`
	WinRate        float64                       `json:"win_rate"`
	WinRateCI      statistics.Interval           `json:"win_rate_ci"`
	AvgVotes       float64                       `json:"avg_votes_per_round"`
	AvgComplexity  float64                       `json:"avg_complexity"`
	Genres         map[string]models.GenreRecord `json:"genre_performance"`
	ModelUsage     models.Counter                `json:"model_usage"`
}

// TeamStats returns per-team statistics sorted by wins, then win rate, then
// name. Degraded rounds count as participation but never as a win.
func (a *Analyzer) TeamStats() []TeamStats {
	byName := map[string]*TeamStats{}
	complexity := map[string][]float64{}
	outcomes := map[string][]bool{}

	for _, run := range a.runs {
		result := run.VotingResults
		for name, c := range run.AllExpandedPlots {
			s, ok := byName[name]
			if !ok {
				s = &TeamStats{Name: name, Genres: map[string]models.GenreRecord{}}
				byName[name] = s
			}

			s.Participations++
			s.VotesReceived += result.Tally[name]

			g := s.Genres[run.Genre]
			g.Participations++
			win := won(run, name)
			if win {
				s.Wins++
				g.Wins++
			}
			s.Genres[run.Genre] = g
			outcomes[name] = append(outcomes[name], win)

			model := ""
			if c != nil {
				complexity[name] = append(complexity[name], float64(c.EstimatedComplexity))
				model = c.ModelUsed
			}
			s.ModelUsage.RecordOrInit(modelOrUnknown(model), 1)
		}
	}

	out := make([]TeamStats, 0, len(byName))
	for name, s := range byName {
		s.WinRate = metrics.Round(metrics.Percent(s.Wins, s.Participations), 1)
		s.WinRateCI = statistics.RateInterval(outcomes[name], intervalSeed)
		s.AvgVotes = metrics.Round(float64(s.VotesReceived)/float64(s.Participations), 2)
		s.AvgComplexity = metrics.Round(metrics.Mean(complexity[name]), 2)
		out = append(out, *s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		if out[i].WinRate != out[j].WinRate {
			return out[i].WinRate > out[j].WinRate
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// VoterStats summarizes one evaluator across all its votes.
type VoterStats struct {
	Name         string              `json:"name"`
	VotesCast    int                 `json:"total_votes_cast"`
	Correct      int                 `json:"correct_predictions"`
	AccuracyRate float64             `json:"accuracy_rate"`
	AccuracyCI   statistics.Interval `json:"accuracy_ci"`
	Favorite     string              `json:"favorite_team"`
	TeamVotes    models.Counter      `json:"team_votes"`
	ModelUsage   models.Counter      `json:"model_usage"`
	AvgCriteria  map[string]float64  `json:"avg_criteria_scores"`
}

// VoterStats returns per-voter statistics sorted by accuracy, then votes
// cast, then name.
func (a *Analyzer) VoterStats() []VoterStats {
	byName := map[string]*VoterStats{}
	criteria := map[string]map[string][]float64{}
	outcomes := map[string][]bool{}

	for _, run := range a.runs {
		winner := run.VotingResults.Winner
		for _, v := range run.VotingResults.IndividualVotes {
			s, ok := byName[v.AgentName]
			if !ok {
				s = &VoterStats{Name: v.AgentName}
				byName[v.AgentName] = s
				criteria[v.AgentName] = map[string][]float64{}
			}

			s.VotesCast++
			s.TeamVotes.RecordOrInit(v.VoteForTeam, 1)
			correct := v.VoteForTeam == winner
			if correct {
				s.Correct++
			}
			outcomes[v.AgentName] = append(outcomes[v.AgentName], correct)

			s.ModelUsage.RecordOrInit(modelOrUnknown(v.ModelUsed), 1)

			for criterion, score := range v.ScoreBreakdown {
				criteria[v.AgentName][criterion] = append(criteria[v.AgentName][criterion], float64(score))
			}
		}
	}

	out := make([]VoterStats, 0, len(byName))
	for name, s := range byName {
		s.AccuracyRate = metrics.Round(metrics.Percent(s.Correct, s.VotesCast), 1)
		s.AccuracyCI = statistics.RateInterval(outcomes[name], intervalSeed)
		s.Favorite = favorite(s.TeamVotes)
		s.AvgCriteria = make(map[string]float64, len(criteria[name]))
		for criterion, scores := range criteria[name] {
			s.AvgCriteria[criterion] = metrics.Round(metrics.Mean(scores), 2)
		}
		out = append(out, *s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AccuracyRate != out[j].AccuracyRate {
			return out[i].AccuracyRate > out[j].AccuracyRate
		}
		if out[i].VotesCast != out[j].VotesCast {
			return out[i].VotesCast > out[j].VotesCast
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// favorite is the most voted-for key, ties broken by name.
func favorite(c models.Counter) string {
	best, bestN := "", 0
	for k, n := range c {
		if n > bestN || (n == bestN && k < best) {
			best, bestN = k, n
		}
	}
	return best
}

func won(run *models.RunArtifact, team string) bool {
	return !run.VotingResults.Degraded && run.VotingResults.Winner == team
}

// Package bias scores how concentrated the league's votes are. A producer
// whose votes all come from one evaluator, or an evaluator who always picks
// the same producer, scores close to 1.
package bias

import (
	"fmt"
	"sort"

	"github.com/spboyer/forge/internal/metrics"
	"github.com/spboyer/forge/internal/models"
	"github.com/spboyer/forge/internal/projectconfig"
)

const (
	// coalitionMinHistory is the number of rounds history must exceed before
	// coalitions are looked for.
	coalitionMinHistory = 5
	// coalitionMinShared is the minimum number of rounds two evaluators must
	// both have voted in.
	coalitionMinShared = 5
	// coalitionAgreement is the share of shared rounds with the same pick.
	coalitionAgreement = 0.8
)

// Analyzer computes bias scores and fairness reports from league data.
type Analyzer struct {
	minParticipations int
	threshold         float64
}

// NewAnalyzer creates an analyzer using the league's participation floor and
// fairness threshold.
func NewAnalyzer(cfg projectconfig.LeagueConfig) *Analyzer {
	return &Analyzer{
		minParticipations: cfg.MinParticipations,
		threshold:         cfg.FairnessThreshold,
	}
}

// TeamScore returns the Herfindahl index over the evaluators that voted for
// the team. ok is false when the team has not played enough rounds.
func (a *Analyzer) TeamScore(t *models.TeamEntry) (score float64, ok bool) {
	if t.Played < a.minParticipations {
		return 0, false
	}
	var sources models.Counter
	for _, vs := range t.VoteSources {
		for _, voter := range vs.Voters {
			sources.RecordOrInit(voter, 1)
		}
	}
	return metrics.Round(metrics.Herfindahl(sources), 3), true
}

// VoterScore returns the Herfindahl index over the evaluator's picks. ok is
// false when the evaluator has not voted enough.
func (a *Analyzer) VoterScore(v *models.VoterEntry) (score float64, ok bool) {
	if v.VotesCast < a.minParticipations {
		return 0, false
	}
	return metrics.Round(metrics.Herfindahl(v.TeamPreferences), 3), true
}

// Scores holds every computed bias score by entity name.
type Scores struct {
	Teams  map[string]float64 `json:"teams"`
	Voters map[string]float64 `json:"voters"`
}

// Scores computes bias for every eligible team and voter.
func (a *Analyzer) Scores(d *models.LeagueData) Scores {
	s := Scores{Teams: map[string]float64{}, Voters: map[string]float64{}}
	for name, t := range d.Teams {
		if score, ok := a.TeamScore(t); ok {
			s.Teams[name] = score
		}
	}
	for name, v := range d.Voters {
		if score, ok := a.VoterScore(v); ok {
			s.Voters[name] = score
		}
	}
	return s
}

// EntityBias is a biased team or voter.
type EntityBias struct {
	Name  string  `json:"name"`
	Score float64 `json:"bias_score"`
}

// Coalition is a pair of evaluators that keep picking the same candidate.
type Coalition struct {
	Members      []string `json:"members"`
	SharedRounds int      `json:"shared_rounds"`
	Agreement    float64  `json:"agreement"`
}

// Report is the league fairness report.
type Report struct {
	BiasedTeams     []EntityBias `json:"biased_teams"`
	BiasedVoters    []EntityBias `json:"biased_voters"`
	Coalitions      []Coalition  `json:"voting_coalitions"`
	OverallFairness float64      `json:"overall_fairness"`
	Recommendations []string     `json:"recommendations"`
}

// Report builds the fairness report. Overall fairness is
// (1 - mean bias) * 100, or 100 when no entity is eligible yet.
func (a *Analyzer) Report(d *models.LeagueData) *Report {
	scores := a.Scores(d)
	r := &Report{
		BiasedTeams:  a.biased(scores.Teams),
		BiasedVoters: a.biased(scores.Voters),
		Coalitions:   Coalitions(d.History),
	}

	all := make([]float64, 0, len(scores.Teams)+len(scores.Voters))
	for _, s := range scores.Teams {
		all = append(all, s)
	}
	for _, s := range scores.Voters {
		all = append(all, s)
	}
	r.OverallFairness = 100
	if len(all) > 0 {
		r.OverallFairness = metrics.Round((1-metrics.Mean(all))*100, 1)
	}

	if len(r.BiasedTeams) > 0 {
		r.Recommendations = append(r.Recommendations,
			fmt.Sprintf("%d teams show high vote concentration. Consider anonymous voting.", len(r.BiasedTeams)))
	}
	if len(r.BiasedVoters) > 0 {
		r.Recommendations = append(r.Recommendations,
			fmt.Sprintf("%d voters show strong team preferences. Implement vote rotation.", len(r.BiasedVoters)))
	}
	if len(r.Recommendations) == 0 {
		r.Recommendations = []string{"System shows good fairness. No immediate concerns."}
	}
	return r
}

func (a *Analyzer) biased(scores map[string]float64) []EntityBias {
	out := []EntityBias{}
	for name, s := range scores {
		if s > a.threshold {
			out = append(out, EntityBias{Name: name, Score: s})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Coalitions finds evaluator pairs that shared at least five rounds and made
// the same pick in at least 80% of them. Nothing is reported until history
// holds more than five rounds.
func Coalitions(history []models.HistoryEntry) []Coalition {
	out := []Coalition{}
	if len(history) <= coalitionMinHistory {
		return out
	}

	type pair struct{ a, b string }
	shared := map[pair]int{}
	agreed := map[pair]int{}

	for _, h := range history {
		voters := make([]string, 0, len(h.Votes))
		for v := range h.Votes {
			voters = append(voters, v)
		}
		sort.Strings(voters)
		for i := 0; i < len(voters); i++ {
			for j := i + 1; j < len(voters); j++ {
				p := pair{voters[i], voters[j]}
				shared[p]++
				if h.Votes[p.a] == h.Votes[p.b] {
					agreed[p]++
				}
			}
		}
	}

	for p, n := range shared {
		if n < coalitionMinShared {
			continue
		}
		rate := float64(agreed[p]) / float64(n)
		if rate >= coalitionAgreement {
			out = append(out, Coalition{
				Members:      []string{p.a, p.b},
				SharedRounds: n,
				Agreement:    metrics.Round(rate, 3),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Agreement != out[j].Agreement {
			return out[i].Agreement > out[j].Agreement
		}
		if out[i].Members[0] != out[j].Members[0] {
			return out[i].Members[0] < out[j].Members[0]
		}
		return out[i].Members[1] < out[j].Members[1]
	})
	return out
}

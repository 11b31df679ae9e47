// Package league keeps persistent, season-based standings for producers
// ("teams") and evaluators ("voters"). Every update is staged on a copy of
// the league and only becomes visible once it has been written to disk.
package league

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/spboyer/forge/internal/bias"
	"github.com/spboyer/forge/internal/metrics"
	"github.com/spboyer/forge/internal/models"
	"github.com/spboyer/forge/internal/projectconfig"
)

// ErrInvalidRound is returned when a round cannot be recorded.
var ErrInvalidRound = errors.New("invalid round")

// Tracker applies round results to the league and derives tables from it.
type Tracker struct {
	store    *Store
	cfg      projectconfig.LeagueConfig
	analyzer *bias.Analyzer
	now      func() time.Time
	data     *models.LeagueData
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// Open loads the league stored at path.
func Open(path string, cfg projectconfig.LeagueConfig, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		store:    NewStore(path),
		cfg:      cfg,
		analyzer: bias.NewAnalyzer(cfg),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	data, err := t.store.Load(t.now())
	if err != nil {
		return nil, err
	}
	t.data = data
	return t, nil
}

// Data returns a copy of the current league.
func (t *Tracker) Data() *models.LeagueData {
	return t.data.Clone()
}

// Analyzer returns the bias analyzer configured for this league.
func (t *Tracker) Analyzer() *bias.Analyzer {
	return t.analyzer
}

// FairnessReport builds the bias report for the current league.
func (t *Tracker) FairnessReport() *bias.Report {
	return t.analyzer.Report(t.data)
}

// commit saves staged and, only on success, makes it the current league.
func (t *Tracker) commit(staged *models.LeagueData) error {
	staged.LastUpdated = t.now()
	if err := t.store.Save(staged); err != nil {
		return err
	}
	t.data = staged
	return nil
}

// Round is one completed round as seen by the league.
type Round struct {
	ID     string
	Genre  string
	Result *models.VotingResult
}

// RecordRound applies a round to the standings and persists it. Degraded
// rounds are added to history without touching standings. On error the
// league is unchanged.
func (t *Tracker) RecordRound(r Round) error {
	if r.Result == nil || len(r.Result.Ranking) == 0 {
		return fmt.Errorf("%w: no ranked candidates", ErrInvalidRound)
	}

	staged := t.data.Clone()
	now := t.now()

	if !r.Result.Degraded {
		t.applyProducers(staged, r, now)
		t.applyEvaluators(staged, r, now)
	}
	staged.History = append(staged.History, historyEntry(staged.Season, r, now))

	if err := t.commit(staged); err != nil {
		return fmt.Errorf("recording round %s: %w", r.ID, err)
	}
	slog.Info("League updated", "round", r.ID, "winner", r.Result.Winner, "degraded", r.Result.Degraded)
	return nil
}

func (t *Tracker) applyProducers(d *models.LeagueData, r Round, now time.Time) {
	res := r.Result
	supporters := map[string][]string{}
	for _, v := range res.IndividualVotes {
		supporters[v.VoteForTeam] = append(supporters[v.VoteForTeam], v.AgentName)
	}

	for rank, name := range res.Ranking {
		team := d.Teams[name]
		if team == nil {
			team = &models.TeamEntry{Name: name, JoinedDate: now}
			d.Teams[name] = team
		}

		team.Played++
		own := res.Tally[name]
		team.VotesFor += own
		team.VotesAgainst += res.TotalVotes - own

		switch rank {
		case 0:
			team.Won++
			team.Points += t.cfg.PointsForWin
			team.Form = team.Form.Push(models.FormWin, t.cfg.FormWindow)
		case 1:
			team.Second++
			team.Points += t.cfg.PointsForSecond
			team.Form = team.Form.Push(models.FormSecond, t.cfg.FormWindow)
		default:
			team.Form = team.Form.Push(models.FormLoss, t.cfg.FormWindow)
		}

		voters := append([]string{}, supporters[name]...)
		sort.Strings(voters)
		team.VoteSources = append(team.VoteSources, models.VoteSource{RoundID: r.ID, Voters: voters})
		team.RecordGenre(r.Genre, rank == 0)
	}
}

func (t *Tracker) applyEvaluators(d *models.LeagueData, r Round, now time.Time) {
	res := r.Result
	runnerUp := res.RunnerUp()

	// A candidate holding more than half of the votes is the consensus pick,
	// whether or not it won the round.
	consensus := ""
	for name, count := range res.Tally {
		if count*2 > res.TotalVotes {
			consensus = name
		}
	}

	for _, v := range res.IndividualVotes {
		voter := d.Voters[v.AgentName]
		if voter == nil {
			voter = &models.VoterEntry{Name: v.AgentName, JoinedDate: now}
			d.Voters[v.AgentName] = voter
		}

		voter.VotesCast++
		voter.TeamPreferences.RecordOrInit(v.VoteForTeam, 1)

		switch {
		case v.VoteForTeam == res.Winner:
			voter.CorrectVotes++
			voter.Points += t.cfg.PointsForWin
			voter.Form = voter.Form.Push(models.FormCorrect, t.cfg.FormWindow)
		case runnerUp != "" && v.VoteForTeam == runnerUp:
			voter.NearVotes++
			voter.Points += t.cfg.PointsForSecond
			voter.Form = voter.Form.Push(models.FormNear, t.cfg.FormWindow)
		default:
			voter.Form = voter.Form.Push(models.FormWrong, t.cfg.FormWindow)
		}

		if consensus != "" && v.VoteForTeam == consensus {
			voter.ConsensusVotes++
			voter.Points += t.cfg.ConsensusBonus
		}
		voter.AccuracyRate = metrics.Round(metrics.Percent(voter.CorrectVotes, voter.VotesCast), 1)
	}
}

func historyEntry(season int, r Round, now time.Time) models.HistoryEntry {
	votes := make(map[string]string, len(r.Result.IndividualVotes))
	for _, v := range r.Result.IndividualVotes {
		votes[v.AgentName] = v.VoteForTeam
	}
	tally := make(map[string]int, len(r.Result.Tally))
	for k, v := range r.Result.Tally {
		tally[k] = v
	}
	return models.HistoryEntry{
		RoundID:   r.ID,
		Timestamp: now,
		Season:    season,
		Genre:     r.Genre,
		Winner:    r.Result.Winner,
		Tally:     tally,
		Ranking:   append([]string(nil), r.Result.Ranking...),
		Votes:     votes,
		Degraded:  r.Result.Degraded,
	}
}

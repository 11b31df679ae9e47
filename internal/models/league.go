package models

import "time"

// LeagueData is the persisted league store.
type LeagueData struct {
	Teams       map[string]*TeamEntry  `json:"teams"`
	Voters      map[string]*VoterEntry `json:"voters"`
	History     []HistoryEntry         `json:"history"`
	Season      int                    `json:"season"`
	LastUpdated time.Time              `json:"last_updated"`
}

// NewLeagueData returns an empty store for season 1.
func NewLeagueData(now time.Time) *LeagueData {
	return &LeagueData{
		Teams:       map[string]*TeamEntry{},
		Voters:      map[string]*VoterEntry{},
		History:     []HistoryEntry{},
		Season:      1,
		LastUpdated: now,
	}
}

// Clone returns a deep copy so updates can be staged without touching d.
func (d *LeagueData) Clone() *LeagueData {
	out := &LeagueData{
		Teams:       make(map[string]*TeamEntry, len(d.Teams)),
		Voters:      make(map[string]*VoterEntry, len(d.Voters)),
		History:     make([]HistoryEntry, len(d.History)),
		Season:      d.Season,
		LastUpdated: d.LastUpdated,
	}
	for name, t := range d.Teams {
		out.Teams[name] = t.Clone()
	}
	for name, v := range d.Voters {
		out.Voters[name] = v.Clone()
	}
	for i, h := range d.History {
		out.History[i] = h.Clone()
	}
	return out
}

// VoteSource lists the evaluators who voted for a team in one round.
type VoteSource struct {
	RoundID string   `json:"plot_id"`
	Voters  []string `json:"voters"`
}

// GenreRecord counts a team's participations and wins in one genre.
type GenreRecord struct {
	Participations int `json:"participations"`
	Wins           int `json:"wins"`
}

// TeamEntry holds a producer's cumulative standings.
type TeamEntry struct {
	Name             string                 `json:"name"`
	Played           int                    `json:"played"`
	Won              int                    `json:"won"`
	Second           int                    `json:"second"`
	Points           int                    `json:"points"`
	VotesFor         int                    `json:"votes_for"`
	VotesAgainst     int                    `json:"votes_against"`
	Form             Form                   `json:"form"`
	VoteSources      []VoteSource           `json:"vote_sources"`
	GenrePerformance map[string]GenreRecord `json:"genre_performance"`
	LastPosition     int                    `json:"last_position"`
	JoinedDate       time.Time              `json:"joined_date"`
}

// RecordGenre counts one participation in genre, and a win when won is set.
func (t *TeamEntry) RecordGenre(genre string, won bool) {
	if t.GenrePerformance == nil {
		t.GenrePerformance = map[string]GenreRecord{}
	}
	rec := t.GenrePerformance[genre]
	rec.Participations++
	if won {
		rec.Wins++
	}
	t.GenrePerformance[genre] = rec
}

// Clone returns a deep copy.
func (t *TeamEntry) Clone() *TeamEntry {
	out := *t
	out.Form = append(Form(nil), t.Form...)
	out.VoteSources = make([]VoteSource, len(t.VoteSources))
	for i, vs := range t.VoteSources {
		out.VoteSources[i] = VoteSource{RoundID: vs.RoundID, Voters: append([]string(nil), vs.Voters...)}
	}
	out.GenrePerformance = make(map[string]GenreRecord, len(t.GenrePerformance))
	for g, rec := range t.GenrePerformance {
		out.GenrePerformance[g] = rec
	}
	return &out
}

// VoterEntry holds an evaluator's cumulative standings.
type VoterEntry struct {
	Name            string    `json:"name"`
	VotesCast       int       `json:"votes_cast"`
	CorrectVotes    int       `json:"correct_votes"`
	NearVotes       int       `json:"near_votes"`
	Points          int       `json:"points"`
	AccuracyRate    float64   `json:"accuracy_rate"`
	ConsensusVotes  int       `json:"consensus_votes"`
	Form            Form      `json:"form"`
	TeamPreferences Counter   `json:"team_preferences"`
	LastPosition    int       `json:"last_position"`
	JoinedDate      time.Time `json:"joined_date"`
}

// Clone returns a deep copy.
func (v *VoterEntry) Clone() *VoterEntry {
	out := *v
	out.Form = append(Form(nil), v.Form...)
	out.TeamPreferences = v.TeamPreferences.Clone()
	return &out
}

// HistoryEntry records one completed round.
type HistoryEntry struct {
	RoundID   string            `json:"round_id"`
	Timestamp time.Time         `json:"timestamp"`
	Season    int               `json:"season"`
	Genre     string            `json:"genre"`
	Winner    string            `json:"winner"`
	Tally     map[string]int    `json:"tally"`
	Ranking   []string          `json:"ranking"`
	Votes     map[string]string `json:"votes"`
	Degraded  bool              `json:"degraded,omitempty"`
}

// Clone returns a deep copy.
func (h HistoryEntry) Clone() HistoryEntry {
	out := h
	out.Tally = make(map[string]int, len(h.Tally))
	for k, v := range h.Tally {
		out.Tally[k] = v
	}
	out.Ranking = append([]string(nil), h.Ranking...)
	out.Votes = make(map[string]string, len(h.Votes))
	for k, v := range h.Votes {
		out.Votes[k] = v
	}
	return out
}

// PositionChange compares a table position with the previous one.
type PositionChange string

const (
	PositionNew  PositionChange = "new"
	PositionUp   PositionChange = "up"
	PositionDown PositionChange = "down"
	PositionSame PositionChange = "same"
)

// SlotStatus marks whether an entity holds an active slot.
type SlotStatus string

const (
	SlotActive SlotStatus = "active"
	SlotBench  SlotStatus = "bench"
)

// TeamRow is a derived producer league table row.
type TeamRow struct {
	Position       int            `json:"position"`
	Name           string         `json:"name"`
	Played         int            `json:"played"`
	Won            int            `json:"won"`
	Second         int            `json:"second"`
	Points         int            `json:"points"`
	VotesFor       int            `json:"votes_for"`
	VotesAgainst   int            `json:"votes_against"`
	VoteDifference int            `json:"vote_difference"`
	WinRate        float64        `json:"win_rate"`
	Form           string         `json:"form"`
	BiasScore      float64        `json:"bias_score"`
	LastPosition   int            `json:"last_position"`
	PositionChange PositionChange `json:"position_change"`
	Status         SlotStatus     `json:"status"`
}

// VoterRow is a derived evaluator league table row.
type VoterRow struct {
	Position       int            `json:"position"`
	Name           string         `json:"name"`
	VotesCast      int            `json:"votes_cast"`
	CorrectVotes   int            `json:"correct_votes"`
	Points         int            `json:"points"`
	AccuracyRate   float64        `json:"accuracy_rate"`
	InfluenceScore float64        `json:"influence_score"`
	ConsensusVotes int            `json:"consensus_votes"`
	Form           string         `json:"form"`
	BiasScore      float64        `json:"bias_score"`
	LastPosition   int            `json:"last_position"`
	PositionChange PositionChange `json:"position_change"`
	Status         SlotStatus     `json:"status"`
}

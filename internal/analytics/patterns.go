package analytics

import (
	"sort"

	"github.com/spboyer/forge/internal/models"
)

// Voter tendency thresholds. Both need at least minTendencyVotes votes.
const (
	contrarianBelow  = 30.0
	consensusAbove   = 70.0
	minTendencyVotes = 5
	plotPreviewRunes = 50
)

// Bloc is a pair of voters who picked the same team in one or more rounds.
type Bloc struct {
	Voters [2]string      `json:"voters"`
	Rounds int            `json:"rounds"`
	Teams  models.Counter `json:"teams"`
}

// Rivalry counts the rounds in which Winner received more votes than Loser.
type Rivalry struct {
	Winner string `json:"winner"`
	Loser  string `json:"loser"`
	Rounds int    `json:"rounds"`
}

// Tendency flags a voter that almost always or almost never sides with the
// eventual winner.
type Tendency struct {
	Name      string  `json:"name"`
	Accuracy  float64 `json:"accuracy"`
	VotesCast int     `json:"votes_cast"`
}

// Patterns describe how voters behave relative to each other.
type Patterns struct {
	Blocs            []Bloc                    `json:"voting_blocs"`
	Rivalries        []Rivalry                 `json:"team_rivalries"`
	GenrePreferences map[string]models.Counter `json:"genre_preferences"`
	Contrarians      []Tendency                `json:"contrarian_voters"`
	ConsensusVoters  []Tendency                `json:"consensus_voters"`
}

// Patterns finds voting blocs, team rivalries, per-voter genre exposure and
// contrarian/consensus voters.
func (a *Analyzer) Patterns() Patterns {
	blocs := map[[2]string]*Bloc{}
	rivalries := map[[2]string]int{}
	genres := map[string]models.Counter{}

	for _, run := range a.runs {
		result := run.VotingResults

		groups := map[string][]string{}
		for _, v := range result.IndividualVotes {
			groups[v.VoteForTeam] = append(groups[v.VoteForTeam], v.AgentName)

			c := genres[v.AgentName]
			c.RecordOrInit(run.Genre, 1)
			genres[v.AgentName] = c
		}

		for team, voters := range groups {
			sort.Strings(voters)
			for i := 0; i < len(voters); i++ {
				for j := i + 1; j < len(voters); j++ {
					key := [2]string{voters[i], voters[j]}
					b, ok := blocs[key]
					if !ok {
						b = &Bloc{Voters: key}
						blocs[key] = b
					}
					b.Rounds++
					b.Teams.RecordOrInit(team, 1)
				}
			}
		}

		teams := make([]string, 0, len(result.Tally))
		for name := range result.Tally {
			teams = append(teams, name)
		}
		sort.Strings(teams)
		for i := 0; i < len(teams); i++ {
			for j := i + 1; j < len(teams); j++ {
				ti, tj := result.Tally[teams[i]], result.Tally[teams[j]]
				switch {
				case ti > tj:
					rivalries[[2]string{teams[i], teams[j]}]++
				case tj > ti:
					rivalries[[2]string{teams[j], teams[i]}]++
				}
			}
		}
	}

	p := Patterns{
		Blocs:            make([]Bloc, 0, len(blocs)),
		Rivalries:        make([]Rivalry, 0, len(rivalries)),
		GenrePreferences: genres,
		Contrarians:      []Tendency{},
		ConsensusVoters:  []Tendency{},
	}

	for _, b := range blocs {
		p.Blocs = append(p.Blocs, *b)
	}
	sort.Slice(p.Blocs, func(i, j int) bool {
		if p.Blocs[i].Rounds != p.Blocs[j].Rounds {
			return p.Blocs[i].Rounds > p.Blocs[j].Rounds
		}
		if p.Blocs[i].Voters[0] != p.Blocs[j].Voters[0] {
			return p.Blocs[i].Voters[0] < p.Blocs[j].Voters[0]
		}
		return p.Blocs[i].Voters[1] < p.Blocs[j].Voters[1]
	})

	for pair, n := range rivalries {
		p.Rivalries = append(p.Rivalries, Rivalry{Winner: pair[0], Loser: pair[1], Rounds: n})
	}
	sort.Slice(p.Rivalries, func(i, j int) bool {
		if p.Rivalries[i].Rounds != p.Rivalries[j].Rounds {
			return p.Rivalries[i].Rounds > p.Rivalries[j].Rounds
		}
		if p.Rivalries[i].Winner != p.Rivalries[j].Winner {
			return p.Rivalries[i].Winner < p.Rivalries[j].Winner
		}
		return p.Rivalries[i].Loser < p.Rivalries[j].Loser
	})

	for _, s := range a.VoterStats() {
		if s.VotesCast < minTendencyVotes {
			continue
		}
		t := Tendency{Name: s.Name, Accuracy: s.AccuracyRate, VotesCast: s.VotesCast}
		switch {
		case s.AccuracyRate < contrarianBelow:
			p.Contrarians = append(p.Contrarians, t)
		case s.AccuracyRate > consensusAbove:
			p.ConsensusVoters = append(p.ConsensusVoters, t)
		}
	}

	return p
}

// HeadToHeadRound is one round in which both teams competed.
type HeadToHeadRound struct {
	RunID      string `json:"run_id"`
	Plot       string `json:"plot"`
	Genre      string `json:"genre"`
	Team1Votes int    `json:"team1_votes"`
	Team2Votes int    `json:"team2_votes"`
	Winner     string `json:"winner"`
}

// HeadToHeadGenre breaks encounters down by genre.
type HeadToHeadGenre struct {
	Encounters int `json:"encounters"`
	Team1Wins  int `json:"team1_wins"`
	Team2Wins  int `json:"team2_wins"`
}

// HeadToHead compares two teams over the rounds they both entered.
type HeadToHead struct {
	Team1      string                     `json:"team1"`
	Team2      string                     `json:"team2"`
	Encounters int                        `json:"total_encounters"`
	Team1Wins  int                        `json:"team1_wins"`
	Team2Wins  int                        `json:"team2_wins"`
	Rounds     []HeadToHeadRound          `json:"vote_comparison"`
	Genres     map[string]HeadToHeadGenre `json:"genre_breakdown"`
}

// HeadToHead compares team1 and team2. A round counts as a win only for the
// team that won it outright; a third team winning counts for neither.
func (a *Analyzer) HeadToHead(team1, team2 string) HeadToHead {
	h := HeadToHead{
		Team1:  team1,
		Team2:  team2,
		Rounds: []HeadToHeadRound{},
		Genres: map[string]HeadToHeadGenre{},
	}

	for _, run := range a.runs {
		_, in1 := run.AllExpandedPlots[team1]
		_, in2 := run.AllExpandedPlots[team2]
		if !in1 || !in2 {
			continue
		}

		result := run.VotingResults
		h.Encounters++
		h.Rounds = append(h.Rounds, HeadToHeadRound{
			RunID:      run.RunID,
			Plot:       preview(run.OriginalPlot),
			Genre:      run.Genre,
			Team1Votes: result.Tally[team1],
			Team2Votes: result.Tally[team2],
			Winner:     result.Winner,
		})

		g := h.Genres[run.Genre]
		g.Encounters++
		switch {
		case won(run, team1):
			h.Team1Wins++
			g.Team1Wins++
		case won(run, team2):
			h.Team2Wins++
			g.Team2Wins++
		}
		h.Genres[run.Genre] = g
	}

	return h
}

func preview(plot string) string {
	r := []rune(plot)
	if len(r) <= plotPreviewRunes {
		return plot
	}
	return string(r[:plotPreviewRunes]) + "..."
}

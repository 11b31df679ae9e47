package reporting

import (
	"sort"
	"strings"

	"github.com/spboyer/forge/internal/analytics"
	"github.com/spboyer/forge/internal/models"
	"github.com/spboyer/forge/internal/statistics"
)

// topN limits the bloc and rivalry lists.
const topN = 10

// Analytics renders the full analytics report.
func Analytics(a *analytics.Analyzer, f Format) (string, error) {
	d := newDocument(f)
	d.heading(1, "Analytics")

	o := a.Overall()
	d.field("Rounds", number(o.Rounds))
	d.field("Degraded", number(o.DegradedRounds))
	d.field("Avg time", decimal(o.AvgProcessingTime, 1)+"s")
	d.field("Complexity", decimal(o.AvgComplexity, 1))
	d.field("Vote spread", decimal(o.VoteShareStdDev, 1))
	d.field("Genres", counterLine(o.Genres))
	d.field("Models", counterLine(o.ModelsUsed))

	if o.Rounds == 0 {
		return d.render()
	}

	d.heading(2, "Teams")
	teams := a.TeamStats()
	rows := make([][]string, len(teams))
	for i, t := range teams {
		rows[i] = []string{
			t.Name,
			number(t.Participations),
			number(t.Wins),
			decimal(t.WinRate, 1) + "%",
			interval(t.WinRateCI),
			decimal(t.AvgVotes, 2),
			decimal(t.AvgComplexity, 1),
			bestGenre(t.Genres),
		}
	}
	d.table([]string{"Team", "Rounds", "Wins", "Win%", "95% CI", "Votes/round", "Complexity", "Best genre"}, rows)

	d.heading(2, "Voters")
	voters := a.VoterStats()
	rows = make([][]string, len(voters))
	for i, v := range voters {
		rows[i] = []string{
			v.Name,
			number(v.VotesCast),
			number(v.Correct),
			decimal(v.AccuracyRate, 1) + "%",
			interval(v.AccuracyCI),
			orDash(v.Favorite),
		}
	}
	d.table([]string{"Voter", "Votes", "Correct", "Acc%", "95% CI", "Favorite"}, rows)

	p := a.Patterns()
	if len(p.Blocs) > 0 {
		d.heading(2, "Voting blocs")
		rows = rows[:0]
		for _, b := range p.Blocs[:min(topN, len(p.Blocs))] {
			rows = append(rows, []string{b.Voters[0] + " & " + b.Voters[1], number(b.Rounds), counterLine(b.Teams)})
		}
		d.table([]string{"Voters", "Rounds together", "Teams"}, rows)
	}

	if len(p.Rivalries) > 0 {
		d.heading(2, "Rivalries")
		rows = rows[:0]
		for _, r := range p.Rivalries[:min(topN, len(p.Rivalries))] {
			rows = append(rows, []string{r.Winner, r.Loser, number(r.Rounds)})
		}
		d.table([]string{"Out-polled", "Over", "Rounds"}, rows)
	}

	tendencies := func(title string, list []analytics.Tendency) {
		if len(list) == 0 {
			return
		}
		d.heading(2, title)
		items := make([]string, len(list))
		for i, t := range list {
			items[i] = printer.Sprintf("%s: %.1f%% over %d votes", t.Name, t.Accuracy, t.VotesCast)
		}
		d.bullets(items)
	}
	tendencies("Consensus voters", p.ConsensusVoters)
	tendencies("Contrarian voters", p.Contrarians)

	return d.render()
}

// HeadToHead renders a comparison of two teams.
func HeadToHead(h analytics.HeadToHead, f Format) (string, error) {
	d := newDocument(f)
	d.heading(1, h.Team1+" vs "+h.Team2)
	d.field("Encounters", number(h.Encounters))
	d.field(h.Team1, number(h.Team1Wins)+" wins")
	d.field(h.Team2, number(h.Team2Wins)+" wins")

	if h.Encounters == 0 {
		return d.render()
	}

	d.heading(2, "Rounds")
	rows := make([][]string, len(h.Rounds))
	for i, r := range h.Rounds {
		rows[i] = []string{r.Genre, number(r.Team1Votes), number(r.Team2Votes), r.Winner, r.Plot}
	}
	d.table([]string{"Genre", h.Team1, h.Team2, "Winner", "Seed"}, rows)

	d.heading(2, "By genre")
	genres := make([]string, 0, len(h.Genres))
	for g := range h.Genres {
		genres = append(genres, g)
	}
	sort.Strings(genres)
	rows = rows[:0]
	for _, g := range genres {
		r := h.Genres[g]
		rows = append(rows, []string{g, number(r.Encounters), number(r.Team1Wins), number(r.Team2Wins)})
	}
	d.table([]string{"Genre", "Encounters", h.Team1, h.Team2}, rows)

	return d.render()
}

// Timeline renders the chronological list of rounds.
func Timeline(entries []analytics.TimelineEntry, f Format) (string, error) {
	d := newDocument(f)
	d.heading(1, "Timeline")

	rows := make([][]string, len(entries))
	for i, e := range entries {
		winner := e.Winner
		if e.Degraded {
			winner += " (degraded)"
		}
		rows[i] = []string{
			e.Timestamp.Format("2006-01-02 15:04"),
			e.Genre,
			winner,
			number(e.TotalVotes),
			decimal(e.ProcessingTime, 1) + "s",
		}
	}
	d.table([]string{"When", "Genre", "Winner", "Votes", "Time"}, rows)
	return d.render()
}

// counterLine renders a counter as "a (3), b (1)", largest first.
func counterLine(c models.Counter) string {
	if len(c) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if c[keys[i]] != c[keys[j]] {
			return c[keys[i]] > c[keys[j]]
		}
		return keys[i] < keys[j]
	})
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = printer.Sprintf("%s (%d)", k, c[k])
	}
	return strings.Join(parts, ", ")
}

// interval renders a percent confidence interval as "lo-hi".
func interval(iv statistics.Interval) string {
	return decimal(iv.Lower, 0) + "-" + decimal(iv.Upper, 0)
}

// bestGenre is the genre with most wins, then most participations.
func bestGenre(genres map[string]models.GenreRecord) string {
	best := ""
	var rec models.GenreRecord
	for g, r := range genres {
		switch {
		case best == "",
			r.Wins > rec.Wins,
			r.Wins == rec.Wins && r.Participations > rec.Participations,
			r.Wins == rec.Wins && r.Participations == rec.Participations && g < best:
			best, rec = g, r
		}
	}
	return orDash(best)
}

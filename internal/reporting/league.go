package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/spboyer/forge/internal/bias"
	"github.com/spboyer/forge/internal/league"
	"github.com/spboyer/forge/internal/models"
)

var changeMarks = map[models.PositionChange]string{
	models.PositionNew:  "NEW",
	models.PositionUp:   "▲",
	models.PositionDown: "▼",
	models.PositionSame: "=",
}

// TeamTable renders the producer league table.
func TeamTable(rows []models.TeamRow, f Format) (string, error) {
	d := newDocument(f)
	d.heading(1, "Team League")

	if len(rows) == 0 {
		d.line("No team has played enough rounds yet.")
		return d.render()
	}

	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = []string{
			number(r.Position),
			changeMarks[r.PositionChange],
			r.Name,
			number(r.Played),
			number(r.Won),
			number(r.Second),
			signed(r.VoteDifference),
			number(r.Points),
			decimal(r.WinRate, 1) + "%",
			orDash(r.Form),
			decimal(r.BiasScore, 3),
			string(r.Status),
		}
	}
	d.table([]string{"Pos", "", "Team", "P", "W", "2nd", "VD", "Pts", "Win%", "Form", "Bias", "Status"}, cells)
	return d.render()
}

// VoterTable renders the evaluator league table.
func VoterTable(rows []models.VoterRow, f Format) (string, error) {
	d := newDocument(f)
	d.heading(1, "Voter League")

	if len(rows) == 0 {
		d.line("No voter has cast enough votes yet.")
		return d.render()
	}

	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = []string{
			number(r.Position),
			changeMarks[r.PositionChange],
			r.Name,
			number(r.VotesCast),
			number(r.CorrectVotes),
			number(r.Points),
			decimal(r.AccuracyRate, 1) + "%",
			decimal(r.InfluenceScore, 1) + "%",
			orDash(r.Form),
			decimal(r.BiasScore, 3),
			string(r.Status),
		}
	}
	d.table([]string{"Pos", "", "Voter", "Votes", "Correct", "Pts", "Acc%", "Infl%", "Form", "Bias", "Status"}, cells)
	return d.render()
}

// Fairness renders a bias report.
func Fairness(r *bias.Report, f Format) (string, error) {
	d := newDocument(f)
	d.heading(1, "Fairness Report")
	d.field("Fairness", fmt.Sprintf("%s/100 (%s)", decimal(r.OverallFairness, 1), InterpretFairness(r.OverallFairness)))

	biased := func(title string, entities []bias.EntityBias) {
		if len(entities) == 0 {
			return
		}
		d.heading(2, title)
		rows := make([][]string, len(entities))
		for i, e := range entities {
			rows[i] = []string{e.Name, decimal(e.Score, 3)}
		}
		d.table([]string{"Name", "Bias"}, rows)
	}
	biased("Biased teams", r.BiasedTeams)
	biased("Biased voters", r.BiasedVoters)

	if len(r.Coalitions) > 0 {
		d.heading(2, "Voting coalitions")
		rows := make([][]string, len(r.Coalitions))
		for i, c := range r.Coalitions {
			rows[i] = []string{strings.Join(c.Members, " & "), number(c.SharedRounds), decimal(c.Agreement*100, 0) + "%"}
		}
		d.table([]string{"Members", "Shared rounds", "Agreement"}, rows)
	}

	d.heading(2, "Recommendations")
	d.bullets(r.Recommendations)
	return d.render()
}

// LeagueStats renders the store summary shown by `forge league stats`.
func LeagueStats(s league.Stats, f Format) (string, error) {
	d := newDocument(f)
	d.heading(1, "League Statistics")
	d.field("Season", number(s.Season))
	d.field("Teams", number(s.Teams))
	d.field("Voters", number(s.Voters))
	d.field("Matches", number(s.Matches))
	d.field("File size", decimal(s.FileSizeKB, 1)+" KB")
	updated := "never"
	if !s.LastUpdated.IsZero() {
		updated = s.LastUpdated.Format(time.RFC3339)
	}
	d.field("Updated", updated)
	return d.render()
}

// InterpretFairness returns a plain-language label for a 0-100 fairness score.
func InterpretFairness(score float64) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Concerning"
	default:
		return "Poor"
	}
}

func signed(n int) string {
	if n > 0 {
		return "+" + number(n)
	}
	return number(n)
}

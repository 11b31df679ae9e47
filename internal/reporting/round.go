package reporting

import (
	"sort"
	"strings"

	"github.com/spboyer/forge/internal/models"
)

// Round renders the outcome of a single round from its artifact.
func Round(a *models.RunArtifact, f Format) (string, error) {
	d := newDocument(f)
	result := a.VotingResults

	d.heading(1, "Round "+a.RunID)
	d.field("Genre", a.Genre)
	d.field("Seed", a.OriginalPlot)
	d.field("Strategy", orDash(result.Strategy))
	d.field("Duration", decimal(a.ProcessingTime, 1)+"s")
	if result.Degraded {
		d.field("Degraded", result.DegradedReason)
	}

	d.heading(2, "Winner")
	if w := a.SelectedExpansion; w != nil {
		d.line("%s by %s (%s)", d.strong(orDash(w.Title)), result.Winner, orDash(w.ModelUsed))
		if w.Logline != "" {
			d.line("%s", w.Logline)
		}
		if len(w.Themes) > 0 {
			d.field("Themes", strings.Join(w.Themes, ", "))
		}
		d.field("Complexity", number(w.EstimatedComplexity))
	} else {
		d.line("%s", result.Winner)
	}

	d.heading(2, "Votes")
	rows := make([][]string, 0, len(result.Ranking))
	for i, name := range result.Ranking {
		avg := "-"
		if s, ok := result.Summary.TeamAvgScores[name]; ok {
			avg = decimal(s.TotalAvg, 1)
		}
		rows = append(rows, []string{number(i + 1), name, number(result.Tally[name]), avg})
	}
	d.table([]string{"#", "Team", "Votes", "Avg score"}, rows)

	if len(result.IndividualVotes) > 0 {
		d.heading(2, "Ballots")
		votes := append([]models.Vote(nil), result.IndividualVotes...)
		sort.Slice(votes, func(i, j int) bool { return votes[i].AgentName < votes[j].AgentName })

		rows = rows[:0]
		for _, v := range votes {
			rows = append(rows, []string{
				v.AgentName,
				orDash(v.ModelUsed),
				v.VoteForTeam,
				number(v.TotalScore()),
				orDash(result.Summary.VoteReasons[v.AgentName]),
			})
		}
		d.table([]string{"Voter", "Model", "Voted for", "Score", "Reason"}, rows)
	}

	p := result.Summary.Patterns
	if len(p.Divisive) > 0 || len(p.Unanimous) > 0 {
		d.heading(2, "Criteria")
		d.field("Divisive", orDash(strings.Join(p.Divisive, ", ")))
		d.field("Unanimous", orDash(strings.Join(p.Unanimous, ", ")))
	}

	if len(result.Discarded) > 0 {
		d.heading(2, "Discarded votes")
		items := make([]string, len(result.Discarded))
		for i, dv := range result.Discarded {
			items[i] = dv.AgentName + ": " + dv.Reason
		}
		d.bullets(items)
	}

	if len(a.DroppedAgents) > 0 {
		d.heading(2, "Dropped agents")
		rows = rows[:0]
		for _, fail := range a.DroppedAgents {
			rows = append(rows, []string{fail.Agent, string(fail.Role), number(fail.Attempts), fail.Error})
		}
		d.table([]string{"Agent", "Role", "Attempts", "Error"}, rows)
	}

	return d.render()
}

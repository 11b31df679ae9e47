package league

import (
	"fmt"
	"sort"

	"github.com/spboyer/forge/internal/metrics"
	"github.com/spboyer/forge/internal/models"
)

// TeamTable returns the producer table. Only teams that played at least
// min_participations rounds are listed. Each listed team's last_position is
// overwritten with its new position and saved, so the next table reports
// movement relative to this one.
func (t *Tracker) TeamTable() ([]models.TeamRow, error) {
	staged := t.data.Clone()

	rows := make([]models.TeamRow, 0, len(staged.Teams))
	for _, team := range staged.Teams {
		if team.Played < t.cfg.MinParticipations {
			continue
		}
		score, _ := t.analyzer.TeamScore(team)
		rows = append(rows, models.TeamRow{
			Name:           team.Name,
			Played:         team.Played,
			Won:            team.Won,
			Second:         team.Second,
			Points:         team.Points,
			VotesFor:       team.VotesFor,
			VotesAgainst:   team.VotesAgainst,
			VoteDifference: team.VotesFor - team.VotesAgainst,
			WinRate:        metrics.Round(metrics.Percent(team.Won, team.Played), 1),
			Form:           team.Form.String(),
			BiasScore:      score,
			LastPosition:   team.LastPosition,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.VoteDifference != b.VoteDifference {
			return a.VoteDifference > b.VoteDifference
		}
		return a.Name < b.Name
	})

	for i := range rows {
		rows[i].Position = i + 1
		rows[i].PositionChange = positionChange(rows[i].LastPosition, rows[i].Position)
		rows[i].Status = slotStatus(rows[i].Position, t.cfg.TeamSlots)
		staged.Teams[rows[i].Name].LastPosition = rows[i].Position
	}

	if err := t.commit(staged); err != nil {
		return nil, fmt.Errorf("saving team positions: %w", err)
	}
	return rows, nil
}

// VoterTable returns the evaluator table, with the same position bookkeeping
// as TeamTable.
func (t *Tracker) VoterTable() ([]models.VoterRow, error) {
	staged := t.data.Clone()

	rows := make([]models.VoterRow, 0, len(staged.Voters))
	for _, voter := range staged.Voters {
		if voter.VotesCast < t.cfg.MinParticipations {
			continue
		}
		score, _ := t.analyzer.VoterScore(voter)
		rows = append(rows, models.VoterRow{
			Name:           voter.Name,
			VotesCast:      voter.VotesCast,
			CorrectVotes:   voter.CorrectVotes,
			Points:         voter.Points,
			AccuracyRate:   voter.AccuracyRate,
			InfluenceScore: metrics.Round(metrics.Percent(voter.ConsensusVotes, voter.VotesCast), 1),
			ConsensusVotes: voter.ConsensusVotes,
			Form:           voter.Form.String(),
			BiasScore:      score,
			LastPosition:   voter.LastPosition,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.AccuracyRate != b.AccuracyRate {
			return a.AccuracyRate > b.AccuracyRate
		}
		return a.Name < b.Name
	})

	for i := range rows {
		rows[i].Position = i + 1
		rows[i].PositionChange = positionChange(rows[i].LastPosition, rows[i].Position)
		rows[i].Status = slotStatus(rows[i].Position, t.cfg.VoterSlots)
		staged.Voters[rows[i].Name].LastPosition = rows[i].Position
	}

	if err := t.commit(staged); err != nil {
		return nil, fmt.Errorf("saving voter positions: %w", err)
	}
	return rows, nil
}

func positionChange(last, current int) models.PositionChange {
	switch {
	case last == 0:
		return models.PositionNew
	case current < last:
		return models.PositionUp
	case current > last:
		return models.PositionDown
	default:
		return models.PositionSame
	}
}

func slotStatus(position, slots int) models.SlotStatus {
	if position <= slots {
		return models.SlotActive
	}
	return models.SlotBench
}

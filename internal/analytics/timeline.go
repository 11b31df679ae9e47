package analytics

import (
	"time"

	"github.com/spboyer/forge/internal/metrics"
	"github.com/spboyer/forge/internal/models"
)

// TimelineEntry is one round in chronological order.
type TimelineEntry struct {
	RunID          string         `json:"run_id"`
	Timestamp      time.Time      `json:"timestamp"`
	Genre          string         `json:"genre"`
	Winner         string         `json:"winner"`
	TotalVotes     int            `json:"total_votes"`
	ProcessingTime float64        `json:"processing_time"`
	Tally          map[string]int `json:"vote_distribution"`
	Degraded       bool           `json:"degraded,omitempty"`
}

// Timeline lists every round, oldest first.
func (a *Analyzer) Timeline() []TimelineEntry {
	out := make([]TimelineEntry, 0, len(a.runs))
	for _, run := range a.runs {
		out = append(out, TimelineEntry{
			RunID:          run.RunID,
			Timestamp:      run.Timestamp,
			Genre:          run.Genre,
			Winner:         run.VotingResults.Winner,
			TotalVotes:     run.VotingResults.TotalVotes,
			ProcessingTime: run.ProcessingTime,
			Tally:          run.VotingResults.Tally,
			Degraded:       run.VotingResults.Degraded,
		})
	}
	return out
}

// Overall holds system-wide statistics.
type Overall struct {
	Rounds            int            `json:"total_plots"`
	DegradedRounds    int            `json:"degraded_rounds"`
	Genres            models.Counter `json:"genres"`
	ModelsUsed        models.Counter `json:"models_used"`
	AvgProcessingTime float64        `json:"avg_processing_time"`
	AvgComplexity     float64        `json:"avg_complexity"`
	// VoteShareStdDev is the spread of per-candidate vote shares (percent)
	// across all voted rounds; higher means more lopsided rounds.
	VoteShareStdDev float64 `json:"vote_share_stddev"`
}

// Overall summarizes every round.
func (a *Analyzer) Overall() Overall {
	o := Overall{
		Rounds:     len(a.runs),
		Genres:     models.Counter{},
		ModelsUsed: models.Counter{},
	}

	var times, complexity, shares []float64
	for _, run := range a.runs {
		result := run.VotingResults

		o.Genres.RecordOrInit(run.Genre, 1)
		if result.Degraded {
			o.DegradedRounds++
		}
		times = append(times, run.ProcessingTime)

		if result.TotalVotes > 0 {
			for _, n := range result.Tally {
				shares = append(shares, metrics.Percent(n, result.TotalVotes))
			}
		}

		for _, c := range run.AllExpandedPlots {
			if c == nil {
				continue
			}
			complexity = append(complexity, float64(c.EstimatedComplexity))
			o.ModelsUsed.RecordOrInit(modelOrUnknown(c.ModelUsed), 1)
		}
		for _, v := range result.IndividualVotes {
			o.ModelsUsed.RecordOrInit(modelOrUnknown(v.ModelUsed), 1)
		}
	}

	o.AvgProcessingTime = metrics.Round(metrics.Mean(times), 2)
	o.AvgComplexity = metrics.Round(metrics.Mean(complexity), 2)
	o.VoteShareStdDev = metrics.Round(metrics.StdDev(shares), 2)
	return o
}

func modelOrUnknown(model string) string {
	if model == "" {
		return unknownModel
	}
	return model
}

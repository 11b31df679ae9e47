package models

// VotingResult aggregates every valid vote of a round.
//
// Invariants: the tally sums to TotalVotes, TotalVotes == len(IndividualVotes),
// Winner is a tally key and Ranking[0] == Winner.
type VotingResult struct {
	IndividualVotes []Vote          `json:"individual_votes"`
	Tally           map[string]int  `json:"vote_tally"`
	Winner          string          `json:"winning_team"`
	TotalVotes      int             `json:"total_votes"`
	Ranking         []string        `json:"ranking"`
	Summary         VotingSummary   `json:"voting_summary"`
	Discarded       []DiscardedVote `json:"discarded_votes,omitempty"`
	Strategy        string          `json:"strategy,omitempty"`
	Degraded        bool            `json:"degraded,omitempty"`
	DegradedReason  string          `json:"degraded_reason,omitempty"`
}

// RunnerUp returns the second ranked candidate, or "" when fewer than two
// candidates competed.
func (r *VotingResult) RunnerUp() string {
	if len(r.Ranking) < 2 {
		return ""
	}
	return r.Ranking[1]
}

// DiscardedVote is a vote that named a candidate outside the round.
type DiscardedVote struct {
	AgentName   string `json:"agent_name"`
	VoteForTeam string `json:"vote_for_team"`
	Reason      string `json:"reason"`
}

// TallyEntry is one row of the ordered vote distribution.
type TallyEntry struct {
	Candidate string `json:"team"`
	Votes     int    `json:"votes"`
}

// AgentVoteSummary is the per-evaluator view in a summary.
type AgentVoteSummary struct {
	VotedFor   string `json:"voted_for"`
	ModelUsed  string `json:"model_used"`
	TotalScore int    `json:"total_score"`
}

// CandidateScores holds per-criterion means for one candidate, computed from
// the votes cast for it.
type CandidateScores struct {
	Criteria map[string]float64 `json:"criteria"`
	TotalAvg float64            `json:"total_avg"`
}

// VotingPatterns describe agreement between evaluators.
type VotingPatterns struct {
	CriterionVariance map[string]float64        `json:"criterion_variance"`
	Unanimous         []string                  `json:"unanimous_criteria"`
	Divisive          []string                  `json:"most_divisive_criteria"`
	ModelPreferences  map[string]map[string]int `json:"model_preferences"`
}

// VotingSummary is derived from the votes and never affects the winner.
type VotingSummary struct {
	VoteDistribution []TallyEntry                `json:"vote_distribution"`
	AgentVotes       map[string]AgentVoteSummary `json:"agent_votes"`
	TeamAvgScores    map[string]CandidateScores  `json:"team_avg_scores"`
	Patterns         VotingPatterns              `json:"voting_patterns"`
	VoteReasons      map[string]string           `json:"vote_reasons"`
}

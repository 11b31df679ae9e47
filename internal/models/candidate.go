package models

// Character describes one of a candidate's main characters.
type Character struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
}

// StoryBeats are the five structural beats of an expanded plot.
type StoryBeats struct {
	Opening    string `json:"opening"`
	Catalyst   string `json:"catalyst"`
	Midpoint   string `json:"midpoint"`
	Crisis     string `json:"crisis"`
	Resolution string `json:"resolution"`
}

// Candidate is one producer's expanded plot for a round. Name is the producer
// (team) name and is unique within a round.
type Candidate struct {
	Name                string      `json:"team_name"`
	ModelUsed           string      `json:"model_used"`
	Title               string      `json:"title"`
	Logline             string      `json:"logline"`
	MainCharacters      []Character `json:"main_characters"`
	PlotSummary         string      `json:"plot_summary"`
	CentralConflict     string      `json:"central_conflict"`
	StoryBeats          StoryBeats  `json:"story_beats"`
	Ending              string      `json:"ending"`
	KeyElements         []string    `json:"key_elements"`
	PotentialArcs       []string    `json:"potential_arcs"`
	Themes              []string    `json:"themes"`
	EstimatedComplexity int         `json:"estimated_complexity"`
	UniqueHooks         []string    `json:"unique_hooks"`
}

// Vote is a single evaluator's choice for a round.
type Vote struct {
	AgentName      string         `json:"agent_name"`
	ModelUsed      string         `json:"model_used"`
	VoteForTeam    string         `json:"vote_for_team"`
	Reasoning      string         `json:"reasoning"`
	ScoreBreakdown map[string]int `json:"score_breakdown"`
}

// TotalScore sums every criterion score in the vote.
func (v Vote) TotalScore() int {
	total := 0
	for _, s := range v.ScoreBreakdown {
		total += s
	}
	return total
}

// RoundInput is the shared input every producer expands.
type RoundInput struct {
	Genre string `json:"genre"`
	Plot  string `json:"plot"`
}

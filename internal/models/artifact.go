package models

import "time"

// Role distinguishes producers from evaluators.
type Role string

const (
	RoleProducer  Role = "producer"
	RoleEvaluator Role = "evaluator"
)

// AgentFailure records an agent dropped from a round after retries and the
// synchronous fallback both failed.
type AgentFailure struct {
	Agent    string `json:"agent"`
	Role     Role   `json:"role"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error"`
}

// RunArtifact is the JSON document persisted for each completed round.
type RunArtifact struct {
	RunID             string                `json:"run_id"`
	OriginalPlot      string                `json:"original_plot"`
	Genre             string                `json:"genre"`
	AllExpandedPlots  map[string]*Candidate `json:"all_expanded_plots"`
	VotingResults     *VotingResult         `json:"voting_results"`
	SelectedExpansion *Candidate            `json:"selected_expansion"`
	DroppedAgents     []AgentFailure        `json:"dropped_agents,omitempty"`
	Timestamp         time.Time             `json:"timestamp"`
	ProcessingTime    float64               `json:"processing_time"`
}

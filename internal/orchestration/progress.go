package orchestration

import (
	"time"

	"github.com/spboyer/forge/internal/models"
)

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventRoundStart    EventType = "round_start"
	EventRoundComplete EventType = "round_complete"
	EventAgentStart    EventType = "agent_start"
	EventAgentComplete EventType = "agent_complete"
	EventAgentCached   EventType = "agent_cached"
	EventAgentRetry    EventType = "agent_retry"
	EventAgentFallback EventType = "agent_fallback"
	EventAgentFailed   EventType = "agent_failed"
	EventPhaseComplete EventType = "phase_complete"
	EventDegraded      EventType = "degraded"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType EventType
	RunID     string
	Agent     string
	Role      models.Role
	Attempt   int
	Duration  time.Duration
	Err       error
	Details   map[string]any
}

// OnProgress registers a progress listener
func (o *Orchestrator) OnProgress(listener ProgressListener) {
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	o.listeners = append(o.listeners, listener)
}

func (o *Orchestrator) notifyProgress(event ProgressEvent) {
	o.progressMu.Lock()
	listeners := make([]ProgressListener, len(o.listeners))
	copy(listeners, o.listeners)
	o.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

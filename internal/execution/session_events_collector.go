package execution

import (
	"strings"
	"sync"

	copilot "github.com/github/copilot-sdk/go"
)

const sessionFailedUnknown = "session failed with unknown error"

// SessionEventsCollector gathers the assistant's text for one completion.
type SessionEventsCollector struct {
	mu          sync.Mutex
	outputParts []string
	toolCalls   []string
	errorMsg    string
	done        chan struct{}
}

// NewSessionEventsCollector creates a new SessionEventsCollector.
func NewSessionEventsCollector() *SessionEventsCollector {
	return &SessionEventsCollector{
		done: make(chan struct{}),
	}
}

// Output returns the collected assistant text.
func (coll *SessionEventsCollector) Output() string {
	coll.mu.Lock()
	defer coll.mu.Unlock()
	return strings.Join(coll.outputParts, "")
}

// ToolCalls returns the names of tools the model started, in order.
func (coll *SessionEventsCollector) ToolCalls() []string {
	coll.mu.Lock()
	defer coll.mu.Unlock()
	return append([]string(nil), coll.toolCalls...)
}

// ErrorMessage returns the error message, if any.
func (coll *SessionEventsCollector) ErrorMessage() string {
	coll.mu.Lock()
	defer coll.mu.Unlock()
	return coll.errorMsg
}

// Done returns the channel that is closed when the session completes.
func (coll *SessionEventsCollector) Done() <-chan struct{} {
	return coll.done
}

// On is a callback, intended to be passed to [copilot.Session.On] to receive
// events in real-time.
func (coll *SessionEventsCollector) On(event copilot.SessionEvent) {
	coll.mu.Lock()
	defer coll.mu.Unlock()

	switch event.Type {
	case copilot.AssistantMessage, copilot.AssistantMessageDelta:
		if event.Data.Content != nil {
			coll.outputParts = append(coll.outputParts, *event.Data.Content)
		}

	case copilot.ToolExecutionStart:
		// report_intent is always followed by the real tool call
		if event.Data.ToolName != nil && *event.Data.ToolName != "report_intent" {
			coll.toolCalls = append(coll.toolCalls, *event.Data.ToolName)
		}

	// these are both termination events
	case copilot.SessionIdle, copilot.SessionError:
		if event.Type == copilot.SessionError {
			if event.Data.Message == nil || *event.Data.Message == "" {
				coll.errorMsg = sessionFailedUnknown
			} else {
				coll.errorMsg = *event.Data.Message
			}
		}

		select {
		case <-coll.done:
		default:
			close(coll.done)
		}
	}
}

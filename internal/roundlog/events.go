// Package roundlog records what happened during a round as newline-delimited
// JSON, one line per orchestrator event.
package roundlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Event is a single timestamped entry in a round log.
type Event struct {
	Timestamp  time.Time      `json:"timestamp"`
	Type       string         `json:"type"`
	RunID      string         `json:"run_id,omitempty"`
	Agent      string         `json:"agent,omitempty"`
	Role       string         `json:"role,omitempty"`
	Attempt    int            `json:"attempt,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	Error      string         `json:"error,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(eventType, runID string, data map[string]any) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		RunID:     runID,
		Data:      data,
	}
}

// Read loads every event of a log file. Blank lines are skipped; a line that
// is not valid JSON is an error naming its line number.
func Read(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening round log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("round log %s line %d: %w", path, line, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading round log: %w", err)
	}
	return events, nil
}

package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"slices"
	"sync"
	"time"

	"github.com/spboyer/forge/internal/models"
)

// ConnectionError is the transient failure MockEngine raises for agents
// scripted with FailTimes. Its type name is in the default retry list.
type ConnectionError struct {
	Agent string
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection reset while calling %s", e.Agent)
}

// MockEngine answers without any model. Unscripted answers are derived from a
// hash of the agent name and prompt, so a run is repeatable.
type MockEngine struct {
	modelID string

	mu          sync.Mutex
	replies     map[string][]string
	failures    map[string]int
	unavailable map[string]bool
	calls       map[string]int
}

// NewMockEngine creates a new mock engine
func NewMockEngine(modelID string) *MockEngine {
	return &MockEngine{
		modelID:     modelID,
		replies:     map[string][]string{},
		failures:    map[string]int{},
		unavailable: map[string]bool{},
		calls:       map[string]int{},
	}
}

// Script queues literal replies for agent. They are used in order, after
// which answers are synthesized again.
func (m *MockEngine) Script(agent string, replies ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[agent] = append(m.replies[agent], replies...)
}

// FailTimes makes the next n calls for agent fail with a *ConnectionError.
func (m *MockEngine) FailTimes(agent string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[agent] = n
}

// MarkUnavailable makes Probe fail for the given models.
func (m *MockEngine) MarkUnavailable(modelIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range modelIDs {
		m.unavailable[id] = true
	}
}

// Calls returns how many times agent called Complete.
func (m *MockEngine) Calls(agent string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[agent]
}

func (m *MockEngine) Initialize(ctx context.Context) error {
	return nil
}

func (m *MockEngine) Probe(ctx context.Context, modelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable[modelID] {
		return fmt.Errorf("model %s is not available", modelID)
	}
	return nil
}

func (m *MockEngine) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	modelID := req.ModelID
	if modelID == "" {
		modelID = m.modelID
	}

	text, err := m.next(req)
	if err != nil {
		return nil, err
	}

	return &CompletionResponse{
		Text:      text,
		ModelID:   modelID,
		SessionID: fmt.Sprintf("mock-%s-%d", req.AgentName, m.Calls(req.AgentName)),
		Duration:  time.Since(start),
	}, nil
}

func (m *MockEngine) Shutdown(ctx context.Context) error {
	return nil
}

func (m *MockEngine) next(req *CompletionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls[req.AgentName]++

	if m.failures[req.AgentName] > 0 {
		m.failures[req.AgentName]--
		return "", &ConnectionError{Agent: req.AgentName}
	}

	if queued := m.replies[req.AgentName]; len(queued) > 0 {
		m.replies[req.AgentName] = queued[1:]
		return queued[0], nil
	}

	seed := seedFor(req.AgentName, req.Prompt)

	var payload any
	switch req.Role {
	case models.RoleEvaluator:
		payload = mockBallot(req, seed)
	default:
		payload = mockCandidate(req, seed)
	}

	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return "Here is my answer:\n```json\n" + string(raw) + "\n```", nil
}

func seedFor(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

func mockCandidate(req *CompletionRequest, seed uint64) map[string]any {
	tag := fmt.Sprintf("%04x", seed&0xffff)
	return map[string]any{
		"title":   fmt.Sprintf("%s draft %s", req.AgentName, tag),
		"logline": fmt.Sprintf("A story shaped by %s.", req.AgentName),
		"main_characters": []map[string]string{
			{"name": "Ash " + tag, "role": "protagonist", "description": "Wants out."},
			{"name": "Rook " + tag, "role": "antagonist", "description": "Wants in."},
		},
		"plot_summary":     fmt.Sprintf("Draft %s expands the premise.", tag),
		"central_conflict": "Freedom against loyalty.",
		"story_beats": map[string]string{
			"opening":    "An ordinary day.",
			"catalyst":   "A door opens.",
			"midpoint":   "The door was a trap.",
			"crisis":     "Everything is lost.",
			"resolution": "A new door.",
		},
		"ending":               "Bittersweet.",
		"key_elements":         []string{"door", "key"},
		"potential_arcs":       []string{"redemption"},
		"themes":               []string{"choice"},
		"estimated_complexity": int(seed%10) + 1,
		"unique_hooks":         []string{"the door remembers"},
	}
}

func mockBallot(req *CompletionRequest, seed uint64) map[string]any {
	choices := slices.Clone(req.Choices)
	slices.Sort(choices)

	choice := ""
	if len(choices) > 0 {
		choice = choices[seed%uint64(len(choices))]
	}

	scores := make(map[string]int, len(req.Criteria))
	for i, c := range req.Criteria {
		scores[c] = int((seed>>(4*uint(i%16)))%10) + 1
	}

	return map[string]any{
		"vote_for_team": choice,
		"reasoning":     fmt.Sprintf("%s reads as the strongest option to %s.", choice, req.AgentName),
		"scores":        scores,
	}
}

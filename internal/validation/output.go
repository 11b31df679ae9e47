package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spboyer/forge/internal/models"
)

var (
	// ErrMalformedEvaluatorOutput marks an evaluator reply that could not be
	// turned into a vote.
	ErrMalformedEvaluatorOutput = errors.New("malformed evaluator output")

	// ErrMalformedProducerOutput marks a producer reply that could not be
	// turned into a candidate.
	ErrMalformedProducerOutput = errors.New("malformed producer output")
)

// maxRawExcerpt bounds how much of a bad reply is kept on the error.
const maxRawExcerpt = 500

// MalformedOutputError describes why an agent reply was rejected. It matches
// its Kind with errors.Is.
type MalformedOutputError struct {
	Agent  string
	Kind   error
	Reason string
	Raw    string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("%v from %s: %s", e.Kind, e.Agent, e.Reason)
}

func (e *MalformedOutputError) Is(target error) bool {
	return target == e.Kind
}

// Permanent reports that asking the same agent again will not help; the
// retry policy never retries these.
func (e *MalformedOutputError) Permanent() bool {
	return true
}

func malformed(kind error, agent, reason, raw string) *MalformedOutputError {
	return &MalformedOutputError{Agent: agent, Kind: kind, Reason: reason, Raw: truncateRunes(raw, maxRawExcerpt)}
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Ballot is an evaluator's decoded reply.
type Ballot struct {
	VoteForTeam string         `json:"vote_for_team"`
	Reasoning   string         `json:"reasoning"`
	Scores      map[string]int `json:"scores"`
}

// ExtractJSON returns the span from the first '{' to the last '}' in text.
// Models often wrap the object in prose or code fences.
func ExtractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// CleanCandidateName strips the "Team: " label models sometimes echo back
// from the prompt.
func CleanCandidateName(name string) string {
	name = strings.TrimSpace(name)
	for _, prefix := range []string{"Team: ", "TEAM: "} {
		if strings.HasPrefix(name, prefix) {
			return strings.TrimSpace(name[len(prefix):])
		}
	}
	return name
}

// ParseBallot validates and decodes an evaluator reply. Any failure returns a
// *MalformedOutputError matching ErrMalformedEvaluatorOutput.
func ParseBallot(agent, text string) (*Ballot, error) {
	var b Ballot
	if err := decodeValidated(voteSchema, text, &b); err != nil {
		return nil, malformed(ErrMalformedEvaluatorOutput, agent, err.Error(), text)
	}

	b.VoteForTeam = CleanCandidateName(b.VoteForTeam)
	if b.VoteForTeam == "" {
		return nil, malformed(ErrMalformedEvaluatorOutput, agent, "vote_for_team is empty", text)
	}
	if b.Scores == nil {
		b.Scores = map[string]int{}
	}
	return &b, nil
}

// ParseCandidate validates and decodes a producer reply. The caller fills in
// the candidate's name and model.
func ParseCandidate(agent, text string) (*models.Candidate, error) {
	var c models.Candidate
	if err := decodeValidated(candidateSchema, text, &c); err != nil {
		return nil, malformed(ErrMalformedProducerOutput, agent, err.Error(), text)
	}
	return &c, nil
}

func decodeValidated(schema *jsonschema.Schema, text string, out any) error {
	raw, ok := ExtractJSON(text)
	if !ok {
		return errors.New("no JSON object found in reply")
	}

	instance, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if failures := validateAgainstSchema(schema, instance); len(failures) > 0 {
		return fmt.Errorf("schema validation failed: %s", strings.Join(failures, "; "))
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decoding reply: %w", err)
	}
	return nil
}

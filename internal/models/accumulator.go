package models

import "strings"

// Counter is a string-keyed tally. Keys are created explicitly through
// RecordOrInit; reading a missing key yields zero.
type Counter map[string]int

// RecordOrInit adds delta to key, creating the key (and the map) on first use.
func (c *Counter) RecordOrInit(key string, delta int) {
	if *c == nil {
		*c = Counter{}
	}
	(*c)[key] += delta
}

// Total returns the sum of all counts.
func (c Counter) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Clone returns an independent copy.
func (c Counter) Clone() Counter {
	if c == nil {
		return Counter{}
	}
	out := make(Counter, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Form tags for producers and evaluators.
const (
	FormWin     = "W"
	FormSecond  = "S"
	FormLoss    = "L"
	FormCorrect = "C"
	FormNear    = "N"
	FormWrong   = "W"
)

// Form is the most recent outcome tags for an entity, oldest first.
type Form []string

// Push appends tag and drops the oldest tags so at most window remain.
// The receiver is never modified.
func (f Form) Push(tag string, window int) Form {
	next := make(Form, 0, len(f)+1)
	next = append(next, f...)
	next = append(next, tag)
	if window > 0 && len(next) > window {
		next = next[len(next)-window:]
	}
	return next
}

func (f Form) String() string {
	return strings.Join(f, "")
}

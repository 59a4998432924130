package domain

import "time"

// Result sources.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// AnswerSet holds one participant's three free-text answers.
// An empty string stands for an absent answer.
type AnswerSet struct {
	Q1 string `json:"q1" yaml:"q1"`
	Q2 string `json:"q2" yaml:"q2"`
	Q3 string `json:"q3" yaml:"q3"`
}

// Questions returns the answers in question order.
func (a AnswerSet) Questions() [3]string {
	return [3]string{a.Q1, a.Q2, a.Q3}
}

// TokenSet is an unordered, deduplicated set of word tokens.
type TokenSet map[string]struct{}

// Has reports whether the token is in the set.
func (s TokenSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// Result holds the outcome of a compatibility computation.
type Result struct {
	// Percentage is in [0, 100] and is not rounded.
	Percentage float64
	Message    string
	ComputedAt time.Time
	// Source names the scorer that produced the result.
	Source string
	// Breakdown holds the per-question similarities when the local scorer ran.
	Breakdown []float64
}

// Rounded returns the percentage rounded for display.
func (r Result) Rounded() int {
	return int(r.Percentage + 0.5)
}

// compatibility.go
// Package compatibility is the quick entry point to the local compatibility
// scorer. It compares three pairs of free-text answers with a bag-of-words
// Jaccard similarity and maps the averaged percentage to a message:
//
//	percentage = 100 * (J(a.q1, b.q1) + J(a.q2, b.q2) + J(a.q3, b.q3)) / 3
//
// For options such as custom tiers or logging use pkg/compatibility.
package compatibility

import (
	pkg "github.com/baditaflorin/go_compatibility/pkg/compatibility"
)

// AnswerSet holds one participant's three answers.
type AnswerSet = pkg.AnswerSet

// Result holds the outcome of a compatibility computation.
type Result = pkg.Result

var defaultScorer = mustDefault()

func mustDefault() *pkg.Compatibility {
	c, err := pkg.New()
	if err != nil {
		panic(err)
	}
	return c
}

// ComputeWithDefaults scores two answer sets with the default tiers.
func ComputeWithDefaults(a, b AnswerSet) Result {
	return defaultScorer.Compute(a, b)
}

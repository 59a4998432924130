package compat

import "github.com/baditaflorin/go_compatibility/internal/core/domain"

// Jaccard returns |a ∩ b| / |a ∪ b|. Two empty sets score 0, so two blank
// answers never count as a match.
func Jaccard(a, b domain.TokenSet) float64 {
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	intersection := 0
	for token := range small {
		if large.Has(token) {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

package ports

import "github.com/baditaflorin/go_compatibility/internal/core/domain"

// Tokenizer turns a free-text answer into a set of significant word tokens.
type Tokenizer interface {
	Tokenize(text string) domain.TokenSet
}

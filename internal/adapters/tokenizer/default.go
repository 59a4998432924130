package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/baditaflorin/go_compatibility/internal/core/domain"
	"github.com/baditaflorin/go_compatibility/internal/pool"
	"github.com/baditaflorin/go_compatibility/internal/ports"
)

// stopWords is a closed list. Changing it changes scores.
var stopWords = map[string]struct{}{
	"a": {}, "the": {}, "and": {}, "or": {}, "to": {}, "of": {}, "in": {}, "is": {},
	"are": {}, "it": {}, "you": {}, "your": {}, "my": {}, "me": {}, "for": {},
	"with": {}, "that": {}, "this": {}, "as": {}, "be": {}, "so": {}, "do": {},
}

// IsStopWord reports whether token is excluded from every token set.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// DefaultTokenizer implements the word-set tokenization strategy.
type DefaultTokenizer struct{}

// NewDefaultTokenizer creates a new default tokenizer.
func NewDefaultTokenizer() ports.Tokenizer {
	return &DefaultTokenizer{}
}

var normalizeBuffers = pool.NewBufferPool(128)

// Normalize converts the input text to lower case and replaces every rune that
// is not a letter, digit or whitespace with a space.
func Normalize(text string) string {
	buf := normalizeBuffers.Get()
	defer normalizeBuffers.Put(buf)

	out := *buf
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			out = utf8.AppendRune(out, r)
		} else {
			out = append(out, ' ')
		}
	}
	*buf = out
	return string(out)
}

// Tokenize returns the significant words of text. Tokens of a single rune and
// stop words are dropped.
func (t *DefaultTokenizer) Tokenize(text string) domain.TokenSet {
	set := make(domain.TokenSet)
	if text == "" {
		return set
	}
	for _, token := range strings.Fields(Normalize(text)) {
		if utf8.RuneCountInString(token) <= 1 || IsStopWord(token) {
			continue
		}
		set[token] = struct{}{}
	}
	return set
}

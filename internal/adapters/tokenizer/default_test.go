package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/baditaflorin/go_compatibility/internal/core/domain"
)

func keys(set domain.TokenSet) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty", text: "", want: []string{}},
		{name: "whitespace only", text: " \t\n ", want: []string{}},
		{name: "stop words and short tokens", text: "Is it the love?", want: []string{"love"}},
		{name: "punctuation separates words", text: "trust,honesty", want: []string{"trust", "honesty"}},
		{name: "case folded", text: "Trust!", want: []string{"trust"}},
		{name: "duplicates collapse", text: "time time TIME", want: []string{"time"}},
		{name: "digits kept", text: "24/7 support", want: []string{"24", "support"}},
		{name: "underscore splits", text: "quality_time", want: []string{"quality", "time"}},
		{name: "only stop words", text: "you and me, to be so", want: []string{}},
		{name: "unicode letters kept", text: "Café crème", want: []string{"café", "crème"}},
		{name: "single rune unicode dropped", text: "é ü ok", want: []string{"ok"}},
	}

	tok := NewDefaultTokenizer()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tok.Tokenize(tc.text)
			assert.ElementsMatch(t, tc.want, keys(got))
		})
	}
}

func TestTokenizeCaseAndPunctuationInsensitive(t *testing.T) {
	tok := NewDefaultTokenizer()
	assert.Equal(t, tok.Tokenize("trust"), tok.Tokenize("Trust!"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hello  world ", Normalize("Hello, World!"))
	assert.Equal(t, "", Normalize(""))
}

func TestStopWordListIsClosed(t *testing.T) {
	want := []string{"a", "the", "and", "or", "to", "of", "in", "is", "are", "it", "you",
		"your", "my", "me", "for", "with", "that", "this", "as", "be", "so", "do"}
	assert.Len(t, stopWords, len(want))
	for _, w := range want {
		assert.True(t, IsStopWord(w), w)
	}
	assert.False(t, IsStopWord("love"))
}

package remote

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validAnalysis = `{
  "personA": {"coreBeliefs": ["loyalty"]},
  "personB": {"coreBeliefs": ["commitment"]},
  "thoughtAlignment": {
    "sharedBeliefs": [
      {"beliefTheme": "Loyalty", "whyItMatches": "both prize staying power"},
      {"beliefTheme": "Time Together", "whyItMatches": "both want presence"},
      {"beliefTheme": "Humor", "whyItMatches": "ignored third entry"}
    ],
    "divergentBeliefs": [
      {"beliefTheme": "Independence", "tension": "one wants space"}
    ]
  },
  "compatibilityScore": 64.6,
  "analysisExplanation": "They share core values."
}`

func geminiBody(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": []interface{}{map[string]interface{}{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	})
	require.NoError(t, err)
	return body
}

func TestParseAnalysisFencedOutput(t *testing.T) {
	got, err := parseAnalysis(geminiBody(t, "```json\n"+validAnalysis+"\n```"))
	require.NoError(t, err)

	assert.Equal(t, 65.0, got.percentage())
	assert.Equal(t,
		"They share core values. Both value loyalty: both prize staying power Both value time together: both want presence "+
			"However, they differ on independence: one wants space "+suffixWorkable,
		got.message(got.percentage()))
}

func TestParseAnalysisRepairsJSON(t *testing.T) {
	broken := `Here you go: {personA: {"x": 1}, personB: {"y": 2}, thoughtAlignment: {"sharedBeliefs": [],}, compatibilityScore: 91, analysisExplanation: "Very close.",}`
	got, err := parseAnalysis(geminiBody(t, broken))
	require.NoError(t, err)
	assert.Equal(t, 91.0, got.percentage())
	assert.Equal(t, "Very close. "+suffixAligned, got.message(got.percentage()))
}

func TestParseAnalysisRejectsInvalidShapes(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "no json", text: "I cannot help with that."},
		{name: "missing score", text: `{"personA": {}, "personB": {}, "thoughtAlignment": {}, "analysisExplanation": "x"}`},
		{name: "string score", text: `{"personA": {"a": 1}, "personB": {"b": 1}, "thoughtAlignment": {}, "compatibilityScore": "high", "analysisExplanation": "x"}`},
		{name: "missing person", text: `{"personA": {"a": 1}, "thoughtAlignment": {}, "compatibilityScore": 50, "analysisExplanation": "x"}`},
		{name: "missing explanation", text: `{"personA": {"a": 1}, "personB": {"b": 1}, "thoughtAlignment": {}, "compatibilityScore": 50}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseAnalysis(geminiBody(t, tc.text))
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestPercentageClamped(t *testing.T) {
	explanation := ""
	for score, want := range map[float64]float64{-12: 0, 0.4: 0, 99.5: 100, 250: 100} {
		s := score
		a := analysis{CompatibilityScore: &s, AnalysisExplanation: &explanation, ThoughtAlignment: &thoughtAlignment{}}
		assert.Equal(t, want, a.percentage(), "score %v", score)
	}
}

func TestMessageTierSuffixes(t *testing.T) {
	explanation := "Summary."
	a := analysis{AnalysisExplanation: &explanation, ThoughtAlignment: &thoughtAlignment{}}
	assert.Equal(t, "Summary. "+suffixAligned, a.message(80))
	assert.Equal(t, "Summary. "+suffixWorkable, a.message(60))
	assert.Equal(t, "Summary.", a.message(50))
	assert.Equal(t, "Summary. "+suffixCompromise, a.message(39))
}

func TestExtractObject(t *testing.T) {
	assert.Equal(t, `{"a": "}{", "b": {"c": 1}}`, extractObject(`noise {"a": "}{", "b": {"c": 1}} trailing {"x": 2}`))
	assert.Equal(t, "", extractObject("no braces"))
	assert.Equal(t, `{"a": {"b": 1}`, extractObject(`{"a": {"b": 1}`))
}

func TestResponseTextFallsBackToStrings(t *testing.T) {
	assert.Equal(t, "plain", responseText([]byte("plain")))
	assert.Equal(t, "quoted", responseText([]byte(`"quoted"`)))
	assert.Equal(t, "one\n\ntwo", responseText([]byte(`{"b": ["two"], "a": {"x": "one", "y": "  "}}`)))
}

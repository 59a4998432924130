package remote

import (
	"github.com/baditaflorin/go_compatibility/internal/core/domain"
	"github.com/baditaflorin/go_compatibility/internal/pool"
)

const promptHeader = `SYSTEM: You are a relationship psychologist. Judge how well two partners fit based on the beliefs and values behind their answers, not on the words they happen to use.

Steps:
1. For each person, extract their core beliefs, emotional drivers, relationship philosophy and underlying fears.
2. Compare those beliefs by meaning. Different words for the same value ("trust" and "honesty") count as agreement; the same word used for opposite needs does not.
3. Reply with JSON only. No markdown fences and no text around it.

JSON shape:
{
  "personA": {"coreBeliefs": [], "emotionalDrivers": [], "relationshipPhilosophy": "", "underlyingFears": []},
  "personB": {"coreBeliefs": [], "emotionalDrivers": [], "relationshipPhilosophy": "", "underlyingFears": []},
  "thoughtAlignment": {
    "sharedBeliefs": [{"beliefTheme": "", "howAExpressesIt": "", "howBExpressesIt": "", "whyItMatches": "20 words max"}],
    "divergentBeliefs": [{"beliefTheme": "", "personAView": "", "personBView": "", "tension": "20 words max"}]
  },
  "compatibilityScore": 0-100,
  "analysisExplanation": "2-3 sentences explaining the score"
}

Empty arrays are fine when a category does not apply.
`

var promptBuffers = pool.NewBufferPool(len(promptHeader) + 512)

// buildPrompt renders the scoring prompt for two answer sets.
func buildPrompt(a, b domain.AnswerSet) string {
	buf := promptBuffers.Get()
	defer promptBuffers.Put(buf)

	out := append(*buf, promptHeader...)
	out = appendAnswers(out, "Person A", a)
	out = appendAnswers(out, "Person B", b)
	*buf = out
	return string(out)
}

func appendAnswers(out []byte, who string, a domain.AnswerSet) []byte {
	out = append(out, '\n')
	out = append(out, who...)
	out = append(out, " answers:\n"...)
	for i, q := range a.Questions() {
		out = append(out, 'Q', byte('1'+i), ':', ' ')
		out = append(out, q...)
		out = append(out, '\n')
	}
	return out
}

package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrMalformedResponse means the model output did not contain a usable analysis.
var ErrMalformedResponse = errors.New("remote: malformed model response")

var fencePattern = regexp.MustCompile("(?i)```(?:json)?")

// Message suffixes appended by score range.
const (
	suffixAligned    = "This deep alignment suggests strong potential for mutual understanding."
	suffixWorkable   = "These differences are workable with open communication."
	suffixCompromise = "These core differences may require significant compromise."
)

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type sharedBelief struct {
	BeliefTheme     string `json:"beliefTheme"`
	HowAExpressesIt string `json:"howAExpressesIt"`
	HowBExpressesIt string `json:"howBExpressesIt"`
	WhyItMatches    string `json:"whyItMatches"`
}

type divergentBelief struct {
	BeliefTheme string `json:"beliefTheme"`
	PersonAView string `json:"personAView"`
	PersonBView string `json:"personBView"`
	Tension     string `json:"tension"`
}

type thoughtAlignment struct {
	SharedBeliefs    []sharedBelief    `json:"sharedBeliefs"`
	DivergentBeliefs []divergentBelief `json:"divergentBeliefs"`
}

type analysis struct {
	PersonA             json.RawMessage   `json:"personA"`
	PersonB             json.RawMessage   `json:"personB"`
	ThoughtAlignment    *thoughtAlignment `json:"thoughtAlignment"`
	CompatibilityScore  *float64          `json:"compatibilityScore"`
	AnalysisExplanation *string           `json:"analysisExplanation"`
}

// responseText pulls the model text out of a generateContent body. Unknown
// shapes fall back to every non-blank string in the document.
func responseText(body []byte) string {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err == nil {
		var parts []string
		for _, c := range resp.Candidates {
			for _, p := range c.Content.Parts {
				if strings.TrimSpace(p.Text) != "" {
					parts = append(parts, p.Text)
				}
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "\n\n")
		}
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return string(body)
	}
	if s, ok := doc.(string); ok {
		return s
	}
	return strings.Join(collectText(doc, nil), "\n\n")
}

func collectText(v interface{}, out []string) []string {
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	case []interface{}:
		for _, item := range t {
			out = collectText(item, out)
		}
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = collectText(t[k], out)
		}
	}
	return out
}

// extractObject returns the first balanced JSON object in s, ignoring braces
// inside string literals. If none balances it returns the widest {...} span.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	if end := strings.LastIndexByte(s, '}'); end > start {
		return s[start : end+1]
	}
	return s[start:]
}

// parseAnalysis recovers and validates the model's JSON analysis.
func parseAnalysis(body []byte) (*analysis, error) {
	text := strings.TrimSpace(fencePattern.ReplaceAllString(responseText(body), ""))
	candidate := extractObject(text)
	if candidate == "" {
		return nil, fmt.Errorf("%w: no json object in output", ErrMalformedResponse)
	}

	var out analysis
	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(candidate)
		if repairErr != nil {
			return nil, fmt.Errorf("%w: repair: %v", ErrMalformedResponse, repairErr)
		}
		out = analysis{}
		if err := json.Unmarshal([]byte(repaired), &out); err != nil {
			return nil, fmt.Errorf("%w: decode: %v", ErrMalformedResponse, err)
		}
	}

	if err := out.validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

func present(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null" && s != "false" && s != `""` && s != "0"
}

func (a *analysis) validate() error {
	switch {
	case !present(a.PersonA), !present(a.PersonB):
		return fmt.Errorf("%w: missing person analysis", ErrMalformedResponse)
	case a.ThoughtAlignment == nil:
		return fmt.Errorf("%w: missing thoughtAlignment", ErrMalformedResponse)
	case a.CompatibilityScore == nil || math.IsNaN(*a.CompatibilityScore):
		return fmt.Errorf("%w: missing compatibilityScore", ErrMalformedResponse)
	case a.AnalysisExplanation == nil:
		return fmt.Errorf("%w: missing analysisExplanation", ErrMalformedResponse)
	}
	return nil
}

// percentage clamps the model score to a whole number in [0, 100].
func (a *analysis) percentage() float64 {
	p := math.Round(*a.CompatibilityScore)
	return math.Max(0, math.Min(100, p))
}

// message builds the explanation shown to the couple.
func (a *analysis) message(percentage float64) string {
	parts := []string{strings.TrimSpace(*a.AnalysisExplanation)}

	shared := a.ThoughtAlignment.SharedBeliefs
	if len(shared) > 2 {
		shared = shared[:2]
	}
	for _, s := range shared {
		parts = append(parts, fmt.Sprintf("Both value %s: %s", strings.ToLower(s.BeliefTheme), s.WhyItMatches))
	}

	if divergent := a.ThoughtAlignment.DivergentBeliefs; len(divergent) > 0 && percentage < 70 {
		d := divergent[0]
		parts = append(parts, fmt.Sprintf("However, they differ on %s: %s", strings.ToLower(d.BeliefTheme), d.Tension))
	}

	switch {
	case percentage >= 80:
		parts = append(parts, suffixAligned)
	case percentage >= 60:
		parts = append(parts, suffixWorkable)
	case percentage < 40:
		parts = append(parts, suffixCompromise)
	}

	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

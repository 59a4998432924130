package compat

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/baditaflorin/go_compatibility/internal/adapters/logger"
	"github.com/baditaflorin/go_compatibility/internal/adapters/tokenizer"
	"github.com/baditaflorin/go_compatibility/internal/core/domain"
)

var fixedNow = time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Clock = func() time.Time { return fixedNow }
	calc, err := NewCalculator(cfg, logger.NewNopLogger(), tokenizer.NewDefaultTokenizer())
	require.NoError(t, err)
	return calc
}

func TestComputeIdenticalAnswers(t *testing.T) {
	calc := newTestCalculator(t)
	a := domain.AnswerSet{Q1: "trust and honesty", Q2: "quality time", Q3: "cheating"}

	result := calc.Compute(a, a)

	assert.Equal(t, 100.0, result.Percentage)
	assert.Equal(t, MessagePerfect, result.Message)
	assert.Equal(t, fixedNow, result.ComputedAt)
	assert.Equal(t, domain.SourceLocal, result.Source)
	assert.Equal(t, []float64{1, 1, 1}, result.Breakdown)
}

func TestComputeDisjointVocabulary(t *testing.T) {
	calc := newTestCalculator(t)
	result := calc.Compute(
		domain.AnswerSet{Q1: "cats", Q2: "dogs", Q3: "birds"},
		domain.AnswerSet{Q1: "trains", Q2: "planes", Q3: "boats"},
	)

	assert.Equal(t, 0.0, result.Percentage)
	assert.Equal(t, MessageDifferent, result.Message)
}

func TestComputeEmptyAnswersScoreZero(t *testing.T) {
	calc := newTestCalculator(t)

	result := calc.Compute(domain.AnswerSet{}, domain.AnswerSet{})
	assert.Equal(t, 0.0, result.Percentage)
	assert.Equal(t, MessageDifferent, result.Message)

	// One blank question pair drags an otherwise identical pair down by a third.
	a := domain.AnswerSet{Q1: "trust", Q2: "quality time"}
	result = calc.Compute(a, a)
	assert.Equal(t, []float64{1, 1, 0}, result.Breakdown)
	assert.InDelta(t, 200.0/3, result.Percentage, 1e-9)
	assert.Equal(t, MessageGreat, result.Message)
}

func TestComputeCaseAndPunctuation(t *testing.T) {
	calc := newTestCalculator(t)
	result := calc.Compute(
		domain.AnswerSet{Q1: "Trust!"},
		domain.AnswerSet{Q1: "trust"},
	)
	assert.Equal(t, 1.0, result.Breakdown[0])
}

func TestComputeThresholdBoundary(t *testing.T) {
	calc := newTestCalculator(t)

	// Two identical questions and a 2/5 overlap on the third lands on 80.
	a := domain.AnswerSet{Q1: "trust", Q2: "time", Q3: "w1 w2 w3 w4"}
	b := domain.AnswerSet{Q1: "trust", Q2: "time", Q3: "w1 w2 w5"}
	result := calc.Compute(a, b)
	assert.Equal(t, 80.0, result.Percentage)
	assert.Equal(t, MessagePerfect, result.Message)

	// A 7/18 overlap sits just under.
	a.Q3 = "w1 w2 w3 w4 w5 w6 w7 w8 w9 x1 x2 x3 x4 x5"
	b.Q3 = "w1 w2 w3 w4 w5 w6 w7 y1 y2 y3 y4"
	result = calc.Compute(a, b)
	assert.Less(t, result.Percentage, 80.0)
	assert.Equal(t, MessageGreat, result.Message)
}

func TestMessageForBoundaries(t *testing.T) {
	tiers := DefaultTiers()
	tests := []struct {
		percentage float64
		want       string
	}{
		{100, MessagePerfect},
		{80, MessagePerfect},
		{math.Nextafter(80, 0), MessageGreat},
		{60, MessageGreat},
		{math.Nextafter(60, 0), MessageSome},
		{40, MessageSome},
		{39.999, MessageDifferent},
		{0, MessageDifferent},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, messageFor(tiers, MessageDifferent, tc.percentage), "percentage %v", tc.percentage)
	}
}

func TestComputeTotalityAndSymmetry(t *testing.T) {
	calc := newTestCalculator(t)
	texts := []string{"", " ", "?!", "a", "Is it the love?", "trust and honesty", "Quality TIME, always", "cheating; lying", "café"}

	var g errgroup.Group
	for _, x := range texts {
		for _, y := range texts {
			a := domain.AnswerSet{Q1: x, Q2: y, Q3: x + " " + y}
			b := domain.AnswerSet{Q1: y, Q2: x, Q3: y}
			g.Go(func() error {
				ab := calc.Compute(a, b)
				ba := calc.Compute(b, a)
				assert.Equal(t, ab.Percentage, ba.Percentage)
				assert.GreaterOrEqual(t, ab.Percentage, 0.0)
				assert.LessOrEqual(t, ab.Percentage, 100.0)
				assert.NotEmpty(t, ab.Message)
				return nil
			})
		}
	}
	require.NoError(t, g.Wait())
}

func TestScoreNeverFails(t *testing.T) {
	calc := newTestCalculator(t)
	result, err := calc.Score(context.Background(), domain.AnswerSet{}, domain.AnswerSet{Q1: "x"})
	require.NoError(t, err)
	assert.Equal(t, domain.SourceLocal, result.Source)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Tiers = []Tier{{Min: 40, Message: "low"}, {Min: 60, Message: "high"}}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Fallback = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Tiers = []Tier{{Min: 120, Message: "impossible"}}
	_, err := NewCalculator(cfg, logger.NewNopLogger(), tokenizer.NewDefaultTokenizer())
	assert.Error(t, err)
}

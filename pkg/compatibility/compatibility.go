// Package compatibility scores how closely two people's quiz answers overlap.
//
// Each of the three answers is reduced to a set of significant words and the
// sets are compared with Jaccard similarity. The average over the three
// questions, as a percentage, selects a message tier.
package compatibility

import (
	"context"
	"time"

	"github.com/baditaflorin/go_compatibility/internal/adapters/logger"
	"github.com/baditaflorin/go_compatibility/internal/adapters/tokenizer"
	"github.com/baditaflorin/go_compatibility/internal/core/compat"
	"github.com/baditaflorin/go_compatibility/internal/core/domain"
	"github.com/baditaflorin/go_compatibility/internal/ports"
	"github.com/baditaflorin/l"
)

// AnswerSet holds one participant's three answers.
type AnswerSet = domain.AnswerSet

// Result holds a compatibility score and its message.
type Result = domain.Result

// Tier maps a minimum percentage to a message.
type Tier = compat.Tier

// Compatibility computes the local, deterministic compatibility score.
type Compatibility struct {
	calculator *compat.Calculator
	logger     ports.Logger
}

// Option defines a functional option for configuring Compatibility.
type Option func(*compatibilityConfig)

type compatibilityConfig struct {
	Tiers     []Tier
	Fallback  string
	Clock     func() time.Time
	Logger    ports.Logger
	Tokenizer ports.Tokenizer
}

// WithLogger sets a custom logger.
func WithLogger(l l.Logger) Option {
	return func(cfg *compatibilityConfig) {
		cfg.Logger = logger.FromExisting(l)
	}
}

// WithTiers replaces the message tiers and the message used below all of them.
func WithTiers(tiers []Tier, fallback string) Option {
	return func(cfg *compatibilityConfig) {
		cfg.Tiers = tiers
		cfg.Fallback = fallback
	}
}

// WithClock sets the time source for ComputedAt.
func WithClock(now func() time.Time) Option {
	return func(cfg *compatibilityConfig) {
		cfg.Clock = now
	}
}

// WithTokenizer sets a custom tokenizer.
func WithTokenizer(t ports.Tokenizer) Option {
	return func(cfg *compatibilityConfig) {
		cfg.Tokenizer = t
	}
}

// New creates a new Compatibility instance. Without WithLogger, nothing is logged.
func New(opts ...Option) (*Compatibility, error) {
	defaultConfig := compat.DefaultConfig()

	config := &compatibilityConfig{
		Tiers:    defaultConfig.Tiers,
		Fallback: defaultConfig.Fallback,
		Clock:    defaultConfig.Clock,
	}

	for _, opt := range opts {
		opt(config)
	}

	if config.Logger == nil {
		config.Logger = logger.NewNopLogger()
	}
	if config.Tokenizer == nil {
		config.Tokenizer = tokenizer.NewDefaultTokenizer()
	}

	calculator, err := compat.NewCalculator(compat.Config{
		Tiers:    config.Tiers,
		Fallback: config.Fallback,
		Clock:    config.Clock,
	}, config.Logger, config.Tokenizer)
	if err != nil {
		return nil, err
	}

	return &Compatibility{
		calculator: calculator,
		logger:     config.Logger,
	}, nil
}

// Compute scores two answer sets. It never fails.
func (c *Compatibility) Compute(a, b AnswerSet) Result {
	return c.calculator.Compute(a, b)
}

// Score implements the scorer interface shared with remote scorers.
func (c *Compatibility) Score(ctx context.Context, a, b AnswerSet) (Result, error) {
	return c.calculator.Score(ctx, a, b)
}

// Tokenize exposes the default tokenizer.
func Tokenize(text string) []string {
	set := tokenizer.NewDefaultTokenizer().Tokenize(text)
	out := make([]string, 0, len(set))
	for token := range set {
		out = append(out, token)
	}
	return out
}

// Similarity returns the Jaccard similarity of two answers' token sets.
func Similarity(a, b string) float64 {
	t := tokenizer.NewDefaultTokenizer()
	return compat.Jaccard(t.Tokenize(a), t.Tokenize(b))
}

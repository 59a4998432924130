package compat

import (
	"context"
	"time"

	"github.com/baditaflorin/go_compatibility/internal/core/domain"
	"github.com/baditaflorin/go_compatibility/internal/ports"
)

// Config holds configuration for the compatibility calculator.
type Config struct {
	// Tiers are evaluated in order; the first reached minimum wins.
	Tiers []Tier
	// Fallback is used when no tier is reached.
	Fallback string
	// Clock stamps ComputedAt.
	Clock func() time.Time
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Tiers:    DefaultTiers(),
		Fallback: MessageDifferent,
		Clock:    time.Now,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	return validateTiers(c.Tiers, c.Fallback)
}

// Calculator implements the bag-of-words compatibility computation.
type Calculator struct {
	config    Config
	logger    ports.Logger
	tokenizer ports.Tokenizer
}

// NewCalculator creates a new compatibility calculator.
func NewCalculator(config Config, logger ports.Logger, tokenizer ports.Tokenizer) (*Calculator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	return &Calculator{
		config:    config,
		logger:    logger,
		tokenizer: tokenizer,
	}, nil
}

// Compute scores two answer sets. Each question contributes a third of the
// result regardless of how many tokens it holds.
func (c *Calculator) Compute(a, b domain.AnswerSet) domain.Result {
	qa, qb := a.Questions(), b.Questions()

	breakdown := make([]float64, len(qa))
	var sum float64
	for i := range qa {
		ta := c.tokenizer.Tokenize(qa[i])
		tb := c.tokenizer.Tokenize(qb[i])
		breakdown[i] = Jaccard(ta, tb)
		sum += breakdown[i]

		c.logger.Debug("Computed question similarity",
			"question", i+1,
			"tokens_a", len(ta),
			"tokens_b", len(tb),
			"similarity", breakdown[i],
		)
	}

	percentage := sum / float64(len(qa)) * 100
	message := messageFor(c.config.Tiers, c.config.Fallback, percentage)

	c.logger.Debug("Computed compatibility",
		"percentage", percentage,
		"message", message,
	)

	return domain.Result{
		Percentage: percentage,
		Message:    message,
		ComputedAt: c.config.Clock(),
		Source:     domain.SourceLocal,
		Breakdown:  breakdown,
	}
}

// Score adapts Compute to the ports.Scorer interface. It never fails.
func (c *Calculator) Score(_ context.Context, a, b domain.AnswerSet) (domain.Result, error) {
	return c.Compute(a, b), nil
}

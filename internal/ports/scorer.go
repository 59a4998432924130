package ports

import (
	"context"

	"github.com/baditaflorin/go_compatibility/internal/core/domain"
)

// Scorer computes a compatibility result for two answer sets.
// Every scoring strategy, local or remote, is exposed through this interface.
type Scorer interface {
	Score(ctx context.Context, a, b domain.AnswerSet) (domain.Result, error)
}

// CompatibilityCalculator is the total, deterministic local computation.
type CompatibilityCalculator interface {
	Compute(a, b domain.AnswerSet) domain.Result
}

// Evaluator always produces a result for two answer sets.
type Evaluator interface {
	Evaluate(ctx context.Context, a, b domain.AnswerSet) domain.Result
}

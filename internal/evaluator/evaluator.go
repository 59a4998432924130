// Package evaluator produces a compatibility result for two answer sets,
// preferring an optional primary scorer and falling back to the local one.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/baditaflorin/go_compatibility/internal/core/domain"
	"github.com/baditaflorin/go_compatibility/internal/ports"
)

// DefaultTimeout bounds a primary scorer call.
const DefaultTimeout = 25 * time.Second

// Fallback reasons reported in metrics.
const (
	ReasonTimeout  = "timeout"
	ReasonCanceled = "canceled"
	ReasonError    = "error"
	ReasonPanic    = "panic"
)

var tracer = otel.Tracer("go_compatibility/evaluator")

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithPrimary sets the scorer tried before the local fallback.
func WithPrimary(s ports.Scorer) Option {
	return func(e *Evaluator) {
		e.primary = s
	}
}

// WithTimeout sets the primary scorer timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(e *Evaluator) {
		e.metrics = m
	}
}

// Evaluator always yields a result: the primary scorer's when it succeeds,
// the local calculator's otherwise.
type Evaluator struct {
	primary  ports.Scorer
	fallback ports.CompatibilityCalculator
	logger   ports.Logger
	metrics  *Metrics
	timeout  time.Duration
}

// New creates an evaluator around the local calculator.
func New(fallback ports.CompatibilityCalculator, logger ports.Logger, opts ...Option) *Evaluator {
	e := &Evaluator{
		fallback: fallback,
		logger:   logger,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Local runs only the local calculator.
func (e *Evaluator) Local(a, b domain.AnswerSet) domain.Result {
	start := time.Now()
	result := e.fallback.Compute(a, b)
	e.metrics.observe(result.Source, time.Since(start).Seconds())
	return result
}

// Evaluate scores two answer sets. It never fails.
func (e *Evaluator) Evaluate(ctx context.Context, a, b domain.AnswerSet) domain.Result {
	ctx, span := tracer.Start(ctx, "compatibility.evaluate",
		trace.WithAttributes(attribute.Bool("compatibility.primary_configured", e.primary != nil)),
	)
	defer span.End()

	if e.primary != nil {
		start := time.Now()
		result, err := e.tryPrimary(ctx, a, b)
		if err == nil {
			e.metrics.observe(result.Source, time.Since(start).Seconds())
			span.SetAttributes(
				attribute.String("compatibility.source", result.Source),
				attribute.Float64("compatibility.percentage", result.Percentage),
			)
			return result
		}

		reason := classify(err)
		e.metrics.fallback(reason)
		span.RecordError(err)
		span.SetAttributes(attribute.String("compatibility.fallback_reason", reason))
		e.logger.Warn("Primary scorer failed, falling back to local",
			"reason", reason,
			"error", err,
		)
	}

	result := e.Local(a, b)
	span.SetAttributes(
		attribute.String("compatibility.source", result.Source),
		attribute.Float64("compatibility.percentage", result.Percentage),
	)
	span.SetStatus(codes.Ok, "")
	return result
}

func (e *Evaluator) tryPrimary(ctx context.Context, a, b domain.AnswerSet) (result domain.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errPrimaryPanic, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.primary.Score(ctx, a, b)
}

var errPrimaryPanic = errors.New("primary scorer panicked")

func classify(err error) string {
	switch {
	case errors.Is(err, errPrimaryPanic):
		return ReasonPanic
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	default:
		return ReasonError
	}
}

package evaluator

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors that report scoring activity.
type Metrics struct {
	evaluations *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// DefaultMetrics returns the package-level metrics registered with the global
// Prometheus registry. Collectors are created once so repeated construction
// does not panic on duplicate registration.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics constructs Metrics using the provided registerer and panics
// on registration errors.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	evaluations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compatibility",
			Subsystem: "evaluator",
			Name:      "evaluations_total",
			Help:      "Number of compatibility results produced, by scorer.",
		},
		[]string{"source"},
	)
	fallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "compatibility",
			Subsystem: "evaluator",
			Name:      "fallbacks_total",
			Help:      "Number of times the remote scorer failed and the local scorer was used.",
		},
		[]string{"reason"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "compatibility",
			Subsystem: "evaluator",
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent producing a compatibility result.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	reg.MustRegister(evaluations, fallbacks, duration)

	return &Metrics{
		evaluations: evaluations,
		fallbacks:   fallbacks,
		duration:    duration,
	}
}

func (m *Metrics) observe(source string, seconds float64) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(source).Inc()
	m.duration.WithLabelValues(source).Observe(seconds)
}

func (m *Metrics) fallback(reason string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(reason).Inc()
}

package symcore

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports engine counters to Prometheus. A nil *Metrics is a no-op.
type Metrics struct {
	simplifications *prometheus.CounterVec
	guardTrips      *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	derivatives     *prometheus.CounterVec
	duration        prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		simplifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symcore_simplify_total",
				Help: "Simplification requests by outcome.",
			},
			[]string{"outcome"},
		),
		guardTrips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symcore_guard_trips_total",
				Help: "Resource guards tripped during simplification.",
			},
			[]string{"guard"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symcore_cache_lookups_total",
				Help: "Subtree cache lookups by result.",
			},
			[]string{"result"},
		),
		derivatives: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symcore_derivative_total",
				Help: "Differentiation requests by outcome.",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "symcore_simplify_duration_seconds",
				Help:    "Time spent per simplification request.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.simplifications, m.guardTrips, m.cacheLookups, m.derivatives, m.duration)
	}
	return m
}

// ErrorKind classifies err for metrics labels and API responses: ok,
// malformed, arithmetic_error, no_derivative_rule or error.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMalformedExpression):
		return "malformed"
	case errors.Is(err, ErrArithmetic):
		return "arithmetic_error"
	case errors.Is(err, ErrNoDerivativeRule):
		return "no_derivative_rule"
	}
	return "error"
}

func (m *Metrics) observeSimplify(g Guard, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.simplifications.WithLabelValues(ErrorKind(err)).Inc()
	m.duration.Observe(d.Seconds())
	for _, name := range g.Names() {
		m.guardTrips.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) cacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) observeDerivative(err error) {
	if m == nil {
		return
	}
	m.derivatives.WithLabelValues(ErrorKind(err)).Inc()
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Breaker states exported by BreakerMetrics.SetState.
const (
	BreakerClosed   = 0
	BreakerHalfOpen = 1
	BreakerOpen     = 2
)

// BreakerMetrics exposes circuit-breaker state for outbound dependencies.
type BreakerMetrics struct {
	state       *prometheus.GaugeVec
	transitions *prometheus.CounterVec
	requests    *prometheus.CounterVec
}

// NewBreakerMetrics registers the breaker metrics on the provided registerer.
func NewBreakerMetrics(reg prometheus.Registerer) *BreakerMetrics {
	if reg == nil {
		return &BreakerMetrics{}
	}
	state := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open).",
	}, []string{"name"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_transitions_total",
		Help:      "Circuit breaker state transitions.",
	}, []string{"name", "from", "to"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_requests_total",
		Help:      "Calls through a circuit breaker by result (success, failure, rejected).",
	}, []string{"name", "result"})
	reg.MustRegister(state, transitions, requests)
	return &BreakerMetrics{state: state, transitions: transitions, requests: requests}
}

// SetState records the current state for name.
func (b *BreakerMetrics) SetState(name string, state float64) {
	if b == nil || b.state == nil {
		return
	}
	b.state.WithLabelValues(normalizeLabel(name)).Set(state)
}

// Transition counts a state change.
func (b *BreakerMetrics) Transition(name, from, to string) {
	if b == nil || b.transitions == nil {
		return
	}
	b.transitions.WithLabelValues(normalizeLabel(name), from, to).Inc()
}

// Result counts one call outcome.
func (b *BreakerMetrics) Result(name, result string) {
	if b == nil || b.requests == nil {
		return
	}
	b.requests.WithLabelValues(normalizeLabel(name), result).Inc()
}

package forwarder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds forwarding counters, labeled by sink name.
type Metrics struct {
	Forwarded      *prometheus.CounterVec
	Sampled        *prometheus.CounterVec
	BreakerDropped *prometheus.CounterVec
	Failures       *prometheus.CounterVec
	BreakerState   *prometheus.GaugeVec
}

// NewMetrics registers forwarding metrics on reg. A nil reg uses the default
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Forwarded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pawtrail_audit_forwarded_total",
			Help: "Total number of audit records written to a sink",
		}, []string{"sink"}),
		Sampled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pawtrail_audit_forward_sampled_total",
			Help: "Total number of audit records skipped by sampling",
		}, []string{"sink"}),
		BreakerDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pawtrail_audit_forward_breaker_dropped_total",
			Help: "Total number of audit records dropped while the sink circuit was open",
		}, []string{"sink"}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pawtrail_audit_forward_failures_total",
			Help: "Total number of failed sink writes",
		}, []string{"sink"}),
		BreakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pawtrail_audit_forward_breaker_state",
			Help: "Sink circuit state (0=closed/healthy, 1=open/unhealthy)",
		}, []string{"sink"}),
	}
}

func (m *Metrics) incForwarded(sink string) {
	if m != nil {
		m.Forwarded.WithLabelValues(sink).Inc()
	}
}

func (m *Metrics) incSampled(sink string) {
	if m != nil {
		m.Sampled.WithLabelValues(sink).Inc()
	}
}

func (m *Metrics) incBreakerDropped(sink string) {
	if m != nil {
		m.BreakerDropped.WithLabelValues(sink).Inc()
	}
}

func (m *Metrics) incFailures(sink string) {
	if m != nil {
		m.Failures.WithLabelValues(sink).Inc()
	}
}

func (m *Metrics) setBreakerState(sink string, open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerState.WithLabelValues(sink).Set(1)
	} else {
		m.BreakerState.WithLabelValues(sink).Set(0)
	}
}

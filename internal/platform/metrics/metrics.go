package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	audit "pawtrail/pkg/platform/audit"
	"pawtrail/pkg/platform/auditlog"
)

// Metrics holds the audit log metrics for the application.
type Metrics struct {
	factory promauto.Factory

	Appended *prometheus.CounterVec
	Evicted  *prometheus.CounterVec
	Cleared  *prometheus.CounterVec
	Size     *prometheus.GaugeVec

	RequestDuration *prometheus.HistogramVec
}

// New creates and registers the audit log metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		factory: factory,
		Appended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pawtrail_audit_events_appended_total",
			Help: "Total number of events appended to an audit log",
		}, []string{"source"}),
		Evicted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pawtrail_audit_events_evicted_total",
			Help: "Total number of events evicted because an audit log was full",
		}, []string{"source"}),
		Cleared: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pawtrail_audit_events_cleared_total",
			Help: "Total number of events removed by clearing an audit log",
		}, []string{"source"}),
		Size: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pawtrail_audit_log_size",
			Help: "Number of events currently held by an audit log",
		}, []string{"source"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pawtrail_http_request_duration_seconds",
			Help:    "Diagnostics API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// ObserverFor returns an auditlog.Observer feeding the metrics for source.
// It matches audit.WithObserverFactory.
func (m *Metrics) ObserverFor(source audit.Source) auditlog.Observer {
	label := string(source)
	return &observer{
		appended: m.Appended.WithLabelValues(label),
		evicted:  m.Evicted.WithLabelValues(label),
		cleared:  m.Cleared.WithLabelValues(label),
		size:     m.Size.WithLabelValues(label),
	}
}

// PublisherStats is implemented by the audit publisher.
type PublisherStats interface {
	Dropped() int64
	Failed() int64
}

// RegisterPublisher exports the publisher's forwarding counters.
func (m *Metrics) RegisterPublisher(p PublisherStats) {
	m.factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "pawtrail_audit_forward_dropped_total",
		Help: "Total number of audit records not forwarded because the queue was full or closed",
	}, func() float64 { return float64(p.Dropped()) })
	m.factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "pawtrail_audit_forward_failed_total",
		Help: "Total number of audit records the sink rejected",
	}, func() float64 { return float64(p.Failed()) })
}

type observer struct {
	appended prometheus.Counter
	evicted  prometheus.Counter
	cleared  prometheus.Counter
	size     prometheus.Gauge
}

func (o *observer) Appended() {
	o.appended.Inc()
	o.size.Inc()
}

func (o *observer) Evicted(n int) {
	o.evicted.Add(float64(n))
	o.size.Sub(float64(n))
}

func (o *observer) Cleared(n int) {
	o.cleared.Add(float64(n))
	o.size.Sub(float64(n))
}

// Package forwarder wraps audit sinks with sampling, a circuit breaker and
// prometheus counters so that an unhealthy archive cannot slow down callers.
package forwarder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	audit "pawtrail/pkg/platform/audit"
	"pawtrail/pkg/platform/circuit"
)

// Forwarder is a Sink that guards another Sink.
type Forwarder struct {
	name    string
	sink    audit.Sink
	sampler *Sampler
	breaker *circuit.Breaker
	metrics *Metrics
	logger  *slog.Logger
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithSampler drops records the sampler does not keep.
func WithSampler(s *Sampler) Option {
	return func(f *Forwarder) {
		f.sampler = s
	}
}

// WithBreaker replaces the default breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(f *Forwarder) {
		if b != nil {
			f.breaker = b
		}
	}
}

// WithMetrics records forwarding counters.
func WithMetrics(m *Metrics) Option {
	return func(f *Forwarder) {
		f.metrics = m
	}
}

// WithLogger sets a logger for circuit transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Forwarder) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New wraps sink. name labels metrics and log lines.
func New(name string, sink audit.Sink, opts ...Option) *Forwarder {
	f := &Forwarder{
		name:    name,
		sink:    sink,
		breaker: circuit.New(name),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the sink name.
func (f *Forwarder) Name() string {
	return f.name
}

// Breaker exposes the breaker for health reporting.
func (f *Forwarder) Breaker() *circuit.Breaker {
	return f.breaker
}

// Write forwards record unless it is sampled out or the circuit is open.
// Skipped records are counted, not reported as errors.
func (f *Forwarder) Write(ctx context.Context, record audit.Record) error {
	if f.sampler != nil && !f.sampler.Keep(record.Entry.Action) {
		f.metrics.incSampled(f.name)
		return nil
	}
	if !f.breaker.Allow() {
		f.metrics.incBreakerDropped(f.name)
		return nil
	}

	if err := f.sink.Write(ctx, record); err != nil {
		f.metrics.incFailures(f.name)
		if _, change := f.breaker.RecordFailure(); change.Opened {
			f.metrics.setBreakerState(f.name, true)
			f.logger.WarnContext(ctx, "audit sink circuit opened", "sink", f.name, "error", err)
		}
		return fmt.Errorf("forward to %s: %w", f.name, err)
	}

	if _, change := f.breaker.RecordSuccess(); change.Closed {
		f.metrics.setBreakerState(f.name, false)
		f.logger.InfoContext(ctx, "audit sink circuit closed", "sink", f.name)
	}
	f.metrics.incForwarded(f.name)
	return nil
}

// Fanout writes each record to every sink in order and joins their errors.
type Fanout []audit.Sink

func (fo Fanout) Write(ctx context.Context, record audit.Record) error {
	var errs []error
	for _, sink := range fo {
		if err := sink.Write(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

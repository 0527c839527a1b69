// Package publisher records audit entries into their source log and forwards
// them to an optional sink.
//
// The bounded in-memory log is written synchronously and is the source of
// truth. Forwarding is best-effort: sink failures are logged and counted,
// never returned to the caller, so audit delivery cannot break the
// operation being audited.
package publisher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "pawtrail/pkg/domain-errors"
	audit "pawtrail/pkg/platform/audit"
	"pawtrail/pkg/platform/auditlog"
	pstrings "pawtrail/pkg/platform/strings"
	"pawtrail/pkg/requestcontext"
)

const (
	tracerName = "pawtrail/audit"

	defaultWriteTimeout = 5 * time.Second
)

// Publisher appends entries to the registry and forwards them to a sink,
// either inline or through a bounded queue drained by one worker.
type Publisher struct {
	registry *audit.Registry
	sink     audit.Sink
	logger   *slog.Logger
	tracer   trace.Tracer

	writeTimeout time.Duration
	bufferSize   int
	queue        chan audit.Record
	done         chan struct{}

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once

	dropped atomic.Int64
	failed  atomic.Int64
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithSink sets where records are forwarded after they are logged.
func WithSink(sink audit.Sink) Option {
	return func(p *Publisher) {
		p.sink = sink
	}
}

// WithAsyncBuffer forwards through a queue of the given size. When the queue
// is full the record is dropped from forwarding (it stays in the log).
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.bufferSize = size
		}
	}
}

// WithWriteTimeout bounds each sink write. A sink that has not returned by
// then sees its context cancelled, so a stalled backend cannot hold the
// forwarding worker or Close.
func WithWriteTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.writeTimeout = d
		}
	}
}

// WithLogger sets a logger for forwarding failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Publisher) {
		if tracer != nil {
			p.tracer = tracer
		}
	}
}

// NewPublisher creates a publisher over registry.
func NewPublisher(registry *audit.Registry, opts ...Option) *Publisher {
	p := &Publisher{
		registry:     registry,
		writeTimeout: defaultWriteTimeout,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufferSize > 0 && p.sink != nil {
		p.queue = make(chan audit.Record, p.bufferSize)
		p.done = make(chan struct{})
		go p.run()
	}
	return p
}

// Emit records entry in its source log and returns the event id.
// Missing category, actor and request id are filled in from the action and ctx;
// tags are normalized.
func (p *Publisher) Emit(ctx context.Context, entry audit.Entry) (uuid.UUID, error) {
	ctx, span := p.tracer.Start(ctx, "audit.emit",
		trace.WithAttributes(
			attribute.String("audit.source", string(entry.Source)),
			attribute.String("audit.action", string(entry.Action)),
		),
	)
	defer span.End()

	if _, err := audit.ParseSource(string(entry.Source)); err != nil {
		span.SetStatus(codes.Error, "unknown source")
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("unknown audit source %q", entry.Source))
	}
	if entry.Action == "" {
		span.SetStatus(codes.Error, "missing action")
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "audit entry requires an action")
	}

	entry = entry.Clone()
	entry.Tags = pstrings.NormalizeTags(entry.Tags)
	if entry.Category == "" {
		entry.Category = entry.Action.Category()
	}
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}
	if entry.Actor == "" {
		entry.Actor = requestcontext.Actor(ctx)
	}

	event := p.registry.Log(entry.Source).AppendEvent(entry)
	span.SetAttributes(attribute.String("audit.event_id", event.ID.String()))

	if p.sink != nil {
		p.forward(ctx, audit.RecordFromEvent(event))
	}
	return event.ID, nil
}

// Log returns the log backing source.
func (p *Publisher) Log(source audit.Source) *auditlog.Log[audit.Entry] {
	return p.registry.Log(source)
}

// Registry returns the registry the publisher writes to.
func (p *Publisher) Registry() *audit.Registry {
	return p.registry
}

// Dropped reports how many records were not forwarded because the queue was
// full or the publisher was closed.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Failed reports how many sink writes returned an error.
func (p *Publisher) Failed() int64 {
	return p.failed.Load()
}

// Close stops accepting records for forwarding and waits for the queue to drain.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		if p.queue != nil {
			close(p.queue)
		}
		p.mu.Unlock()

		if p.done != nil {
			<-p.done
		}
	})
}

func (p *Publisher) forward(ctx context.Context, record audit.Record) {
	if p.queue == nil {
		p.mu.RLock()
		closed := p.closed
		p.mu.RUnlock()
		if closed {
			p.dropped.Add(1)
			return
		}
		p.write(ctx, record)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped.Add(1)
		return
	}
	select {
	case p.queue <- record:
	default:
		p.dropped.Add(1)
		p.logger.WarnContext(ctx, "audit forward buffer full, record dropped",
			"source", record.Entry.Source,
			"action", record.Entry.Action,
			"event_id", record.ID,
		)
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	for record := range p.queue {
		p.write(context.Background(), record)
	}
}

func (p *Publisher) write(ctx context.Context, record audit.Record) {
	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()
	if err := p.sink.Write(ctx, record); err != nil {
		p.failed.Add(1)
		p.logger.WarnContext(ctx, "audit forward failed",
			"source", record.Entry.Source,
			"action", record.Entry.Action,
			"event_id", record.ID,
			"error", err,
		)
	}
}

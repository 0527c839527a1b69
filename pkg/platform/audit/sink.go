package audit

//go:generate mockgen -source=sink.go -destination=mocks/mocks.go -package=mocks Sink

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pawtrail/pkg/platform/auditlog"
)

// Record is an entry as it left a log, ready for an archive or stream.
type Record struct {
	ID        uuid.UUID
	Timestamp time.Time
	Entry     Entry
}

// RecordFromEvent converts a log event into a Record.
func RecordFromEvent(e auditlog.Event[Entry]) Record {
	return Record{ID: e.ID, Timestamp: e.Timestamp, Entry: e.Payload.Clone()}
}

// Event converts the record back into the log's event shape.
func (r Record) Event() auditlog.Event[Entry] {
	return auditlog.Event[Entry]{ID: r.ID, Timestamp: r.Timestamp, Payload: r.Entry}
}

// Sink receives records after they are appended to their log. Sinks are
// secondary copies; the in-memory log stays authoritative.
type Sink interface {
	Write(ctx context.Context, record Record) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, record Record) error

func (f SinkFunc) Write(ctx context.Context, record Record) error {
	return f(ctx, record)
}

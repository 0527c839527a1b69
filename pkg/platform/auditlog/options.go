package auditlog

import (
	"time"

	"github.com/google/uuid"
)

// DefaultEmptySummary is returned by AccessibilitySummary when the log is empty.
const DefaultEmptySummary = "No events recorded."

// Summarizer renders a short human readable description of an event.
type Summarizer[T any] func(Event[T]) string

// Observer is notified about changes to a Log. Calls happen after the log's
// lock is released, so an Observer may read from the log.
type Observer interface {
	Appended()
	Evicted(n int)
	Cleared(n int)
}

// Option configures a Log.
type Option[T any] func(*Log[T])

// WithClock overrides the time source used to stamp events.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(l *Log[T]) {
		if now != nil {
			l.now = now
		}
	}
}

// WithIDGenerator overrides how event ids are generated.
func WithIDGenerator[T any](gen func() uuid.UUID) Option[T] {
	return func(l *Log[T]) {
		if gen != nil {
			l.newID = gen
		}
	}
}

// WithSummarizer sets the projection used by AccessibilitySummary.
func WithSummarizer[T any](s Summarizer[T]) Option[T] {
	return func(l *Log[T]) {
		if s != nil {
			l.summarize = s
		}
	}
}

// WithEmptySummary replaces DefaultEmptySummary for this log.
func WithEmptySummary[T any](msg string) Option[T] {
	return func(l *Log[T]) {
		l.emptySummary = msg
	}
}

// WithCloner sets how payloads are deep-copied. The log stores a copy of each
// appended payload and hands out copies from Recent, All and Last, so callers
// cannot reach stored state through a payload that holds slices or maps.
func WithCloner[T any](clone func(T) T) Option[T] {
	return func(l *Log[T]) {
		l.clone = clone
	}
}

// WithObserver registers an Observer.
func WithObserver[T any](o Observer) Option[T] {
	return func(l *Log[T]) {
		l.observer = o
	}
}

func defaultSummary[T any](e Event[T]) string {
	return "Event recorded at " + e.Timestamp.UTC().Format(time.RFC1123)
}

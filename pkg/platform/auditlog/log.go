package auditlog

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Log is a bounded FIFO of events. When full, the oldest event is dropped to
// make room for the new one.
type Log[T any] struct {
	mu       sync.RWMutex
	events   []Event[T]
	head     int // position of the oldest event
	count    int
	capacity int
	last     time.Time

	now          func() time.Time
	newID        func() uuid.UUID
	clone        func(T) T
	summarize    Summarizer[T]
	emptySummary string
	observer     Observer
}

// New creates a log holding at most capacity events. It panics if capacity is
// not positive.
func New[T any](capacity int, opts ...Option[T]) *Log[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("auditlog: capacity must be positive, got %d", capacity))
	}
	l := &Log[T]{
		events:       make([]Event[T], capacity),
		capacity:     capacity,
		now:          time.Now,
		newID:        uuid.New,
		summarize:    defaultSummary[T],
		emptySummary: DefaultEmptySummary,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append records payload and returns the id of the new event.
func (l *Log[T]) Append(payload T) uuid.UUID {
	return l.AppendEvent(payload).ID
}

// AppendEvent records payload and returns the stored event.
func (l *Log[T]) AppendEvent(payload T) Event[T] {
	l.mu.Lock()
	ts := l.now()
	if ts.Before(l.last) {
		ts = l.last
	}
	l.last = ts

	event := Event[T]{ID: l.newID(), Timestamp: ts, Payload: payload}
	stored := l.copyEvent(event)

	evicted := 0
	if l.count == l.capacity {
		l.head = (l.head + 1) % l.capacity
		l.count--
		evicted = 1
	}
	l.events[(l.head+l.count)%l.capacity] = stored
	l.count++
	l.mu.Unlock()

	if l.observer != nil {
		l.observer.Appended()
		if evicted > 0 {
			l.observer.Evicted(evicted)
		}
	}
	return event
}

// Recent returns up to limit of the newest events, oldest first.
func (l *Log[T]) Recent(limit int) []Event[T] {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 {
		return []Event[T]{}
	}
	if limit > l.count {
		limit = l.count
	}
	return l.sliceLocked(l.count-limit, l.count)
}

// All returns every stored event, oldest first.
func (l *Log[T]) All() []Event[T] {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sliceLocked(0, l.count)
}

// Last returns the newest event.
func (l *Log[T]) Last() (Event[T], bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.count == 0 {
		return Event[T]{}, false
	}
	return l.copyEvent(l.events[(l.head+l.count-1)%l.capacity]), true
}

// Len returns the number of stored events.
func (l *Log[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Cap returns the capacity the log was created with.
func (l *Log[T]) Cap() int {
	return l.capacity
}

// ExportLastJSON returns the newest event as indented JSON. ok is false when
// the log is empty or the event cannot be marshaled.
func (l *Log[T]) ExportLastJSON() (string, bool) {
	event, ok := l.Last()
	if !ok {
		return "", false
	}
	b, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		return "", false
	}
	return string(b), true
}

// ExportAllJSON returns events [page*pageSize, (page+1)*pageSize) as a compact
// JSON array. ok is false for invalid arguments, a page past the end of the
// log, or a marshal failure.
func (l *Log[T]) ExportAllJSON(page, pageSize int) (string, bool) {
	if page < 0 || pageSize <= 0 {
		return "", false
	}

	l.mu.RLock()
	start := page * pageSize
	if start/pageSize != page || start >= l.count {
		l.mu.RUnlock()
		return "", false
	}
	end := min(start+pageSize, l.count)
	events := l.sliceLocked(start, end)
	l.mu.RUnlock()

	b, err := json.Marshal(events)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Clear removes every event.
func (l *Log[T]) Clear() {
	l.mu.Lock()
	n := l.count
	clear(l.events)
	l.head = 0
	l.count = 0
	l.mu.Unlock()

	if l.observer != nil && n > 0 {
		l.observer.Cleared(n)
	}
}

// AccessibilitySummary describes the newest event for assistive surfaces.
func (l *Log[T]) AccessibilitySummary() string {
	event, ok := l.Last()
	if !ok {
		return l.emptySummary
	}
	return l.summarize(event)
}

// sliceLocked copies logical positions [from, to). Caller holds l.mu.
func (l *Log[T]) sliceLocked(from, to int) []Event[T] {
	out := make([]Event[T], 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, l.copyEvent(l.events[(l.head+i)%l.capacity]))
	}
	return out
}

func (l *Log[T]) copyEvent(e Event[T]) Event[T] {
	if l.clone != nil {
		e.Payload = l.clone(e.Payload)
	}
	return e
}

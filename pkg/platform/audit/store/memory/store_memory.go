package memory

import (
	"context"
	"slices"
	"sync"

	audit "pawtrail/pkg/platform/audit"
)

// InMemoryStore keeps forwarded records in arrival order. It is the default
// sink in development and the sink used by publisher tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []audit.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}

// Write implements audit.Sink.
func (s *InMemoryStore) Write(_ context.Context, record audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// ListBySource returns records for one source, oldest first.
func (s *InMemoryStore) ListBySource(_ context.Context, source audit.Source) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Record
	for _, r := range s.records {
		if r.Entry.Source == source {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListAll returns every record, oldest first.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records), nil
}

// ListRecent returns the most recent limit records, oldest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := max(len(s.records)-limit, 0)
	return slices.Clone(s.records[start:]), nil
}

// Len returns the number of stored records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

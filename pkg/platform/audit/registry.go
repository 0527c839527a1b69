package audit

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"pawtrail/pkg/platform/auditlog"
)

// DefaultCapacity is the size of a source log without an override.
const DefaultCapacity = 500

// defaultCapacities carries the larger logs used by chatty subsystems.
var defaultCapacities = map[Source]int{
	SourceMigration:      1000,
	SourceDemoData:       1000,
	SourceSpotlightIndex: 1000,
}

// Registry owns one bounded log per source. Logs are created on first use and
// live as long as the registry.
type Registry struct {
	mu              sync.Mutex
	logs            map[Source]*auditlog.Log[Entry]
	defaultCapacity int
	capacities      map[Source]int
	observerFor     func(Source) auditlog.Observer
	now             func() time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithCapacity sets the capacity for one source.
func WithCapacity(source Source, capacity int) RegistryOption {
	return func(r *Registry) {
		if capacity > 0 {
			r.capacities[source] = capacity
		}
	}
}

// WithCapacities sets capacities for several sources at once.
func WithCapacities(capacities map[Source]int) RegistryOption {
	return func(r *Registry) {
		for source, capacity := range capacities {
			if capacity > 0 {
				r.capacities[source] = capacity
			}
		}
	}
}

// WithObserverFactory attaches an observer to each log as it is created.
func WithObserverFactory(fn func(Source) auditlog.Observer) RegistryOption {
	return func(r *Registry) {
		r.observerFor = fn
	}
}

// WithClock sets the time source for every log.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry creates a registry. A non-positive defaultCapacity falls back
// to DefaultCapacity.
func NewRegistry(defaultCapacity int, opts ...RegistryOption) *Registry {
	if defaultCapacity <= 0 {
		defaultCapacity = DefaultCapacity
	}
	r := &Registry{
		logs:            make(map[Source]*auditlog.Log[Entry]),
		defaultCapacity: defaultCapacity,
		capacities:      maps.Clone(defaultCapacities),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Log returns the log for source, creating it if needed.
func (r *Registry) Log(source Source) *auditlog.Log[Entry] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.logs[source]; ok {
		return l
	}

	opts := []auditlog.Option[Entry]{
		auditlog.WithClock[Entry](r.now),
		auditlog.WithSummarizer(Summarizer(r.now)),
		auditlog.WithCloner(Entry.Clone),
	}
	if r.observerFor != nil {
		if obs := r.observerFor(source); obs != nil {
			opts = append(opts, auditlog.WithObserver[Entry](obs))
		}
	}
	l := auditlog.New[Entry](r.capacityLocked(source), opts...)
	r.logs[source] = l
	return l
}

// Lookup returns the log for source without creating it.
func (r *Registry) Lookup(source Source) (*auditlog.Log[Entry], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.logs[source]
	return l, ok
}

// Capacity reports the capacity source has or will have.
func (r *Registry) Capacity(source Source) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capacityLocked(source)
}

// Sources lists the sources that have a log, in name order.
func (r *Registry) Sources() []Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.logs))
}

// Stats describes one log for diagnostics listings.
type Stats struct {
	Source   Source `json:"source"`
	Len      int    `json:"len"`
	Capacity int    `json:"capacity"`
}

func (s Stats) String() string {
	return fmt.Sprintf("%s %d/%d", s.Source, s.Len, s.Capacity)
}

// Stats returns length and capacity for every created log.
func (r *Registry) Stats() []Stats {
	sources := r.Sources()
	out := make([]Stats, 0, len(sources))
	for _, source := range sources {
		l, ok := r.Lookup(source)
		if !ok {
			continue
		}
		out = append(out, Stats{Source: source, Len: l.Len(), Capacity: l.Cap()})
	}
	return out
}

func (r *Registry) capacityLocked(source Source) int {
	if c, ok := r.capacities[source]; ok {
		return c
	}
	return r.defaultCapacity
}

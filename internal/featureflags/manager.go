// Package featureflags holds the salon's runtime switches (online booking,
// SMS reminders and so on). Every change is recorded in the feature_flags
// audit log with its before and after value.
package featureflags

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	dErrors "pawtrail/pkg/domain-errors"
	audit "pawtrail/pkg/platform/audit"
)

// Emitter records audit entries.
type Emitter interface {
	Emit(ctx context.Context, entry audit.Entry) (uuid.UUID, error)
}

// Manager stores boolean flags in memory.
type Manager struct {
	mu       sync.RWMutex
	flags    map[string]bool
	defaults map[string]bool
	audit    Emitter
	logger   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used when an audit entry cannot be recorded.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a manager seeded with defaults.
func New(defaults map[string]bool, emitter Emitter, opts ...Option) *Manager {
	m := &Manager{
		flags:    maps.Clone(defaults),
		defaults: maps.Clone(defaults),
		audit:    emitter,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if m.flags == nil {
		m.flags = make(map[string]bool)
		m.defaults = make(map[string]bool)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Enabled reports whether name is on. Unknown flags are off.
func (m *Manager) Enabled(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags[name]
}

// Snapshot returns a copy of every flag.
func (m *Manager) Snapshot() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.flags)
}

// Set turns name on or off. Setting a flag to its current value records nothing.
func (m *Manager) Set(ctx context.Context, name string, enabled bool) error {
	name, err := normalize(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	// Unknown flags read as off, so turning one off changes nothing.
	before := m.flags[name]
	if before == enabled {
		m.mu.Unlock()
		return nil
	}
	m.flags[name] = enabled
	m.mu.Unlock()

	m.record(ctx, audit.Entry{
		Source: audit.SourceFeatureFlags,
		Action: audit.ActionFlagChanged,
		Target: name,
		Before: strconv.FormatBool(before),
		After:  strconv.FormatBool(enabled),
	})
	return nil
}

// Toggle flips name and returns the new value.
func (m *Manager) Toggle(ctx context.Context, name string) (bool, error) {
	name, err := normalize(name)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	before := m.flags[name]
	m.flags[name] = !before
	m.mu.Unlock()

	m.record(ctx, audit.Entry{
		Source: audit.SourceFeatureFlags,
		Action: audit.ActionFlagChanged,
		Target: name,
		Before: strconv.FormatBool(before),
		After:  strconv.FormatBool(!before),
	})
	return !before, nil
}

// Reset restores the defaults and returns the names that changed.
func (m *Manager) Reset(ctx context.Context) []string {
	m.mu.Lock()
	var changed []string
	for name, value := range m.flags {
		if def, ok := m.defaults[name]; !ok || def != value {
			changed = append(changed, name)
		}
	}
	m.flags = maps.Clone(m.defaults)
	m.mu.Unlock()

	slices.Sort(changed)
	m.record(ctx, audit.Entry{
		Source: audit.SourceFeatureFlags,
		Action: audit.ActionFlagsReset,
		Detail: fmt.Sprintf("%d flags restored", len(changed)),
		Tags:   changed,
	})
	return changed
}

func (m *Manager) record(ctx context.Context, entry audit.Entry) {
	if m.audit == nil {
		return
	}
	if _, err := m.audit.Emit(ctx, entry); err != nil {
		m.logger.WarnContext(ctx, "failed to record flag audit entry",
			"action", entry.Action,
			"flag", entry.Target,
			"error", err,
		)
	}
}

func normalize(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", dErrors.New(dErrors.CodeValidation, "flag name is required")
	}
	return strings.ToLower(name), nil
}

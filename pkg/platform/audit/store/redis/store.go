// Package redis mirrors audit logs into Redis lists so that other processes
// can read recent history. Each list is trimmed to the capacity of its source
// log, keeping the mirror bounded the same way the log is.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"

	audit "pawtrail/pkg/platform/audit"
	"pawtrail/pkg/platform/auditlog"
)

const defaultPrefix = "pawtrail:audit:"

// Store is a Sink backed by one Redis list per source, newest first.
type Store struct {
	client   redis.Cmdable
	prefix   string
	capacity func(audit.Source) int
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// New creates a mirror. capacity reports the list bound for a source,
// usually Registry.Capacity.
func New(client redis.Cmdable, capacity func(audit.Source) int, opts ...Option) *Store {
	s := &Store{
		client:   client,
		prefix:   defaultPrefix,
		capacity: capacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the list key for source.
func (s *Store) Key(source audit.Source) string {
	return s.prefix + string(source)
}

// Write implements audit.Sink.
func (s *Store) Write(ctx context.Context, record audit.Record) error {
	payload, err := json.Marshal(record.Event())
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	key := s.Key(record.Entry.Source)
	limit := max(s.capacity(record.Entry.Source), 1)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, int64(limit-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("mirror audit record: %w", err)
	}
	return nil
}

// ListRecent returns up to limit of the newest mirrored records, oldest first.
func (s *Store) ListRecent(ctx context.Context, source audit.Source, limit int) ([]audit.Record, error) {
	if limit <= 0 {
		return []audit.Record{}, nil
	}
	raw, err := s.client.LRange(ctx, s.Key(source), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read audit mirror: %w", err)
	}

	records := make([]audit.Record, 0, len(raw))
	for _, item := range slices.Backward(raw) {
		var event auditlog.Event[audit.Entry]
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			return nil, fmt.Errorf("decode audit mirror entry: %w", err)
		}
		records = append(records, audit.RecordFromEvent(event))
	}
	return records, nil
}

// Len returns the length of the mirror for source.
func (s *Store) Len(ctx context.Context, source audit.Source) (int64, error) {
	return s.client.LLen(ctx, s.Key(source)).Result()
}

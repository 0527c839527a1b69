package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	audit "pawtrail/pkg/platform/audit"
	"pawtrail/pkg/platform/tx"
)

// Store archives forwarded audit records in the audit_archive table. Inserts
// are idempotent on the event id, so a record replayed after a retry is kept
// once.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL archive over db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const schema = `
	CREATE TABLE IF NOT EXISTS audit_archive (
		id          UUID PRIMARY KEY,
		source      TEXT NOT NULL,
		action      TEXT NOT NULL,
		category    TEXT NOT NULL,
		occurred_at TIMESTAMPTZ NOT NULL,
		actor       TEXT NOT NULL DEFAULT '',
		target      TEXT NOT NULL DEFAULT '',
		before      TEXT NOT NULL DEFAULT '',
		after       TEXT NOT NULL DEFAULT '',
		detail      TEXT NOT NULL DEFAULT '',
		tags        TEXT[] NOT NULL DEFAULT '{}',
		request_id  TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS audit_archive_source_occurred_at
		ON audit_archive (source, occurred_at DESC);
`

// Migrate creates the archive table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create audit_archive: %w", err)
	}
	return nil
}

// Write implements audit.Sink. It joins a transaction carried by ctx.
func (s *Store) Write(ctx context.Context, record audit.Record) error {
	query := `
		INSERT INTO audit_archive (
			id, source, action, category, occurred_at,
			actor, target, before, after, detail, tags, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`
	e := record.Entry
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := tx.ExecerFrom(ctx, s.db).ExecContext(ctx, query,
		record.ID,
		string(e.Source),
		string(e.Action),
		string(e.Category),
		record.Timestamp,
		e.Actor,
		e.Target,
		e.Before,
		e.After,
		e.Detail,
		pq.Array(tags),
		e.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// WriteBatch archives records in one transaction; either all are stored or
// none are.
func (s *Store) WriteBatch(ctx context.Context, records []audit.Record) error {
	if len(records) == 0 {
		return nil
	}
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		for _, record := range records {
			if err := s.Write(ctx, record); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListRecent returns up to limit of the newest records for source, oldest first.
func (s *Store) ListRecent(ctx context.Context, source audit.Source, limit int) ([]audit.Record, error) {
	query := `
		SELECT id, source, action, category, occurred_at,
			   actor, target, before, after, detail, tags, request_id
		FROM (
			SELECT * FROM audit_archive
			WHERE source = $1
			ORDER BY occurred_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY occurred_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, string(source), limit)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Count returns the number of archived records for source.
func (s *Store) Count(ctx context.Context, source audit.Source) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM audit_archive WHERE source = $1`, string(source)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count audit records: %w", err)
	}
	return n, nil
}

func scanRecords(rows *sql.Rows) ([]audit.Record, error) {
	var records []audit.Record

	for rows.Next() {
		var (
			record                   audit.Record
			id                       uuid.UUID
			source, action, category string
			tags                     []string
		)
		err := rows.Scan(
			&id,
			&source,
			&action,
			&category,
			&record.Timestamp,
			&record.Entry.Actor,
			&record.Entry.Target,
			&record.Entry.Before,
			&record.Entry.After,
			&record.Entry.Detail,
			pq.Array(&tags),
			&record.Entry.RequestID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}

		record.ID = id
		record.Entry.Source = audit.Source(source)
		record.Entry.Action = audit.Action(action)
		record.Entry.Category = audit.Category(category)
		if len(tags) > 0 {
			record.Entry.Tags = tags
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}
	return records, nil
}

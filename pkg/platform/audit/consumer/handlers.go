package consumer

import (
	"context"
	"fmt"
	"log/slog"

	audit "pawtrail/pkg/platform/audit"
)

// ArchiveHandler writes records to a sink, typically the postgres archive.
type ArchiveHandler struct {
	sink   audit.Sink
	logger *slog.Logger
}

// NewArchiveHandler creates a handler that archives every record it gets.
func NewArchiveHandler(sink audit.Sink, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{sink: sink, logger: logger}
}

// Handle archives record.
func (h *ArchiveHandler) Handle(ctx context.Context, record audit.Record) error {
	if err := h.sink.Write(ctx, record); err != nil {
		h.logger.Error("failed to archive audit record",
			"event_id", record.ID,
			"source", record.Entry.Source,
			"action", record.Entry.Action,
			"error", err,
		)
		return fmt.Errorf("archive audit record: %w", err)
	}

	h.logger.Debug("archived audit record",
		"event_id", record.ID,
		"action", record.Entry.Action,
	)
	return nil
}

// SecurityHandler raises a warning log line for each security record so log
// based alerting can pick it up, then hands the record on to next.
type SecurityHandler struct {
	next   Handler
	logger *slog.Logger
}

// NewSecurityHandler creates a security handler. next may be nil.
func NewSecurityHandler(next Handler, logger *slog.Logger) *SecurityHandler {
	return &SecurityHandler{next: next, logger: logger}
}

// Handle logs and forwards record.
func (h *SecurityHandler) Handle(ctx context.Context, record audit.Record) error {
	h.logger.WarnContext(ctx, "security audit event",
		"event_id", record.ID,
		"source", record.Entry.Source,
		"action", record.Entry.Action,
		"actor", record.Entry.Actor,
		"target", record.Entry.Target,
		"detail", record.Entry.Detail,
		"request_id", record.Entry.RequestID,
		"occurred_at", record.Timestamp,
	)
	if h.next == nil {
		return nil
	}
	return h.next.Handle(ctx, record)
}

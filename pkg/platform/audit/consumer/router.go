// Package consumer routes audit records read back from the stream to
// category specific handlers.
package consumer

import (
	"context"
	"log/slog"

	audit "pawtrail/pkg/platform/audit"
)

// Handler handles one audit record.
type Handler interface {
	Handle(ctx context.Context, record audit.Record) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, record audit.Record) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, record audit.Record) error {
	return f(ctx, record)
}

// Router dispatches records to the handler registered for their category.
type Router struct {
	handlers map[audit.Category]Handler
	fallback Handler
	logger   *slog.Logger
}

// NewRouter creates a category router with an optional fallback handler.
func NewRouter(logger *slog.Logger, fallback Handler) *Router {
	return &Router{
		handlers: make(map[audit.Category]Handler),
		fallback: fallback,
		logger:   logger,
	}
}

// Register adds a handler for a category.
func (r *Router) Register(category audit.Category, handler Handler) {
	r.handlers[category] = handler
}

// Handle routes the record to the handler for its category.
func (r *Router) Handle(ctx context.Context, record audit.Record) error {
	category := record.Entry.Category
	if category == "" {
		category = record.Entry.Action.Category()
	}

	handler, ok := r.handlers[category]
	if !ok {
		if r.fallback != nil {
			return r.fallback.Handle(ctx, record)
		}
		r.logger.Debug("no handler for category, skipping record",
			"category", category,
			"event_id", record.ID,
		)
		return nil
	}
	return handler.Handle(ctx, record)
}

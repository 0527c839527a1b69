package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	dErrors "pawtrail/pkg/domain-errors"
	audit "pawtrail/pkg/platform/audit"
	"pawtrail/pkg/platform/auditlog"
	"pawtrail/pkg/platform/httputil"
	"pawtrail/pkg/platform/middleware/admin"
	"pawtrail/pkg/requestcontext"
)

const (
	defaultRecentLimit    = 50
	defaultExportPageSize = 100
	maxImportBytes        = 4 << 20
)

// Logs is the audit surface the handler reads from and writes to.
type Logs interface {
	Registry() *audit.Registry
	Emit(ctx context.Context, entry audit.Entry) (uuid.UUID, error)
}

// Handler serves the audit diagnostics endpoints.
type Handler struct {
	logger     *slog.Logger
	logs       Logs
	adminToken string
}

// New creates a new audit diagnostics Handler.
func New(logs Logs, logger *slog.Logger, adminToken string) *Handler {
	return &Handler{
		logger:     logger,
		logs:       logs,
		adminToken: adminToken,
	}
}

// Register registers the audit routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/audit/logs", func(r chi.Router) {
		r.Get("/", h.handleListLogs)
		r.Route("/{source}", func(r chi.Router) {
			r.Get("/recent", h.handleRecent)
			r.Get("/last", h.handleLast)
			r.Get("/export", h.handleExport)
			r.Get("/summary", h.handleSummary)

			r.Group(func(r chi.Router) {
				r.Use(admin.RequireAdminToken(h.adminToken, h.logger))
				r.Delete("/", h.handleClear)
				r.Post("/import", h.handleImport)
			})
		})
	})
}

func (h *Handler) handleListLogs(w http.ResponseWriter, r *http.Request) {
	registry := h.logs.Registry()
	sources := audit.KnownSources()

	resp := ListLogsResponse{Logs: make([]LogInfo, 0, len(sources))}
	for _, source := range sources {
		info := LogInfo{Source: source, Capacity: registry.Capacity(source)}
		if l, ok := registry.Lookup(source); ok {
			info.Len = l.Len()
			info.Summary = l.AccessibilitySummary()
		} else {
			info.Summary = audit.EmptySummary
		}
		resp.Logs = append(resp.Logs, info)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	source, err := sourceParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := intQuery(r, "limit", defaultRecentLimit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events := []auditlog.Event[audit.Entry]{}
	if l, ok := h.logs.Registry().Lookup(source); ok {
		events = l.Recent(limit)
	}
	httputil.WriteJSON(w, http.StatusOK, RecentResponse{
		Source: source,
		Count:  len(events),
		Events: events,
	})
}

func (h *Handler) handleLast(w http.ResponseWriter, r *http.Request) {
	source, err := sourceParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var body string
	ok := false
	if l, found := h.logs.Registry().Lookup(source); found {
		body, ok = l.ExportLastJSON()
	}
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("audit log %s is empty", source)))
		return
	}
	httputil.WriteRawJSON(w, http.StatusOK, body)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	source, err := sourceParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := intQuery(r, "page", 0)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	pageSize, err := intQuery(r, "page_size", defaultExportPageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if pageSize == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "page_size must be positive"))
		return
	}

	var body string
	ok := false
	if l, found := h.logs.Registry().Lookup(source); found {
		body, ok = l.ExportAllJSON(page, pageSize)
	}
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("page %d of audit log %s is out of range", page, source)))
		return
	}
	httputil.WriteRawJSON(w, http.StatusOK, body)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	source, err := sourceParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	summary := audit.EmptySummary
	if l, ok := h.logs.Registry().Lookup(source); ok {
		summary = l.AccessibilitySummary()
	}
	httputil.WriteJSON(w, http.StatusOK, SummaryResponse{Source: source, Summary: summary})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	source, err := sourceParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cleared := 0
	if l, ok := h.logs.Registry().Lookup(source); ok {
		cleared = l.Len()
		l.Clear()
	}

	eventID, err := h.logs.Emit(ctx, audit.Entry{
		Source: audit.SourceDiagnostics,
		Action: audit.ActionLogCleared,
		Target: string(source),
		Before: strconv.Itoa(cleared),
		After:  "0",
		Detail: clientDetail(ctx),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to record audit log clear",
			"request_id", requestID,
			"source", source,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to record clear"))
		return
	}

	h.logger.InfoContext(ctx, "audit log cleared",
		"request_id", requestID,
		"source", source,
		"cleared", cleared,
		"client_ip", requestcontext.ClientIP(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, ClearResponse{Source: source, Cleared: cleared, EventID: eventID})
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	source, err := sourceParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var events []auditlog.Event[audit.Entry]
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBytes)).Decode(&events); err != nil {
		h.logger.WarnContext(ctx, "invalid audit import body",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body must be an exported audit page"))
		return
	}
	for i, ev := range events {
		if ev.Payload.Action == "" {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("event %d has no action", i)))
			return
		}
	}

	for _, ev := range events {
		entry := ev.Payload
		entry.Source = source
		if _, err := h.logs.Emit(ctx, entry); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	eventID, err := h.logs.Emit(ctx, audit.Entry{
		Source: audit.SourceDiagnostics,
		Action: audit.ActionLogImported,
		Target: string(source),
		After:  strconv.Itoa(len(events)),
		Detail: clientDetail(ctx),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to record audit import",
			"request_id", requestID,
			"source", source,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to record import"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ImportResponse{Source: source, Imported: len(events), EventID: eventID})
}

func sourceParam(r *http.Request) (audit.Source, error) {
	raw := chi.URLParam(r, "source")
	source, err := audit.ParseSource(raw)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeNotFound, fmt.Sprintf("unknown audit log %q", raw))
	}
	return source, nil
}

func intQuery(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("%s must be a non-negative integer", key))
	}
	return n, nil
}

func clientDetail(ctx context.Context) string {
	ip := requestcontext.ClientIP(ctx)
	if ip == "" {
		ip = "unknown"
	}
	device := requestcontext.Device(ctx)
	if device == "" {
		device = "unknown"
	}
	return fmt.Sprintf("client %s using %s", ip, device)
}

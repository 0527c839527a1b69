package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "pawtrail/pkg/domain-errors"
	"pawtrail/pkg/platform/httputil"
	"pawtrail/pkg/platform/middleware/admin"
	"pawtrail/pkg/requestcontext"
)

// Service defines the flag operations exposed over HTTP.
type Service interface {
	Snapshot() map[string]bool
	Enabled(name string) bool
	Set(ctx context.Context, name string, enabled bool) error
	Toggle(ctx context.Context, name string) (bool, error)
	Reset(ctx context.Context) []string
}

// Handler serves the feature flag endpoints.
type Handler struct {
	logger     *slog.Logger
	flags      Service
	adminToken string
}

// New creates a feature flag Handler.
func New(flags Service, logger *slog.Logger, adminToken string) *Handler {
	return &Handler{logger: logger, flags: flags, adminToken: adminToken}
}

type setFlagRequest struct {
	Enabled *bool `json:"enabled"`
}

type flagResponse struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Register registers the flag routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/flags", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Put("/{name}", h.handleSet)
		r.Post("/{name}/toggle", h.handleToggle)
		r.With(admin.RequireAdminToken(h.adminToken, h.logger)).Post("/reset", h.handleReset)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"flags": h.flags.Snapshot()})
}

func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	var req setFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		h.logger.WarnContext(ctx, "invalid set flag request",
			"request_id", requestcontext.RequestID(ctx),
			"flag", name,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, `request body must be {"enabled": true|false}`))
		return
	}
	if err := h.flags.Set(ctx, name, *req.Enabled); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, flagResponse{Name: name, Enabled: h.flags.Enabled(name)})
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	enabled, err := h.flags.Toggle(r.Context(), name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, flagResponse{Name: name, Enabled: enabled})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	changed := h.flags.Reset(r.Context())
	if changed == nil {
		changed = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"changed": changed})
}

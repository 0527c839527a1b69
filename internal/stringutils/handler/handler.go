package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pawtrail/internal/stringutils"
	dErrors "pawtrail/pkg/domain-errors"
	"pawtrail/pkg/platform/httputil"
)

// Transformer applies text transformations.
type Transformer interface {
	Transform(ctx context.Context, op stringutils.Op, value string) (string, error)
}

// Handler exposes text normalization to the booking forms.
type Handler struct {
	transformer Transformer
}

// New creates a string utilities Handler.
func New(transformer Transformer) *Handler {
	return &Handler{transformer: transformer}
}

type transformRequest struct {
	Op    string `json:"op"`
	Value string `json:"value"`
}

type transformResponse struct {
	Op     string `json:"op"`
	Result string `json:"result"`
}

// Register registers the string routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/strings/transform", h.handleTransform)
}

func (h *Handler) handleTransform(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.transformer.Transform(r.Context(), stringutils.Op(req.Op), req.Value)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, transformResponse{Op: req.Op, Result: result})
}

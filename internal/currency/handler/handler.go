package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	dErrors "pawtrail/pkg/domain-errors"
	"pawtrail/pkg/platform/httputil"
)

// Formatter renders amounts.
type Formatter interface {
	Format(ctx context.Context, amount float64, code string) (string, error)
}

// Handler serves price formatting for the front desk screens.
type Handler struct {
	formatter Formatter
}

// New creates a currency Handler.
func New(formatter Formatter) *Handler {
	return &Handler{formatter: formatter}
}

// Register registers the currency routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/currency/format", h.handleFormat)
}

func (h *Handler) handleFormat(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "amount must be a number"))
		return
	}
	code := q.Get("code")

	formatted, err := h.formatter.Format(r.Context(), amount, code)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"code":      code,
		"formatted": formatted,
	})
}

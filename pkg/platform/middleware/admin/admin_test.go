package admin

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"pawtrail/pkg/requestcontext"
	"pawtrail/pkg/testutil"
)

func TestRequireAdminToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var gotActor string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor = requestcontext.Actor(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("valid token passes and sets actor", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodDelete, "/audit/logs/backup")
		req.Header.Set("X-Admin-Token", "s3cret")

		rr := testutil.DoRequest(RequireAdminToken("s3cret", logger)(next), req)
		testutil.AssertStatus(t, rr, http.StatusNoContent)
		assert.Equal(t, Actor, gotActor)
	})

	t.Run("existing actor is kept", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodDelete, "/audit/logs/backup")
		req.Header.Set("X-Admin-Token", "s3cret")
		req = req.WithContext(requestcontext.WithActor(req.Context(), "owner"))

		testutil.DoRequest(RequireAdminToken("s3cret", logger)(next), req)
		assert.Equal(t, "owner", gotActor)
	})

	t.Run("wrong token is rejected", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodDelete, "/audit/logs/backup")
		req.Header.Set("X-Admin-Token", "guess")

		rr := testutil.DoRequest(RequireAdminToken("s3cret", logger)(next), req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("empty configured token rejects everything", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodDelete, "/audit/logs/backup")

		rr := testutil.DoRequest(RequireAdminToken("", logger)(next), req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}

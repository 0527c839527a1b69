package request

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawtrail/pkg/requestcontext"
	"pawtrail/pkg/testutil"
)

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	t.Run("incoming id is kept", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set(Header, "req-123")
		rr := testutil.DoRequest(handler, req)
		assert.Equal(t, "req-123", seen)
		assert.Equal(t, "req-123", rr.Header().Get(Header))
	})

	t.Run("missing id is generated", func(t *testing.T) {
		rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/"))
		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, rr.Header().Get(Header))
	})

	t.Run("oversized id is replaced", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/")
		req.Header.Set(Header, strings.Repeat("x", 200))
		testutil.DoRequest(handler, req)
		assert.Len(t, seen, 36)
	})
}

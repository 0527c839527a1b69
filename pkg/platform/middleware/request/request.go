// Package request assigns every request an id that follows it into logs
// and audit entries.
package request

import (
	"net/http"

	"github.com/google/uuid"

	"pawtrail/pkg/requestcontext"
)

// Header carries the request id in and out.
const Header = "X-Request-ID"

// RequestID reuses an incoming X-Request-ID or generates one, stores it in
// the context and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), id)))
	})
}

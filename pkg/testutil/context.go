package testutil

import (
	"net/http"

	"pawtrail/pkg/requestcontext"
)

// WithActor sets the acting staff member on the request context.
// This simulates what the metadata middleware does for the X-Actor header.
func WithActor(req *http.Request, actor string) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithClient sets client IP, User-Agent and device label.
func WithClient(req *http.Request, ip, userAgent, device string) *http.Request {
	ctx := requestcontext.WithClientMetadata(req.Context(), ip, userAgent, device)
	return req.WithContext(ctx)
}

// WithRequestID sets the request id on the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithAdminToken sets the admin header used by guarded routes.
func WithAdminToken(req *http.Request, token string) *http.Request {
	req.Header.Set("X-Admin-Token", token)
	return req
}

// Package metadata records who is calling: client IP, raw User-Agent, a
// short device label and the acting staff member.
package metadata

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"pawtrail/pkg/requestcontext"
)

// ActorHeader names the staff member acting through the front desk app.
const ActorHeader = "X-Actor"

// ClientMetadata extracts client IP address and User-Agent from the request
// and adds them to the context for use by handlers and publishers.
// This middleware should be applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(),
			ClientIPFromRequest(r),
			userAgent,
			DeviceLabel(userAgent),
		)
		if actor := strings.TrimSpace(r.Header.Get(ActorHeader)); actor != "" {
			ctx = requestcontext.WithActor(ctx, actor)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DeviceLabel turns a User-Agent into a short label such as
// "Firefox on Linux", with " (mobile)" appended for phones and tablets.
func DeviceLabel(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "unknown"
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		name, _ := ua.Browser()
		if name == "" {
			return "bot"
		}
		return "bot: " + name
	}

	browser, _ := ua.Browser()
	if browser == "" {
		browser = "unknown browser"
	}
	label := browser
	if osName := ua.OSInfo().Name; osName != "" {
		label += " on " + osName
	} else if platform := ua.Platform(); platform != "" {
		label += " on " + platform
	}
	if ua.Mobile() {
		label += " (mobile)"
	}
	return label
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if addr := r.RemoteAddr; addr != "" {
		if host, _, err := net.SplitHostPort(addr); err == nil {
			return host
		}
		return addr
	}

	return "unknown"
}

package audit

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type requestInfoKey struct{}

type requestInfo struct {
	ipAddress string
	userAgent string
}

// WithRequestInfo attaches the client address and user agent to ctx so that
// Record can stamp them on events.
func WithRequestInfo(ctx context.Context, ipAddress, userAgent string) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, requestInfo{ipAddress: ipAddress, userAgent: userAgent})
}

func requestInfoFromContext(ctx context.Context) (requestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey{}).(requestInfo)
	return info, ok
}

// RequestInfoMiddleware captures client info for audit events
func RequestInfoMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithRequestInfo(r.Context(), ClientIP(r), r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

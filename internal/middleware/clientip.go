package middleware

import (
	"context"
	"net/http"
	"strings"
)

// UnknownClient is the bucket shared by requests carrying no client address.
const UnknownClient = "unknown"

// ClientIP resolves the quota bucket identifier of a request: the first
// X-Forwarded-For entry, else CF-Connecting-IP, else UnknownClient.
// The headers are trusted as set by the fronting proxy.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	return UnknownClient
}

// ClientIPMiddleware stores the resolved client IP in the request context
func ClientIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ClientIPKey, ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientIP retrieves the client IP from the request context
func GetClientIP(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(ClientIPKey).(string)
	return ip, ok
}

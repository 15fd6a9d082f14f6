package middleware

import (
	"context"
	"net/http"

	"validprompt/internal/utils"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
)

// CORSHeaders applies the CORS header set for a validated origin.
func CORSHeaders(h http.Header, origin string) {
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Set("Vary", "Origin")
}

// OriginGuard only lets through requests whose Origin header equals
// allowedOrigin exactly. An empty allowedOrigin rejects everything.
//
// Rejections get 403 with only Vary set. Preflight requests from the allowed
// origin are answered here with 200 and never reach next. Everything else
// reaches next with the CORS headers already set on the response.
func OriginGuard(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowedOrigin == "" || origin != allowedOrigin {
				w.Header().Set("Vary", "Origin")
				utils.RespondWithError(w, http.StatusForbidden, "CORS origin not allowed")
				return
			}

			CORSHeaders(w.Header(), origin)

			if r.Method == http.MethodOptions {
				utils.RespondWithJSON(w, http.StatusOK, struct{}{})
				return
			}

			ctx := context.WithValue(r.Context(), OriginKey, origin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetOrigin retrieves the validated origin from the request context
func GetOrigin(ctx context.Context) (string, bool) {
	origin, ok := ctx.Value(OriginKey).(string)
	return origin, ok
}

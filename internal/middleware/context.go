package middleware

// ContextKey defines the type for context keys to avoid conflicts
type ContextKey string

const (
	OriginKey   ContextKey = "origin"
	ClientIPKey ContextKey = "clientIP"
)

package providers

import (
	"context"
	"time"
)

// Completion is the normalized result of a generation call.
type Completion struct {
	Text            string
	Model           string
	ProviderLatency time.Duration
	// Usage information extracted from the response, zero when absent
	InputTokens  int
	OutputTokens int
}

// Generator turns a short user idea into an expanded prompt.
type Generator interface {
	Generate(ctx context.Context, input string) (*Completion, error)
}

// Authenticator handles authentication for a provider.
type Authenticator interface {
	// Authenticate prepares authentication for a request
	Authenticate(ctx context.Context) (AuthContext, error)
}

// AuthContext holds authentication information for a request
type AuthContext interface {
	// ApplyToRequest applies authentication to an HTTP request
	ApplyToRequest(ctx context.Context, req any) error
}

package logging

import (
	"context"
	"time"
)

// GenerationRecord is the audit entry written for every generate request
// that got past the origin guard. It never carries the upstream credential
// or the raw user input.
type GenerationRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"request_id"`
	ClientIP     string    `json:"client_ip"`
	Day          string    `json:"day"`
	UsageCount   int       `json:"usage_count"`
	StatusCode   int       `json:"status_code"`
	Model        string    `json:"model,omitempty"`
	InputChars   int       `json:"input_chars"`
	InputTokens  int       `json:"input_tokens,omitempty"`
	OutputTokens int       `json:"output_tokens,omitempty"`
	UpstreamMs   int64     `json:"upstream_ms"`
	GatewayMs    int64     `json:"gateway_ms"`
	Error        string    `json:"error,omitempty"`
}

// Sink receives generation records from the HTTP layer.
type Sink interface {
	Enqueue(rec *GenerationRecord) error
	Shutdown(ctx context.Context) error
}

// NoopSink discards records.
type NoopSink struct{}

func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (s *NoopSink) Enqueue(rec *GenerationRecord) error {
	return nil
}

func (s *NoopSink) Shutdown(ctx context.Context) error {
	return nil
}

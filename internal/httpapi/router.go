package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"validprompt/internal/config"
	"validprompt/internal/logging"
	"validprompt/internal/middleware"
	"validprompt/internal/providers"
	"validprompt/internal/ratelimit"
)

// Dependencies aggregates all services the HTTP layer needs.
type Dependencies struct {
	Ledger     ratelimit.Ledger
	Generator  providers.Generator
	Logger     logging.Sink
	DailyLimit int
	Model      string
	// Now is the clock used for quota days; time.Now when nil.
	Now func() time.Time
}

func (d *Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Close flushes the audit sink and releases the ledger backend.
func (d *Dependencies) Close(ctx context.Context) error {
	var firstErr error
	if d.Logger != nil {
		if err := d.Logger.Shutdown(ctx); err != nil {
			firstErr = fmt.Errorf("failed to flush audit sink: %w", err)
		}
	}
	if d.Ledger != nil {
		if err := d.Ledger.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close usage ledger: %w", err)
		}
	}
	return firstErr
}

// NewRouter creates an HTTP router with all dependencies wired up
func NewRouter(ctx context.Context, cfg *config.Config) (*http.ServeMux, *Dependencies, error) {
	if err := cfg.RequireUpstream(); err != nil {
		return nil, nil, err
	}

	ledger, err := ratelimit.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	generator, err := providers.NewOpenAIProvider(providers.OpenAIConfig{
		APIKey:  cfg.Upstream.APIKey,
		BaseURL: cfg.Upstream.BaseURL,
		Model:   cfg.Upstream.Model,
	})
	if err != nil {
		ledger.Close()
		return nil, nil, fmt.Errorf("failed to initialize provider: %w", err)
	}

	sink, err := newSink(ctx, cfg)
	if err != nil {
		ledger.Close()
		return nil, nil, err
	}

	deps := &Dependencies{
		Ledger:     ledger,
		Generator:  generator,
		Logger:     sink,
		DailyLimit: cfg.DailyLimit,
		Model:      generator.Model(),
	}

	return NewMux(deps, cfg), deps, nil
}

// newSink selects the audit sink: S3 batches when enabled, otherwise noop.
func newSink(ctx context.Context, cfg *config.Config) (logging.Sink, error) {
	if !cfg.LoggingSink.Enabled {
		return logging.NewNoopSink(), nil
	}

	sink, err := logging.NewS3Sink(ctx, logging.S3SinkConfig{
		BufferSize:    cfg.LoggingSink.BufferSize,
		FlushSize:     cfg.LoggingSink.FlushSize,
		FlushInterval: cfg.LoggingSink.FlushInterval,
		S3Bucket:      cfg.LoggingSink.S3Bucket,
		S3Region:      cfg.LoggingSink.S3Region,
		S3Prefix:      cfg.LoggingSink.S3Prefix,
		PodName:       cfg.LoggingSink.PodName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 audit sink: %w", err)
	}
	logging.Infof("Audit sink: s3://%s/%s", cfg.LoggingSink.S3Bucket, cfg.LoggingSink.S3Prefix)
	return sink, nil
}

// NewMux registers all routes on a fresh ServeMux.
func NewMux(deps *Dependencies, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Public generation endpoint, gated by origin only
	originGuard := middleware.OriginGuard(cfg.AllowedOrigin)
	mux.Handle("/api/generate", originGuard(middleware.ClientIPMiddleware(http.HandlerFunc(deps.handleGenerate))))

	// Health check endpoint - public
	mux.HandleFunc("/health", deps.handleHealth)

	// Admin endpoints exist only with a signing secret
	if cfg.AdminEnabled() {
		viewerMiddleware := middleware.AdminJWTMiddleware(cfg, "viewer")
		mux.Handle("/admin/usage", viewerMiddleware(http.HandlerFunc(deps.handleAdminUsage)))
	} else {
		logging.Infof("JWT_SECRET not set, admin API disabled")
	}

	return mux
}

func (d *Dependencies) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := d.Ledger.Health(ctx); err != nil {
		logging.Errorf("Health check failed: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Service Unavailable"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

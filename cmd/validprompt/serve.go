package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"validprompt/internal/httpapi"
	"validprompt/internal/logging"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logCloser, err := loadConfig()
			if err != nil {
				return err
			}
			defer logCloser.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			mux, deps, err := httpapi.NewRouter(ctx, cfg)
			if err != nil {
				return err
			}

			addr := ":" + cfg.HTTPPort
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				logging.Infof("ValidPrompt listening on %s (backend=%s, limit=%d/day)", addr, cfg.UsageBackend, cfg.DailyLimit)
				if cfg.AllowedOrigin == "" {
					logging.Warningf("FRONTEND_URL is not set; every /api/generate request will be rejected")
				}
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				if err != nil {
					deps.Close(context.Background())
					return err
				}
			case <-ctx.Done():
			}

			logging.Infof("Shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				logging.Errorf("Server forced to shutdown: %v", err)
			}

			// Flush the audit sink and close the ledger
			if err := deps.Close(shutdownCtx); err != nil {
				logging.Errorf("Shutdown: %v", err)
			}

			logging.Infof("Server exited")
			return nil
		},
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Wayne-Yuw/toolscout-ai/internal/bootstrap"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/config"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/server"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Configure(cfg.Env, cfg.LogFormat)
	defer telemetry.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		telemetry.Info("server.start", map[string]any{"addr": srv.Addr, "env": cfg.Env, "job_store": cfg.JobStore, "llm_provider": cfg.LLMProvider})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			telemetry.Error("server.failed", map[string]any{"error": err.Error()})
		}
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	telemetry.Info("server.shutdown", map[string]any{"timeout": timeout.String()})
	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Error("server.shutdown_failed", map[string]any{"error": err.Error()})
	}
	if err := app.Shutdown(shutdownCtx); err != nil {
		telemetry.Error("jobs.drain_incomplete", map[string]any{"error": err.Error()})
	}
}

// Command receiver runs C5: the Alertmanager-facing webhook HTTP server.
// It owns no investigation logic — every accepted alert is enqueued for
// cmd/worker to process (spec.md §4.5, §5).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tarkyaio/tarka/internal/config"
	"github.com/tarkyaio/tarka/internal/logging"
	"github.com/tarkyaio/tarka/internal/queue"
	"github.com/tarkyaio/tarka/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logging.New("json", "info")

	q, err := buildQueue(cfg)
	if err != nil {
		log.Error("receiver: building queue", "err", err)
		os.Exit(1)
	}

	deps := webhook.Deps{
		Queue:              q,
		TimeWindow:         cfg.TimeWindow,
		BucketHours:        cfg.BucketHours,
		AlertnameAllowlist: cfg.AlertnameAllowlist,
		Logger:             log,
	}

	warmCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = webhook.WarmUp(warmCtx, deps)
	cancel()
	if err != nil {
		log.Error("receiver: warm-up failed", "err", err)
		os.Exit(1)
	}

	h := webhook.NewHandler(deps)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", portOrDefault(cfg.Port)),
		Handler:      h.ServeMux(),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	runWithGracefulShutdown(srv, cfg.ShutdownTimeout, log)
}

func buildQueue(cfg *config.Config) (queue.Queue, error) {
	if cfg.RedisURL == "" {
		return queue.NewMemory(256), nil
	}
	return queue.NewRedis(context.Background(), cfg.RedisURL, cfg.QueueStreamName, "tarka-workers", "receiver")
}

func portOrDefault(port int) int {
	if port <= 0 {
		return 8080
	}
	return port
}

// runWithGracefulShutdown starts srv and blocks until SIGINT/SIGTERM,
// draining in-flight requests within shutdownTimeout (spec.md §4.11
// ambient stack: graceful shutdown on SIGTERM/SIGINT).
func runWithGracefulShutdown(srv *http.Server, shutdownTimeout time.Duration, log *slog.Logger) {
	errCh := make(chan error, 1)
	go func() {
		log.Info("receiver: listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("receiver: server error", "err", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		log.Info("receiver: shutting down", "signal", sig.String())
		if shutdownTimeout <= 0 {
			shutdownTimeout = 15 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("receiver: shutdown error", "err", err)
		}
	}
}

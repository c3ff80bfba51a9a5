// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Lector sync daemon.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Wire stores and services (see package app).
//  4. Start the library subscription.
//  5. Start HTTP server with graceful shutdown.
//
// On shutdown pending reading positions are flushed before the stores close.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/lector/internal/api"
	"github.com/taibuivan/lector/internal/app"
	"github.com/taibuivan/lector/internal/core/bookmark"
	"github.com/taibuivan/lector/internal/core/library"
	"github.com/taibuivan/lector/internal/core/reading"
	"github.com/taibuivan/lector/internal/platform/config"
	"github.com/taibuivan/lector/internal/platform/constants"
	"github.com/taibuivan/lector/internal/platform/metrics"
	"github.com/taibuivan/lector/internal/platform/middleware"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// ── 3. Wiring ─────────────────────────────────────────────────────────
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	application, err := app.New(startupCtx, cfg, log)
	must(log, err, "wire application")
	metrics.Register()

	// ── 4. Library subscription ───────────────────────────────────────────
	// A failed subscription leaves the daemon serving local data while the
	// coordinator retries in the background.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()
	if err := application.Library.Start(rootCtx); err != nil {
		log.Warn("library_sync_unavailable", slog.Any("error", err))
	}

	// ── 5. HTTP Server ────────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers([]api.HealthCheck{
		{Name: "postgres", Check: application.CheckRemote},
		{Name: "redis", Check: application.CheckFeed},
		{Name: "local", Check: application.CheckLocal},
	}, log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Library:   library.NewHandler(application.Library),
		Reading:   reading.NewHandler(application.Tracker),
		Bookmark:  bookmark.NewHandler(application.Bookmarks),
	}

	var verifier middleware.TokenVerifier
	if application.Tokens != nil {
		verifier = application.Tokens
	}
	server := api.NewServer(rootCtx, cfg, log, verifier, handlers)

	// ── 6. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	log.Info("server_shutting_down", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer flushCancel()
	flushed := application.Close(flushCtx)

	log.Info("server_stopped_cleanly", slog.Int("positions_flushed", flushed))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

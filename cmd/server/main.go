// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/utils/clock"

	"github.com/Muyu1uz/ai-java-interviewer/internal/config"
	"github.com/Muyu1uz/ai-java-interviewer/internal/logging"
	"github.com/Muyu1uz/ai-java-interviewer/internal/supervisor"
	"github.com/Muyu1uz/ai-java-interviewer/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("backend", cfg.Backend).
		Str("db_path", cfg.Database.Path).
		Bool("shared_filter", cfg.Filter.Shared).
		Bool("admission_disabled", cfg.Admission.Disabled).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, 30*time.Second)
	a, err := newApp(startCtx, cfg, clock.RealClock{})
	startCancel()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize server")
	}
	defer a.close()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create supervisor tree")
		return
	}

	if cfg.Ingestion.Enabled {
		tree.AddDataService(services.NewIngestService(a.job, cfg.Ingestion.Force))
	} else {
		logging.Info().Msg("Knowledge ingestion at startup disabled")
	}
	tree.AddSessionService(services.NewSweeperService(a.sessions, clock.RealClock{}, cfg.Session.SweepInterval, a.evictSession))

	server := a.server()
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Int("pending_cache_deletes", a.resumes.Pending()).Msg("Waiting for delayed cache deletes")
	logging.Info().Msg("Server stopped gracefully")
}

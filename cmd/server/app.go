// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"k8s.io/utils/clock"

	"github.com/Muyu1uz/ai-java-interviewer/internal/admission"
	"github.com/Muyu1uz/ai-java-interviewer/internal/api"
	"github.com/Muyu1uz/ai-java-interviewer/internal/cacheaside"
	"github.com/Muyu1uz/ai-java-interviewer/internal/config"
	"github.com/Muyu1uz/ai-java-interviewer/internal/database"
	"github.com/Muyu1uz/ai-java-interviewer/internal/filter"
	"github.com/Muyu1uz/ai-java-interviewer/internal/ingest"
	"github.com/Muyu1uz/ai-java-interviewer/internal/interview"
	"github.com/Muyu1uz/ai-java-interviewer/internal/kvstore"
	"github.com/Muyu1uz/ai-java-interviewer/internal/logging"
	"github.com/Muyu1uz/ai-java-interviewer/internal/mistakebook"
	"github.com/Muyu1uz/ai-java-interviewer/internal/session"
	"github.com/Muyu1uz/ai-java-interviewer/internal/topics"
	"github.com/Muyu1uz/ai-java-interviewer/internal/vectorindex"
)

// app holds every wired component of the server.
type app struct {
	cfg      *config.Config
	kv       kvstore.Store
	db       *database.DB
	resumes  *cacheaside.Store[database.Resume]
	tracker  *topics.Tracker
	sessions *session.Registry
	job      *ingest.Job
	router   http.Handler
}

// newApp opens the stores and wires the components. The caller owns the
// returned app and must call close.
func newApp(ctx context.Context, cfg *config.Config, clk clock.WithTickerAndDelayedExecution) (*app, error) {
	kv, err := kvstore.Open(ctx, cfg, clk)
	if err != nil {
		return nil, err
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	a := &app{cfg: cfg, kv: kv, db: db}
	if err := a.wire(ctx, clk); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, clk clock.WithTickerAndDelayedExecution) error {
	cfg := a.cfg
	repo := a.db.Resumes()

	resumeFilter, err := a.newResumeFilter()
	if err != nil {
		return err
	}
	ids, err := repo.IDs(ctx)
	if err != nil {
		return fmt.Errorf("list resume ids: %w", err)
	}
	if _, err := filter.Warm(ctx, resumeFilter, ids); err != nil {
		return fmt.Errorf("warm resume filter: %w", err)
	}

	a.resumes = cacheaside.New[database.Resume](a.kv, resumeFilter, repo, cacheaside.Options{
		Name:              "resume",
		KeyPrefix:         cfg.Cache.KeyPrefix,
		TTL:               cfg.Cache.TTL,
		SecondDeleteDelay: cfg.Cache.SecondDeleteDelay,
		Clock:             clk,
	})

	rules, err := admission.NewRuleTable(cfg.Admission.Rules)
	if err != nil {
		return fmt.Errorf("admission rules: %w", err)
	}
	interceptor := admission.NewInterceptor(admission.NewController(a.kv), rules, cfg.Admission.Disabled)

	a.tracker = topics.NewTracker(a.kv,
		topics.WithTTL(cfg.Topics.TTL()),
		topics.WithKeyPrefix(cfg.Topics.KeyPrefix),
	)

	knowledge, err := vectorindex.NewDuckDB(ctx, a.db.Conn(), vectorindex.NewHashEmbedder(cfg.Ingestion.Dimensions))
	if err != nil {
		return fmt.Errorf("knowledge index: %w", err)
	}
	pipeline := ingest.NewPipeline(knowledge, ingest.Options{
		BatchSize:        cfg.Ingestion.BatchSize,
		MaxBatchSize:     cfg.Ingestion.MaxBatchSize,
		MaxAttempts:      cfg.Ingestion.MaxRetries,
		BackoffBase:      cfg.Ingestion.BackoffBase,
		BreakerThreshold: cfg.Ingestion.BreakerThreshold,
		MarkerQuery:      cfg.Ingestion.MarkerQuery,
		Clock:            clk,
	})
	a.job = ingest.NewJob(cfg.Ingestion.DocumentsDir, ingest.LoaderOptions{
		ChunkSize:    cfg.Ingestion.ChunkSize,
		ChunkOverlap: cfg.Ingestion.ChunkOverlap,
	}, pipeline)

	a.sessions = session.NewRegistry(a.kv, clk, cfg.Session.IdleTimeout)
	interviews := interview.NewService(a.resumes, a.tracker, a.sessions, knowledge)
	mistakes := mistakebook.NewService(a.db.Mistakes(), a.kv)

	handler := api.NewHandler(api.Deps{
		Resumes:    a.resumes,
		Interviews: interviews,
		Mistakes:   mistakes,
		Knowledge:  knowledge,
		Ingest:     a.job,
		Database:   a.db,
		Cache:      a.kv,
	})
	a.router = api.NewRouter(handler, interceptor, cfg.Server)
	return nil
}

// newResumeFilter returns the Redis-backed filter when configured so
// every replica shares one bit array, otherwise an in-process one.
func (a *app) newResumeFilter() (filter.Filter, error) {
	fc := a.cfg.Filter
	if !fc.Shared {
		return filter.NewLocal("resume", fc.ExpectedInsertions, fc.FalsePositiveRate), nil
	}
	rs, ok := a.kv.(*kvstore.Redis)
	if !ok {
		return nil, fmt.Errorf("shared filter needs the redis backend, have %s", a.cfg.Backend)
	}
	return filter.NewShared(rs.Client(), fc.Key, "resume", fc.ExpectedInsertions, fc.FalsePositiveRate), nil
}

// evictSession drops the topics of a conversation whose session went idle.
func (a *app) evictSession(ctx context.Context, h *session.Handle) {
	a.tracker.Clear(ctx, h.ConversationID())
}

func (a *app) server() *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port)),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// close waits for pending delayed deletes, then closes the stores.
func (a *app) close() {
	if a.resumes != nil {
		a.resumes.Wait()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing key-value store")
		}
	}
}

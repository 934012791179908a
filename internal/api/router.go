// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Muyu1uz/ai-java-interviewer/internal/admission"
	"github.com/Muyu1uz/ai-java-interviewer/internal/config"
	"github.com/Muyu1uz/ai-java-interviewer/internal/middleware"
)

// Logical operations guarded by the admission rule table.
const (
	OpResumeRead      = "resume.read"
	OpResumeWrite     = "resume.write"
	OpInterviewTurn   = "interview.turn"
	OpTopicsManage    = "topics.manage"
	OpKnowledgeSearch = "knowledge.search"
	OpKnowledgeReload = "knowledge.reload"
	OpMistakesRead    = "mistakes.read"
	OpMistakesWrite   = "mistakes.write"
)

// healthRequestsPerMinute bounds health check traffic per client IP.
const healthRequestsPerMinute = 1000

// NewRouter builds the HTTP routes. Domain routes are guarded by
// interceptor; health checks only get a coarse per-IP flood limit.
func NewRouter(h *Handler, interceptor *admission.Interceptor, cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", cfg.PrincipalHeader, middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         86400,
	}))
	r.Use(chimiddleware.Compress(5, "application/json"))
	r.Use(securityHeaders)
	if cfg.Timeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.Timeout))
	}

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(healthRequestsPerMinute, time.Minute))
		r.Get("/health/live", h.HealthLive)
		r.Get("/health/ready", h.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	principal := func(req *http.Request) string { return req.Header.Get(cfg.PrincipalHeader) }
	guard := func(op string) func(http.Handler) http.Handler {
		if interceptor == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return interceptor.Middleware(op, principal)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/resumes", func(r chi.Router) {
			r.With(guard(OpResumeWrite)).Post("/", h.CreateResume)
			r.With(guard(OpResumeRead)).Get("/{id}", h.GetResume)
			r.With(guard(OpResumeWrite)).Put("/{id}", h.UpdateResume)
			r.With(guard(OpResumeWrite)).Delete("/{id}", h.DeleteResume)
		})

		r.Route("/interviews", func(r chi.Router) {
			r.Use(RequirePrincipal(cfg.PrincipalHeader))
			r.With(guard(OpInterviewTurn)).Post("/", h.BeginInterview)
			r.With(guard(OpInterviewTurn)).Post("/turns", h.Turn)
			r.With(guard(OpInterviewTurn)).Post("/restart", h.RestartInterview)
			r.Delete("/", h.EndInterview)

			r.With(guard(OpTopicsManage)).Get("/topics", h.GetTopics)
			r.With(guard(OpTopicsManage)).Post("/topics", h.AddTopics)
			r.With(guard(OpTopicsManage)).Delete("/topics", h.ClearTopics)
		})

		r.Route("/mistakes", func(r chi.Router) {
			r.Use(RequirePrincipal(cfg.PrincipalHeader))
			r.With(guard(OpMistakesWrite)).Post("/", h.AddMistake)
			r.With(guard(OpMistakesRead)).Get("/", h.ListMistakes)
			r.With(guard(OpMistakesWrite)).Delete("/{id}", h.DeleteMistake)
			r.With(guard(OpMistakesWrite)).Put("/{id}/answer", h.AnswerMistake)
		})

		r.Route("/knowledge", func(r chi.Router) {
			r.With(guard(OpKnowledgeSearch)).Get("/search", h.SearchKnowledge)
			r.With(guard(OpKnowledgeReload)).Post("/reload", h.ReloadKnowledge)
			r.Get("/status", h.KnowledgeStatusHandler)
		})
	})

	return r
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

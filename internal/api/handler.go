// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

// Package api exposes resumes, interviews, the mistake book and the
// knowledge index over HTTP. Handlers are thin: they decode, validate, call one domain
// operation and map its result or error onto the JSON envelope.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Muyu1uz/ai-java-interviewer/internal/cacheaside"
	"github.com/Muyu1uz/ai-java-interviewer/internal/database"
	"github.com/Muyu1uz/ai-java-interviewer/internal/ingest"
	"github.com/Muyu1uz/ai-java-interviewer/internal/interview"
	"github.com/Muyu1uz/ai-java-interviewer/internal/mistakebook"
	"github.com/Muyu1uz/ai-java-interviewer/internal/vectorindex"
)

// ResumeStore is the cache-aside view of resumes used by the handlers.
type ResumeStore interface {
	Get(ctx context.Context, resumeID string) (cacheaside.Lookup[database.Resume], error)
	Put(ctx context.Context, resumeID string, res database.Resume) error
	Update(ctx context.Context, resumeID string, res database.Resume) error
	Delete(ctx context.Context, resumeID string) error
}

// MistakeBook manages the questions a candidate saved for review.
type MistakeBook interface {
	Add(ctx context.Context, principal, content string) (database.Mistake, bool, error)
	List(ctx context.Context, principal string, page, size int) (mistakebook.Page, error)
	Delete(ctx context.Context, principal string, id int64) error
	Answer(ctx context.Context, principal string, id int64, answer string) error
}

// IngestRunner runs knowledge ingestion on demand.
type IngestRunner interface {
	Run(ctx context.Context, force bool) (ingest.Summary, error)
	Last() (ingest.Summary, bool)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of a Handler. Mistakes, Knowledge, Ingest
// and the pingers may be nil.
type Deps struct {
	Resumes    ResumeStore
	Interviews *interview.Service
	Mistakes   MistakeBook
	Knowledge  vectorindex.Index
	Ingest     IngestRunner
	Database   Pinger
	Cache      Pinger
}

// Handler serves the API routes.
type Handler struct {
	deps      Deps
	startTime time.Time
	now       func() time.Time
}

// NewHandler returns a Handler over deps.
func NewHandler(deps Deps) *Handler {
	return &Handler{deps: deps, startTime: time.Now(), now: time.Now}
}

type principalKey struct{}

func withPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// principalFrom returns the principal stored by RequirePrincipal.
func principalFrom(ctx context.Context) string {
	p, _ := ctx.Value(principalKey{}).(string)
	return p
}

// RequirePrincipal rejects requests without the principal header and
// stores the principal in the request context.
func RequirePrincipal(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := r.Header.Get(header)
			if p == "" || len(p) > 128 {
				respondError(w, r, http.StatusUnauthorized, CodeUnauthenticated,
					"Missing or invalid "+header+" header", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
		})
	}
}

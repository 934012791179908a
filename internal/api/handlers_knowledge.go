// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Muyu1uz/ai-java-interviewer/internal/ingest"
	"github.com/Muyu1uz/ai-java-interviewer/internal/vectorindex"
)

// Search defaults.
const (
	defaultSearchK        = 5
	defaultSearchMinScore = 0.2
)

// SummaryView is the JSON form of an ingestion summary.
type SummaryView struct {
	ingest.Summary
	Succeeded bool   `json:"succeeded"`
	Error     string `json:"error,omitempty"`
}

func summaryView(s ingest.Summary) SummaryView {
	v := SummaryView{Summary: s, Succeeded: s.Succeeded()}
	if s.Err != nil {
		v.Error = s.Err.Error()
	}
	return v
}

// KnowledgeStatus is returned by the status endpoint.
type KnowledgeStatus struct {
	Chunks  *int         `json:"chunks,omitempty"`
	LastRun *SummaryView `json:"last_run,omitempty"`
}

type counter interface {
	Count(ctx context.Context) (int, error)
}

// SearchKnowledge runs a similarity search over the knowledge index.
func (h *Handler) SearchKnowledge(w http.ResponseWriter, r *http.Request) {
	if h.deps.Knowledge == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeSearchFailure, "Knowledge index not configured", nil)
		return
	}
	q := SearchQuery{
		Query:    strings.TrimSpace(r.URL.Query().Get("q")),
		K:        getIntParam(r, "k", defaultSearchK),
		MinScore: getFloatParam(r, "min_score", defaultSearchMinScore),
	}
	if !validateQuery(w, r, &q) {
		return
	}
	hits, err := h.deps.Knowledge.Search(r.Context(), q.Query, q.K, q.MinScore)
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeSearchFailure, "Knowledge search failed", err)
		return
	}
	if hits == nil {
		hits = []vectorindex.Result{}
	}
	respondData(w, r, http.StatusOK, hits)
}

// ReloadKnowledge forces a full ingestion run and waits for its summary.
// Partial failures still answer 200; the summary carries the details.
func (h *Handler) ReloadKnowledge(w http.ResponseWriter, r *http.Request) {
	if h.deps.Ingest == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeIngestFailure, "Ingestion not configured", nil)
		return
	}
	// A client disconnect must not leave the index half written.
	sum, err := h.deps.Ingest.Run(context.WithoutCancel(r.Context()), true)
	switch {
	case errors.Is(err, ingest.ErrRunInProgress):
		respondError(w, r, http.StatusConflict, CodeIngestRunning, "An ingestion run is already in progress", nil)
		return
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, CodeIngestFailure, "Knowledge documents could not be loaded", err)
		return
	}
	respondData(w, r, http.StatusOK, summaryView(sum))
}

// KnowledgeStatusHandler reports the index size and the last run.
func (h *Handler) KnowledgeStatusHandler(w http.ResponseWriter, r *http.Request) {
	var status KnowledgeStatus
	if c, ok := h.deps.Knowledge.(counter); ok {
		if n, err := c.Count(r.Context()); err == nil {
			status.Chunks = &n
		}
	}
	if h.deps.Ingest != nil {
		if sum, ok := h.deps.Ingest.Last(); ok {
			v := summaryView(sum)
			status.LastRun = &v
		}
	}
	respondData(w, r, http.StatusOK, status)
}

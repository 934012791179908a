// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package api

import (
	"errors"
	"net/http"

	"github.com/Muyu1uz/ai-java-interviewer/internal/cacheaside"
	"github.com/Muyu1uz/ai-java-interviewer/internal/interview"
)

// BeginInterview opens or rejoins the caller's interview.
func (h *Handler) BeginInterview(w http.ResponseWriter, r *http.Request) {
	var req BeginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	brief, err := h.deps.Interviews.Begin(r.Context(), principalFrom(r.Context()), req.ResumeID)
	if err != nil {
		h.interviewError(w, r, err)
		return
	}
	status := http.StatusCreated
	if brief.Resumed {
		status = http.StatusOK
	}
	respondData(w, r, status, brief)
}

// Turn records messages and returns the context for the next reply.
func (h *Handler) Turn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	tc, err := h.deps.Interviews.Turn(r.Context(), principalFrom(r.Context()), req.turns())
	if err != nil {
		h.interviewError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, tc)
}

// RestartInterview starts a new conversation on the same resume.
func (h *Handler) RestartInterview(w http.ResponseWriter, r *http.Request) {
	conv, err := h.deps.Interviews.Restart(r.Context(), principalFrom(r.Context()))
	if err != nil {
		h.interviewError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]string{"conversation_id": conv})
}

// EndInterview closes the caller's interview.
func (h *Handler) EndInterview(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Interviews.End(r.Context(), principalFrom(r.Context())); err != nil {
		h.interviewError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTopics lists topics already asked in the caller's interview.
func (h *Handler) GetTopics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.deps.Interviews.Topics(r.Context(), principalFrom(r.Context()))
	if err != nil {
		h.interviewError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, stats)
}

// AddTopics marks topics as asked.
func (h *Handler) AddTopics(w http.ResponseWriter, r *http.Request) {
	var req TopicsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	stats, err := h.deps.Interviews.AddTopics(r.Context(), principalFrom(r.Context()), req.Topics)
	if err != nil {
		h.interviewError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, stats)
}

// ClearTopics forgets the asked topics.
func (h *Handler) ClearTopics(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Interviews.ClearTopics(r.Context(), principalFrom(r.Context())); err != nil {
		h.interviewError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) interviewError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, interview.ErrNoSession):
		respondError(w, r, http.StatusConflict, CodeNoSession, "No interview in progress, start one first", nil)
	case errors.Is(err, interview.ErrResumeNotFound):
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Resume not found", nil)
	case errors.Is(err, cacheaside.ErrSource):
		respondError(w, r, http.StatusServiceUnavailable, CodeSourceFailure, "Resume storage unavailable", err)
	default:
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "Internal error", err)
	}
}

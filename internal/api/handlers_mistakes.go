// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Muyu1uz/ai-java-interviewer/internal/database"
	"github.com/Muyu1uz/ai-java-interviewer/internal/mistakebook"
)

// MistakeAdded is the reply to an add call. Mistake is nil when the
// question was a repeat inside the idempotency window.
type MistakeAdded struct {
	Added   bool              `json:"added"`
	Mistake *database.Mistake `json:"mistake,omitempty"`
}

// AddMistake saves a question for the principal. A repeat of the same
// question within the idempotency window answers 200 without a new row.
func (h *Handler) AddMistake(w http.ResponseWriter, r *http.Request) {
	if !h.mistakesConfigured(w, r) {
		return
	}
	var req MistakeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	row, added, err := h.deps.Mistakes.Add(r.Context(), principalFrom(r.Context()), req.QuestionContent)
	if err != nil {
		h.mistakeError(w, r, err)
		return
	}
	if !added {
		respondData(w, r, http.StatusOK, MistakeAdded{})
		return
	}
	respondData(w, r, http.StatusCreated, MistakeAdded{Added: true, Mistake: &row})
}

// ListMistakes returns one page of the principal's questions.
func (h *Handler) ListMistakes(w http.ResponseWriter, r *http.Request) {
	if !h.mistakesConfigured(w, r) {
		return
	}
	q := MistakeListQuery{
		Page: getIntParam(r, "page", mistakebook.DefaultPage),
		Size: getIntParam(r, "size", mistakebook.DefaultPageSize),
	}
	if !validateQuery(w, r, &q) {
		return
	}
	page, err := h.deps.Mistakes.List(r.Context(), principalFrom(r.Context()), q.Page, q.Size)
	if err != nil {
		h.mistakeError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, page)
}

// DeleteMistake removes one of the principal's questions.
func (h *Handler) DeleteMistake(w http.ResponseWriter, r *http.Request) {
	if !h.mistakesConfigured(w, r) {
		return
	}
	id, ok := mistakeID(w, r)
	if !ok {
		return
	}
	if err := h.deps.Mistakes.Delete(r.Context(), principalFrom(r.Context()), id); err != nil {
		h.mistakeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AnswerMistake records the principal's answer to a saved question.
func (h *Handler) AnswerMistake(w http.ResponseWriter, r *http.Request) {
	if !h.mistakesConfigured(w, r) {
		return
	}
	id, ok := mistakeID(w, r)
	if !ok {
		return
	}
	var req AnswerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.deps.Mistakes.Answer(r.Context(), principalFrom(r.Context()), id, req.UserAnswer); err != nil {
		h.mistakeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) mistakesConfigured(w http.ResponseWriter, r *http.Request) bool {
	if h.deps.Mistakes == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeMistakeFailure, "Mistake book not configured", nil)
		return false
	}
	return true
}

func mistakeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, CodeValidation, "Question id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func (h *Handler) mistakeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, mistakebook.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Question not found", nil)
		return
	}
	respondError(w, r, http.StatusServiceUnavailable, CodeMistakeFailure, "Mistake book unavailable", err)
}

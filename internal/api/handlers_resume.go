// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Muyu1uz/ai-java-interviewer/internal/cacheaside"
	"github.com/Muyu1uz/ai-java-interviewer/internal/database"
)

// CreateResume stores a new resume.
func (h *Handler) CreateResume(w http.ResponseWriter, r *http.Request) {
	var req ResumeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	id := req.ResumeID
	if id == "" {
		id = uuid.NewString()
	}

	existing, err := h.deps.Resumes.Get(r.Context(), id)
	if err != nil {
		h.resumeError(w, r, err)
		return
	}
	if existing.Found {
		respondError(w, r, http.StatusConflict, CodeConflict, "Resume "+id+" already exists", nil)
		return
	}

	res := resumeFrom(id, req)
	res.CreatedAt = h.now().UTC()
	res.UpdatedAt = res.CreatedAt
	if err := h.deps.Resumes.Put(r.Context(), id, res); err != nil {
		h.resumeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/resumes/"+id)
	respondData(w, r, http.StatusCreated, res)
}

// GetResume returns one resume.
func (h *Handler) GetResume(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	lookup, err := h.deps.Resumes.Get(r.Context(), id)
	if err != nil {
		h.resumeError(w, r, err)
		return
	}
	if !lookup.Found {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Resume not found", nil)
		return
	}
	respondData(w, r, http.StatusOK, lookup.Value)
}

// UpdateResume replaces an existing resume.
func (h *Handler) UpdateResume(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req ResumeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	existing, err := h.deps.Resumes.Get(r.Context(), id)
	if err != nil {
		h.resumeError(w, r, err)
		return
	}
	if !existing.Found {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Resume not found", nil)
		return
	}

	res := resumeFrom(id, req)
	res.CreatedAt = existing.Value.CreatedAt
	res.UpdatedAt = h.now().UTC()
	if err := h.deps.Resumes.Update(r.Context(), id, res); err != nil {
		h.resumeError(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, res)
}

// DeleteResume removes a resume. Deleting a missing resume succeeds.
func (h *Handler) DeleteResume(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.deps.Resumes.Delete(r.Context(), id); err != nil {
		h.resumeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resumeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cacheaside.ErrSource):
		respondError(w, r, http.StatusServiceUnavailable, CodeSourceFailure, "Resume storage unavailable", err)
	case errors.Is(err, cacheaside.ErrFilterAdd):
		// The row is stored; retrying the same write repairs the filter.
		respondError(w, r, http.StatusInternalServerError, CodeFilterFailure,
			"Resume saved but not yet readable, retry the request", err)
	default:
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "Internal error", err)
	}
}

func resumeFrom(id string, req ResumeRequest) database.Resume {
	return database.Resume{
		ResumeID:              id,
		ProfessionalKnowledge: req.ProfessionalKnowledge,
		ProjectExperience:     req.ProjectExperience,
		InternshipExperience:  req.InternshipExperience,
	}
}

// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package api

import "time"

// Response is the envelope of every JSON reply.
type Response struct {
	Status   string    `json:"status"`
	Data     any       `json:"data,omitempty"`
	Error    *APIError `json:"error,omitempty"`
	Metadata Metadata  `json:"metadata"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Metadata accompanies every response.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error codes.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidJSON     = "INVALID_JSON"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeNoSession       = "NO_ACTIVE_INTERVIEW"
	CodeInternal        = "INTERNAL_ERROR"
	CodeSourceFailure   = "SOURCE_UNAVAILABLE"
	CodeFilterFailure   = "FILTER_UPDATE_FAILED"
	CodeIngestRunning   = "INGESTION_IN_PROGRESS"
	CodeIngestFailure   = "INGESTION_FAILED"
	CodeSearchFailure   = "SEARCH_FAILED"
	CodeMistakeFailure  = "MISTAKE_BOOK_FAILED"
)

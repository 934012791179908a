// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package services

import (
	"context"
	"errors"

	"github.com/thejerf/suture/v4"

	"github.com/Muyu1uz/ai-java-interviewer/internal/ingest"
	"github.com/Muyu1uz/ai-java-interviewer/internal/logging"
)

// IngestRunner is the part of *ingest.Job the service needs.
type IngestRunner interface {
	Run(ctx context.Context, force bool) (ingest.Summary, error)
}

// IngestService loads the knowledge base once at startup. Ingestion is
// partial-failure tolerant, so a run with failed batches still counts as
// done and is not restarted.
type IngestService struct {
	job   IngestRunner
	force bool
}

// NewIngestService returns a one-shot service around job.
func NewIngestService(job IngestRunner, force bool) *IngestService {
	return &IngestService{job: job, force: force}
}

// Serve implements suture.Service.
func (s *IngestService) Serve(ctx context.Context) error {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	sum, err := s.job.Run(ctx, s.force)
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, ingest.ErrRunInProgress):
		logging.Ctx(ctx).Info().Msg("Startup ingestion skipped, a reload is already running")
	case err != nil:
		logging.Ctx(ctx).Error().Err(err).Msg("Startup ingestion could not start")
	case !sum.Succeeded():
		logging.Ctx(ctx).Warn().Msg("Startup ingestion finished with failures, knowledge search may be incomplete")
	}
	return suture.ErrDoNotRestart
}

// String names the service in supervisor logs.
func (s *IngestService) String() string {
	return "knowledge-ingest"
}

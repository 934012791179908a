// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Muyu1uz/ai-java-interviewer/internal/logging"
)

// ErrRunInProgress is returned when a run is requested while another is
// still going.
var ErrRunInProgress = errors.New("ingest: run already in progress")

// Job loads the knowledge directory and runs the pipeline over it. At
// most one run is active at a time.
type Job struct {
	dir      string
	loader   LoaderOptions
	pipeline *Pipeline

	mu      sync.Mutex
	last    *Summary
	running sync.Mutex
}

// NewJob returns a Job for the markdown files under dir.
func NewJob(dir string, loader LoaderOptions, pipeline *Pipeline) *Job {
	return &Job{dir: dir, loader: loader, pipeline: pipeline}
}

// Run loads and ingests. It fails only if another run is active or the
// directory cannot be read; ingestion problems are in the Summary.
func (j *Job) Run(ctx context.Context, force bool) (Summary, error) {
	if !j.running.TryLock() {
		return Summary{}, ErrRunInProgress
	}
	defer j.running.Unlock()

	docs, err := LoadMarkdown(j.dir, j.loader)
	if err != nil {
		return Summary{}, fmt.Errorf("load knowledge documents: %w", err)
	}

	sum := j.pipeline.Run(ctx, docs, force)
	j.mu.Lock()
	j.last = &sum
	j.mu.Unlock()

	event := logging.Ctx(ctx).Info()
	if !sum.Succeeded() {
		event = logging.Ctx(ctx).Warn().Err(sum.Err)
	}
	event.
		Int("total", sum.TotalChunks).
		Int("written", sum.Written).
		Int("failed_batches", sum.FailedBatches).
		Ints("failed_indexes", sum.FailedIndexes).
		Int("abandoned", sum.Abandoned).
		Bool("skipped", sum.Skipped).
		Dur("duration", sum.Duration).
		Msg("Knowledge ingestion summary")
	return sum, nil
}

// Last returns the summary of the most recent finished run.
func (j *Job) Last() (Summary, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.last == nil {
		return Summary{}, false
	}
	return *j.last, true
}

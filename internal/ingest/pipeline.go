// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

// Package ingest loads the interview knowledge base into the similarity
// index.
//
// A run partitions chunks into bounded batches and writes them one after
// another. A batch that keeps failing after its retries is recorded and
// skipped; the run carries on with the next batch. After a batch fails
// the marker query is sent to the index: if it answers, the failure
// belongs to the batch. Only batches failing while that query fails too
// count towards the circuit breaker, and only an open breaker ends the run early. Either
// way the caller gets a Summary, never an error or a panic.
//
// Before writing, the run searches the index for a marker query. If the
// search finds anything the knowledge base is assumed loaded and the run
// is skipped unless forced.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	gobreaker "github.com/sony/gobreaker/v2"
	"k8s.io/utils/clock"

	"github.com/Muyu1uz/ai-java-interviewer/internal/logging"
	"github.com/Muyu1uz/ai-java-interviewer/internal/metrics"
	"github.com/Muyu1uz/ai-java-interviewer/internal/vectorindex"
)

var (
	// ErrBatchFailed marks a batch that exhausted its attempts.
	ErrBatchFailed = errors.New("ingest: batch failed")
	// ErrSourceUnavailable means the index stopped accepting writes and
	// the run was aborted.
	ErrSourceUnavailable = errors.New("ingest: index unavailable")

	// errBatchRejected wraps a batch failure while the index still
	// answers the marker query. The breaker ignores it.
	errBatchRejected = errors.New("ingest: batch rejected")
)

// Defaults.
const (
	DefaultBatchSize        = 10
	DefaultMaxBatchSize     = 25
	DefaultMaxAttempts      = 3
	DefaultBackoffBase      = 2 * time.Second
	DefaultBreakerThreshold = 6
	DefaultMarkerQuery      = "Java"

	breakerName = "ingest-index"
)

// Transition describes one batch state change.
type Transition struct {
	Batch   int
	From    BatchState
	To      BatchState
	Attempt int
	Err     error
}

// Options configures a Pipeline. Zero values take the defaults, except
// BackoffBase where zero means retry immediately.
type Options struct {
	BatchSize    int
	MaxBatchSize int
	MaxAttempts  int
	BackoffBase  time.Duration
	// BreakerThreshold is the number of consecutive batches failing with
	// the index unreachable that aborts the run.
	BreakerThreshold int
	MarkerQuery      string
	// OnTransition, if set, observes every batch state change. It runs
	// on the pipeline goroutine.
	OnTransition func(Transition)
	Clock        clock.PassiveClock
}

func (o *Options) applyDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxBatchSize <= 0 {
		o.MaxBatchSize = DefaultMaxBatchSize
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.BackoffBase < 0 {
		o.BackoffBase = DefaultBackoffBase
	}
	if o.BreakerThreshold <= 0 {
		o.BreakerThreshold = DefaultBreakerThreshold
	}
	if o.MarkerQuery == "" {
		o.MarkerQuery = DefaultMarkerQuery
	}
	if o.Clock == nil {
		o.Clock = clock.RealClock{}
	}
}

// Summary reports the outcome of a run.
type Summary struct {
	TotalChunks   int           `json:"total_chunks"`
	Written       int           `json:"written_chunks"`
	Batches       int           `json:"batches"`
	FailedBatches int           `json:"failed_batches"`
	FailedIndexes []int         `json:"failed_indexes,omitempty"`
	Abandoned     int           `json:"abandoned_batches"`
	Skipped       bool          `json:"skipped"`
	Err           error         `json:"-"`
	Duration      time.Duration `json:"duration"`
}

// Succeeded reports whether every chunk was written.
func (s Summary) Succeeded() bool {
	return s.Err == nil && s.FailedBatches == 0 && s.Abandoned == 0
}

// Pipeline writes chunks into an index.
type Pipeline struct {
	index vectorindex.Index
	opts  Options
}

// NewPipeline returns a Pipeline over index.
func NewPipeline(index vectorindex.Index, opts Options) *Pipeline {
	opts.applyDefaults()
	return &Pipeline{index: index, opts: opts}
}

// Run ingests chunks. With force the marker search is skipped. Run does
// not impose a deadline; cancel ctx to stop it.
func (p *Pipeline) Run(ctx context.Context, chunks []vectorindex.Document, force bool) (sum Summary) {
	start := p.opts.Clock.Now()
	sum.TotalChunks = len(chunks)
	log := logging.Ctx(ctx).With().Str("component", "ingest").Logger()

	defer func() {
		if r := recover(); r != nil {
			sum.Err = fmt.Errorf("ingest: run panicked: %v", r)
			log.Error().Interface("panic", r).Msg("Ingestion run panicked")
		}
		sum.Duration = p.opts.Clock.Since(start)
		metrics.IngestRunDuration.Observe(sum.Duration.Seconds())
	}()

	if p.alreadyLoaded(ctx) && !force {
		sum.Skipped = true
		log.Info().Str("marker", p.opts.MarkerQuery).Msg("Knowledge base already loaded, skipping ingestion")
		return sum
	}

	batches := Partition(chunks, p.opts.BatchSize, p.opts.MaxBatchSize)
	sum.Batches = len(batches)
	log.Info().
		Int("chunks", len(chunks)).
		Int("batches", len(batches)).
		Bool("force", force).
		Msg("Starting ingestion run")

	breaker := p.newBreaker()
	for i, b := range batches {
		err := p.writeBatch(ctx, breaker, b)
		if err == nil {
			sum.Written += len(b.Chunks)
			continue
		}

		if errors.Is(err, ErrSourceUnavailable) || ctx.Err() != nil {
			sum.FailedBatches++
			sum.FailedIndexes = append(sum.FailedIndexes, b.Index)
			sum.Abandoned = len(batches) - i - 1
			if ctx.Err() != nil {
				sum.Err = ctx.Err()
			} else {
				sum.Err = ErrSourceUnavailable
			}
			log.Error().Err(err).
				Int("batch", b.Index).
				Int("abandoned", sum.Abandoned).
				Msg("Aborting ingestion run")
			return sum
		}

		sum.FailedBatches++
		sum.FailedIndexes = append(sum.FailedIndexes, b.Index)
	}

	log.Info().
		Int("written", sum.Written).
		Int("failed_batches", sum.FailedBatches).
		Msg("Ingestion run finished")
	return sum
}

// alreadyLoaded runs the marker search. A search error is logged and
// treated as "not loaded".
func (p *Pipeline) alreadyLoaded(ctx context.Context) bool {
	hits, err := p.index.Search(ctx, p.opts.MarkerQuery, 1, 0)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Knowledge marker search failed, proceeding with ingestion")
		return false
	}
	return len(hits) > 0
}

func (p *Pipeline) newBreaker() *gobreaker.CircuitBreaker[struct{}] {
	threshold := uint32(p.opts.BreakerThreshold)
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, errBatchRejected) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
}

// writeBatch runs one batch through the breaker. The breaker sees one
// outcome per batch, after all retries.
func (p *Pipeline) writeBatch(ctx context.Context, breaker *gobreaker.CircuitBreaker[struct{}], b *Batch) error {
	b.Attempts = 0

	_, err := breaker.Execute(func() (struct{}, error) {
		err := p.retryBatch(ctx, b)
		if err == nil || ctx.Err() != nil {
			return struct{}{}, err
		}
		if _, perr := p.index.Search(ctx, p.opts.MarkerQuery, 1, 0); perr == nil {
			return struct{}{}, fmt.Errorf("%w: %w", errBatchRejected, err)
		}
		return struct{}{}, err
	})
	switch {
	case err == nil:
		p.transition(ctx, b, Success, nil)
		metrics.IngestBatches.WithLabelValues(Success.String()).Inc()
		metrics.IngestChunksWritten.Add(float64(len(b.Chunks)))
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		err = fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	case !errors.Is(err, errBatchRejected) && breaker.State() == gobreaker.StateOpen:
		err = fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	b.Err = fmt.Errorf("%w: batch %d after %d attempts: %w", ErrBatchFailed, b.Index, b.Attempts, err)
	p.transition(ctx, b, Failed, err)
	metrics.IngestBatches.WithLabelValues(Failed.String()).Inc()
	logging.Ctx(ctx).Error().Err(err).
		Int("batch", b.Index).
		Int("chunks", len(b.Chunks)).
		Msg("Batch write failed")
	return err
}

// retryBatch writes b with exponential backoff until it succeeds or
// runs out of attempts.
func (p *Pipeline) retryBatch(ctx context.Context, b *Batch) error {
	op := func() (struct{}, error) {
		b.Attempts++
		p.transition(ctx, b, Writing, nil)
		return struct{}{}, p.index.Add(ctx, b.Chunks)
	}
	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(p.opts.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			metrics.IngestRetries.Inc()
			logging.Ctx(ctx).Warn().Err(err).
				Int("batch", b.Index).
				Int("attempt", b.Attempts).
				Dur("retry_in", next).
				Msg("Batch write failed, retrying")
			p.transition(ctx, b, Retrying, err)
		}),
	)
	return err
}

// backOff doubles the delay after every failed attempt.
func (p *Pipeline) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.opts.BackoffBase
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = p.opts.BackoffBase << uint(max(p.opts.MaxAttempts-1, 0))
	return b
}

func (p *Pipeline) transition(ctx context.Context, b *Batch, to BatchState, err error) {
	from := b.State
	b.State = to
	logging.Ctx(ctx).Debug().
		Int("batch", b.Index).
		Str("from", from.String()).
		Str("to", to.String()).
		Int("attempt", b.Attempts).
		Msg("Batch state change")
	if p.opts.OnTransition != nil {
		p.opts.OnTransition(Transition{Batch: b.Index, From: from, To: to, Attempt: b.Attempts, Err: err})
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

// Package cacheaside serves keyed records from a cache in front of a
// source of truth, with a membership filter short-circuiting lookups for
// keys that were never written.
//
// Reads go cache, then filter, then source. Writes go source, then
// cache, then filter, so the filter only learns keys that exist.
// Updates and deletes remove the cache entry, mutate the source, and
// remove the cache entry again after a short delay to evict a value a
// concurrent reader may have put back in between. The second delete is a
// mitigation: a pending one is never cancelled, and two quick
// invalidations of the same key each schedule their own.
package cacheaside

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"k8s.io/utils/clock"

	"github.com/Muyu1uz/ai-java-interviewer/internal/filter"
	"github.com/Muyu1uz/ai-java-interviewer/internal/kvstore"
	"github.com/Muyu1uz/ai-java-interviewer/internal/logging"
	"github.com/Muyu1uz/ai-java-interviewer/internal/metrics"
)

// DefaultSecondDeleteDelay is used when Options.SecondDeleteDelay is zero.
const DefaultSecondDeleteDelay = 500 * time.Millisecond

var (
	// ErrSource marks failures of the source of truth. Match with errors.Is.
	ErrSource = errors.New("source of truth failure")

	// ErrFilterAdd means the record was persisted but the membership
	// filter could not record it, so lookups may report it absent until
	// the filter is rebuilt.
	ErrFilterAdd = errors.New("membership filter add failed")
)

// SourceError wraps a source of truth failure with the operation and key.
type SourceError struct {
	Op  string
	Key string
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Is reports ErrSource as a match.
func (e *SourceError) Is(target error) bool { return target == ErrSource }

// Source is the canonical store.
type Source[V any] interface {
	Fetch(ctx context.Context, key string) (V, bool, error)
	Upsert(ctx context.Context, key string, value V) error
	Delete(ctx context.Context, key string) error
}

// Lookup is the result of Get: either Found with a value or Absent.
type Lookup[V any] struct {
	Value V
	Found bool
}

// Found wraps a present value.
func Found[V any](v V) Lookup[V] { return Lookup[V]{Value: v, Found: true} }

// Absent is the empty result.
func Absent[V any]() Lookup[V] { return Lookup[V]{} }

// Options configures a Store.
type Options struct {
	// Name labels metrics and logs.
	Name      string
	KeyPrefix string
	// TTL applies to cache entries; zero keeps them until invalidated.
	TTL               time.Duration
	SecondDeleteDelay time.Duration
	Clock             clock.WithDelayedExecution
}

// Store is a cache-aside store for values of type V.
type Store[V any] struct {
	opts   Options
	cache  kvstore.Cache
	filter filter.Filter
	source Source[V]

	pending atomic.Int64
	wg      sync.WaitGroup
}

// New builds a Store. Values are cached as JSON.
func New[V any](cache kvstore.Cache, f filter.Filter, source Source[V], opts Options) *Store[V] {
	if opts.Name == "" {
		opts.Name = "default"
	}
	if opts.SecondDeleteDelay <= 0 {
		opts.SecondDeleteDelay = DefaultSecondDeleteDelay
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	return &Store[V]{opts: opts, cache: cache, filter: f, source: source}
}

func (s *Store[V]) cacheKey(key string) string {
	return s.opts.KeyPrefix + key
}

func (s *Store[V]) transportError(ctx context.Context, op, key string, err error) {
	metrics.CacheTransportErrors.WithLabelValues(s.opts.Name, op).Inc()
	logging.Ctx(ctx).Warn().Err(err).
		Str("store", s.opts.Name).
		Str("op", op).
		Str("key", key).
		Msg("Cache transport error, continuing without cache")
}

func (s *Store[V]) count(result string) {
	metrics.CacheLookups.WithLabelValues(s.opts.Name, result).Inc()
}

// Get returns the record for key.
func (s *Store[V]) Get(ctx context.Context, key string) (Lookup[V], error) {
	if v, ok := s.fromCache(ctx, key); ok {
		s.count("hit")
		return Found(v), nil
	}

	maybe, err := s.filter.MightContain(ctx, key)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("store", s.opts.Name).Str("key", key).
			Msg("Membership filter unavailable, querying source")
		maybe = true
	}
	if !maybe {
		s.count("filtered")
		return Absent[V](), nil
	}

	v, found, err := s.source.Fetch(ctx, key)
	if err != nil {
		return Absent[V](), &SourceError{Op: "fetch", Key: key, Err: err}
	}
	if !found {
		s.count("source_miss")
		return Absent[V](), nil
	}

	s.count("source_hit")
	s.toCache(ctx, key, v)
	return Found(v), nil
}

func (s *Store[V]) fromCache(ctx context.Context, key string) (V, bool) {
	var zero V
	data, ok, err := s.cache.Get(ctx, s.cacheKey(key))
	if err != nil {
		s.transportError(ctx, "get", key, err)
		return zero, false
	}
	if !ok {
		return zero, false
	}
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("store", s.opts.Name).Str("key", key).
			Msg("Discarding undecodable cache entry")
		return zero, false
	}
	return v, true
}

func (s *Store[V]) toCache(ctx context.Context, key string, v V) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("store", s.opts.Name).Str("key", key).
			Msg("Cannot encode value for cache")
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(key), data, s.opts.TTL); err != nil {
		s.transportError(ctx, "set", key, err)
	}
}

func (s *Store[V]) remember(ctx context.Context, key string) error {
	if err := s.filter.Add(ctx, key); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("store", s.opts.Name).Str("key", key).
			Msg("Record persisted but membership filter add failed")
		return fmt.Errorf("%w: %s: %w", ErrFilterAdd, key, err)
	}
	return nil
}

// Put writes a new record: source, then cache, then filter.
func (s *Store[V]) Put(ctx context.Context, key string, value V) error {
	if err := s.source.Upsert(ctx, key, value); err != nil {
		return &SourceError{Op: "upsert", Key: key, Err: err}
	}
	s.toCache(ctx, key, value)
	return s.remember(ctx, key)
}

// Update replaces an existing record using the double delete sequence
// and records the key in the filter.
func (s *Store[V]) Update(ctx context.Context, key string, value V) error {
	err := s.Invalidate(ctx, key, func(ctx context.Context) error {
		if err := s.source.Upsert(ctx, key, value); err != nil {
			return &SourceError{Op: "upsert", Key: key, Err: err}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.remember(ctx, key)
}

// Delete removes a record using the double delete sequence. The filter
// keeps the key.
func (s *Store[V]) Delete(ctx context.Context, key string) error {
	return s.Invalidate(ctx, key, func(ctx context.Context) error {
		if err := s.source.Delete(ctx, key); err != nil {
			return &SourceError{Op: "delete", Key: key, Err: err}
		}
		return nil
	})
}

// Invalidate deletes the cached entry, runs mutate against the source,
// then schedules a second delete after the configured delay. The second
// delete is detached from ctx's cancellation and is not scheduled when
// mutate fails.
func (s *Store[V]) Invalidate(ctx context.Context, key string, mutate func(context.Context) error) error {
	ck := s.cacheKey(key)
	if err := s.cache.Delete(ctx, ck); err != nil {
		s.transportError(ctx, "delete", key, err)
	}

	if mutate != nil {
		if err := mutate(ctx); err != nil {
			return err
		}
	}

	detached := context.WithoutCancel(ctx)
	s.pending.Add(1)
	s.wg.Add(1)
	// The fake clock runs AfterFunc callbacks under its own lock, so the
	// delete itself happens on a fresh goroutine.
	s.opts.Clock.AfterFunc(s.opts.SecondDeleteDelay, func() {
		go s.secondDelete(detached, key, ck)
	})
	return nil
}

func (s *Store[V]) secondDelete(ctx context.Context, key, ck string) {
	defer s.wg.Done()
	defer s.pending.Add(-1)

	if err := s.cache.Delete(ctx, ck); err != nil {
		s.transportError(ctx, "second_delete", key, err)
		return
	}
	metrics.CacheSecondDeletes.WithLabelValues(s.opts.Name).Inc()
	logging.Ctx(ctx).Debug().Str("store", s.opts.Name).Str("key", key).Msg("Delayed cache delete done")
}

// Pending reports second deletes that are scheduled but not finished.
func (s *Store[V]) Pending() int {
	return int(s.pending.Load())
}

// Wait blocks until every scheduled second delete has run. Used on
// shutdown and in tests.
func (s *Store[V]) Wait() {
	s.wg.Wait()
}

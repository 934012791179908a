// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

// Package filter provides insert-only Bloom membership filters.
//
// A filter answers "definitely absent" or "might be present". Keys are
// never removed, so a key added once is reported present forever.
//
// Local keeps its bits in process memory. Shared keeps them in a Redis
// bitmap so every replica consults the same set.
package filter

import (
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/Muyu1uz/ai-java-interviewer/internal/logging"
	"github.com/Muyu1uz/ai-java-interviewer/internal/metrics"
)

// Filter is a probabilistic set of string keys.
type Filter interface {
	Add(ctx context.Context, key string) error
	// MightContain returns false only for keys that were never added.
	MightContain(ctx context.Context, key string) (bool, error)
}

// Local is an in-process filter. Reads run concurrently; adds are
// serialized.
type Local struct {
	name string

	mu sync.RWMutex
	bf *bloom.BloomFilter
}

// NewLocal sizes a filter for n expected keys at false-positive rate fp.
func NewLocal(name string, n uint, fp float64) *Local {
	return &Local{name: name, bf: bloom.NewWithEstimates(n, fp)}
}

// Add implements Filter.
func (f *Local) Add(_ context.Context, key string) error {
	f.mu.Lock()
	f.bf.AddString(key)
	f.mu.Unlock()
	metrics.FilterInsertions.WithLabelValues(f.name).Inc()
	return nil
}

// MightContain implements Filter.
func (f *Local) MightContain(_ context.Context, key string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.TestString(key), nil
}

// ApproximatedSize estimates how many distinct keys were added.
func (f *Local) ApproximatedSize() uint32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.ApproximatedSize()
}

// Warm adds every key to f. It stops at the first error and reports how
// many keys were added before it.
func Warm(ctx context.Context, f Filter, keys []string) (int, error) {
	for i, k := range keys {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := f.Add(ctx, k); err != nil {
			return i, err
		}
	}
	logging.Info().Int("keys", len(keys)).Msg("Membership filter warmed")
	return len(keys), nil
}

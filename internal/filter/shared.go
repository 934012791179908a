// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package filter

import (
	"context"
	"fmt"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/redis/go-redis/v9"

	"github.com/Muyu1uz/ai-java-interviewer/internal/metrics"
)

// Shared is a Bloom filter whose bit array is a Redis string. Bit
// positions come from the same hashing as Local, so both variants size
// identically for a given n and fp.
type Shared struct {
	rdb  redis.Cmdable
	key  string
	name string
	m    uint64
	k    uint
}

// NewShared sizes a Redis-backed filter stored at key.
func NewShared(rdb redis.Cmdable, key, name string, n uint, fp float64) *Shared {
	m, k := bloom.EstimateParameters(n, fp)
	return &Shared{rdb: rdb, key: key, name: name, m: uint64(m), k: k}
}

func (f *Shared) offsets(key string) []int64 {
	locs := bloom.Locations([]byte(key), f.k)
	out := make([]int64, len(locs))
	for i, l := range locs {
		out[i] = int64(l % f.m)
	}
	return out
}

// Add implements Filter. SETBIT only ever turns bits on, so concurrent
// adds from different replicas commute.
func (f *Shared) Add(ctx context.Context, key string) error {
	offs := f.offsets(key)
	_, err := f.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, o := range offs {
			pipe.SetBit(ctx, f.key, o, 1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("shared filter add: %w", err)
	}
	metrics.FilterInsertions.WithLabelValues(f.name).Inc()
	return nil
}

// MightContain implements Filter.
func (f *Shared) MightContain(ctx context.Context, key string) (bool, error) {
	offs := f.offsets(key)
	cmds := make([]*redis.IntCmd, len(offs))
	_, err := f.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, o := range offs {
			cmds[i] = pipe.GetBit(ctx, f.key, o)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("shared filter test: %w", err)
	}
	for _, c := range cmds {
		if c.Val() == 0 {
			return false, nil
		}
	}
	return true, nil
}

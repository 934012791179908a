// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

// Package kvstore is the shared key-value service behind the resume
// cache, the admission buckets and the topic sets.
//
// Three backends implement Store:
//   - Redis: the production backend shared by every replica. Bucket
//     refills run inside a Lua script so concurrent callers never
//     observe a partially updated bucket.
//   - Badger: an embedded store for single-node deployments. Updates run
//     in optimistic transactions retried on conflict.
//   - Memory: process-local, used in tests and local development.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kvstore: closed")

// Cache is a byte-value cache transport.
type Cache interface {
	// Get returns found=false on a miss.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set stores value; ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores value only if key is absent and reports whether it
	// did. ttl <= 0 means no expiry.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Sets stores string sets with a TTL refreshed on every add.
type Sets interface {
	// SetAdd adds members and resets the key's TTL in one atomic step.
	SetAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error
	// SetMembers returns nil for a missing or expired key.
	SetMembers(ctx context.Context, key string) ([]string, error)
	// SetRemove drops members without touching the TTL.
	SetRemove(ctx context.Context, key string, members ...string) error
	Delete(ctx context.Context, key string) error
}

// Take is the outcome of one token bucket acquisition.
type Take struct {
	Allowed   bool
	Remaining float64
}

// Buckets implements token buckets keyed by string.
type Buckets interface {
	// TakeToken refills the bucket at key by elapsed*rate (capped at
	// capacity), then removes one token if at least one is available.
	// A bucket that does not exist yet starts full.
	TakeToken(ctx context.Context, key string, capacity int, rate float64) (Take, error)
}

// Store is a full backend.
type Store interface {
	Cache
	Sets
	Buckets
	Ping(ctx context.Context) error
	Close() error
}

// bucketTTL is how long an idle bucket is kept: long enough to refill
// completely, plus a second of slack. An expired bucket is
// indistinguishable from a full one.
func bucketTTL(capacity int, rate float64) time.Duration {
	if rate <= 0 {
		return time.Hour
	}
	refill := time.Duration(float64(capacity) / rate * float64(time.Second))
	return refill + time.Second
}

// refill applies the token bucket arithmetic shared by the Go-side
// backends. last is zero for a bucket that has never been touched.
func refill(tokens float64, last, now time.Time, capacity int, rate float64) (Take, time.Time) {
	if last.IsZero() {
		tokens = float64(capacity)
		last = now
	}
	if now.After(last) {
		tokens += now.Sub(last).Seconds() * rate
		last = now
	}
	if tokens > float64(capacity) {
		tokens = float64(capacity)
	}
	if tokens >= 1 {
		return Take{Allowed: true, Remaining: tokens - 1}, last
	}
	return Take{Allowed: false, Remaining: tokens}, last
}

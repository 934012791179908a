// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package kvstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"k8s.io/utils/clock"
)

type memValue struct {
	data    []byte
	members map[string]struct{}
	expires time.Time
}

func (v *memValue) expired(now time.Time) bool {
	return !v.expires.IsZero() && !now.Before(v.expires)
}

// limiterPruneInterval is how often TakeToken looks for idle limiters.
const limiterPruneInterval = time.Minute

type memLimiter struct {
	lim      *rate.Limiter
	lastUsed time.Time
	ttl      time.Duration
}

// Memory is a process-local backend. Expiry is evaluated lazily against
// the injected clock, which lets tests step time instead of sleeping.
type Memory struct {
	clock clock.PassiveClock

	mu       sync.Mutex
	values   map[string]*memValue
	limiters  map[string]*memLimiter
	lastPrune time.Time
	closed    bool
}

// NewMemory creates an empty store. A nil clock uses real time.
func NewMemory(clk clock.PassiveClock) *Memory {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Memory{
		clock:    clk,
		values:   make(map[string]*memValue),
		limiters: make(map[string]*memLimiter),
	}
}

// lookup returns the live value at key, dropping it if expired.
// Caller holds m.mu.
func (m *Memory) lookup(key string) *memValue {
	v, ok := m.values[key]
	if !ok {
		return nil
	}
	if v.expired(m.clock.Now()) {
		delete(m.values, key)
		return nil
	}
	return v
}

func (m *Memory) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.clock.Now().Add(ttl)
}

// Ping implements Store.
func (m *Memory) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

// Close implements Store.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v := m.lookup(key)
	if v == nil || v.data == nil {
		return nil, false, nil
	}
	out := make([]byte, len(v.data))
	copy(out, v.data)
	return out, true, nil
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	data := make([]byte, len(value))
	copy(data, value)
	m.values[key] = &memValue{data: data, expires: m.expiry(ttl)}
	return nil
}

// SetNX implements Cache.
func (m *Memory) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrClosed
	}
	if m.lookup(key) != nil {
		return false, nil
	}
	data := make([]byte, len(value))
	copy(data, value)
	m.values[key] = &memValue{data: data, expires: m.expiry(ttl)}
	return true, nil
}

// Delete implements Cache and Sets.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.values, key)
	return nil
}

// SetAdd implements Sets.
func (m *Memory) SetAdd(_ context.Context, key string, ttl time.Duration, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if len(members) == 0 {
		return nil
	}
	v := m.lookup(key)
	if v == nil || v.members == nil {
		v = &memValue{members: make(map[string]struct{}, len(members))}
		m.values[key] = v
	}
	for _, mem := range members {
		v.members[mem] = struct{}{}
	}
	v.expires = m.expiry(ttl)
	return nil
}

// SetMembers implements Sets. Members are returned sorted.
func (m *Memory) SetMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	v := m.lookup(key)
	if v == nil || len(v.members) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(v.members))
	for mem := range v.members {
		out = append(out, mem)
	}
	sort.Strings(out)
	return out, nil
}

// SetRemove implements Sets.
func (m *Memory) SetRemove(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	v := m.lookup(key)
	if v == nil || v.members == nil {
		return nil
	}
	for _, mem := range members {
		delete(v.members, mem)
	}
	if len(v.members) == 0 {
		delete(m.values, key)
	}
	return nil
}

// TakeToken implements Buckets with one rate.Limiter per key. The
// limiter starts full, matching a freshly created bucket. Limiters idle
// for longer than bucketTTL are dropped, the way the other backends let
// bucket keys expire.
func (m *Memory) TakeToken(_ context.Context, key string, capacity int, r float64) (Take, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Take{}, ErrClosed
	}
	now := m.clock.Now()
	m.pruneLimiters(now)

	ml, ok := m.limiters[key]
	if !ok {
		ml = &memLimiter{
			lim: rate.NewLimiter(rate.Limit(r), capacity),
			ttl: bucketTTL(capacity, r),
		}
		m.limiters[key] = ml
	}
	ml.lastUsed = now
	allowed := ml.lim.AllowN(now, 1)
	return Take{Allowed: allowed, Remaining: ml.lim.TokensAt(now)}, nil
}

// pruneLimiters drops idle limiters at most once per
// limiterPruneInterval. Caller holds m.mu.
func (m *Memory) pruneLimiters(now time.Time) {
	if now.Sub(m.lastPrune) < limiterPruneInterval {
		return
	}
	m.lastPrune = now
	for key, ml := range m.limiters {
		if now.Sub(ml.lastUsed) >= ml.ttl {
			delete(m.limiters, key)
		}
	}
}

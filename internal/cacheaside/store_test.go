// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package cacheaside

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	testclock "k8s.io/utils/clock/testing"

	"github.com/Muyu1uz/ai-java-interviewer/internal/filter"
	"github.com/Muyu1uz/ai-java-interviewer/internal/kvstore"
)

type record struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

// fakeSource is an in-memory source of truth that counts calls.
type fakeSource struct {
	mu      sync.Mutex
	rows    map[string]record
	fetches int
	err     error
}

func newFakeSource() *fakeSource {
	return &fakeSource{rows: make(map[string]record)}
}

func (s *fakeSource) Fetch(_ context.Context, key string) (record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.err != nil {
		return record{}, false, s.err
	}
	r, ok := s.rows[key]
	return r, ok, nil
}

func (s *fakeSource) Upsert(_ context.Context, key string, v record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rows[key] = v
	return nil
}

func (s *fakeSource) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.rows, key)
	return nil
}

func (s *fakeSource) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// countingCache records deletes and can be switched into failure mode.
type countingCache struct {
	kvstore.Cache
	mu      sync.Mutex
	deletes int
	fail    bool
}

func (c *countingCache) failing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fail
}

func (c *countingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.failing() {
		return nil, false, errors.New("connection refused")
	}
	return c.Cache.Get(ctx, key)
}

func (c *countingCache) Set(ctx context.Context, key string, v []byte, ttl time.Duration) error {
	if c.failing() {
		return errors.New("connection refused")
	}
	return c.Cache.Set(ctx, key, v, ttl)
}

func (c *countingCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	c.deletes++
	fail := c.fail
	c.mu.Unlock()
	if fail {
		return errors.New("connection refused")
	}
	return c.Cache.Delete(ctx, key)
}

func (c *countingCache) deleteCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deletes
}

type fixture struct {
	store  *Store[record]
	source *fakeSource
	cache  *countingCache
	clock  *testclock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := testclock.NewFakeClock(time.Now())
	src := newFakeSource()
	cache := &countingCache{Cache: kvstore.NewMemory(nil)}
	st := New[record](cache, filter.NewLocal("test", 1000, 0.01), src, Options{
		Name:              "test",
		KeyPrefix:         "resume:",
		SecondDeleteDelay: 500 * time.Millisecond,
		Clock:             clk,
	})
	return &fixture{store: st, source: src, cache: cache, clock: clk}
}

func TestPutThenGetSkipsSource(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	want := record{ID: "r1", Body: "Java, Redis"}
	if err := f.store.Put(ctx, "r1", want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := f.store.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Found || got.Value != want {
		t.Fatalf("Get = %+v, want %+v", got, want)
	}
	if n := f.source.fetchCount(); n != 0 {
		t.Errorf("source fetched %d times, want 0", n)
	}
}

func TestGetFilteredKeyNeverHitsSource(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	got, err := f.store.Get(context.Background(), "never-written")
	if err != nil {
		t.Fatal(err)
	}
	if got.Found {
		t.Fatal("expected Absent")
	}
	if n := f.source.fetchCount(); n != 0 {
		t.Errorf("source fetched %d times, want 0", n)
	}
}

func TestGetPopulatesCacheFromSource(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_ = f.store.Put(ctx, "r1", record{ID: "r1"})
	_ = f.cache.Cache.Delete(ctx, "resume:r1")

	for i := 0; i < 3; i++ {
		got, err := f.store.Get(ctx, "r1")
		if err != nil || !got.Found {
			t.Fatalf("Get #%d = %+v, %v", i, got, err)
		}
	}
	if n := f.source.fetchCount(); n != 1 {
		t.Errorf("source fetched %d times, want 1", n)
	}
}

func TestSourceMissDoesNotTouchFilter(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	// Put then delete from the source only: the filter still says maybe.
	_ = f.store.Put(ctx, "gone", record{ID: "gone"})
	_ = f.source.Delete(ctx, "gone")
	_ = f.cache.Cache.Delete(ctx, "resume:gone")

	got, err := f.store.Get(ctx, "gone")
	if err != nil || got.Found {
		t.Fatalf("Get = %+v, %v; want Absent", got, err)
	}
	if ok, _ := f.store.filter.MightContain(ctx, "gone"); !ok {
		t.Error("filter lost a key")
	}
}

func TestUpdateDoubleDelete(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_ = f.store.Put(ctx, "r1", record{ID: "r1", Body: "v1"})
	if err := f.store.Update(ctx, "r1", record{ID: "r1", Body: "v2"}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if _, ok, _ := f.cache.Cache.Get(ctx, "resume:r1"); ok {
		t.Fatal("cache entry present right after Update")
	}
	if n := f.cache.deleteCount(); n != 1 {
		t.Fatalf("deletes = %d, want 1", n)
	}
	if f.store.Pending() != 1 {
		t.Fatalf("Pending = %d, want 1", f.store.Pending())
	}

	// A concurrent reader races the source write and caches the old value.
	_ = f.cache.Cache.Set(ctx, "resume:r1", []byte(`{"id":"r1","body":"v1"}`), 0)

	f.clock.Step(499 * time.Millisecond)
	if n := f.cache.deleteCount(); n != 1 {
		t.Fatalf("deletes before delay = %d, want 1", n)
	}

	f.clock.Step(time.Millisecond)
	f.store.Wait()

	if n := f.cache.deleteCount(); n != 2 {
		t.Fatalf("deletes after delay = %d, want 2", n)
	}
	if _, ok, _ := f.cache.Cache.Get(ctx, "resume:r1"); ok {
		t.Fatal("stale entry survived the second delete")
	}
	got, _ := f.store.Get(ctx, "r1")
	if got.Value.Body != "v2" {
		t.Errorf("Get after update = %+v, want v2", got.Value)
	}
}

func TestDeleteKeepsFilterAndSchedulesSecondDelete(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_ = f.store.Put(ctx, "r1", record{ID: "r1"})
	if err := f.store.Delete(ctx, "r1"); err != nil {
		t.Fatal(err)
	}
	f.clock.Step(500 * time.Millisecond)
	f.store.Wait()

	if n := f.cache.deleteCount(); n != 2 {
		t.Errorf("deletes = %d, want 2", n)
	}
	got, err := f.store.Get(ctx, "r1")
	if err != nil || got.Found {
		t.Errorf("Get after delete = %+v, %v", got, err)
	}
	if n := f.source.fetchCount(); n != 1 {
		t.Errorf("source fetched %d times, want 1 (filter keeps deleted keys)", n)
	}
}

func TestRepeatedInvalidationsEachScheduleADelete(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_ = f.store.Put(ctx, "r1", record{ID: "r1"})
	_ = f.store.Update(ctx, "r1", record{ID: "r1", Body: "a"})
	f.clock.Step(200 * time.Millisecond)
	_ = f.store.Update(ctx, "r1", record{ID: "r1", Body: "b"})

	if f.store.Pending() != 2 {
		t.Fatalf("Pending = %d, want 2", f.store.Pending())
	}
	f.clock.Step(500 * time.Millisecond)
	f.store.Wait()
	if n := f.cache.deleteCount(); n != 4 {
		t.Errorf("deletes = %d, want 4", n)
	}
}

func TestCacheTransportErrorsFallBackToSource(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_ = f.store.Put(ctx, "r1", record{ID: "r1", Body: "x"})
	f.cache.mu.Lock()
	f.cache.fail = true
	f.cache.mu.Unlock()

	got, err := f.store.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get returned transport error: %v", err)
	}
	if !got.Found || got.Value.Body != "x" {
		t.Fatalf("Get = %+v", got)
	}
	if err := f.store.Update(ctx, "r1", record{ID: "r1", Body: "y"}); err != nil {
		t.Fatalf("Update returned transport error: %v", err)
	}
	f.clock.Step(time.Second)
	f.store.Wait()
}

func TestSourceErrorsPropagate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	_ = f.store.Put(ctx, "r1", record{ID: "r1"})
	_ = f.cache.Cache.Delete(ctx, "resume:r1")

	f.source.mu.Lock()
	f.source.err = errors.New("db down")
	f.source.mu.Unlock()

	_, err := f.store.Get(ctx, "r1")
	if !errors.Is(err, ErrSource) {
		t.Fatalf("Get err = %v, want ErrSource", err)
	}
	var se *SourceError
	if !errors.As(err, &se) || se.Op != "fetch" || se.Key != "r1" {
		t.Errorf("SourceError = %+v", se)
	}

	if err := f.store.Update(ctx, "r1", record{ID: "r1"}); !errors.Is(err, ErrSource) {
		t.Errorf("Update err = %v, want ErrSource", err)
	}
	if f.store.Pending() != 0 {
		t.Error("second delete scheduled after failed source write")
	}
	if err := f.store.Put(ctx, "r2", record{ID: "r2"}); !errors.Is(err, ErrSource) {
		t.Errorf("Put err = %v, want ErrSource", err)
	}
	if ok, _ := f.store.filter.MightContain(ctx, "r2"); ok {
		t.Error("filter learned a key whose write failed")
	}
}

// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	testclock "k8s.io/utils/clock/testing"

	"github.com/Muyu1uz/ai-java-interviewer/internal/kvstore"
	"github.com/Muyu1uz/ai-java-interviewer/internal/topics"
)

func newRegistry(t *testing.T) (*Registry, *testclock.FakeClock) {
	t.Helper()
	clk := testclock.NewFakeClock(time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC))
	return NewRegistry(kvstore.NewMemory(clk), clk, 30*time.Minute), clk
}

func mustAcquire(t *testing.T, reg *Registry, principal string) (*Handle, bool) {
	t.Helper()
	h, created, err := reg.Acquire(context.Background(), principal)
	if err != nil {
		t.Fatalf("Acquire(%s): %v", principal, err)
	}
	return h, created
}

func mustLen(t *testing.T, reg *Registry) int {
	t.Helper()
	n, err := reg.Len(context.Background())
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	return n
}

func TestAcquireReturnsSameHandle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg, _ := newRegistry(t)

	h1, created := mustAcquire(t, reg, "alice")
	if !created {
		t.Error("first Acquire should create")
	}
	h2, created := mustAcquire(t, reg, "alice")
	if created || h1.ConversationID() != h2.ConversationID() {
		t.Error("second Acquire should return the existing handle")
	}
	if h1.ConversationID() == "" || h1.Principal() != "alice" {
		t.Errorf("handle = %q/%q", h1.Principal(), h1.ConversationID())
	}
	if _, ok, err := reg.Get(ctx, "bob"); ok || err != nil {
		t.Errorf("Get(bob) = %v, %v; should not create handles", ok, err)
	}
	if n := mustLen(t, reg); n != 1 {
		t.Errorf("Len = %d, want 1", n)
	}
}

func TestHandleSurvivesAcrossRegistries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := testclock.NewFakeClock(time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC))
	mr := miniredis.RunT(t)
	newReplica := func() *Registry {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		return NewRegistry(kvstore.NewRedisFromClient(rdb, clk), clk, 30*time.Minute)
	}
	first, second := newReplica(), newReplica()

	h, _ := mustAcquire(t, first, "alice")
	h.SetResumeID("r-1")
	h.Append(topics.Turn{Role: topics.RoleAssistant, Content: "讲讲 Redis 持久化?"})
	if err := first.Save(ctx, h); err != nil {
		t.Fatal(err)
	}

	got, ok, err := second.Get(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("Get on second replica = %v, %v", ok, err)
	}
	if got.ConversationID() != h.ConversationID() || got.ResumeID() != "r-1" {
		t.Errorf("handle = %q/%q, want %q/r-1", got.ConversationID(), got.ResumeID(), h.ConversationID())
	}
	if tr := got.Transcript(); len(tr) != 1 || tr[0].Content != "讲讲 Redis 持久化?" {
		t.Errorf("transcript = %v", tr)
	}
}

func TestSweepEvictsIdle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg, clk := newRegistry(t)

	mustAcquire(t, reg, "idle")
	mustAcquire(t, reg, "busy")

	clk.Step(20 * time.Minute)
	if _, ok, _ := reg.Get(ctx, "busy"); !ok {
		t.Fatal("busy missing")
	}

	clk.Step(10 * time.Minute)
	evicted, err := reg.Sweep(ctx, clk.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(evicted) != 1 || evicted[0].Principal() != "idle" {
		t.Fatalf("evicted = %v, want [idle]", evicted)
	}
	if n := mustLen(t, reg); n != 1 {
		t.Errorf("Len = %d, want 1", n)
	}
	if _, ok, _ := reg.Get(ctx, "idle"); ok {
		t.Error("evicted handle still stored")
	}

	clk.Step(19 * time.Minute)
	if got, _ := reg.Sweep(ctx, clk.Now()); len(got) != 0 {
		t.Errorf("busy evicted early")
	}
	clk.Step(time.Minute)
	if got, _ := reg.Sweep(ctx, clk.Now()); len(got) != 1 {
		t.Errorf("busy not evicted after idle timeout")
	}
}

func TestSweepDropsExpiredIndexEntries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg, clk := newRegistry(t)
	mustAcquire(t, reg, "gone")

	// Past the record TTL the store has already dropped the handle.
	clk.Step(2 * time.Hour)
	evicted, err := reg.Sweep(ctx, clk.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(evicted) != 0 {
		t.Errorf("evicted = %v, want none", evicted)
	}
	if n := mustLen(t, reg); n != 0 {
		t.Errorf("Len = %d, want 0", n)
	}
}

func TestHandleResetKeepsResume(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg, _ := newRegistry(t)
	h, _ := mustAcquire(t, reg, "alice")
	h.SetResumeID("r-1")
	h.Append(topics.Turn{Role: topics.RoleAssistant, Content: "讲讲 JVM?"})

	old := h.ConversationID()
	if got := h.Reset(); got != old {
		t.Errorf("Reset returned %q, want %q", got, old)
	}
	if err := reg.Save(ctx, h); err != nil {
		t.Fatal(err)
	}

	stored, _, _ := reg.Get(ctx, "alice")
	if stored.ConversationID() == old {
		t.Error("conversation id did not change")
	}
	if len(stored.Transcript()) != 0 {
		t.Error("transcript not cleared")
	}
	if stored.ResumeID() != "r-1" {
		t.Errorf("ResumeID = %q", stored.ResumeID())
	}
}

func TestRegistryConcurrentAcquire(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg, clk := newRegistry(t)

	var wg sync.WaitGroup
	convs := make([]string, 32)
	created := make([]bool, 32)
	for i := range convs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, c, err := reg.Acquire(ctx, "shared")
			if err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			convs[i], created[i] = h.ConversationID(), c
		}(i)
	}
	wg.Wait()

	opened := 0
	for i, conv := range convs {
		if conv != convs[0] {
			t.Fatal("concurrent Acquire produced distinct conversations")
		}
		if created[i] {
			opened++
		}
	}
	if opened != 1 {
		t.Errorf("%d callers opened the handle, want 1", opened)
	}
	if err := reg.Remove(ctx, "shared"); err != nil {
		t.Fatal(err)
	}
	if got, _ := reg.Sweep(ctx, clk.Now()); len(got) != 0 || mustLen(t, reg) != 0 {
		t.Error("removed handle still present")
	}
}

type brokenStore struct{ kvstore.Store }

var errDown = errors.New("connection refused")

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errDown }

func TestStoreFailureSurfaces(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(brokenStore{kvstore.NewMemory(nil)}, nil, 0)
	if _, _, err := reg.Acquire(context.Background(), "alice"); !errors.Is(err, errDown) {
		t.Errorf("Acquire err = %v, want wrapped errDown", err)
	}
	if _, _, err := reg.Get(context.Background(), "alice"); !errors.Is(err, errDown) {
		t.Errorf("Get err = %v, want wrapped errDown", err)
	}
}

// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package interview

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	testclock "k8s.io/utils/clock/testing"

	"github.com/Muyu1uz/ai-java-interviewer/internal/cacheaside"
	"github.com/Muyu1uz/ai-java-interviewer/internal/database"
	"github.com/Muyu1uz/ai-java-interviewer/internal/filter"
	"github.com/Muyu1uz/ai-java-interviewer/internal/kvstore"
	"github.com/Muyu1uz/ai-java-interviewer/internal/session"
	"github.com/Muyu1uz/ai-java-interviewer/internal/topics"
	"github.com/Muyu1uz/ai-java-interviewer/internal/vectorindex"
)

type mapSource struct {
	mu   sync.Mutex
	rows map[string]database.Resume
}

func (m *mapSource) Fetch(_ context.Context, id string) (database.Resume, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	return r, ok, nil
}

func (m *mapSource) Upsert(_ context.Context, id string, r database.Resume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ResumeID = id
	m.rows[id] = r
	return nil
}

func (m *mapSource) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	clk := testclock.NewFakeClock(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	return newServiceOn(t, kvstore.NewMemory(clk), clk)
}

// newServiceOn builds a Service over a shared store, the way each replica
// sees the same key-value service.
func newServiceOn(t *testing.T, kv *kvstore.Memory, clk *testclock.FakeClock) *Service {
	t.Helper()
	ctx := context.Background()

	resumes := cacheaside.New[database.Resume](kv, filter.NewLocal("resume", 100, 0.01),
		&mapSource{rows: map[string]database.Resume{}},
		cacheaside.Options{Name: "resume", KeyPrefix: "resume:", Clock: clk})
	if err := resumes.Put(ctx, "r-1", database.Resume{ProfessionalKnowledge: "Redis, Kafka"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := resumes.Put(ctx, "r-2", database.Resume{ProfessionalKnowledge: "MySQL"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	knowledge := vectorindex.NewMemory(vectorindex.NewHashEmbedder(64))
	if err := knowledge.Add(ctx, []vectorindex.Document{
		{ID: "k1", Content: "Redis 持久化 RDB 与 AOF"},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	return NewService(resumes, topics.NewTracker(kv), session.NewRegistry(kv, clk, 0), knowledge)
}

func TestBeginUnknownResume(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	if _, err := svc.Begin(context.Background(), "alice", "missing"); !errors.Is(err, ErrResumeNotFound) {
		t.Errorf("err = %v, want ErrResumeNotFound", err)
	}
}

func TestTurnTracksTopics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	brief, err := svc.Begin(ctx, "alice", "r-1")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if brief.Resumed || brief.Resume.ProfessionalKnowledge != "Redis, Kafka" {
		t.Errorf("brief = %+v", brief)
	}

	tc, err := svc.Turn(ctx, "alice", []topics.Turn{
		{Role: topics.RoleAssistant, Content: "Redis 的持久化方式有哪些？"},
		{Role: topics.RoleUser, Content: "Redis 持久化有 RDB 和 AOF"},
	})
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if !reflect.DeepEqual(tc.NewTopics, []string{"Redis"}) {
		t.Errorf("NewTopics = %v", tc.NewTopics)
	}
	if !reflect.DeepEqual(tc.AvoidTopics, []string{"Redis"}) {
		t.Errorf("AvoidTopics = %v", tc.AvoidTopics)
	}
	if len(tc.Knowledge) != 1 || tc.Knowledge[0].ID != "k1" {
		t.Errorf("Knowledge = %+v", tc.Knowledge)
	}

	tc, err = svc.Turn(ctx, "alice", []topics.Turn{
		{Role: topics.RoleAssistant, Content: "Kafka 如何保证消息不丢失?"},
	})
	if err != nil {
		t.Fatalf("second Turn: %v", err)
	}
	if !reflect.DeepEqual(tc.NewTopics, []string{"Kafka"}) {
		t.Errorf("NewTopics = %v", tc.NewTopics)
	}
	if !reflect.DeepEqual(tc.AvoidTopics, []string{"Kafka", "Redis"}) {
		t.Errorf("AvoidTopics = %v", tc.AvoidTopics)
	}
	if tc.Knowledge != nil {
		t.Errorf("Knowledge without a user turn = %+v", tc.Knowledge)
	}
}

func TestRestartClearsTopics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	brief, _ := svc.Begin(ctx, "alice", "r-1")
	if _, err := svc.AddTopics(ctx, "alice", "JVM，线程池、Redis"); err != nil {
		t.Fatalf("AddTopics: %v", err)
	}

	conv, err := svc.Restart(ctx, "alice")
	if err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if conv == brief.ConversationID {
		t.Error("Restart kept the conversation id")
	}
	stats, err := svc.Topics(ctx, "alice")
	if err != nil {
		t.Fatalf("Topics: %v", err)
	}
	if stats.Count != 0 {
		t.Errorf("topics after restart = %v", stats.Topics)
	}
}

func TestTopicStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)
	if _, err := svc.Begin(ctx, "bob", "r-2"); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.AddTopics(ctx, "bob", "MySQL, 线程池,Spring Cloud")
	if err != nil {
		t.Fatalf("AddTopics: %v", err)
	}
	if stats.Count != 3 {
		t.Errorf("Count = %d, want 3", stats.Count)
	}
	want := map[string]int{topics.CategoryDatabase: 1, topics.CategoryConcurrency: 1, topics.CategorySpring: 1}
	if !reflect.DeepEqual(stats.Categories, want) {
		t.Errorf("Categories = %v, want %v", stats.Categories, want)
	}

	if err := svc.ClearTopics(ctx, "bob"); err != nil {
		t.Fatal(err)
	}
	if stats, _ = svc.Topics(ctx, "bob"); stats.Count != 0 {
		t.Errorf("Count after clear = %d", stats.Count)
	}
}

func TestBeginOtherResumeStartsOver(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	first, _ := svc.Begin(ctx, "alice", "r-1")
	again, _ := svc.Begin(ctx, "alice", "r-1")
	if !again.Resumed || again.ConversationID != first.ConversationID {
		t.Errorf("rejoin = %+v", again)
	}

	other, err := svc.Begin(ctx, "alice", "r-2")
	if err != nil {
		t.Fatal(err)
	}
	if other.Resumed || other.ConversationID == first.ConversationID {
		t.Errorf("switching resume = %+v", other)
	}
}

func TestNoSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.Turn(ctx, "ghost", nil); !errors.Is(err, ErrNoSession) {
		t.Errorf("Turn err = %v", err)
	}
	if _, err := svc.Restart(ctx, "ghost"); !errors.Is(err, ErrNoSession) {
		t.Errorf("Restart err = %v", err)
	}
	if err := svc.End(ctx, "ghost"); !errors.Is(err, ErrNoSession) {
		t.Errorf("End err = %v", err)
	}
}

func TestSessionSharedAcrossReplicas(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := testclock.NewFakeClock(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	kv := kvstore.NewMemory(clk)
	first, second := newServiceOn(t, kv, clk), newServiceOn(t, kv, clk)

	brief, err := first.Begin(ctx, "alice", "r-1")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	tc, err := second.Turn(ctx, "alice", []topics.Turn{
		{Role: topics.RoleAssistant, Content: "说说 JVM 的垃圾回收?"},
	})
	if err != nil {
		t.Fatalf("Turn on second replica: %v", err)
	}
	if tc.ConversationID != brief.ConversationID {
		t.Errorf("conversation = %q, want %q", tc.ConversationID, brief.ConversationID)
	}
	stats, err := first.Topics(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(stats.Topics, []string{"JVM"}) {
		t.Errorf("topics seen by first replica = %v", stats.Topics)
	}

	if err := second.End(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := first.Turn(ctx, "alice", nil); !errors.Is(err, ErrNoSession) {
		t.Errorf("Turn after End = %v, want ErrNoSession", err)
	}
}

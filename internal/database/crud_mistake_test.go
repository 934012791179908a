// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package database

import (
	"context"
	"testing"
	"time"
)

func TestMistakeInsertListNewestFirst(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return now }
	repo := db.Mistakes()

	questions := []string{"HashMap 扩容", "volatile 语义", "Redis 持久化"}
	for _, q := range questions {
		row, err := repo.Insert(ctx, "alice", q)
		if err != nil {
			t.Fatalf("Insert %s: %v", q, err)
		}
		if row.ID == 0 || row.Principal != "alice" || !row.CreatedAt.Equal(now) {
			t.Errorf("Insert = %+v", row)
		}
		now = now.Add(time.Minute)
	}
	if _, err := repo.Insert(ctx, "bob", "JVM 内存模型"); err != nil {
		t.Fatalf("Insert bob: %v", err)
	}

	items, total, err := repo.List(ctx, "alice", 0, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(items) != 2 || items[0].QuestionContent != "Redis 持久化" || items[1].QuestionContent != "volatile 语义" {
		t.Errorf("page 1 = %+v", items)
	}

	items, _, err = repo.List(ctx, "alice", 2, 2)
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if len(items) != 1 || items[0].QuestionContent != "HashMap 扩容" {
		t.Errorf("page 2 = %+v", items)
	}
}

func TestMistakeScopedToPrincipal(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	first := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return first }
	repo := db.Mistakes()

	row, err := repo.Insert(ctx, "alice", "synchronized 锁升级")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if ok, err := repo.SetAnswer(ctx, "bob", row.ID, "偷看答案"); err != nil || ok {
		t.Errorf("SetAnswer by other principal = %v, %v; want false", ok, err)
	}
	if ok, err := repo.Delete(ctx, "bob", row.ID); err != nil || ok {
		t.Errorf("Delete by other principal = %v, %v; want false", ok, err)
	}

	later := first.Add(time.Hour)
	db.now = func() time.Time { return later }
	if ok, err := repo.SetAnswer(ctx, "alice", row.ID, "偏向锁 轻量级锁 重量级锁"); err != nil || !ok {
		t.Fatalf("SetAnswer = %v, %v", ok, err)
	}
	items, _, _ := repo.List(ctx, "alice", 0, 10)
	if len(items) != 1 || items[0].UserAnswer != "偏向锁 轻量级锁 重量级锁" {
		t.Fatalf("List = %+v", items)
	}
	if !items[0].UpdatedAt.Equal(later) || !items[0].CreatedAt.Equal(first) {
		t.Errorf("timestamps = %v / %v", items[0].CreatedAt, items[0].UpdatedAt)
	}

	if ok, err := repo.Delete(ctx, "alice", row.ID); err != nil || !ok {
		t.Errorf("Delete = %v, %v", ok, err)
	}
	if ok, _ := repo.Delete(ctx, "alice", row.ID); ok {
		t.Error("second Delete reported a removed row")
	}
	if _, total, _ := repo.List(ctx, "alice", 0, 10); total != 0 {
		t.Errorf("total after delete = %d", total)
	}
}

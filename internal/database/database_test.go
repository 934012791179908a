// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package database

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/Muyu1uz/ai-java-interviewer/internal/config"
)

// testDBSemaphore serializes DuckDB usage across tests; concurrent CGO
// connections are slow and flaky under CI load.
var testDBSemaphore = make(chan struct{}, 1)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB", Threads: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return db
}

func TestResumeUpsertFetch(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	first := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return first }
	repo := db.Resumes()

	in := Resume{
		ProfessionalKnowledge: "Java, Spring Boot, Redis",
		ProjectExperience:     "秒杀系统",
		InternshipExperience:  "后端实习",
	}
	if err := repo.Upsert(ctx, "r-1", in); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, ok, err := repo.Fetch(ctx, "r-1")
	if err != nil || !ok {
		t.Fatalf("Fetch = %v, %v", ok, err)
	}
	if got.ResumeID != "r-1" || got.ProjectExperience != "秒杀系统" {
		t.Errorf("Fetch = %+v", got)
	}
	if !got.CreatedAt.Equal(first) || !got.UpdatedAt.Equal(first) {
		t.Errorf("timestamps = %v / %v, want %v", got.CreatedAt, got.UpdatedAt, first)
	}

	later := first.Add(time.Hour)
	db.now = func() time.Time { return later }
	in.ProjectExperience = "订单系统"
	if err := repo.Upsert(ctx, "r-1", in); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	got, _, _ = repo.Fetch(ctx, "r-1")
	if got.ProjectExperience != "订单系统" {
		t.Errorf("ProjectExperience = %q", got.ProjectExperience)
	}
	if !got.CreatedAt.Equal(first) {
		t.Errorf("CreatedAt changed to %v", got.CreatedAt)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, later)
	}
}

func TestResumeFetchMissing(t *testing.T) {
	db := setupTestDB(t)

	_, ok, err := db.Resumes().Fetch(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if ok {
		t.Error("missing resume reported as found")
	}
}

func TestResumeDeleteAndIDs(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := db.Resumes()

	for _, id := range []string{"b", "a", "c"} {
		if err := repo.Upsert(ctx, id, Resume{}); err != nil {
			t.Fatalf("Upsert %s: %v", id, err)
		}
	}
	if err := repo.Delete(ctx, "b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete missing: %v", err)
	}

	ids, err := repo.IDs(ctx)
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"a", "c"}) {
		t.Errorf("IDs = %v, want [a c]", ids)
	}
}

func TestPing(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	testclock "k8s.io/utils/clock/testing"

	"github.com/Muyu1uz/ai-java-interviewer/internal/config"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	docs := t.TempDir()
	content := "# Java 集合\n\nJava 的 HashMap 底层是数组加链表加红黑树。\n"
	if err := os.WriteFile(filepath.Join(docs, "collections.md"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("DUCKDB_PATH", ":memory:")
	t.Setenv("INGEST_DOCUMENTS_DIR", docs)
	t.Setenv("INGEST_BACKOFF_BASE", "0s")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}

	clk := testclock.NewFakeClock(time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC))
	a, err := newApp(context.Background(), cfg, clk)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(a.close)
	return a
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "alice")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAppWiring(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	rec := serve(t, a.router, http.MethodPost, "/api/v1/resumes", `{"resume_id":"r-1","professional_knowledge":"Java, Redis"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create resume = %d %s", rec.Code, rec.Body)
	}
	rec = serve(t, a.router, http.MethodGet, "/api/v1/resumes/r-1", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Java, Redis") {
		t.Fatalf("get resume = %d %s", rec.Code, rec.Body)
	}

	rec = serve(t, a.router, http.MethodPost, "/api/v1/interviews", `{"resume_id":"r-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("begin = %d %s", rec.Code, rec.Body)
	}
	if n, err := a.sessions.Len(ctx); err != nil || n != 1 {
		t.Errorf("sessions = %d, %v", n, err)
	}

	sum, err := a.job.Run(ctx, false)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !sum.Succeeded() || sum.Written == 0 {
		t.Fatalf("summary = %+v", sum)
	}
	again, err := a.job.Run(ctx, false)
	if err != nil || !again.Skipped {
		t.Errorf("second run = %+v, %v; want skipped", again, err)
	}

	rec = serve(t, a.router, http.MethodGet, "/api/v1/knowledge/search?q=HashMap&k=1&min_score=0", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "collections.md#0") {
		t.Errorf("search = %d %s", rec.Code, rec.Body)
	}

	rec = serve(t, a.router, http.MethodPost, "/api/v1/mistakes", `{"question_content":"HashMap 扩容"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add mistake = %d %s", rec.Code, rec.Body)
	}
	rec = serve(t, a.router, http.MethodGet, "/api/v1/mistakes", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "HashMap 扩容") {
		t.Errorf("list mistakes = %d %s", rec.Code, rec.Body)
	}

	rec = serve(t, a.router, http.MethodGet, "/health/ready", "")
	if rec.Code != http.StatusOK {
		t.Errorf("ready = %d %s", rec.Code, rec.Body)
	}
}

func TestSharedFilterNeedsRedis(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("DUCKDB_PATH", ":memory:")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Filter.Shared = true

	clk := testclock.NewFakeClock(time.Now())
	if a, err := newApp(context.Background(), cfg, clk); err == nil {
		a.close()
		t.Fatal("newApp accepted a shared filter on the memory backend")
	}
}

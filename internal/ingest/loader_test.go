// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Muyu1uz/ai-java-interviewer/internal/vectorindex"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestSplitMarkdownSections(t *testing.T) {
	t.Parallel()
	text := "intro line\n# JVM\nheap and stack\n\n## GC\nG1\n---\nafter rule\n\n***\n"
	got := SplitMarkdown(text, 800, 200)
	want := []string{"intro line", "# JVM\nheap and stack", "## GC\nG1", "after rule"}
	if len(got) != len(want) {
		t.Fatalf("sections = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("section %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitMarkdownWindows(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("锁", 25)
	got := SplitMarkdown(long, 10, 4)
	// Windows start at 0, 6, 12, 18; the last one reaches the end.
	if len(got) != 4 {
		t.Fatalf("got %d windows: %q", len(got), got)
	}
	for i, w := range got[:3] {
		if n := len([]rune(w)); n != 10 {
			t.Errorf("window %d has %d runes", i, n)
		}
	}
	if n := len([]rune(got[3])); n != 7 {
		t.Errorf("last window has %d runes, want 7", n)
	}
}

func TestCategory(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"Java-basics.md":        "Java",
		"jvm_gc.md":             "Java",
		"spring-boot.md":        "Spring",
		"MySQL-index.md":        "Database",
		"redis.md":              "Database",
		"network-tcp.md":        "Network",
		"algorithm-sort.md":     "Algorithm",
		"thread-pool.md":        "Concurrency",
		"concurrent-hashmap.md": "Concurrency",
		"design-patterns.md":    "General",
	}
	for name, want := range tests {
		if got := Category(name); got != want {
			t.Errorf("Category(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestLoadMarkdown(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "redis.md"), "# 缓存\n缓存穿透\n# 持久化\nRDB AOF\n")
	writeFile(t, filepath.Join(dir, "nested", "jvm.md"), "# GC\nG1\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	now := time.UnixMilli(1767225600000)
	docs, err := LoadMarkdown(dir, LoaderOptions{Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("LoadMarkdown: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d chunks, want 3: %+v", len(docs), docs)
	}

	first := docs[0]
	if first.ID != "nested/jvm.md#0" {
		t.Errorf("first ID = %q", first.ID)
	}
	if first.Metadata[MetaCategory] != "Java" || first.Metadata[MetaSource] != "jvm.md" {
		t.Errorf("metadata = %v", first.Metadata)
	}
	if first.Metadata[MetaType] != DocumentType || first.Metadata[MetaLoadTime] != "1767225600000" {
		t.Errorf("metadata = %v", first.Metadata)
	}
	if docs[2].ID != "redis.md#1" || docs[2].Metadata[MetaCategory] != "Database" {
		t.Errorf("last chunk = %+v", docs[2])
	}
}

func TestLoadMarkdownMissingDir(t *testing.T) {
	t.Parallel()
	docs, err := LoadMarkdown(filepath.Join(t.TempDir(), "absent"), LoaderOptions{})
	if err != nil || docs != nil {
		t.Errorf("LoadMarkdown = %v, %v; want nil, nil", docs, err)
	}
}

// blockingIndex holds Add until released.
type blockingIndex struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingIndex) Add(context.Context, []vectorindex.Document) error {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return nil
}

func (b *blockingIndex) Search(context.Context, string, int, float64) ([]vectorindex.Result, error) {
	return nil, nil
}

func TestJobSingleRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "java.md"), "# Java\nString 为什么不可变?\n")

	idx := &blockingIndex{entered: make(chan struct{}), release: make(chan struct{})}
	job := NewJob(dir, LoaderOptions{}, NewPipeline(idx, fastOptions()))

	if _, ok := job.Last(); ok {
		t.Error("Last reported a run before any ran")
	}

	done := make(chan Summary)
	go func() {
		sum, err := job.Run(context.Background(), false)
		if err != nil {
			t.Errorf("Run: %v", err)
		}
		done <- sum
	}()

	<-idx.entered
	if _, err := job.Run(context.Background(), true); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("concurrent Run err = %v, want ErrRunInProgress", err)
	}
	close(idx.release)

	sum := <-done
	if sum.Written != 1 {
		t.Errorf("Written = %d, want 1", sum.Written)
	}
	last, ok := job.Last()
	if !ok || last.Written != 1 {
		t.Errorf("Last = %+v, %v", last, ok)
	}
}

// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package vectorindex

import (
	"context"
	"sort"
	"sync"
)

type memEntry struct {
	doc    Document
	vector []float32
	seq    int
}

// Memory is a brute-force in-process index.
type Memory struct {
	embedder Embedder

	mu      sync.RWMutex
	entries map[string]memEntry
	seq     int
}

// NewMemory returns an empty index using embedder.
func NewMemory(embedder Embedder) *Memory {
	return &Memory{embedder: embedder, entries: make(map[string]memEntry)}
}

// Add implements Index.
func (m *Memory) Add(ctx context.Context, docs []Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	vectors := make([][]float32, len(docs))
	for i, d := range docs {
		vectors[i] = m.embedder.Embed(d.Content)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range docs {
		m.seq++
		m.entries[d.ID] = memEntry{doc: d, vector: vectors[i], seq: m.seq}
	}
	return nil
}

// Search implements Index. Ties keep insertion order.
func (m *Memory) Search(ctx context.Context, query string, k int, minScore float64) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}
	q := m.embedder.Embed(query)

	m.mu.RLock()
	type scored struct {
		Result
		seq int
	}
	hits := make([]scored, 0, len(m.entries))
	for _, e := range m.entries {
		score := cosine(q, e.vector)
		if score >= minScore {
			hits = append(hits, scored{Result{Document: e.doc, Score: score}, e.seq})
		}
	}
	m.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].seq < hits[j].seq
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]Result, len(hits))
	for i, h := range hits {
		out[i] = h.Result
	}
	return out, nil
}

// Len returns the number of stored documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

// Package vectorindex is the similarity-search index that holds the
// interview knowledge base.
//
// Documents are embedded when added; Search embeds the query with the
// same Embedder and ranks stored documents by cosine similarity.
package vectorindex

import (
	"context"
	"math"
)

// Document is one indexed chunk.
type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Result is a search hit.
type Result struct {
	Document
	Score float64 `json:"score"`
}

// Index stores documents and answers nearest neighbour queries.
type Index interface {
	// Add embeds and stores docs. Adding a document whose ID already
	// exists replaces it.
	Add(ctx context.Context, docs []Document) error
	// Search returns up to k documents whose similarity to query is at
	// least minScore, best first.
	Search(ctx context.Context, query string, k int, minScore float64) ([]Result, error)
}

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(text string) []float32
	Dimensions() int
}

// cosine assumes equal lengths. A zero vector scores 0.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package vectorindex

import (
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// DefaultDimensions is the HashEmbedder width used when none is set.
const DefaultDimensions = 256

// HashEmbedder is a feature hashing embedder. Latin words and digits
// form one token each; Han text contributes single characters and
// character bigrams. Each token lands in a bucket chosen by its xxhash
// with a sign taken from the top hash bit, and the result is L2
// normalized.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder returns an embedder producing dims-wide vectors.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

// Dimensions implements Embedder.
func (e *HashEmbedder) Dimensions() int { return e.dims }

// Embed implements Embedder.
func (e *HashEmbedder) Embed(text string) []float32 {
	vec := make([]float32, e.dims)
	for _, tok := range tokenize(text) {
		h := xxhash.Sum64String(tok)
		idx := h % uint64(e.dims)
		if h>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func tokenize(text string) []string {
	var tokens []string
	var word strings.Builder
	var prevHan rune

	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			tokens = append(tokens, string(r))
			if prevHan != 0 {
				tokens = append(tokens, string([]rune{prevHan, r}))
			}
			prevHan = r
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#':
			word.WriteRune(r)
		default:
			flush()
		}
		prevHan = 0
	}
	flush()
	return tokens
}

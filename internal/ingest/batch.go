// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package ingest

import "github.com/Muyu1uz/ai-java-interviewer/internal/vectorindex"

// BatchState is the lifecycle position of one batch.
//
//	Pending -> Writing -> Success
//	                   -> Retrying -> Writing
//	                   -> Failed
type BatchState int

const (
	Pending BatchState = iota
	Writing
	Retrying
	Success
	Failed
)

func (s BatchState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Writing:
		return "writing"
	case Retrying:
		return "retrying"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (s BatchState) Terminal() bool {
	return s == Success || s == Failed
}

// Batch is an ordered group of chunks written in one index call.
type Batch struct {
	// Index is the zero-based position of the batch in the run.
	Index    int
	Chunks   []vectorindex.Document
	State    BatchState
	Attempts int
	Err      error
}

// Partition splits chunks into consecutive batches of size, keeping
// order. size is clamped to [1, limit]; limit <= 0 means no upstream
// limit.
func Partition(chunks []vectorindex.Document, size, limit int) []*Batch {
	if limit > 0 && size > limit {
		size = limit
	}
	if size < 1 {
		size = 1
	}

	batches := make([]*Batch, 0, (len(chunks)+size-1)/size)
	for start := 0; start < len(chunks); start += size {
		end := min(start+size, len(chunks))
		batches = append(batches, &Batch{
			Index:  len(batches),
			Chunks: chunks[start:end:end],
		})
	}
	return batches
}

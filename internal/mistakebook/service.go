// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

// Package mistakebook keeps the questions a candidate wants to revisit.
//
// Rows live in the database. Add claims an idempotency key in the shared
// key-value store before inserting, so a double-submitted question is
// stored once per IdempotencyWindow.
package mistakebook

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Muyu1uz/ai-java-interviewer/internal/database"
	"github.com/Muyu1uz/ai-java-interviewer/internal/kvstore"
	"github.com/Muyu1uz/ai-java-interviewer/internal/logging"
	"github.com/Muyu1uz/ai-java-interviewer/internal/metrics"
)

// IdempotencyWindow is how long an identical question is rejected.
const IdempotencyWindow = 5 * time.Minute

const idempotencyPrefix = "mistake_book:idempotent:"

// Paging defaults.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ErrNotFound is returned when the question does not exist or belongs to
// another principal.
var ErrNotFound = errors.New("mistakebook: question not found")

// Repository is the mistake_book table.
type Repository interface {
	Insert(ctx context.Context, principal, content string) (database.Mistake, error)
	List(ctx context.Context, principal string, offset, limit int) ([]database.Mistake, int, error)
	Delete(ctx context.Context, principal string, id int64) (bool, error)
	SetAnswer(ctx context.Context, principal string, id int64, answer string) (bool, error)
}

// Page is one page of a principal's questions.
type Page struct {
	Items []database.Mistake `json:"items"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Size  int                `json:"size"`
}

// Service manages mistake book entries.
type Service struct {
	repo  Repository
	cache kvstore.Cache
}

// NewService returns a Service over repo, using cache for idempotency keys.
func NewService(repo Repository, cache kvstore.Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

func idempotencyKey(principal, content string) string {
	sum := md5.Sum([]byte(content)) //nolint:gosec // see import
	return idempotencyPrefix + principal + ":" + hex.EncodeToString(sum[:])
}

// Add stores content for principal. added is false when the same content
// was added within IdempotencyWindow; the returned row is then empty.
func (s *Service) Add(ctx context.Context, principal, content string) (row database.Mistake, added bool, err error) {
	key := idempotencyKey(principal, content)
	claimed, err := s.cache.SetNX(ctx, key, []byte("1"), IdempotencyWindow)
	if err != nil {
		return database.Mistake{}, false, fmt.Errorf("claim mistake key: %w", err)
	}
	if !claimed {
		metrics.MistakesDeduplicated.Inc()
		logging.Ctx(ctx).Warn().
			Str("principal", principal).
			Msg("Duplicate mistake book insert ignored")
		return database.Mistake{}, false, nil
	}

	row, err = s.repo.Insert(ctx, principal, content)
	if err != nil {
		// Release the claim so the caller can retry.
		if derr := s.cache.Delete(ctx, key); derr != nil {
			logging.Ctx(ctx).Warn().Err(derr).Msg("Failed to release mistake book idempotency key")
		}
		return database.Mistake{}, false, err
	}
	return row, true, nil
}

// List returns page (1-based) of principal's questions, newest first.
// Out-of-range page and size fall back to the defaults.
func (s *Service) List(ctx context.Context, principal string, page, size int) (Page, error) {
	if page < 1 {
		page = DefaultPage
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	items, total, err := s.repo.List(ctx, principal, (page-1)*size, size)
	if err != nil {
		return Page{}, err
	}
	if items == nil {
		items = []database.Mistake{}
	}
	return Page{Items: items, Total: total, Page: page, Size: size}, nil
}

// Delete removes one of principal's questions.
func (s *Service) Delete(ctx context.Context, principal string, id int64) error {
	ok, err := s.repo.Delete(ctx, principal, id)
	if err != nil {
		return err
	}
	if !ok {
		logging.Ctx(ctx).Warn().Str("principal", principal).Int64("id", id).
			Msg("Mistake book delete matched no row")
		return ErrNotFound
	}
	return nil
}

// Answer records principal's answer to one of their questions.
func (s *Service) Answer(ctx context.Context, principal string, id int64, answer string) error {
	ok, err := s.repo.SetAnswer(ctx, principal, id, answer)
	if err != nil {
		return err
	}
	if !ok {
		logging.Ctx(ctx).Warn().Str("principal", principal).Int64("id", id).
			Msg("Mistake book answer for missing or foreign question")
		return ErrNotFound
	}
	return nil
}

// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Mistake is one question a candidate saved to review later.
type Mistake struct {
	ID              int64     `json:"id"`
	Principal       string    `json:"principal"`
	QuestionContent string    `json:"question_content"`
	UserAnswer      string    `json:"user_answer"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Mistakes is the mistake_book table. Every query is scoped to one
// principal.
type Mistakes struct {
	db *DB
}

// Mistakes returns the mistake book repository.
func (db *DB) Mistakes() *Mistakes {
	return &Mistakes{db: db}
}

// Insert stores a new question and returns the stored row.
func (m *Mistakes) Insert(ctx context.Context, principal, content string) (Mistake, error) {
	now := m.db.now().UTC()
	row := Mistake{
		Principal:       principal,
		QuestionContent: content,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err := m.db.conn.QueryRowContext(ctx, `
		INSERT INTO mistake_book (principal, question_content, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`,
		principal, content, now, now,
	).Scan(&row.ID)
	if err != nil {
		return Mistake{}, fmt.Errorf("failed to insert mistake for %s: %w", principal, err)
	}
	return row, nil
}

// List returns one page of the principal's questions, newest first, and
// the principal's total row count.
func (m *Mistakes) List(ctx context.Context, principal string, offset, limit int) ([]Mistake, int, error) {
	var total int
	if err := m.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mistake_book WHERE principal = ?`, principal).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count mistakes for %s: %w", principal, err)
	}

	rows, err := m.db.conn.QueryContext(ctx, `
		SELECT id, principal, question_content, user_answer, created_at, updated_at
		FROM mistake_book
		WHERE principal = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, principal, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list mistakes for %s: %w", principal, err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]Mistake, 0, limit)
	for rows.Next() {
		var row Mistake
		if err := rows.Scan(
			&row.ID,
			&row.Principal,
			&row.QuestionContent,
			&row.UserAnswer,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan mistake: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate mistakes: %w", err)
	}
	return items, total, nil
}

// Delete removes one of the principal's questions and reports whether a
// row was removed.
func (m *Mistakes) Delete(ctx context.Context, principal string, id int64) (bool, error) {
	res, err := m.db.conn.ExecContext(ctx,
		`DELETE FROM mistake_book WHERE id = ? AND principal = ?`, id, principal)
	if err != nil {
		return false, fmt.Errorf("failed to delete mistake %d: %w", id, err)
	}
	return affected(res, id)
}

// SetAnswer records the principal's answer to one of their questions and
// reports whether the row exists and belongs to them.
func (m *Mistakes) SetAnswer(ctx context.Context, principal string, id int64, answer string) (bool, error) {
	res, err := m.db.conn.ExecContext(ctx, `
		UPDATE mistake_book
		SET user_answer = ?, updated_at = ?
		WHERE id = ? AND principal = ?`,
		answer, m.db.now().UTC(), id, principal)
	if err != nil {
		return false, fmt.Errorf("failed to answer mistake %d: %w", id, err)
	}
	return affected(res, id)
}

func affected(res sql.Result, id int64) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows for mistake %d: %w", id, err)
	}
	return n > 0, nil
}

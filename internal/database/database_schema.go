// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext bounds DDL statements at startup.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

func tableQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS resumes (
			resume_id VARCHAR PRIMARY KEY,
			professional_knowledge VARCHAR NOT NULL DEFAULT '',
			project_experience VARCHAR NOT NULL DEFAULT '',
			internship_experience VARCHAR NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE SEQUENCE IF NOT EXISTS mistake_book_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS mistake_book (
			id BIGINT PRIMARY KEY DEFAULT nextval('mistake_book_id_seq'),
			principal VARCHAR NOT NULL,
			question_content VARCHAR NOT NULL,
			user_answer VARCHAR NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mistake_book_principal ON mistake_book(principal, created_at)`,
	}
}

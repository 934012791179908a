// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Resume is the structured summary of an uploaded resume.
type Resume struct {
	ResumeID              string    `json:"resume_id"`
	ProfessionalKnowledge string    `json:"professional_knowledge"`
	ProjectExperience     string    `json:"project_experience"`
	InternshipExperience  string    `json:"internship_experience"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Resumes is the resume table. It satisfies cacheaside.Source[Resume].
type Resumes struct {
	db *DB
}

// Resumes returns the resume repository.
func (db *DB) Resumes() *Resumes {
	return &Resumes{db: db}
}

// Fetch loads one resume. A missing row is reported as found=false.
func (r *Resumes) Fetch(ctx context.Context, resumeID string) (Resume, bool, error) {
	var res Resume
	err := r.db.conn.QueryRowContext(ctx, `
		SELECT resume_id, professional_knowledge, project_experience,
		       internship_experience, created_at, updated_at
		FROM resumes
		WHERE resume_id = ?`, resumeID).Scan(
		&res.ResumeID,
		&res.ProfessionalKnowledge,
		&res.ProjectExperience,
		&res.InternshipExperience,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Resume{}, false, nil
	}
	if err != nil {
		return Resume{}, false, fmt.Errorf("failed to fetch resume %s: %w", resumeID, err)
	}
	return res, true, nil
}

// Upsert inserts the resume or replaces its fields. created_at is kept
// from the first insert.
func (r *Resumes) Upsert(ctx context.Context, resumeID string, res Resume) error {
	now := r.db.now().UTC()
	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO resumes (
			resume_id, professional_knowledge, project_experience,
			internship_experience, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (resume_id) DO UPDATE SET
			professional_knowledge = EXCLUDED.professional_knowledge,
			project_experience = EXCLUDED.project_experience,
			internship_experience = EXCLUDED.internship_experience,
			updated_at = EXCLUDED.updated_at`,
		resumeID,
		res.ProfessionalKnowledge,
		res.ProjectExperience,
		res.InternshipExperience,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert resume %s: %w", resumeID, err)
	}
	return nil
}

// Delete removes the resume. Deleting a missing row is not an error.
func (r *Resumes) Delete(ctx context.Context, resumeID string) error {
	if _, err := r.db.conn.ExecContext(ctx, `DELETE FROM resumes WHERE resume_id = ?`, resumeID); err != nil {
		return fmt.Errorf("failed to delete resume %s: %w", resumeID, err)
	}
	return nil
}

// IDs lists every stored resume id, used to warm the membership filter.
func (r *Resumes) IDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.conn.QueryContext(ctx, `SELECT resume_id FROM resumes ORDER BY resume_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list resume ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan resume id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resume ids: %w", err)
	}
	return ids, nil
}

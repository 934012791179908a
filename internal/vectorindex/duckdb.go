// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package vectorindex

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// DuckDB keeps documents and their embeddings in a DuckDB table and
// ranks them with array_cosine_similarity.
type DuckDB struct {
	conn     *sql.DB
	embedder Embedder
	table    string
}

// DefaultTable holds the knowledge chunks.
const DefaultTable = "knowledge_chunks"

// NewDuckDB creates the table if needed.
func NewDuckDB(ctx context.Context, conn *sql.DB, embedder Embedder) (*DuckDB, error) {
	d := &DuckDB{conn: conn, embedder: embedder, table: DefaultTable}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR PRIMARY KEY,
		content VARCHAR NOT NULL,
		metadata VARCHAR NOT NULL DEFAULT '{}',
		embedding FLOAT[%d] NOT NULL
	)`, d.table, embedder.Dimensions())
	if _, err := conn.ExecContext(ctx, query); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", d.table, err)
	}
	return d, nil
}

// Add implements Index. The batch is written in one transaction.
func (d *DuckDB) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s (id, content, metadata, embedding)
		VALUES (?, ?, ?, ?::FLOAT[%d])`, d.table, d.embedder.Dimensions())
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, doc := range docs {
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for %s: %w", doc.ID, err)
		}
		if doc.Metadata == nil {
			meta = []byte("{}")
		}
		vec := vectorLiteral(d.embedder.Embed(doc.Content))
		if _, err := stmt.ExecContext(ctx, doc.ID, doc.Content, string(meta), vec); err != nil {
			return fmt.Errorf("failed to insert %s: %w", doc.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Search implements Index.
func (d *DuckDB) Search(ctx context.Context, query string, k int, minScore float64) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}
	q := fmt.Sprintf(`SELECT id, content, metadata, score FROM (
			SELECT id, content, metadata,
			       array_cosine_similarity(embedding, ?::FLOAT[%d])::DOUBLE AS score
			FROM %s
		)
		WHERE score >= ?
		ORDER BY score DESC, id
		LIMIT ?`, d.embedder.Dimensions(), d.table)

	rows, err := d.conn.QueryContext(ctx, q, vectorLiteral(d.embedder.Embed(query)), minScore, k)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", d.table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []Result
	for rows.Next() {
		var (
			r    Result
			meta string
		)
		if err := rows.Scan(&r.ID, &r.Content, &meta, &r.Score); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		if err := json.Unmarshal([]byte(meta), &r.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search hits: %w", err)
	}
	return out, nil
}

// Count returns the number of stored documents.
func (d *DuckDB) Count(ctx context.Context) (int, error) {
	var n int
	err := d.conn.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, d.table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", d.table, err)
	}
	return n, nil
}

// vectorLiteral renders v as a DuckDB list literal, which is cast to a
// fixed-size FLOAT array server side.
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.Grow(len(v) * 8)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

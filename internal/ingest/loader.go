// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Muyu1uz/ai-java-interviewer/internal/logging"
	"github.com/Muyu1uz/ai-java-interviewer/internal/vectorindex"
)

// Chunking defaults, in runes.
const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 200

	// DocumentType tags every knowledge chunk.
	DocumentType = "interview_knowledge"
)

// Metadata keys attached to every chunk.
const (
	MetaSource   = "source"
	MetaType     = "type"
	MetaCategory = "category"
	MetaLoadTime = "load_time"
)

var (
	headerLine = regexp.MustCompile(`^#{1,6}\s`)
	ruleLine   = regexp.MustCompile(`^\s*(-{3,}|\*{3,}|_{3,})\s*$`)
)

// LoaderOptions controls chunking.
type LoaderOptions struct {
	ChunkSize    int
	ChunkOverlap int
	// Now stamps load_time; defaults to time.Now.
	Now func() time.Time
}

// LoadMarkdown reads every .md file under dir, recursively, and splits
// it into chunks. A missing directory yields no chunks. Chunk IDs are
// derived from the file path and position so a re-run replaces rather
// than duplicates.
func LoadMarkdown(dir string, opts LoaderOptions) ([]vectorindex.Document, error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = min(DefaultChunkOverlap, opts.ChunkSize/4)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		logging.Warn().Str("dir", dir).Msg("Knowledge directory not found, nothing to load")
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".md") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(files)

	loadTime := strconv.FormatInt(opts.Now().UnixMilli(), 10)
	var docs []vectorindex.Document
	for _, path := range files {
		raw, err := os.ReadFile(path) //nolint:gosec // path comes from walking the configured directory
		if err != nil {
			logging.Warn().Err(err).Str("file", path).Msg("Skipping unreadable knowledge file")
			continue
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		rel = filepath.ToSlash(rel)
		name := filepath.Base(path)

		pieces := SplitMarkdown(string(raw), opts.ChunkSize, opts.ChunkOverlap)
		for i, text := range pieces {
			docs = append(docs, vectorindex.Document{
				ID:      fmt.Sprintf("%s#%d", rel, i),
				Content: text,
				Metadata: map[string]string{
					MetaSource:   name,
					MetaType:     DocumentType,
					MetaCategory: Category(name),
					MetaLoadTime: loadTime,
				},
			})
		}
		logging.Debug().Str("file", rel).Int("chunks", len(pieces)).Msg("Loaded knowledge file")
	}

	logging.Info().Int("files", len(files)).Int("chunks", len(docs)).Msg("Knowledge documents loaded")
	return docs, nil
}

// SplitMarkdown cuts text at headings and horizontal rules, then splits
// any section longer than size runes into windows that overlap by
// overlap runes. Blank sections are dropped.
func SplitMarkdown(text string, size, overlap int) []string {
	var sections []string
	var cur strings.Builder

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			sections = append(sections, s)
		}
		cur.Reset()
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		switch {
		case ruleLine.MatchString(line):
			flush()
			continue
		case headerLine.MatchString(line):
			flush()
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
	}
	flush()

	var out []string
	for _, s := range sections {
		out = append(out, window(s, size, overlap)...)
	}
	return out
}

func window(s string, size, overlap int) []string {
	runes := []rune(s)
	if len(runes) <= size {
		return []string{s}
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}
	var out []string
	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))
		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			out = append(out, piece)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

var categoryRules = []struct {
	name     string
	keywords []string
}{
	{"Java", []string{"java", "jvm"}},
	{"Spring", []string{"spring"}},
	{"Database", []string{"database", "mysql", "redis"}},
	{"Network", []string{"network"}},
	{"Algorithm", []string{"algorithm"}},
	{"Concurrency", []string{"concurrent", "thread"}},
}

// Category maps a knowledge file name to its category.
func Category(filename string) string {
	lower := strings.ToLower(filename)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.name
			}
		}
	}
	return "General"
}

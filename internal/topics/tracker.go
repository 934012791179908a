// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

// Package topics remembers which technical topics the interviewer has
// already asked about in each conversation, so later turns can steer
// toward new ground.
//
// Topics live in a TTL set per conversation in the shared store. Every
// write refreshes the TTL, so a conversation that goes quiet for the
// whole window starts over with an empty set. Store failures never
// reach the caller: the tracker logs them and behaves as if the set were
// empty.
package topics

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Muyu1uz/ai-java-interviewer/internal/kvstore"
	"github.com/Muyu1uz/ai-java-interviewer/internal/logging"
	"github.com/Muyu1uz/ai-java-interviewer/internal/metrics"
)

// Default settings.
const (
	DefaultTTL       = 24 * time.Hour
	DefaultKeyPrefix = "interview:topics:"
)

// Role identifies the speaker of a Turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Tracker records asked topics per conversation.
type Tracker struct {
	sets   kvstore.Sets
	vocab  *Vocabulary
	ttl    time.Duration
	prefix string
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithTTL sets the window after the last write before a conversation's
// topics expire.
func WithTTL(ttl time.Duration) Option {
	return func(t *Tracker) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the store key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(t *Tracker) {
		if prefix != "" {
			t.prefix = prefix
		}
	}
}

// WithVocabulary replaces the default term list.
func WithVocabulary(v *Vocabulary) Option {
	return func(t *Tracker) { t.vocab = v }
}

// NewTracker returns a Tracker over sets.
func NewTracker(sets kvstore.Sets, opts ...Option) *Tracker {
	t := &Tracker{
		sets:   sets,
		ttl:    DefaultTTL,
		prefix: DefaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.vocab == nil {
		t.vocab = NewVocabulary(DefaultTerms)
	}
	return t
}

func (t *Tracker) key(conversationID string) string {
	return t.prefix + conversationID
}

// AddTopics unions topics into the conversation's set and resets its
// TTL. Blank entries are ignored; adding nothing is a no-op.
func (t *Tracker) AddTopics(ctx context.Context, conversationID string, topics ...string) {
	members := make([]string, 0, len(topics))
	for _, topic := range topics {
		if topic = strings.TrimSpace(topic); topic != "" {
			members = append(members, topic)
		}
	}
	if len(members) == 0 {
		return
	}

	if err := t.sets.SetAdd(ctx, t.key(conversationID), t.ttl, members...); err != nil {
		t.degraded(ctx, "add", conversationID, err)
		return
	}
	logging.Ctx(ctx).Debug().
		Str("conversation_id", conversationID).
		Strs("topics", members).
		Msg("Recorded asked topics")
}

// GetTopics returns the conversation's topics sorted, or an empty slice
// when none are recorded or the store is unreachable.
func (t *Tracker) GetTopics(ctx context.Context, conversationID string) []string {
	members, err := t.sets.SetMembers(ctx, t.key(conversationID))
	if err != nil {
		t.degraded(ctx, "get", conversationID, err)
		return []string{}
	}
	out := append([]string{}, members...)
	sort.Strings(out)
	return out
}

// Clear forgets the conversation's topics.
func (t *Tracker) Clear(ctx context.Context, conversationID string) {
	if err := t.sets.Delete(ctx, t.key(conversationID)); err != nil {
		t.degraded(ctx, "clear", conversationID, err)
	}
}

// ExtractTopics scans the assistant's questions in transcript for known
// terms, records the ones not already in the conversation's set and
// returns them in order of first mention. Only assistant turns whose
// trimmed text ends with a question mark count as questions.
func (t *Tracker) ExtractTopics(ctx context.Context, conversationID string, transcript []Turn) []string {
	known := make(map[string]bool)
	for _, topic := range t.GetTopics(ctx, conversationID) {
		known[topic] = true
	}

	var fresh []string
	for _, turn := range transcript {
		if !IsQuestion(turn) {
			continue
		}
		for _, topic := range t.vocab.Find(turn.Content) {
			if known[topic] {
				continue
			}
			known[topic] = true
			fresh = append(fresh, topic)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	metrics.TopicsExtracted.Add(float64(len(fresh)))
	t.AddTopics(ctx, conversationID, fresh...)
	return fresh
}

// IsQuestion reports whether turn is an assistant turn ending in an ASCII
// or full-width question mark.
func IsQuestion(turn Turn) bool {
	if turn.Role != RoleAssistant {
		return false
	}
	text := strings.TrimSpace(turn.Content)
	return strings.HasSuffix(text, "?") || strings.HasSuffix(text, "？")
}

func (t *Tracker) degraded(ctx context.Context, op, conversationID string, err error) {
	metrics.TopicStoreDegraded.WithLabelValues(op).Inc()
	logging.Ctx(ctx).Warn().Err(err).
		Str("op", op).
		Str("conversation_id", conversationID).
		Msg("Topic store unavailable, continuing without topics")
}

var listSeparators = regexp.MustCompile(`[,，、]`)

// ParseTopicList splits a user supplied list on ASCII commas, full-width
// commas and enumeration commas.
func ParseTopicList(s string) []string {
	var out []string
	for _, part := range listSeparators.Split(s, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

// Package interview assembles the context for each interview turn: the
// candidate's resume, the topics already covered and relevant knowledge
// snippets. Generating the interviewer's reply is left to the caller.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Muyu1uz/ai-java-interviewer/internal/cacheaside"
	"github.com/Muyu1uz/ai-java-interviewer/internal/database"
	"github.com/Muyu1uz/ai-java-interviewer/internal/logging"
	"github.com/Muyu1uz/ai-java-interviewer/internal/session"
	"github.com/Muyu1uz/ai-java-interviewer/internal/topics"
	"github.com/Muyu1uz/ai-java-interviewer/internal/vectorindex"
)

var (
	// ErrResumeNotFound is returned when the requested resume does not exist.
	ErrResumeNotFound = errors.New("interview: resume not found")
	// ErrNoSession is returned for operations that need an open interview.
	ErrNoSession = errors.New("interview: no active session")
)

// Knowledge lookup parameters for each turn.
const (
	KnowledgeTopK     = 3
	KnowledgeMinScore = 0.2
)

// ResumeStore is the cached resume lookup.
type ResumeStore interface {
	Get(ctx context.Context, resumeID string) (cacheaside.Lookup[database.Resume], error)
}

// Service runs interviews.
type Service struct {
	resumes   ResumeStore
	tracker   *topics.Tracker
	sessions  *session.Registry
	knowledge vectorindex.Index
}

// NewService wires a Service. knowledge may be nil.
func NewService(resumes ResumeStore, tracker *topics.Tracker, sessions *session.Registry, knowledge vectorindex.Index) *Service {
	return &Service{resumes: resumes, tracker: tracker, sessions: sessions, knowledge: knowledge}
}

// Brief describes an opened interview.
type Brief struct {
	ConversationID string          `json:"conversation_id"`
	Resume         database.Resume `json:"resume"`
	AskedTopics    []string        `json:"asked_topics"`
	Resumed        bool            `json:"resumed"`
}

// TurnContext is everything the reply generator needs for the next turn.
type TurnContext struct {
	ConversationID string               `json:"conversation_id"`
	Resume         database.Resume      `json:"resume"`
	NewTopics      []string             `json:"new_topics"`
	AvoidTopics    []string             `json:"avoid_topics"`
	Knowledge      []vectorindex.Result `json:"knowledge"`
}

// Begin opens (or rejoins) the principal's interview on resumeID.
func (s *Service) Begin(ctx context.Context, principal, resumeID string) (*Brief, error) {
	res, err := s.loadResume(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	h, created, err := s.sessions.Acquire(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !created && h.ResumeID() != resumeID {
		// A different resume means a different interview.
		s.tracker.Clear(ctx, h.Reset())
		created = true
	}
	h.SetResumeID(resumeID)
	if err := s.sessions.Save(ctx, h); err != nil {
		return nil, err
	}

	conv := h.ConversationID()
	logging.Ctx(ctx).Info().
		Str("principal", principal).
		Str("conversation_id", conv).
		Str("resume_id", resumeID).
		Bool("new", created).
		Msg("Interview opened")

	return &Brief{
		ConversationID: conv,
		Resume:         res,
		AskedTopics:    s.tracker.GetTopics(ctx, conv),
		Resumed:        !created,
	}, nil
}

// Turn records turns in the principal's transcript, extracts newly asked
// topics and returns the context for the next reply.
func (s *Service) Turn(ctx context.Context, principal string, turns []topics.Turn) (*TurnContext, error) {
	h, err := s.session(ctx, principal)
	if err != nil {
		return nil, err
	}
	res, err := s.loadResume(ctx, h.ResumeID())
	if err != nil {
		return nil, err
	}

	h.Append(turns...)
	if err := s.sessions.Save(ctx, h); err != nil {
		return nil, err
	}
	conv := h.ConversationID()
	fresh := s.tracker.ExtractTopics(ctx, conv, h.Transcript())

	tc := &TurnContext{
		ConversationID: conv,
		Resume:         res,
		NewTopics:      fresh,
		AvoidTopics:    s.tracker.GetTopics(ctx, conv),
	}
	if q := lastUserText(turns); q != "" && s.knowledge != nil {
		hits, err := s.knowledge.Search(ctx, q, KnowledgeTopK, KnowledgeMinScore)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Knowledge search failed, continuing without snippets")
		} else {
			tc.Knowledge = hits
		}
	}
	return tc, nil
}

// Restart clears the principal's transcript and asked topics and starts
// a new conversation on the same resume.
func (s *Service) Restart(ctx context.Context, principal string) (string, error) {
	h, err := s.session(ctx, principal)
	if err != nil {
		return "", err
	}
	old := h.Reset()
	if err := s.sessions.Save(ctx, h); err != nil {
		return "", err
	}
	s.tracker.Clear(ctx, old)
	logging.Ctx(ctx).Info().
		Str("principal", principal).
		Str("previous_conversation_id", old).
		Str("conversation_id", h.ConversationID()).
		Msg("Interview restarted")
	return h.ConversationID(), nil
}

// End closes the principal's interview.
func (s *Service) End(ctx context.Context, principal string) error {
	h, err := s.session(ctx, principal)
	if err != nil {
		return err
	}
	s.tracker.Clear(ctx, h.ConversationID())
	return s.sessions.Remove(ctx, principal)
}

// TopicStats summarizes the asked topics of a conversation.
type TopicStats struct {
	ConversationID string         `json:"conversation_id"`
	Topics         []string       `json:"topics"`
	Count          int            `json:"count"`
	Categories     map[string]int `json:"categories"`
}

// Topics lists the asked topics of the principal's conversation.
func (s *Service) Topics(ctx context.Context, principal string) (*TopicStats, error) {
	h, err := s.session(ctx, principal)
	if err != nil {
		return nil, err
	}
	return s.stats(ctx, h.ConversationID()), nil
}

// AddTopics records topics typed by the user, separated by commas or
// enumeration commas.
func (s *Service) AddTopics(ctx context.Context, principal, list string) (*TopicStats, error) {
	h, err := s.session(ctx, principal)
	if err != nil {
		return nil, err
	}
	conv := h.ConversationID()
	s.tracker.AddTopics(ctx, conv, topics.ParseTopicList(list)...)
	return s.stats(ctx, conv), nil
}

// ClearTopics forgets the asked topics without touching the transcript.
func (s *Service) ClearTopics(ctx context.Context, principal string) error {
	h, err := s.session(ctx, principal)
	if err != nil {
		return err
	}
	s.tracker.Clear(ctx, h.ConversationID())
	return nil
}

// session loads the principal's open interview.
func (s *Service) session(ctx context.Context, principal string) (*session.Handle, error) {
	h, ok, err := s.sessions.Get(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoSession
	}
	return h, nil
}

func (s *Service) stats(ctx context.Context, conv string) *TopicStats {
	asked := s.tracker.GetTopics(ctx, conv)
	return &TopicStats{
		ConversationID: conv,
		Topics:         asked,
		Count:          len(asked),
		Categories:     topics.Categorize(asked),
	}
}

func (s *Service) loadResume(ctx context.Context, resumeID string) (database.Resume, error) {
	if resumeID == "" {
		return database.Resume{}, ErrResumeNotFound
	}
	lookup, err := s.resumes.Get(ctx, resumeID)
	if err != nil {
		return database.Resume{}, fmt.Errorf("load resume %s: %w", resumeID, err)
	}
	if !lookup.Found {
		return database.Resume{}, ErrResumeNotFound
	}
	return lookup.Value, nil
}

func lastUserText(turns []topics.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == topics.RoleUser {
			if text := strings.TrimSpace(turns[i].Content); text != "" {
				return text
			}
		}
	}
	return ""
}

// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

// Package session keeps one interview handle per principal in the shared
// key-value store.
//
// A Handle carries the conversation id, the resume under discussion and
// the running transcript. Callers load it from the Registry, pass it down
// the call path and Save it after changing it, so any replica can pick up
// the interview on the next request. The registry also keeps an index set
// of principals; Sweep walks it and drops handles whose stored last-active
// time is older than the idle timeout.
//
// Concurrent writes to the same principal's handle are last-writer-wins.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/Muyu1uz/ai-java-interviewer/internal/kvstore"
	"github.com/Muyu1uz/ai-java-interviewer/internal/logging"
	"github.com/Muyu1uz/ai-java-interviewer/internal/metrics"
	"github.com/Muyu1uz/ai-java-interviewer/internal/topics"
)

// DefaultIdleTimeout is how long a handle may sit unused.
const DefaultIdleTimeout = 30 * time.Minute

// Key layout in the shared store.
const (
	keyPrefix = "interview:session:"
	indexKey  = "interview:sessions"
)

// Store is the part of the shared key-value service the registry uses.
type Store interface {
	kvstore.Cache
	kvstore.Sets
}

// Handle is the per-principal interview state. A Handle is a snapshot:
// changes are local until Registry.Save.
type Handle struct {
	principal      string
	created        time.Time
	conversationID string
	resumeID       string
	transcript     []topics.Turn
	lastActive     time.Time
}

// record is the stored form of a Handle.
type record struct {
	Principal      string        `json:"principal"`
	Created        time.Time     `json:"created"`
	ConversationID string        `json:"conversation_id"`
	ResumeID       string        `json:"resume_id,omitempty"`
	Transcript     []topics.Turn `json:"transcript,omitempty"`
	LastActive     time.Time     `json:"last_active"`
}

// Principal returns the owner of the handle.
func (h *Handle) Principal() string { return h.principal }

// Created returns when the handle was opened.
func (h *Handle) Created() time.Time { return h.created }

// ConversationID identifies the current conversation; it changes on Reset.
func (h *Handle) ConversationID() string { return h.conversationID }

// ResumeID returns the resume bound to the conversation.
func (h *Handle) ResumeID() string { return h.resumeID }

// SetResumeID binds a resume to the conversation.
func (h *Handle) SetResumeID(id string) { h.resumeID = id }

// Append adds turns to the transcript.
func (h *Handle) Append(turns ...topics.Turn) {
	h.transcript = append(h.transcript, turns...)
}

// Transcript returns a copy of the transcript.
func (h *Handle) Transcript() []topics.Turn {
	return append([]topics.Turn(nil), h.transcript...)
}

// Reset starts a new conversation on the same handle and returns the id
// of the one it replaced. The resume binding is kept.
func (h *Handle) Reset() string {
	old := h.conversationID
	h.conversationID = uuid.NewString()
	h.transcript = nil
	return old
}

// LastActive returns the time of the most recent use.
func (h *Handle) LastActive() time.Time { return h.lastActive }

func (h *Handle) touch(now time.Time) {
	if now.After(h.lastActive) {
		h.lastActive = now
	}
}

func (h *Handle) record() record {
	return record{
		Principal:      h.principal,
		Created:        h.created,
		ConversationID: h.conversationID,
		ResumeID:       h.resumeID,
		Transcript:     h.transcript,
		LastActive:     h.lastActive,
	}
}

func fromRecord(rec record) *Handle {
	return &Handle{
		principal:      rec.Principal,
		created:        rec.Created,
		conversationID: rec.ConversationID,
		resumeID:       rec.ResumeID,
		transcript:     rec.Transcript,
		lastActive:     rec.LastActive,
	}
}

// Registry is a typed view over the handles in the shared store.
type Registry struct {
	store Store
	clock clock.PassiveClock
	idle  time.Duration
}

// NewRegistry returns a registry over store. clk may be nil for the real
// clock; idle <= 0 uses DefaultIdleTimeout.
func NewRegistry(store Store, clk clock.PassiveClock, idle time.Duration) *Registry {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Registry{store: store, clock: clk, idle: idle}
}

// recordTTL lets the store drop handles the sweeper never got to.
func (r *Registry) recordTTL() time.Duration {
	return 2 * r.idle
}

func handleKey(principal string) string {
	return keyPrefix + principal
}

func (r *Registry) load(ctx context.Context, principal string) (*Handle, bool, error) {
	data, ok, err := r.store.Get(ctx, handleKey(principal))
	if err != nil {
		return nil, false, fmt.Errorf("load session %s: %w", principal, err)
	}
	if !ok {
		return nil, false, nil
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("decode session %s: %w", principal, err)
	}
	return fromRecord(rec), true, nil
}

// Acquire returns the principal's handle, opening one if needed, and
// marks it active. created reports whether the handle is new.
func (r *Registry) Acquire(ctx context.Context, principal string) (h *Handle, created bool, err error) {
	now := r.clock.Now()
	h, ok, err := r.load(ctx, principal)
	if err != nil {
		return nil, false, err
	}
	if ok {
		h.touch(now)
		return h, false, r.Save(ctx, h)
	}

	h = &Handle{
		principal:      principal,
		created:        now,
		conversationID: uuid.NewString(),
		lastActive:     now,
	}
	data, err := json.Marshal(h.record())
	if err != nil {
		return nil, false, fmt.Errorf("encode session %s: %w", principal, err)
	}
	stored, err := r.store.SetNX(ctx, handleKey(principal), data, r.recordTTL())
	if err != nil {
		return nil, false, fmt.Errorf("open session %s: %w", principal, err)
	}
	if !stored {
		// Another request opened it first.
		h, ok, err = r.load(ctx, principal)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return h, false, nil
		}
		return nil, false, fmt.Errorf("open session %s: handle vanished", principal)
	}
	if err := r.store.SetAdd(ctx, indexKey, 0, principal); err != nil {
		return nil, false, fmt.Errorf("index session %s: %w", principal, err)
	}
	r.reportActive(ctx)
	return h, true, nil
}

// Get returns the principal's handle without creating one, marking it
// active when found.
func (r *Registry) Get(ctx context.Context, principal string) (*Handle, bool, error) {
	h, ok, err := r.load(ctx, principal)
	if err != nil || !ok {
		return nil, false, err
	}
	h.touch(r.clock.Now())
	if err := r.Save(ctx, h); err != nil {
		return nil, false, err
	}
	return h, true, nil
}

// Save writes h back to the store.
func (r *Registry) Save(ctx context.Context, h *Handle) error {
	data, err := json.Marshal(h.record())
	if err != nil {
		return fmt.Errorf("encode session %s: %w", h.principal, err)
	}
	if err := r.store.Set(ctx, handleKey(h.principal), data, r.recordTTL()); err != nil {
		return fmt.Errorf("save session %s: %w", h.principal, err)
	}
	return nil
}

// Remove drops the principal's handle.
func (r *Registry) Remove(ctx context.Context, principal string) error {
	if err := r.store.Delete(ctx, handleKey(principal)); err != nil {
		return fmt.Errorf("remove session %s: %w", principal, err)
	}
	if err := r.store.SetRemove(ctx, indexKey, principal); err != nil {
		return fmt.Errorf("unindex session %s: %w", principal, err)
	}
	r.reportActive(ctx)
	return nil
}

// Len returns the number of indexed handles.
func (r *Registry) Len(ctx context.Context) (int, error) {
	members, err := r.store.SetMembers(ctx, indexKey)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}
	return len(members), nil
}

func (r *Registry) reportActive(ctx context.Context) {
	if n, err := r.Len(ctx); err == nil {
		metrics.SessionsActive.Set(float64(n))
	}
}

// Sweep evicts every handle idle for at least the timeout as of now and
// returns them. Index entries whose handle already expired are dropped
// without being returned.
func (r *Registry) Sweep(ctx context.Context, now time.Time) ([]*Handle, error) {
	principals, err := r.store.SetMembers(ctx, indexKey)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var evicted []*Handle
	var errs []error
	for _, principal := range principals {
		h, ok, err := r.load(ctx, principal)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok && now.Sub(h.LastActive()) < r.idle {
			continue
		}
		if err := r.Remove(ctx, principal); err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			evicted = append(evicted, h)
		}
	}

	remaining, lenErr := r.Len(ctx)
	if lenErr == nil {
		metrics.SessionsActive.Set(float64(remaining))
	}
	if len(evicted) > 0 {
		metrics.SessionsEvicted.Add(float64(len(evicted)))
		logging.Info().
			Int("evicted", len(evicted)).
			Int("remaining", remaining).
			Dur("idle_timeout", r.idle).
			Msg("Evicted idle interview sessions")
	}
	return evicted, errors.Join(errs...)
}

// Clock returns the registry's clock.
func (r *Registry) Clock() clock.PassiveClock { return r.clock }

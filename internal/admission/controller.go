// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package admission

import (
	"context"
	"errors"
	"fmt"

	"github.com/Muyu1uz/ai-java-interviewer/internal/kvstore"
	"github.com/Muyu1uz/ai-java-interviewer/internal/logging"
	"github.com/Muyu1uz/ai-java-interviewer/internal/metrics"
)

// Outcome tags a Decision.
type Outcome int

const (
	Allowed Outcome = iota
	Denied
)

func (o Outcome) String() string {
	if o == Allowed {
		return "allowed"
	}
	return "denied"
}

// Decision is the result of TryAcquire. Message and Code are set only
// when the outcome is Denied.
type Decision struct {
	Outcome Outcome
	Message string
	Code    int
}

// Allowed reports whether the call may proceed.
func (d Decision) Allowed() bool { return d.Outcome == Allowed }

// ErrDenied matches every DeniedError.
var ErrDenied = errors.New("admission denied")

// DeniedError is returned by Guard when a rule rejects the call.
type DeniedError struct {
	Rule    string
	Message string
	Code    int
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("admission denied by %s: %s", e.Rule, e.Message)
}

// Is reports ErrDenied as a match.
func (e *DeniedError) Is(target error) bool { return target == ErrDenied }

// Controller takes tokens from buckets in the shared store.
type Controller struct {
	buckets kvstore.Buckets
}

// NewController returns a Controller over buckets.
func NewController(buckets kvstore.Buckets) *Controller {
	return &Controller{buckets: buckets}
}

// TryAcquire takes one token from the bucket of (rule, scopeKey). A call
// that finds no token is denied immediately. When the store cannot be
// reached, rules with FailOpen admit the call and the rest deny it with
// CodeStoreUnavailable.
func (c *Controller) TryAcquire(ctx context.Context, rule Rule, scopeKey string) Decision {
	key := BucketKey(rule, scopeKey)
	take, err := c.buckets.TakeToken(ctx, key, rule.Capacity, rule.Rate)
	if err != nil {
		log := logging.Ctx(ctx).Warn().Err(err).
			Str("rule", rule.Name).
			Str("scope", scopeKey)
		if rule.FailOpen {
			metrics.AdmissionFailOpen.WithLabelValues(rule.Name).Inc()
			log.Msg("Bucket store unavailable, admitting request")
			return Decision{Outcome: Allowed}
		}
		metrics.AdmissionFailClosed.WithLabelValues(rule.Name).Inc()
		log.Msg("Bucket store unavailable, rejecting request")
		return Decision{Outcome: Denied, Message: StoreUnavailableMessage, Code: CodeStoreUnavailable}
	}

	metrics.RecordAdmission(rule.Name, take.Allowed)
	if take.Allowed {
		return Decision{Outcome: Allowed}
	}

	logging.Ctx(ctx).Debug().
		Str("rule", rule.Name).
		Str("scope", scopeKey).
		Float64("tokens", take.Remaining).
		Msg("Rate limit exceeded")
	return Decision{Outcome: Denied, Message: rule.Message, Code: CodeTooManyRequests}
}

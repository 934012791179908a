// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

// Package admission gates operations with token buckets kept in the
// shared key-value store.
//
// Every logical operation (resume.read, interview.turn, ...) maps to one
// Rule in a RuleTable. A rule's Scope decides whose bucket a call drains:
// one bucket for everybody, one per authenticated principal, or one per
// client address. The Interceptor wraps handler logic and turns a denial
// into a DeniedError or an HTTP 429.
package admission

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Muyu1uz/ai-java-interviewer/internal/config"
)

// Scope selects the bucket dimension of a rule.
type Scope int

const (
	ScopeGlobal Scope = iota
	ScopePrincipal
	ScopeCallerAddress
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopePrincipal:
		return "principal"
	case ScopeCallerAddress:
		return "caller_address"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// ParseScope accepts the configuration spelling of a scope.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "global", "":
		return ScopeGlobal, nil
	case "principal", "user":
		return ScopePrincipal, nil
	case "caller_address", "ip":
		return ScopeCallerAddress, nil
	default:
		return ScopeGlobal, fmt.Errorf("unknown admission scope %q", s)
	}
}

// Denial codes.
const (
	CodeTooManyRequests     = http.StatusTooManyRequests
	CodeStoreUnavailable    = http.StatusServiceUnavailable
	StoreUnavailableMessage = "rate limiter unavailable, try again later"
)

// Rule is one token bucket definition.
type Rule struct {
	Name     string
	Scope    Scope
	Capacity int
	// Rate is the refill rate in tokens per second.
	Rate    float64
	Message string
	// FailOpen admits calls while the bucket store is unreachable.
	FailOpen bool
}

// Caller identifies who is asking. Principal is empty for anonymous
// callers.
type Caller struct {
	Principal string
	Address   string
}

// ScopeKey derives the bucket scope for caller under rule.
func ScopeKey(rule Rule, c Caller) string {
	switch rule.Scope {
	case ScopePrincipal:
		if c.Principal == "" {
			return "anonymous"
		}
		return "user:" + c.Principal
	case ScopeCallerAddress:
		return "ip:" + c.Address
	default:
		return "global"
	}
}

// BucketKey is the store key of the bucket for rule and scopeKey.
func BucketKey(rule Rule, scopeKey string) string {
	return "rate_limit:" + rule.Name + ":" + scopeKey
}

// RuleTable maps logical operation names to rules.
type RuleTable map[string]Rule

// NewRuleTable converts configured rules.
func NewRuleTable(cfgs []config.RuleConfig) (RuleTable, error) {
	table := make(RuleTable, len(cfgs))
	for _, c := range cfgs {
		scope, err := ParseScope(c.Scope)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", c.Operation, err)
		}
		if c.Capacity <= 0 || c.Rate <= 0 {
			return nil, fmt.Errorf("rule %s: capacity and rate must be positive", c.Operation)
		}
		name := c.Name
		if name == "" {
			name = c.Operation
		}
		msg := c.Message
		if msg == "" {
			msg = config.DefaultRateLimitMessage
		}
		table[c.Operation] = Rule{
			Name:     name,
			Scope:    scope,
			Capacity: c.Capacity,
			Rate:     c.Rate,
			Message:  msg,
			FailOpen: c.FailOpen,
		}
	}
	return table, nil
}

// Lookup returns the rule bound to op.
func (t RuleTable) Lookup(op string) (Rule, bool) {
	r, ok := t[op]
	return r, ok
}

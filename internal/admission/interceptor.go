// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package admission

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/Muyu1uz/ai-java-interviewer/internal/logging"
)

// Interceptor applies a RuleTable in front of handler logic.
type Interceptor struct {
	controller *Controller
	rules      RuleTable
	disabled   bool
}

// NewInterceptor builds an Interceptor. When disabled every call is
// admitted without touching the store.
func NewInterceptor(c *Controller, rules RuleTable, disabled bool) *Interceptor {
	if disabled {
		logging.Warn().Msg("Admission control disabled, all operations admitted")
	}
	return &Interceptor{controller: c, rules: rules, disabled: disabled}
}

// Check decides whether caller may run op. Operations without a rule are
// always allowed.
func (i *Interceptor) Check(ctx context.Context, op string, caller Caller) (Rule, Decision) {
	rule, ok := i.rules.Lookup(op)
	if i.disabled || !ok {
		return rule, Decision{Outcome: Allowed}
	}
	return rule, i.controller.TryAcquire(ctx, rule, ScopeKey(rule, caller))
}

// Guard runs fn only when caller is admitted for op. A denial returns a
// *DeniedError and fn is not called.
func (i *Interceptor) Guard(ctx context.Context, op string, caller Caller, fn func(context.Context) error) error {
	rule, d := i.Check(ctx, op, caller)
	if !d.Allowed() {
		return &DeniedError{Rule: rule.Name, Message: d.Message, Code: d.Code}
	}
	return fn(ctx)
}

// PrincipalFunc extracts the authenticated principal from a request.
type PrincipalFunc func(*http.Request) string

// Middleware returns net/http middleware guarding op. Denied requests get
// a 429 with a JSON error body.
func (i *Interceptor) Middleware(op string, principal PrincipalFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := Caller{Address: ClientAddress(r)}
			if principal != nil {
				caller.Principal = principal(r)
			}
			rule, d := i.Check(r.Context(), op, caller)
			if d.Allowed() {
				next.ServeHTTP(w, r)
				return
			}
			writeDenied(w, rule, d)
		})
	}
}

type deniedBody struct {
	Status string      `json:"status"`
	Error  deniedError `json:"error"`
}

type deniedError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Rule    string `json:"rule"`
}

func writeDenied(w http.ResponseWriter, rule Rule, d Decision) {
	w.Header().Set("Content-Type", "application/json")
	code := "RATE_LIMITED"
	if d.Code == CodeStoreUnavailable {
		code = "RATE_LIMITER_UNAVAILABLE"
	}
	w.WriteHeader(d.Code)
	body := deniedBody{
		Status: "error",
		Error:  deniedError{Code: code, Message: d.Message, Rule: rule.Name},
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to write rate limit response")
	}
}

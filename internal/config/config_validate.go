// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package config

import (
	"fmt"

	"github.com/Muyu1uz/ai-java-interviewer/internal/validation"
)

// DefaultRateLimitMessage is returned to denied callers when a rule has
// no message of its own.
const DefaultRateLimitMessage = "too many requests, try again later"

// DefaultRules is the rule table used when the configuration has none.
func DefaultRules() []RuleConfig {
	return []RuleConfig{
		{Operation: "resume.read", Scope: "caller_address", Capacity: 20, Rate: 10, FailOpen: true},
		{Operation: "resume.write", Scope: "principal", Capacity: 5, Rate: 1},
		{Operation: "interview.turn", Scope: "principal", Capacity: 10, Rate: 5},
		{Operation: "topics.manage", Scope: "principal", Capacity: 10, Rate: 5, FailOpen: true},
		{Operation: "knowledge.search", Scope: "caller_address", Capacity: 10, Rate: 5, FailOpen: true},
		{Operation: "knowledge.reload", Scope: "global", Capacity: 1, Rate: 0.01},
		{Operation: "mistakes.read", Scope: "principal", Capacity: 20, Rate: 10, FailOpen: true},
		{Operation: "mistakes.write", Scope: "principal", Capacity: 10, Rate: 2},
	}
}

func (c *Config) applyRuleDefaults() {
	if len(c.Admission.Rules) == 0 {
		c.Admission.Rules = DefaultRules()
	}
	for i := range c.Admission.Rules {
		r := &c.Admission.Rules[i]
		if r.Name == "" {
			r.Name = r.Operation
		}
		if r.Message == "" {
			r.Message = DefaultRateLimitMessage
		}
	}
}

// Validate checks struct tags first, then cross-field constraints.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if c.Backend == BackendRedis && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when backend is %q", BackendRedis)
	}
	if c.Backend == BackendBadger && c.Badger.Path == "" && !c.Badger.InMemory {
		return fmt.Errorf("badger.path is required unless badger.in_memory is set")
	}
	if c.Filter.Shared && c.Backend != BackendRedis {
		return fmt.Errorf("filter.shared requires backend %q, got %q", BackendRedis, c.Backend)
	}
	if c.Ingestion.BatchSize > c.Ingestion.MaxBatchSize {
		return fmt.Errorf("ingestion.batch_size %d exceeds ingestion.max_batch_size %d",
			c.Ingestion.BatchSize, c.Ingestion.MaxBatchSize)
	}
	if c.Ingestion.ChunkOverlap >= c.Ingestion.ChunkSize {
		return fmt.Errorf("ingestion.chunk_overlap %d must be smaller than ingestion.chunk_size %d",
			c.Ingestion.ChunkOverlap, c.Ingestion.ChunkSize)
	}

	seen := make(map[string]bool, len(c.Admission.Rules))
	for _, r := range c.Admission.Rules {
		if seen[r.Operation] {
			return fmt.Errorf("admission rule for operation %q defined twice", r.Operation)
		}
		seen[r.Operation] = true
	}
	return nil
}

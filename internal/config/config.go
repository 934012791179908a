// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

// Package config loads service configuration from defaults, an optional
// YAML file, and environment variables, in that order of precedence.
package config

import "time"

// Backend kinds for the shared key-value service.
const (
	BackendRedis  = "redis"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Backend   string          `koanf:"backend" validate:"oneof=redis badger memory"`
	Redis     RedisConfig     `koanf:"redis"`
	Badger    BadgerConfig    `koanf:"badger"`
	Database  DatabaseConfig  `koanf:"database"`
	Filter    FilterConfig    `koanf:"filter"`
	Cache     CacheConfig     `koanf:"cache"`
	Admission AdmissionConfig `koanf:"admission"`
	Topics    TopicsConfig    `koanf:"topics"`
	Ingestion IngestionConfig `koanf:"ingestion"`
	Session   SessionConfig   `koanf:"session"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	// PrincipalHeader carries the authenticated user ID set by the
	// upstream gateway.
	PrincipalHeader string `koanf:"principal_header" validate:"required"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// RedisConfig is used when Backend is redis.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"min=0"`
}

// BadgerConfig is used when Backend is badger.
type BadgerConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// DatabaseConfig locates the DuckDB file holding resumes and the
// knowledge index.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads" validate:"min=0"`
}

// FilterConfig sizes the resume membership filter.
type FilterConfig struct {
	ExpectedInsertions uint    `koanf:"expected_insertions" validate:"gt=0"`
	FalsePositiveRate  float64 `koanf:"false_positive_rate" validate:"gt=0,lt=1"`
	// Shared keeps the filter bits in Redis so every replica sees the
	// same set. Requires Backend redis.
	Shared bool   `koanf:"shared"`
	Key    string `koanf:"key"`
}

// CacheConfig controls the resume cache.
type CacheConfig struct {
	KeyPrefix         string        `koanf:"key_prefix"`
	TTL               time.Duration `koanf:"ttl" validate:"min=0"`
	SecondDeleteDelay time.Duration `koanf:"second_delete_delay" validate:"min=0"`
}

// AdmissionConfig holds the rate limit rule table.
type AdmissionConfig struct {
	Disabled bool         `koanf:"disabled"`
	Rules    []RuleConfig `koanf:"rules" validate:"dive"`
}

// RuleConfig binds one logical operation to a token bucket.
type RuleConfig struct {
	Operation string  `koanf:"operation" validate:"required"`
	Name      string  `koanf:"name"`
	Scope     string  `koanf:"scope" validate:"oneof=global principal caller_address"`
	Capacity  int     `koanf:"capacity" validate:"gt=0"`
	Rate      float64 `koanf:"rate" validate:"gt=0"`
	Message   string  `koanf:"message"`
	// FailOpen admits calls when the bucket store is unreachable.
	// Otherwise they are rejected with 503.
	FailOpen bool `koanf:"fail_open"`
}

// TopicsConfig controls the asked-topics tracker.
type TopicsConfig struct {
	TTLHours  int    `koanf:"ttl_hours" validate:"gt=0"`
	KeyPrefix string `koanf:"key_prefix"`
}

// TTL returns the topic window as a duration.
func (t TopicsConfig) TTL() time.Duration {
	return time.Duration(t.TTLHours) * time.Hour
}

// IngestionConfig controls the knowledge base loader.
type IngestionConfig struct {
	Enabled          bool          `koanf:"enabled"`
	Force            bool          `koanf:"force"`
	DocumentsDir     string        `koanf:"documents_dir"`
	BatchSize        int           `koanf:"batch_size" validate:"gt=0"`
	MaxBatchSize     int           `koanf:"max_batch_size" validate:"gt=0"`
	MaxRetries       int           `koanf:"max_retries" validate:"gt=0"`
	BackoffBase      time.Duration `koanf:"backoff_base" validate:"min=0"`
	BreakerThreshold int           `koanf:"breaker_threshold" validate:"gt=0"`
	MarkerQuery      string        `koanf:"marker_query" validate:"required"`
	ChunkSize        int           `koanf:"chunk_size" validate:"gt=0"`
	ChunkOverlap     int           `koanf:"chunk_overlap" validate:"min=0"`
	Dimensions       int           `koanf:"dimensions" validate:"gt=0"`
}

// SessionConfig controls idle session eviction.
type SessionConfig struct {
	IdleTimeout   time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	SweepInterval time.Duration `koanf:"sweep_interval" validate:"gt=0"`
}

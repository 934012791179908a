// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/interviewer/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			PrincipalHeader: "X-User-ID",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Backend: BackendMemory,
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Badger: BadgerConfig{
			Path: "./data/kv",
		},
		Database: DatabaseConfig{
			Path:      "./data/interviewer.duckdb",
			MaxMemory: "1GB",
		},
		Filter: FilterConfig{
			ExpectedInsertions: 10000,
			FalsePositiveRate:  0.01,
			Key:                "bloom:resume",
		},
		Cache: CacheConfig{
			KeyPrefix:         "resume:",
			SecondDeleteDelay: 500 * time.Millisecond,
		},
		Topics: TopicsConfig{
			TTLHours:  24,
			KeyPrefix: "interview:topics:",
		},
		Ingestion: IngestionConfig{
			Enabled:          true,
			DocumentsDir:     "./document",
			BatchSize:        10,
			MaxBatchSize:     25,
			MaxRetries:       3,
			BackoffBase:      2 * time.Second,
			BreakerThreshold: 6,
			MarkerQuery:      "Java",
			ChunkSize:        800,
			ChunkOverlap:     200,
			Dimensions:       256,
		},
		Session: SessionConfig{
			IdleTimeout:   30 * time.Minute,
			SweepInterval: 5 * time.Minute,
		},
	}
}

// Load reads configuration in three layers:
//  1. built-in defaults
//  2. optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. environment variables listed in envMappings
//
// The admission rule table falls back to DefaultRules when none is given.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.applyRuleDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields turns comma-separated env values into slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_host":              "server.host",
	"http_port":              "server.port",
	"http_timeout":           "server.timeout",
	"cors_origins":           "server.cors_origins",
	"principal_header":       "server.principal_header",
	"log_level":              "logging.level",
	"log_format":             "logging.format",
	"log_caller":             "logging.caller",
	"kv_backend":             "backend",
	"redis_addr":             "redis.addr",
	"redis_password":         "redis.password",
	"redis_db":               "redis.db",
	"badger_path":            "badger.path",
	"badger_in_memory":       "badger.in_memory",
	"duckdb_path":            "database.path",
	"duckdb_max_memory":      "database.max_memory",
	"duckdb_threads":         "database.threads",
	"bloom_expected":         "filter.expected_insertions",
	"bloom_fpp":              "filter.false_positive_rate",
	"bloom_shared":           "filter.shared",
	"resume_cache_ttl":       "cache.ttl",
	"resume_delete_delay":    "cache.second_delete_delay",
	"rate_limit_disabled":    "admission.disabled",
	"topics_ttl_hours":       "topics.ttl_hours",
	"ingest_enabled":         "ingestion.enabled",
	"ingest_force":           "ingestion.force",
	"ingest_documents_dir":   "ingestion.documents_dir",
	"ingest_batch_size":      "ingestion.batch_size",
	"ingest_max_retries":     "ingestion.max_retries",
	"ingest_backoff_base":    "ingestion.backoff_base",
	"session_idle_timeout":   "session.idle_timeout",
	"session_sweep_interval": "session.sweep_interval",
}

// envTransformFunc maps a known environment variable to its koanf path.
// Unknown variables map to "" and are dropped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

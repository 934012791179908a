// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package kvstore

import (
	"context"
	"fmt"

	"k8s.io/utils/clock"

	"github.com/Muyu1uz/ai-java-interviewer/internal/config"
	"github.com/Muyu1uz/ai-java-interviewer/internal/logging"
)

// Open builds the backend selected by cfg.Backend and checks it answers.
func Open(ctx context.Context, cfg *config.Config, clk clock.PassiveClock) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Backend {
	case config.BackendRedis:
		store = NewRedis(RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Clock:    clk,
		})
	case config.BackendBadger:
		store, err = OpenBadger(cfg.Badger.Path, cfg.Badger.InMemory, clk)
		if err != nil {
			return nil, err
		}
	case config.BackendMemory:
		store = NewMemory(clk)
	default:
		return nil, fmt.Errorf("unknown key-value backend %q", cfg.Backend)
	}

	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%s backend unreachable: %w", cfg.Backend, err)
	}

	logging.Info().Str("backend", cfg.Backend).Msg("Key-value store ready")
	return store, nil
}

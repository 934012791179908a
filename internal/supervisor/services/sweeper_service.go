// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package services

import (
	"context"
	"time"

	"k8s.io/utils/clock"

	"github.com/Muyu1uz/ai-java-interviewer/internal/logging"
	"github.com/Muyu1uz/ai-java-interviewer/internal/session"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper evicts idle sessions.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) ([]*session.Handle, error)
}

// EvictFunc is called once for every evicted session.
type EvictFunc func(ctx context.Context, h *session.Handle)

// SweeperService sweeps idle sessions on a fixed interval.
type SweeperService struct {
	sweeper  Sweeper
	clock    clock.WithTicker
	interval time.Duration
	onEvict  EvictFunc
}

// NewSweeperService returns a service sweeping every interval. onEvict
// may be nil.
func NewSweeperService(sweeper Sweeper, clk clock.WithTicker, interval time.Duration, onEvict EvictFunc) *SweeperService {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &SweeperService{sweeper: sweeper, clock: clk, interval: interval, onEvict: onEvict}
}

// Serve implements suture.Service.
func (s *SweeperService) Serve(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			evicted, err := s.sweeper.Sweep(ctx, now)
			if err != nil {
				// A partial sweep still returns what it evicted.
				logging.Warn().Err(err).Msg("Session sweep incomplete")
			}
			for _, h := range evicted {
				if s.onEvict != nil {
					s.onEvict(ctx, h)
				}
			}
		}
	}
}

// String names the service in supervisor logs.
func (s *SweeperService) String() string {
	return "session-sweeper"
}

// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package api

import (
	"context"
	"net/http"
	"time"
)

const readyTimeout = 2 * time.Second

// HealthStatus is the readiness report.
type HealthStatus struct {
	Status            string  `json:"status"`
	DatabaseConnected bool    `json:"database_connected"`
	CacheConnected    bool    `json:"cache_connected"`
	Uptime            float64 `json:"uptime_seconds"`
}

// HealthLive answers as long as the process serves HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady checks the database and the shared cache. The cache is
// optional for correctness, so only a database failure makes the
// service unready.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	hs := HealthStatus{
		Status:            "healthy",
		DatabaseConnected: ping(ctx, h.deps.Database),
		CacheConnected:    ping(ctx, h.deps.Cache),
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	status := http.StatusOK
	switch {
	case !hs.DatabaseConnected:
		hs.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	case !hs.CacheConnected:
		hs.Status = "degraded"
	}
	respondData(w, r, status, hs)
}

func ping(ctx context.Context, p Pinger) bool {
	return p != nil && p.Ping(ctx) == nil
}

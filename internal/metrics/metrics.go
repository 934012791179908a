// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

// Package metrics declares the Prometheus instruments shared by the
// service. Packages record through the helpers below rather than touching
// the vectors directly, so label values stay consistent.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache-aside store
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheaside_lookups_total",
			Help: "Cache-aside lookups by outcome (hit, filtered, source_hit, source_miss)",
		},
		[]string{"store", "result"},
	)

	CacheTransportErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheaside_transport_errors_total",
			Help: "Cache transport failures that were absorbed",
		},
		[]string{"store", "op"},
	)

	CacheSecondDeletes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheaside_second_deletes_total",
			Help: "Delayed second cache deletions that fired",
		},
		[]string{"store"},
	)

	FilterInsertions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_filter_insertions_total",
			Help: "Keys added to a membership filter",
		},
		[]string{"filter"},
	)

	// Admission control
	AdmissionDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_decisions_total",
			Help: "Token bucket decisions by rule and outcome",
		},
		[]string{"rule", "outcome"},
	)

	AdmissionFailOpen = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_fail_open_total",
			Help: "Requests admitted because the bucket store was unreachable",
		},
		[]string{"rule"},
	)

	AdmissionFailClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admission_fail_closed_total",
			Help: "Requests rejected because the bucket store was unreachable",
		},
		[]string{"rule"},
	)

	// Topic tracker
	TopicsExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "topics_extracted_total",
			Help: "New topics found in assistant questions",
		},
	)

	TopicStoreDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topics_store_degraded_total",
			Help: "Topic store failures absorbed by the tracker",
		},
		[]string{"op"},
	)

	// Ingestion
	IngestBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_batches_total",
			Help: "Ingestion batches by terminal state",
		},
		[]string{"state"},
	)

	IngestChunksWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_chunks_written_total",
			Help: "Chunks written to the similarity index",
		},
	)

	IngestRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_retries_total",
			Help: "Batch write retries",
		},
	)

	IngestRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_run_duration_seconds",
			Help:    "Duration of ingestion runs",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Sessions
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "interview_sessions_active",
			Help: "Interview sessions currently held in the registry",
		},
	)

	SessionsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "interview_sessions_evicted_total",
			Help: "Sessions dropped by the idle sweep",
		},
	)

	MistakesDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mistake_book_duplicates_total",
			Help: "Mistake book inserts skipped as repeats within the idempotency window",
		},
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordAdmission counts one admission decision.
func RecordAdmission(rule string, allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	AdmissionDecisions.WithLabelValues(rule, outcome).Inc()
}

// RecordAPIRequest records one finished HTTP request.
func RecordAPIRequest(method, route string, status int, d time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

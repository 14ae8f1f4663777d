// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

// Package metrics provides Prometheus instrumentation for the feed
// pipeline, the impression/interaction ledger, remote collaborators, and
// the training dataset builder.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Feed pipeline metrics
	FeedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_requests_total",
			Help: "Total number of feed requests by response mode",
		},
		[]string{"mode"}, // personalized, coldstart, fallback_no_candidates, error
	)

	FeedRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_request_duration_seconds",
			Help:    "Feed request duration in seconds by pipeline stage",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"stage"}, // retrieve, balance, rerank, ledger, total
	)

	CandidatePoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_candidate_pool_size",
			Help:    "Number of candidates fetched from the embedding store per request",
			Buckets: []float64{0, 10, 50, 100, 250, 500, 1000, 1200},
		},
	)

	// Ledger metrics
	ImpressionsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_impressions_written_total",
			Help: "Total number of impression rows written",
		},
	)

	LedgerConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_conflicts_total",
			Help: "Total number of impression batch writes rejected by uniqueness constraints",
		},
	)

	InteractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interactions_total",
			Help: "Total interaction recording attempts by type and outcome",
		},
		[]string{"type", "result"}, // result: recorded, conflict, validation_error, error
	)

	// Remote collaborator metrics
	RemoteCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "remote_call_duration_seconds",
			Help:    "Duration of remote collaborator calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"}, // rerank, profile, explain
	)

	RemoteCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_call_errors_total",
			Help: "Total number of failed remote collaborator calls",
		},
		[]string{"service"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Dataset builder metrics
	DatasetRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dataset_rows",
			Help: "Training dataset rows from the last snapshot build by class and split",
		},
		[]string{"class", "split"}, // class: explicit, implicit; split: train, validation
	)

	DatasetBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dataset_build_duration_seconds",
			Help:    "Duration of training dataset snapshot builds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)

	DatasetBuildErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dataset_build_errors_total",
			Help: "Total number of failed dataset snapshot builds",
		},
	)

	// Event bus metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published to the bus by topic",
		},
		[]string{"topic"},
	)

	EventConsumerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "event_consumer_errors_total",
			Help: "Total number of event handling failures in the consumer",
		},
	)

	// Explanation cache metrics
	ExplanationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "explanation_cache_hits_total",
			Help: "Total number of explanation cache hits",
		},
	)

	ExplanationCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "explanation_cache_misses_total",
			Help: "Total number of explanation cache misses",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)
)

// ObserveAPIRequest records a completed API request.
func ObserveAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

// Package remote holds the HTTP clients for the external collaborators:
// the scoring/reranking service, the user-profile recompute service, and
// the explanation generator. Every call runs inside a circuit breaker and
// every failure surfaces as models.ErrUnavailable so callers can apply
// their degradation contract without inspecting transport errors.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/newswire/internal/logging"
	"github.com/tomtom215/newswire/internal/metrics"
	"github.com/tomtom215/newswire/internal/models"
)

const defaultTimeout = 10 * time.Second

// caller is one breaker-wrapped HTTP collaborator endpoint.
type caller struct {
	name   string
	client *http.Client
	cb     *gobreaker.CircuitBreaker[[]byte]
}

// newCaller builds the shared transport for a collaborator. The breaker
// opens after a 60% failure rate over at least 10 requests, allows 3
// probes in half-open state, and waits 30 seconds before probing.
func newCaller(name string, timeout time.Duration) *caller {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &caller{
		name:   name,
		client: &http.Client{Timeout: timeout},
		cb:     cb,
	}
}

// postJSON sends a JSON body, expects a 2xx response, and decodes the
// reply into out (out may be nil for ack-only endpoints). Transport
// failures, non-2xx statuses, and open-breaker rejections all come back
// wrapped in models.ErrUnavailable.
func (c *caller) postJSON(ctx context.Context, url string, in, out interface{}) error {
	start := time.Now()

	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.doPost(ctx, url, in)
	})
	metrics.RemoteCallDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RemoteCallErrors.WithLabelValues(c.name).Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Warn().Str("service", c.name).Err(err).Msg("remote call rejected by circuit breaker")
		}
		return fmt.Errorf("%w: %s call: %v", models.ErrUnavailable, c.name, err)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		metrics.RemoteCallErrors.WithLabelValues(c.name).Inc()
		return fmt.Errorf("%w: %s response decode: %v", models.ErrUnavailable, c.name, err)
	}
	return nil
}

func (c *caller) doPost(ctx context.Context, url string, in interface{}) ([]byte, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 256))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

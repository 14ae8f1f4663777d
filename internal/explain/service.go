// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

// Package explain serves per-article "why" payloads through a lazy
// read-through chain: Badger cache, then DuckDB, then the remote
// generator. Explanations are optional by contract — a missing one
// degrades to "no explanation panel", never to a request failure.
package explain

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/newswire/internal/cache"
	"github.com/tomtom215/newswire/internal/logging"
	"github.com/tomtom215/newswire/internal/metrics"
	"github.com/tomtom215/newswire/internal/models"
)

// Store is the durable explanation surface. Implemented by *database.DB.
type Store interface {
	ArticleExists(ctx context.Context, articleID int64) (bool, error)
	GetExplanation(ctx context.Context, articleID int64, method models.ExplanationMethod, modelVersion string) (*models.Explanation, error)
	PutExplanation(ctx context.Context, exp *models.Explanation) error
}

// Generator produces explanations remotely. Implemented by
// *remote.ExplainClient. Nil disables lazy generation entirely.
type Generator interface {
	Generate(ctx context.Context, articleID int64, method models.ExplanationMethod, modelVersion string) (*models.Explanation, error)
}

// Service is the read-through explanation lookup.
type Service struct {
	store        Store
	cache        *cache.Store
	generator    Generator
	modelVersion string
}

// NewService wires the lookup chain. generator may be nil when no remote
// explanation endpoint is configured.
func NewService(store Store, c *cache.Store, generator Generator, modelVersion string) *Service {
	return &Service{
		store:        store,
		cache:        c,
		generator:    generator,
		modelVersion: modelVersion,
	}
}

// Get returns the explanation for an article under the current model
// version, or (nil, nil) when none exists and none can be generated —
// the degrade-gracefully outcome. A missing article is ErrNotFound.
func (s *Service) Get(ctx context.Context, articleID int64, method models.ExplanationMethod) (*models.Explanation, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unknown explanation method %q", models.ErrValidation, method)
	}

	exists, err := s.store.ArticleExists(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("check article: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: article %d", models.ErrNotFound, articleID)
	}

	key := cache.ExplanationKey(articleID, method, s.modelVersion)
	if exp := s.fromCache(key); exp != nil {
		metrics.ExplanationCacheHits.Inc()
		return exp, nil
	}
	metrics.ExplanationCacheMisses.Inc()

	exp, err := s.store.GetExplanation(ctx, articleID, method, s.modelVersion)
	if err == nil {
		s.toCache(key, exp)
		return exp, nil
	}
	if !models.IsNotFound(err) {
		return nil, fmt.Errorf("load explanation: %w", err)
	}

	return s.generate(ctx, key, articleID, method)
}

// generate asks the remote for a fresh explanation and persists it
// first-writer-wins. Remote unavailability degrades to no explanation.
func (s *Service) generate(ctx context.Context, key string, articleID int64, method models.ExplanationMethod) (*models.Explanation, error) {
	if s.generator == nil {
		return nil, nil
	}

	exp, err := s.generator.Generate(ctx, articleID, method, s.modelVersion)
	if err != nil {
		if models.IsUnavailable(err) {
			logging.Warn().
				Int64("article_id", articleID).
				Str("method", string(method)).
				Err(err).
				Msg("explanation generator unavailable, degrading to none")
			return nil, nil
		}
		return nil, fmt.Errorf("generate explanation: %w", err)
	}

	if err := s.store.PutExplanation(ctx, exp); err != nil {
		return nil, fmt.Errorf("store explanation: %w", err)
	}
	// Re-read so a concurrent first writer's row wins everywhere.
	stored, err := s.store.GetExplanation(ctx, articleID, method, s.modelVersion)
	if err != nil {
		return nil, fmt.Errorf("reload explanation: %w", err)
	}

	s.toCache(key, stored)
	return stored, nil
}

func (s *Service) fromCache(key string) *models.Explanation {
	if s.cache == nil {
		return nil
	}
	raw, ok, err := s.cache.Get(key)
	if err != nil {
		logging.Warn().Str("key", key).Err(err).Msg("explanation cache read failed")
		return nil
	}
	if !ok {
		return nil
	}
	var exp models.Explanation
	if err := json.Unmarshal(raw, &exp); err != nil {
		logging.Warn().Str("key", key).Err(err).Msg("explanation cache entry corrupt, dropping")
		if delErr := s.cache.Delete(key); delErr != nil {
			logging.Warn().Str("key", key).Err(delErr).Msg("explanation cache delete failed")
		}
		return nil
	}
	return &exp
}

func (s *Service) toCache(key string, exp *models.Explanation) {
	if s.cache == nil || exp == nil {
		return
	}
	raw, err := json.Marshal(exp)
	if err != nil {
		logging.Warn().Str("key", key).Err(err).Msg("explanation cache encode failed")
		return
	}
	if err := s.cache.Set(key, raw); err != nil {
		logging.Warn().Str("key", key).Err(err).Msg("explanation cache write failed")
	}
}

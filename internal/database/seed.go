// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package database

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/tomtom215/newswire/internal/logging"
	"github.com/tomtom215/newswire/internal/models"
)

var (
	seedCategories = []string{"politics", "economy", "sports", "technology"}
	seedSources    = []string{"reuters", "apnews", "bbc", "guardian", "bloomberg", "wired"}
)

// SeedMockData populates the database with deterministic demo users and
// articles for local development. Safe to call repeatedly; existing rows
// are upserted in place.
func (db *DB) SeedMockData(ctx context.Context, articles, users int) error {
	rng := rand.New(rand.NewSource(42)) // #nosec G404 - demo data, not crypto
	now := time.Now().UTC()

	for i := 1; i <= articles; i++ {
		category := seedCategories[rng.Intn(len(seedCategories))]
		publishedAt := now.Add(-time.Duration(rng.Intn(14*24)) * time.Hour)
		a := &models.Article{
			ID:          int64(i),
			Title:       fmt.Sprintf("Demo article %d (%s)", i, category),
			Source:      seedSources[rng.Intn(len(seedSources))],
			Category:    &category,
			URL:         fmt.Sprintf("https://example.com/articles/%d", i),
			PublishedAt: &publishedAt,
			Embedding:   randomUnitVector(rng, db.embeddingDim),
		}
		if err := db.UpsertArticle(ctx, a); err != nil {
			return fmt.Errorf("seed article %d: %w", i, err)
		}
	}

	for i := 1; i <= users; i++ {
		u := &models.User{ID: int64(i), Username: fmt.Sprintf("demo%d", i)}
		if err := db.UpsertUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %d: %w", i, err)
		}
		// Leave every third user without a profile to exercise cold start.
		if i%3 != 0 {
			if err := db.UpdateUserEmbedding(ctx, int64(i), randomUnitVector(rng, db.embeddingDim)); err != nil {
				return fmt.Errorf("seed user %d profile: %w", i, err)
			}
		}
	}

	logging.Info().Int("articles", articles).Int("users", users).Msg("Seeded mock data")
	return nil
}

// randomUnitVector returns a random L2-normalized embedding.
func randomUnitVector(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	var norm float64
	for i := range v {
		f := rng.NormFloat64()
		v[i] = float32(f)
		norm += f * f
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/newswire/internal/models"
)

// CandidateSearch runs vector similarity retrieval: the freshest articles
// inside the recency window, ordered by cosine distance to the user
// profile. Ties break deterministically by publish time (newest first)
// then id, so identical requests produce identical pools.
//
// Articles without an embedding or without a publish timestamp never
// qualify, and neither does anything the ledger says the user has already
// been shown. Candidate embeddings are returned alongside metadata because
// the diversity reranker needs them for pairwise redundancy scoring.
func (db *DB) CandidateSearch(ctx context.Context, userID int64, profile []float32, window time.Duration, limit int) ([]models.Candidate, error) {
	if len(profile) != db.embeddingDim {
		return nil, fmt.Errorf("%w: profile has %d dims, want %d",
			models.ErrValidation, len(profile), db.embeddingDim)
	}
	if limit <= 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, title, source, COALESCE(category, ''), url, published_at, image_url,
		       array_cosine_distance(embedding, %s) AS distance,
		       epoch(now() - published_at) AS age_seconds,
		       to_json(embedding)::VARCHAR
		FROM articles
		WHERE embedding IS NOT NULL
		  AND published_at IS NOT NULL
		  AND published_at >= now() - INTERVAL (?) SECOND
		  AND NOT EXISTS (
			SELECT 1 FROM impressions imp
			WHERE imp.user_id = ? AND imp.article_id = articles.id
		  )
		ORDER BY distance ASC, published_at DESC, id ASC
		LIMIT ?
	`, vectorLiteral(profile))

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query, int64(window.Seconds()), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: candidate search: %v", models.ErrUnavailable, err)
	}
	defer closeWithLog(rows, "candidate rows")

	var out []models.Candidate
	for rows.Next() {
		var (
			c            models.Candidate
			publishedAt  time.Time
			embeddingRaw string
		)
		if err := rows.Scan(&c.ArticleID, &c.Title, &c.Source, &c.Category,
			&c.URL, &publishedAt, &c.ImageURL, &c.Distance, &c.AgeSeconds,
			&embeddingRaw); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.PublishedAt = publishedAt.UTC()
		if c.Embedding, err = parseEmbedding(embeddingRaw); err != nil {
			return nil, fmt.Errorf("candidate %d: %w", c.ArticleID, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}

// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/newswire/internal/models"
)

// UpsertArticle inserts or refreshes an article. Content refreshes bump
// updated_at; the embedding is replaced only when the caller provides one.
func (db *DB) UpsertArticle(ctx context.Context, a *models.Article) error {
	embedding := "NULL"
	embeddingUpdate := ""
	if a.HasEmbedding() {
		if len(a.Embedding) != db.embeddingDim {
			return fmt.Errorf("%w: article %d embedding has %d dims, want %d",
				models.ErrValidation, a.ID, len(a.Embedding), db.embeddingDim)
		}
		embedding = vectorLiteral(a.Embedding)
		embeddingUpdate = "embedding = EXCLUDED.embedding,"
	}

	// DuckDB rejects CURRENT_TIMESTAMP inside DO UPDATE SET and cannot
	// COALESCE fixed-size array columns, so timestamps use now() and the
	// embedding assignment is emitted only when a vector was provided.
	query := fmt.Sprintf(`
		INSERT INTO articles (id, title, source, category, url, published_at, embedding, image_url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, %s, ?, now())
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			source = EXCLUDED.source,
			category = EXCLUDED.category,
			url = EXCLUDED.url,
			published_at = EXCLUDED.published_at,
			%s
			image_url = EXCLUDED.image_url,
			updated_at = now()
	`, embedding, embeddingUpdate)

	var publishedAt any
	if a.PublishedAt != nil {
		publishedAt = a.PublishedAt.UTC()
	}
	var category any
	if a.Category != nil {
		category = *a.Category
	}

	_, err := db.conn.ExecContext(ctx, query,
		a.ID, a.Title, a.Source, category, a.URL, publishedAt, a.ImageURL)
	if err != nil {
		return fmt.Errorf("upsert article %d: %w", a.ID, err)
	}
	return nil
}

// UpdateArticleEmbedding stores a freshly computed embedding for an
// article, replacing any previous vector.
func (db *DB) UpdateArticleEmbedding(ctx context.Context, articleID int64, embedding []float32) error {
	if len(embedding) != db.embeddingDim {
		return fmt.Errorf("%w: embedding has %d dims, want %d",
			models.ErrValidation, len(embedding), db.embeddingDim)
	}

	query := fmt.Sprintf(`UPDATE articles SET embedding = %s, updated_at = now() WHERE id = ?`,
		vectorLiteral(embedding))
	res, err := db.conn.ExecContext(ctx, query, articleID)
	if err != nil {
		return fmt.Errorf("update article embedding %d: %w", articleID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("article %d: %w", articleID, models.ErrNotFound)
	}
	return nil
}

// GetArticle returns a single article by id, including its embedding.
func (db *DB) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	query := `
		SELECT id, title, source, category, url, published_at,
		       COALESCE(to_json(embedding)::VARCHAR, ''), image_url, updated_at
		FROM articles WHERE id = ?
	`
	var (
		a            models.Article
		category     sql.NullString
		publishedAt  sql.NullTime
		embeddingRaw string
	)
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Title, &a.Source, &category, &a.URL, &publishedAt,
		&embeddingRaw, &a.ImageURL, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("article %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get article %d: %w", id, err)
	}

	if category.Valid {
		a.Category = &category.String
	}
	if publishedAt.Valid {
		t := publishedAt.Time.UTC()
		a.PublishedAt = &t
	}
	if a.Embedding, err = parseEmbedding(embeddingRaw); err != nil {
		return nil, fmt.Errorf("article %d: %w", id, err)
	}
	return &a, nil
}

// ArticleExists reports whether an article row exists.
func (db *DB) ArticleExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM articles WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("article exists %d: %w", id, err)
	}
	return exists, nil
}

// RecentByCategory returns the freshest published articles per category
// for the cold-start feed. Categories outside the fixed set are never
// returned; articles without a publish timestamp are excluded.
func (db *DB) RecentByCategory(ctx context.Context, categories []string, perCategory int) ([]models.Candidate, error) {
	if len(categories) == 0 || perCategory <= 0 {
		return nil, nil
	}

	placeholders := make([]string, len(categories))
	args := make([]any, 0, len(categories)+1)
	for i, c := range categories {
		placeholders[i] = "?"
		args = append(args, c)
	}
	args = append(args, perCategory)

	query := fmt.Sprintf(`
		WITH ranked AS (
			SELECT id, title, source, category, url, published_at, image_url,
			       epoch(now() - published_at) AS age_seconds,
			       ROW_NUMBER() OVER (PARTITION BY category ORDER BY published_at DESC, id ASC) AS rn
			FROM articles
			WHERE category IN (%s)
			  AND published_at IS NOT NULL
		)
		SELECT id, title, source, category, url, published_at, image_url, age_seconds
		FROM ranked
		WHERE rn <= ?
		ORDER BY published_at DESC, id ASC
	`, strings.Join(placeholders, ","))

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent by category: %w", err)
	}
	defer closeWithLog(rows, "recent-by-category rows")

	var out []models.Candidate
	for rows.Next() {
		var (
			c           models.Candidate
			publishedAt time.Time
		)
		if err := rows.Scan(&c.ArticleID, &c.Title, &c.Source, &c.Category,
			&c.URL, &publishedAt, &c.ImageURL, &c.AgeSeconds); err != nil {
			return nil, fmt.Errorf("scan recent article: %w", err)
		}
		c.PublishedAt = publishedAt.UTC()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent articles: %w", err)
	}
	return out, nil
}

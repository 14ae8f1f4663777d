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

	"github.com/goccy/go-json"

	"github.com/tomtom215/newswire/internal/models"
)

// GetExplanation returns a cached attribution payload for the exact
// (article, method, model version) key, or models.ErrNotFound when the
// explanation has not been generated yet.
func (db *DB) GetExplanation(ctx context.Context, articleID int64, method models.ExplanationMethod, modelVersion string) (*models.Explanation, error) {
	query := `
		SELECT article_id, method, model_version, payload, generated_at
		FROM explanations
		WHERE article_id = ? AND method = ? AND model_version = ?
	`
	var (
		e       models.Explanation
		method_ string
		payload string
	)
	err := db.conn.QueryRowContext(ctx, query, articleID, string(method), modelVersion).Scan(
		&e.ArticleID, &method_, &e.ModelVersion, &payload, &e.GeneratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("explanation %d/%s/%s: %w", articleID, method, modelVersion, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get explanation %d: %w", articleID, err)
	}

	e.Method = models.ExplanationMethod(method_)
	e.Payload = json.RawMessage(payload)
	e.GeneratedAt = e.GeneratedAt.UTC()
	return &e, nil
}

// PutExplanation stores a generated attribution payload. Concurrent lazy
// generation can race; the first writer wins and later writes for the
// same key replace nothing.
func (db *DB) PutExplanation(ctx context.Context, e *models.Explanation) error {
	if !e.Method.Valid() {
		return fmt.Errorf("%w: unknown explanation method %q", models.ErrValidation, e.Method)
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO explanations (article_id, method, model_version, payload, generated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (article_id, method, model_version) DO NOTHING
	`, e.ArticleID, string(e.Method), e.ModelVersion, string(e.Payload), e.GeneratedAt.UTC())
	if err != nil {
		return fmt.Errorf("put explanation %d: %w", e.ArticleID, err)
	}
	return nil
}

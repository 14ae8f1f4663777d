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

	"github.com/tomtom215/newswire/internal/models"
)

// UpsertUser inserts or updates a user row. The profile embedding is not
// touched here; it changes only through UpdateUserEmbedding.
func (db *DB) UpsertUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, username) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username
	`
	if _, err := db.conn.ExecContext(ctx, query, u.ID, u.Username); err != nil {
		return fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	return nil
}

// GetUser returns a user with their profile embedding. A user without a
// profile is a valid cold-start state, not an error.
func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, username, COALESCE(to_json(embedding)::VARCHAR, ''), embedding_updated_at
		FROM users WHERE id = ?
	`
	var (
		u            models.User
		embeddingRaw string
		updatedAt    sql.NullTime
	)
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Username, &embeddingRaw, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}

	if updatedAt.Valid {
		t := updatedAt.Time.UTC()
		u.EmbeddingUpdatedAt = &t
	}
	if u.Embedding, err = parseEmbedding(embeddingRaw); err != nil {
		return nil, fmt.Errorf("user %d: %w", id, err)
	}
	return &u, nil
}

// UserExists reports whether a user row exists.
func (db *DB) UserExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("user exists %d: %w", id, err)
	}
	return exists, nil
}

// UpdateUserEmbedding replaces a user's profile vector. The timestamp only
// moves when the vector value actually changes, so an unchanged recompute
// does not masquerade as fresh data.
func (db *DB) UpdateUserEmbedding(ctx context.Context, userID int64, embedding []float32) error {
	if len(embedding) != db.embeddingDim {
		return fmt.Errorf("%w: embedding has %d dims, want %d",
			models.ErrValidation, len(embedding), db.embeddingDim)
	}

	lit := vectorLiteral(embedding)
	query := fmt.Sprintf(`
		UPDATE users SET
			embedding_updated_at = CASE
				WHEN embedding IS DISTINCT FROM %s THEN now()
				ELSE embedding_updated_at
			END,
			embedding = %s
		WHERE id = ?
	`, lit, lit)

	res, err := db.conn.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("update user embedding %d: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %d: %w", userID, models.ErrNotFound)
	}
	return nil
}

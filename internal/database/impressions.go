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
	"time"

	"github.com/tomtom215/newswire/internal/metrics"
	"github.com/tomtom215/newswire/internal/models"
)

// RecordImpressions writes one feed render's impressions as a single
// transaction: either every row lands or none do, so a request id can
// never refer to a partially recorded render.
//
// A uniqueness violation on any row aborts the whole batch and surfaces
// as *models.ConflictError carrying the offending request id.
func (db *DB) RecordImpressions(ctx context.Context, impressions []models.Impression) error {
	if len(impressions) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin impression batch: %w", err)
	}
	defer rollbackQuietly(tx)

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO impressions (id, user_id, article_id, shown_at, position, surface, request_id, session_id, model_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare impression insert: %w", err)
	}
	defer closeQuietly(stmt)

	for i := range impressions {
		imp := &impressions[i]
		_, err := stmt.ExecContext(ctx,
			imp.ID.String(), imp.UserID, imp.ArticleID, imp.ShownAt.UTC(),
			imp.Position, string(imp.Surface), imp.RequestID, imp.SessionID,
			imp.ModelVersion)
		if err != nil {
			if isUniqueViolation(err) {
				metrics.LedgerConflicts.Inc()
				return &models.ConflictError{
					Reason:    "impression already recorded for request",
					UserID:    imp.UserID,
					RequestID: imp.RequestID,
					ArticleID: imp.ArticleID,
				}
			}
			return fmt.Errorf("insert impression %s/%d: %w", imp.RequestID, imp.ArticleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit impression batch: %w", err)
	}
	metrics.ImpressionsWritten.Add(float64(len(impressions)))
	return nil
}

// ImpressionShownAt returns when the given (user, request, article) triple
// was shown. A miss maps to models.ErrNotFound so the interaction recorder
// can turn it into a structured conflict.
func (db *DB) ImpressionShownAt(ctx context.Context, userID int64, requestID string, articleID int64) (time.Time, error) {
	var shownAt time.Time
	err := db.conn.QueryRowContext(ctx, `
		SELECT shown_at FROM impressions
		WHERE user_id = ? AND request_id = ? AND article_id = ?
	`, userID, requestID, articleID).Scan(&shownAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, models.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("lookup impression %s/%d: %w", requestID, articleID, err)
	}
	return shownAt.UTC(), nil
}

// ImpressionCount returns the total number of impression rows. Used by
// health reporting and tests.
func (db *DB) ImpressionCount(ctx context.Context) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM impressions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count impressions: %w", err)
	}
	return n, nil
}

// rollbackQuietly rolls back a transaction, ignoring the ErrTxDone that
// follows a successful commit.
func rollbackQuietly(tx *sql.Tx) {
	_ = tx.Rollback()
}

// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/newswire/internal/models"
)

// RecordInteraction validates and persists a user reaction. Checks run in
// a fixed order so error reporting is deterministic:
//
//  1. interaction type must be a known enum value
//  2. the user must exist
//  3. the article must exist
//  4. when a request id is present, a matching impression row for the
//     exact (user, request, article) triple must exist
//  5. the same reaction must not already be recorded for that triple;
//     without a request id the check runs explicitly, because the unique
//     constraint treats NULL request ids as distinct rows
//
// Failures 1-3 are validation/not-found; 4 and 5 surface as
// *models.ConflictError so clients can tell integrity misses apart from
// malformed input.
func (db *DB) RecordInteraction(ctx context.Context, in *models.Interaction) error {
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown interaction type %q", models.ErrValidation, in.Type)
	}

	if ok, err := db.UserExists(ctx, in.UserID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("user %d: %w", in.UserID, models.ErrNotFound)
	}

	if ok, err := db.ArticleExists(ctx, in.ArticleID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("article %d: %w", in.ArticleID, models.ErrNotFound)
	}

	var requestID any
	if in.RequestID != nil {
		_, err := db.ImpressionShownAt(ctx, in.UserID, *in.RequestID, in.ArticleID)
		if errors.Is(err, models.ErrNotFound) {
			return &models.ConflictError{
				Reason:    "no impression recorded for this request",
				UserID:    in.UserID,
				RequestID: *in.RequestID,
				ArticleID: in.ArticleID,
			}
		}
		if err != nil {
			return err
		}
		requestID = *in.RequestID
	} else {
		var exists bool
		err := db.conn.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM interactions
				WHERE user_id = ? AND article_id = ? AND interaction_type = ? AND request_id IS NULL
			)
		`, in.UserID, in.ArticleID, string(in.Type)).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check off-feed duplicate: %w", err)
		}
		if exists {
			return &models.ConflictError{
				Reason:    "interaction already recorded",
				UserID:    in.UserID,
				ArticleID: in.ArticleID,
			}
		}
	}

	var dwell any
	if in.DwellMS != nil {
		dwell = *in.DwellMS
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO interactions (id, user_id, article_id, request_id, interaction_type, created_at, dwell_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, in.ID.String(), in.UserID, in.ArticleID, requestID, string(in.Type),
		in.CreatedAt.UTC(), dwell)
	if err != nil {
		if isUniqueViolation(err) {
			conflict := &models.ConflictError{
				Reason:    "interaction already recorded",
				UserID:    in.UserID,
				ArticleID: in.ArticleID,
			}
			if in.RequestID != nil {
				conflict.RequestID = *in.RequestID
			}
			return conflict
		}
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// InteractionCount returns the total number of interaction rows.
func (db *DB) InteractionCount(ctx context.Context) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM interactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count interactions: %w", err)
	}
	return n, nil
}

// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/newswire/internal/models"
)

// TrainingEvent is one labeled row read from the ledger before
// subsampling, weighting, and the temporal split. EventTime is the shown
// time of the underlying impression for both classes; the temporal split
// cuts on it.
//
// Features are computed against the current user and article embeddings,
// not the vectors in effect at impression time; the store keeps no
// embedding history.
type TrainingEvent struct {
	UserID            int64
	ArticleID         int64
	RequestID         string
	EventTime         time.Time
	Label             int
	CosineSimilarity  float64
	HoursSincePublish float64
	Source            string
	Category          string
}

// ExplicitEvents returns one row per like/dislike interaction, joined to
// the impression that produced it. Interactions carrying a request id
// join their exact ledger triple; those without one join the latest
// impression of that article shown to the user at or before the
// interaction. Interactions with no joinable impression are skipped, as
// are rows where either embedding is missing.
func (db *DB) ExplicitEvents(ctx context.Context) ([]TrainingEvent, error) {
	query := `
		WITH joined AS (
			SELECT
				i.id AS interaction_id,
				i.user_id, i.article_id,
				COALESCE(i.request_id, imp.request_id) AS request_id,
				i.interaction_type, i.created_at,
				imp.shown_at,
				ROW_NUMBER() OVER (PARTITION BY i.id ORDER BY imp.shown_at DESC) AS rn
			FROM interactions i
			JOIN impressions imp
			  ON imp.user_id = i.user_id
			 AND imp.article_id = i.article_id
			 AND imp.shown_at <= i.created_at
			 AND (i.request_id IS NULL OR imp.request_id = i.request_id)
			WHERE i.interaction_type IN ('like', 'dislike')
		)
		SELECT
			j.user_id, j.article_id, j.request_id, j.shown_at,
			CASE j.interaction_type WHEN 'like' THEN 1 ELSE 0 END AS label,
			1.0 - array_cosine_distance(u.embedding, a.embedding) AS cosine_similarity,
			epoch(j.shown_at - a.published_at) / 3600.0 AS hours_since_publish,
			a.source, COALESCE(a.category, '')
		FROM joined j
		JOIN users u ON u.id = j.user_id
		JOIN articles a ON a.id = j.article_id
		WHERE j.rn = 1
		  AND u.embedding IS NOT NULL
		  AND a.embedding IS NOT NULL
		  AND a.published_at IS NOT NULL
		ORDER BY j.shown_at ASC, j.user_id ASC, j.article_id ASC
	`
	return db.queryTrainingEvents(ctx, query, "explicit")
}

// ImplicitEvents returns one row per impression the user never explicitly
// judged: no like or dislike of the article at or after it was shown.
// Clicks and shares do not disqualify a pair. These are the weak
// negatives; the builder subsamples and down-weights them.
func (db *DB) ImplicitEvents(ctx context.Context) ([]TrainingEvent, error) {
	query := `
		SELECT
			imp.user_id, imp.article_id, imp.request_id, imp.shown_at,
			0 AS label,
			1.0 - array_cosine_distance(u.embedding, a.embedding) AS cosine_similarity,
			epoch(imp.shown_at - a.published_at) / 3600.0 AS hours_since_publish,
			a.source, COALESCE(a.category, '')
		FROM impressions imp
		JOIN users u ON u.id = imp.user_id
		JOIN articles a ON a.id = imp.article_id
		WHERE u.embedding IS NOT NULL
		  AND a.embedding IS NOT NULL
		  AND a.published_at IS NOT NULL
		  AND NOT EXISTS (
			SELECT 1 FROM interactions x
			WHERE x.user_id = imp.user_id
			  AND x.article_id = imp.article_id
			  AND x.interaction_type IN ('like', 'dislike')
			  AND x.created_at >= imp.shown_at
		  )
		ORDER BY imp.shown_at ASC, imp.user_id ASC, imp.article_id ASC
	`
	return db.queryTrainingEvents(ctx, query, "implicit")
}

func (db *DB) queryTrainingEvents(ctx context.Context, query, class string) ([]TrainingEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s events: %v", models.ErrUnavailable, class, err)
	}
	defer closeWithLog(rows, class+" event rows")

	var out []TrainingEvent
	for rows.Next() {
		var (
			ev        TrainingEvent
			requestID sql.NullString
			eventTime time.Time
		)
		if err := rows.Scan(&ev.UserID, &ev.ArticleID, &requestID, &eventTime,
			&ev.Label, &ev.CosineSimilarity, &ev.HoursSincePublish,
			&ev.Source, &ev.Category); err != nil {
			return nil, fmt.Errorf("scan %s event: %w", class, err)
		}
		ev.RequestID = requestID.String
		ev.EventTime = eventTime.UTC()
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s events: %w", class, err)
	}
	return out, nil
}

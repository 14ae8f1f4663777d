// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package database

import "fmt"

// initialize creates the schema. All statements are idempotent so startup
// against an existing database file is a no-op.
//
// The ledger uniqueness constraints are the load-bearing part:
//
//   - impressions carries UNIQUE(request_id, article_id) so one render
//     never shows the same article twice, and
//     UNIQUE(user_id, request_id, article_id) so interactions can join
//     back to exactly one impression row
//   - interactions carries UNIQUE(user_id, request_id, article_id,
//     interaction_type) so repeated deliveries of the same reaction
//     surface as conflicts instead of duplicate training rows
func (db *DB) initialize() error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS articles (
			id BIGINT PRIMARY KEY,
			title VARCHAR NOT NULL,
			source VARCHAR NOT NULL,
			category VARCHAR,
			url VARCHAR NOT NULL,
			published_at TIMESTAMP,
			embedding FLOAT[%d],
			image_url VARCHAR NOT NULL DEFAULT '',
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, db.embeddingDim),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username VARCHAR NOT NULL,
			embedding FLOAT[%d],
			embedding_updated_at TIMESTAMP
		)`, db.embeddingDim),

		`CREATE TABLE IF NOT EXISTS impressions (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL,
			article_id BIGINT NOT NULL,
			shown_at TIMESTAMP NOT NULL,
			position INTEGER NOT NULL,
			surface VARCHAR NOT NULL,
			request_id VARCHAR NOT NULL,
			session_id VARCHAR NOT NULL DEFAULT '',
			model_version VARCHAR NOT NULL DEFAULT '',
			UNIQUE (request_id, article_id),
			UNIQUE (user_id, request_id, article_id)
		)`,

		`CREATE TABLE IF NOT EXISTS interactions (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL,
			article_id BIGINT NOT NULL,
			request_id VARCHAR,
			interaction_type VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL,
			dwell_ms BIGINT,
			UNIQUE (user_id, request_id, article_id, interaction_type)
		)`,

		`CREATE TABLE IF NOT EXISTS explanations (
			article_id BIGINT NOT NULL,
			method VARCHAR NOT NULL,
			model_version VARCHAR NOT NULL,
			payload VARCHAR NOT NULL,
			generated_at TIMESTAMP NOT NULL,
			UNIQUE (article_id, method, model_version)
		)`,

		// Indexes for the hot read paths: candidate retrieval filters on
		// published_at, the dataset builder joins impressions to
		// interactions by the ledger triple.
		`CREATE INDEX IF NOT EXISTS idx_articles_published ON articles (published_at)`,
		`CREATE INDEX IF NOT EXISTS idx_impressions_user ON impressions (user_id, shown_at)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions (user_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

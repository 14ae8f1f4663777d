// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

// Package database provides DuckDB-backed persistence for articles, users,
// the impression/interaction ledger, cached explanations, and the read
// side of the training dataset builder.
//
// A single DuckDB database serves double duty as the durable store and the
// embedding store: article and user profile vectors live in FLOAT[]
// columns and candidate retrieval runs list_cosine_distance directly in
// SQL, so similarity search and metadata filtering happen in one query.
//
// All write paths translate uniqueness violations into
// *models.ConflictError so callers can distinguish ledger integrity
// conflicts from infrastructure failures.
package database

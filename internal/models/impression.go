// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package models

import (
	"time"

	"github.com/google/uuid"
)

// Surface identifies where an impression was rendered.
type Surface string

const (
	SurfaceFeed         Surface = "feed"
	SurfaceSearch       Surface = "search"
	SurfaceRelated      Surface = "related"
	SurfaceNotification Surface = "notification"
)

// Valid reports whether the surface is one of the defined enum values.
func (s Surface) Valid() bool {
	switch s {
	case SurfaceFeed, SurfaceSearch, SurfaceRelated, SurfaceNotification:
		return true
	default:
		return false
	}
}

// Impression records a single article shown to a user within one feed
// render. All impressions of one render share a RequestID; Position is the
// 1-based rank within that render.
//
// Invariants enforced at write time by the ledger:
//   - at most one row per (request_id, article_id)
//   - exactly one row per (user_id, request_id, article_id) for
//     integrity joins from interactions
type Impression struct {
	ID           uuid.UUID `json:"id"`
	UserID       int64     `json:"user_id"`
	ArticleID    int64     `json:"article_id"`
	ShownAt      time.Time `json:"shown_at"`
	Position     int       `json:"position"`
	Surface      Surface   `json:"surface"`
	RequestID    string    `json:"request_id"`
	SessionID    string    `json:"session_id,omitempty"`
	ModelVersion string    `json:"model_version"`
}

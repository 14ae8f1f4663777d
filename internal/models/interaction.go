// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package models

import (
	"time"

	"github.com/google/uuid"
)

// InteractionType classifies a user reaction to an article.
type InteractionType string

const (
	InteractionClick   InteractionType = "click"
	InteractionLike    InteractionType = "like"
	InteractionDislike InteractionType = "dislike"
	InteractionShare   InteractionType = "share"
)

// Valid reports whether the type is one of the defined enum values.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionClick, InteractionLike, InteractionDislike, InteractionShare:
		return true
	default:
		return false
	}
}

// Explicit reports whether the interaction is an explicit preference
// signal (like/dislike). Explicit signals become labeled training rows;
// clicks and shares only contribute to profile recomputation.
func (t InteractionType) Explicit() bool {
	return t == InteractionLike || t == InteractionDislike
}

// ProfileWeight returns the signed weight the user-profile service applies
// when folding this interaction into the profile embedding.
func (t InteractionType) ProfileWeight() float64 {
	switch t {
	case InteractionLike:
		return 1.0
	case InteractionClick:
		return 0.5
	case InteractionShare:
		return 0.5
	case InteractionDislike:
		return -1.0
	default:
		return 0.0
	}
}

// Interaction records a user reaction. RequestID is optional; when present
// it MUST reference an existing Impression with the same
// (user_id, request_id, article_id) triple — the recorder enforces this
// before insert and reports a structured Conflict on a miss.
type Interaction struct {
	ID        uuid.UUID       `json:"id"`
	UserID    int64           `json:"user_id"`
	ArticleID int64           `json:"article_id"`
	RequestID *string         `json:"request_id,omitempty"`
	Type      InteractionType `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
	DwellMS   *int64          `json:"dwell_ms,omitempty"`
}

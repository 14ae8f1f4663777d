// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package models

import "time"

// Article is a scraped news article. Rows are immutable once ingested
// except for content/embedding refreshes, which bump UpdatedAt.
//
// PublishedAt is nullable: articles without a publish timestamp are
// excluded from feeds entirely. Embedding is nullable until the external
// embedding service has processed the article.
type Article struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Source      string     `json:"source"`
	Category    *string    `json:"category,omitempty"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Embedding   []float32  `json:"-"`
	ImageURL    string     `json:"image_url,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HasEmbedding reports whether the article embedding has been computed.
func (a *Article) HasEmbedding() bool {
	return len(a.Embedding) > 0
}

// User is a feed consumer. Embedding is the profile vector recomputed by
// the external user-profile service; nil means cold start.
// EmbeddingUpdatedAt is set only when the vector value actually changes.
type User struct {
	ID                 int64      `json:"id"`
	Username           string     `json:"username"`
	Embedding          []float32  `json:"-"`
	EmbeddingUpdatedAt *time.Time `json:"embedding_updated_at,omitempty"`
}

// HasProfile reports whether a profile embedding exists for the user.
// Absence is the cold-start signal, not an error condition.
func (u *User) HasProfile() bool {
	return len(u.Embedding) > 0
}

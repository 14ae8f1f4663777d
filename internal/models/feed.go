// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package models

import "time"

// FeedMode distinguishes how a feed response was produced so the caller
// can suppress diversity controls and explanations where they do not apply.
type FeedMode string

const (
	// ModePersonalized is the full retrieval + balancing + rerank path.
	ModePersonalized FeedMode = "personalized"
	// ModeColdStart is the recency fallback for users without a profile.
	ModeColdStart FeedMode = "coldstart"
	// ModeFallbackNoCandidates means a profile exists but retrieval
	// produced nothing inside the recency window.
	ModeFallbackNoCandidates FeedMode = "fallback_no_candidates"
)

// Candidate is an article as seen by the ranking pipeline: article
// metadata plus the retrieval distance to the user profile and the
// embedding needed for pairwise redundancy scoring.
type Candidate struct {
	ArticleID   int64     `json:"article_id"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	Category    string    `json:"category,omitempty"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	ImageURL    string    `json:"image_url,omitempty"`

	// Distance is the cosine distance between the user profile and the
	// article embedding (lower is better).
	Distance float64 `json:"distance"`

	// AgeSeconds is now() - published_at at retrieval time.
	AgeSeconds float64 `json:"age_seconds"`

	Embedding []float32 `json:"-"`
}

// Relevance converts the retrieval distance into a relevance score in
// [0, 1], higher is better.
func (c *Candidate) Relevance() float64 {
	rel := 1.0 - c.Distance
	if rel < 0 {
		return 0
	}
	if rel > 1 {
		return 1
	}
	return rel
}

// HoursSincePublish is the article age in hours at retrieval time, the
// recency feature used by the scoring model.
func (c *Candidate) HoursSincePublish() float64 {
	return c.AgeSeconds / 3600.0
}

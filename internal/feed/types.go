// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

// Package feed implements the personalized feed pipeline: candidate
// retrieval, quota balancing, MMR diversity reranking, and the cold-start
// fallback, plus the service that orchestrates them and writes the
// impression ledger.
package feed

import (
	"context"

	"github.com/tomtom215/newswire/internal/models"
)

// RankedItem is one feed entry after ranking. Rank is the 1-based final
// position. MMRScore, RelScore, and Decomposition are only populated on
// the personalized path; cold-start and fallback items carry position
// only.
type RankedItem struct {
	Candidate     models.Candidate `json:"candidate"`
	Rank          int              `json:"rank"`
	RelScore      float64          `json:"rel_score,omitempty"`
	MMRScore      float64          `json:"mmr_score,omitempty"`
	Decomposition *Decomposition   `json:"decomposition,omitempty"`
}

// Decomposition records why one item was picked at its position: the
// relevance and redundancy terms of the MMR objective plus the repetition
// penalties in effect at selection time. It is returned verbatim to
// clients that ask "why this article".
type Decomposition struct {
	Lambda float64 `json:"lambda"`

	Relevance     float64 `json:"relevance"`
	RelevanceTerm float64 `json:"relevance_term"`

	// Redundancy is the max cosine similarity to any already-selected
	// item; RedundancyTerm is its weighted contribution (negative).
	Redundancy     float64 `json:"redundancy"`
	RedundancyTerm float64 `json:"redundancy_term"`

	// Repetition penalties: how many already-selected items shared this
	// item's source/category, and the per-occurrence gamma weights.
	SourceCount     int     `json:"source_count"`
	CategoryCount   int     `json:"category_count"`
	GammaSource     float64 `json:"gamma_source"`
	GammaCategory   float64 `json:"gamma_category"`
	SourcePenalty   float64 `json:"source_penalty"`
	CategoryPenalty float64 `json:"category_penalty"`

	// CapFallback marks items picked by the pure-relevance fallback after
	// the per-source hard cap blocked every remaining candidate.
	CapFallback bool `json:"cap_fallback,omitempty"`

	Message string `json:"message"`
}

// Reranker orders a candidate pool into the final feed. lambda is the
// relevance weight in [0,1] (1 = pure relevance, 0 = pure
// anti-redundancy); k bounds the result size. Implemented in-process by
// MMR and over HTTP by the remote scoring client.
type Reranker interface {
	Rerank(ctx context.Context, cands []models.Candidate, lambda float64, k int) ([]RankedItem, error)
}

// Feed is one rendered feed response before HTTP shaping.
type Feed struct {
	RequestID string          `json:"request_id"`
	UserID    int64           `json:"user_id"`
	Mode      models.FeedMode `json:"mode"`
	Items     []RankedItem    `json:"items"`
}

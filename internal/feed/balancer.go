// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package feed

import (
	"sort"

	"github.com/tomtom215/newswire/internal/config"
	"github.com/tomtom215/newswire/internal/models"
)

// Balancer trims a retrieved candidate pool to a balanced working set
// before reranking: per-category quotas first, then an optional carve-out
// of slots reserved for configured must-carry sources.
//
// The category cap table is an explicit allowlist. A candidate whose
// category is not in the table is dropped, which is what keeps fringe or
// unmapped categories out of feeds entirely. An empty table disables
// category balancing.
type Balancer struct {
	cfg *config.FeedConfig
}

// NewBalancer creates a balancer over the feed configuration.
func NewBalancer(cfg *config.FeedConfig) *Balancer {
	return &Balancer{cfg: cfg}
}

// Balance applies the quota policy. Candidates must arrive in retrieval
// order (distance ASC, published_at DESC, id ASC); the output preserves
// that order within the main pool, with carve-out picks appended after it.
//
// When the carve-out is enabled its slots are reserved out of max_final,
// so the overall output never exceeds max_final items.
func (b *Balancer) Balance(cands []models.Candidate) []models.Candidate {
	if len(cands) == 0 {
		return nil
	}

	mainCap := b.cfg.MaxFinal
	forcedSlots := 0
	if b.cfg.ForcedSourcesEnabled() {
		forcedSlots = b.cfg.ForcedSlots
		if forcedSlots > mainCap {
			forcedSlots = mainCap
		}
		mainCap -= forcedSlots
	}

	categoryCounts := make(map[string]int, len(b.cfg.CategoryCaps))
	inMain := make(map[int64]bool, mainCap)
	main := make([]models.Candidate, 0, mainCap)

	for i := range cands {
		if len(main) >= mainCap {
			break
		}
		c := &cands[i]
		if len(b.cfg.CategoryCaps) > 0 {
			limit, mapped := b.cfg.CategoryCaps[c.Category]
			if !mapped {
				continue
			}
			if categoryCounts[c.Category] >= limit {
				continue
			}
			categoryCounts[c.Category]++
		}
		main = append(main, *c)
		inMain[c.ArticleID] = true
	}

	if forcedSlots == 0 {
		return main
	}
	return append(main, b.carveOut(cands, inMain, forcedSlots)...)
}

// carveOut picks the best candidates from the configured must-carry
// sources that did not already make the main pool. Selection is by
// retrieval order, i.e. best distance first; the category allowlist does
// not apply inside the carve-out.
func (b *Balancer) carveOut(cands []models.Candidate, inMain map[int64]bool, slots int) []models.Candidate {
	forced := make(map[string]bool, len(b.cfg.ForcedSources))
	for _, s := range b.cfg.ForcedSources {
		forced[s] = true
	}

	out := make([]models.Candidate, 0, slots)
	for i := range cands {
		if len(out) >= slots {
			break
		}
		c := &cands[i]
		if !forced[c.Source] || inMain[c.ArticleID] {
			continue
		}
		out = append(out, *c)
	}
	return out
}

// sortCandidates enforces the canonical candidate order: distance ASC,
// published_at DESC, id ASC. Retrieval already returns this order; the
// cold-start path and tests use it to normalize hand-built pools.
func sortCandidates(cands []models.Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Distance != cands[j].Distance {
			return cands[i].Distance < cands[j].Distance
		}
		if !cands[i].PublishedAt.Equal(cands[j].PublishedAt) {
			return cands[i].PublishedAt.After(cands[j].PublishedAt)
		}
		return cands[i].ArticleID < cands[j].ArticleID
	})
}

// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package feed

import (
	"context"
	"fmt"
	"math"

	"github.com/tomtom215/newswire/internal/models"
)

// maxRerankSize limits slice allocations to prevent excessive memory usage.
// This is a defense-in-depth measure; k is also bounded by len(cands).
const maxRerankSize = 10000

// Penalty and hard-cap parameters derive from the diversity pressure
// d = 1 - lambda: soft repetition penalties grow with d while the
// per-source hard cap tightens from 15 down to its floor of 5.
const (
	gammaSourceSlope   = 0.08
	gammaCategorySlope = 0.05
	sourceCapBase      = 15.0
	sourceCapSlope     = 10.0
	sourceCapFloor     = 5
)

// MMR implements Maximal Marginal Relevance reranking over candidate
// embeddings, extended with source/category repetition penalties and a
// per-source hard cap.
//
// The objective for an unselected candidate i is:
//
//	lambda * rel(i) - (1-lambda) * max(sim(i, s)) - gs*srcCount - gc*catCount
//
// where rel is the retrieval relevance, sim is cosine similarity to each
// already-selected item s, and srcCount/catCount are how many selected
// items share i's source/category. Ties resolve to the lower original
// rank so equal scores preserve retrieval order.
//
// Reference:
// Carbonell, J., & Goldstein, J. (1998). "The Use of MMR, Diversity-Based
// Reranking for Reordering Documents and Producing Summaries." SIGIR 1998.
type MMR struct{}

// NewMMR creates the in-process reranker.
func NewMMR() *MMR {
	return &MMR{}
}

// QuantizeLambda clamps lambda to [0,1] and rounds it to 0.1 steps, so
// cache keys and decompositions only ever see eleven distinct settings.
func QuantizeLambda(lambda float64) float64 {
	if math.IsNaN(lambda) || lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	return math.Round(lambda*10) / 10
}

// Rerank selects up to k items by greedy MMR. Candidates are expected in
// retrieval order (best distance first); the quantized lambda is recorded
// in every decomposition.
func (m *MMR) Rerank(ctx context.Context, cands []models.Candidate, lambda float64, k int) ([]RankedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(cands) == 0 || k <= 0 {
		return nil, nil
	}
	if k > maxRerankSize {
		k = maxRerankSize
	}
	if k > len(cands) {
		k = len(cands)
	}

	lambda = QuantizeLambda(lambda)
	if lambda >= 1.0 {
		return pureRelevance(cands, k), nil
	}

	d := 1.0 - lambda
	gammaSource := gammaSourceSlope * d
	gammaCategory := gammaCategorySlope * d
	sourceCap := int(math.Round(sourceCapBase - sourceCapSlope*d))
	if sourceCap < sourceCapFloor {
		sourceCap = sourceCapFloor
	}

	selected := make([]RankedItem, 0, k)
	picked := make([]bool, len(cands))
	sourceCounts := make(map[string]int)
	categoryCounts := make(map[string]int)
	// maxSims[i] is the running max similarity of candidate i to the
	// selected set; updating it per pick keeps the loop O(n*k) instead of
	// materializing the full pairwise matrix.
	maxSims := make([]float64, len(cands))

	for len(selected) < k {
		bestIdx := -1
		bestScore := math.Inf(-1)
		allBlocked := true

		for i := range cands {
			if picked[i] {
				continue
			}
			if sourceCounts[cands[i].Source] >= sourceCap {
				continue
			}
			allBlocked = false

			rel := cands[i].Relevance()
			score := lambda*rel -
				d*maxSims[i] -
				gammaSource*float64(sourceCounts[cands[i].Source]) -
				gammaCategory*float64(categoryCounts[cands[i].Category])
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		capFallback := false
		if allBlocked {
			// Every remaining candidate sits behind the hard cap. Rather
			// than truncate the feed, fall back to pure relevance among
			// the remainder.
			capFallback = true
			bestRel := math.Inf(-1)
			for i := range cands {
				if picked[i] {
					continue
				}
				if rel := cands[i].Relevance(); rel > bestRel {
					bestRel = rel
					bestIdx = i
				}
			}
		}
		if bestIdx < 0 {
			break
		}

		c := &cands[bestIdx]
		rel := c.Relevance()
		dec := &Decomposition{
			Lambda:          lambda,
			Relevance:       rel,
			RelevanceTerm:   lambda * rel,
			Redundancy:      maxSims[bestIdx],
			RedundancyTerm:  -d * maxSims[bestIdx],
			SourceCount:     sourceCounts[c.Source],
			CategoryCount:   categoryCounts[c.Category],
			GammaSource:     gammaSource,
			GammaCategory:   gammaCategory,
			SourcePenalty:   -gammaSource * float64(sourceCounts[c.Source]),
			CategoryPenalty: -gammaCategory * float64(categoryCounts[c.Category]),
			CapFallback:     capFallback,
		}
		dec.Message = describePick(dec)

		selected = append(selected, RankedItem{
			Candidate:     *c,
			Rank:          len(selected) + 1,
			RelScore:      rel,
			MMRScore:      dec.RelevanceTerm + dec.RedundancyTerm + dec.SourcePenalty + dec.CategoryPenalty,
			Decomposition: dec,
		})
		picked[bestIdx] = true
		sourceCounts[c.Source]++
		categoryCounts[c.Category]++

		for i := range cands {
			if picked[i] {
				continue
			}
			if sim := cosineSimilarity(cands[i].Embedding, c.Embedding); sim > maxSims[i] {
				maxSims[i] = sim
			}
		}
	}

	return selected, nil
}

// pureRelevance is the lambda=1 fast path: retrieval order is already
// relevance order, so the top k pass through untouched.
func pureRelevance(cands []models.Candidate, k int) []RankedItem {
	out := make([]RankedItem, 0, k)
	for i := 0; i < k; i++ {
		rel := cands[i].Relevance()
		dec := &Decomposition{
			Lambda:        1.0,
			Relevance:     rel,
			RelevanceTerm: rel,
		}
		dec.Message = describePick(dec)
		out = append(out, RankedItem{
			Candidate:     cands[i],
			Rank:          i + 1,
			RelScore:      rel,
			MMRScore:      rel,
			Decomposition: dec,
		})
	}
	return out
}

// describePick renders the dominant scoring driver as human-readable text.
func describePick(d *Decomposition) string {
	switch {
	case d.CapFallback:
		return "source cap blocked all remaining candidates; picked by relevance"
	case d.Redundancy == 0 && d.SourceCount == 0 && d.CategoryCount == 0:
		return fmt.Sprintf("picked on relevance %.3f with no redundancy or repetition", d.Relevance)
	case -d.RedundancyTerm >= -(d.SourcePenalty + d.CategoryPenalty):
		return fmt.Sprintf("relevance %.3f discounted for similarity %.3f to earlier picks", d.Relevance, d.Redundancy)
	default:
		return fmt.Sprintf("relevance %.3f discounted for repeating source (%d) / category (%d)",
			d.Relevance, d.SourceCount, d.CategoryCount)
	}
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or empty vectors score 0 rather than erroring: a candidate
// with a malformed embedding should not sink the whole request.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ Reranker = (*MMR)(nil)

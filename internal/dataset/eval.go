// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package dataset

import (
	"math"
	"sort"
)

// Judgment is one scored row for grouped ranking evaluation: the score a
// ranking produced for an article and the label the user assigned it.
// Rows sharing a RequestID belong to one feed render.
type Judgment struct {
	RequestID string
	Score     float64
	Label     int
}

// JudgmentsFromExamples adapts dataset rows for evaluation using the
// cosine similarity feature as the ranking score. Rows without a request
// id cannot be grouped and are skipped.
func JudgmentsFromExamples(examples []Example) []Judgment {
	out := make([]Judgment, 0, len(examples))
	for _, ex := range examples {
		if ex.RequestID == "" {
			continue
		}
		out = append(out, Judgment{
			RequestID: ex.RequestID,
			Score:     ex.CosineSimilarity,
			Label:     ex.Label,
		})
	}
	return out
}

// PrecisionAtK returns the mean fraction of positive labels in the top k
// of each request group. Groups smaller than k are evaluated over their
// full size. Returns 0 when there are no groups.
func PrecisionAtK(js []Judgment, k int) float64 {
	if k <= 0 {
		return 0
	}
	groups := groupByRequest(js)
	if len(groups) == 0 {
		return 0
	}

	var sum float64
	for _, g := range groups {
		n := k
		if n > len(g) {
			n = len(g)
		}
		hits := 0
		for i := 0; i < n; i++ {
			if g[i].Label > 0 {
				hits++
			}
		}
		sum += float64(hits) / float64(n)
	}
	return sum / float64(len(groups))
}

// NDCGAtK returns the mean normalized discounted cumulative gain at k
// over request groups. Groups with no positive label contribute 0.
func NDCGAtK(js []Judgment, k int) float64 {
	if k <= 0 {
		return 0
	}
	groups := groupByRequest(js)
	if len(groups) == 0 {
		return 0
	}

	var sum float64
	for _, g := range groups {
		n := k
		if n > len(g) {
			n = len(g)
		}

		var dcg float64
		for i := 0; i < n; i++ {
			if g[i].Label > 0 {
				dcg += 1.0 / math.Log2(float64(i)+2)
			}
		}

		positives := 0
		for _, j := range g {
			if j.Label > 0 {
				positives++
			}
		}
		if positives > n {
			positives = n
		}
		var ideal float64
		for i := 0; i < positives; i++ {
			ideal += 1.0 / math.Log2(float64(i)+2)
		}

		if ideal > 0 {
			sum += dcg / ideal
		}
	}
	return sum / float64(len(groups))
}

// groupByRequest buckets judgments by request id, each bucket sorted by
// score descending (stable, so equal scores keep input order).
func groupByRequest(js []Judgment) map[string][]Judgment {
	groups := make(map[string][]Judgment)
	for _, j := range js {
		if j.RequestID == "" {
			continue
		}
		groups[j.RequestID] = append(groups[j.RequestID], j)
	}
	for id := range groups {
		g := groups[id]
		sort.SliceStable(g, func(a, b int) bool { return g[a].Score > g[b].Score })
		groups[id] = g
	}
	return groups
}

// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/newswire/internal/feed"
	"github.com/tomtom215/newswire/internal/models"
)

// Reranker calls the external scoring service instead of the in-process
// MMR pass. It satisfies the same contract, so the feed service can be
// wired with either without caring which one ranks.
type Reranker struct {
	base   string
	caller *caller
}

// NewReranker creates the remote reranker client. base is the service
// root URL, e.g. "http://ranker:9000".
func NewReranker(base string, timeout time.Duration) *Reranker {
	return &Reranker{
		base:   strings.TrimRight(base, "/"),
		caller: newCaller("rerank", timeout),
	}
}

// rerankCandidate is the request wire shape. The embedding is hidden on
// the feed-response path but the scoring service needs it for pairwise
// redundancy, so it is surfaced here explicitly.
type rerankCandidate struct {
	models.Candidate
	Embedding []float32 `json:"embedding"`
}

type rerankRequest struct {
	Candidates []rerankCandidate `json:"candidates"`
	Lambda     float64           `json:"lambda"`
	K          int               `json:"k"`
}

type rerankResponse struct {
	Items []feed.RankedItem `json:"items"`
}

// Rerank posts the candidate pool to the scoring service and returns its
// ordering. Any failure surfaces as models.ErrUnavailable.
func (r *Reranker) Rerank(ctx context.Context, cands []models.Candidate, lambda float64, k int) ([]feed.RankedItem, error) {
	if len(cands) == 0 || k <= 0 {
		return []feed.RankedItem{}, nil
	}

	wire := make([]rerankCandidate, len(cands))
	for i, c := range cands {
		wire[i] = rerankCandidate{Candidate: c, Embedding: c.Embedding}
	}

	var resp rerankResponse
	req := rerankRequest{Candidates: wire, Lambda: lambda, K: k}
	if err := r.caller.postJSON(ctx, r.base+"/rerank", req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Items) > len(cands) {
		return nil, fmt.Errorf("%w: rerank returned %d items for %d candidates",
			models.ErrUnavailable, len(resp.Items), len(cands))
	}
	return resp.Items, nil
}

var _ feed.Reranker = (*Reranker)(nil)

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

	"github.com/tomtom215/newswire/internal/models"
)

// ProfileClient triggers user-profile recomputation on the external
// profile service after new interactions arrive. The recompute itself
// (interaction-weighted embedding updates) lives entirely on the remote
// side; this client only delivers the trigger with the signal weight.
type ProfileClient struct {
	base   string
	caller *caller
}

// NewProfileClient creates the profile recompute client.
func NewProfileClient(base string, timeout time.Duration) *ProfileClient {
	return &ProfileClient{
		base:   strings.TrimRight(base, "/"),
		caller: newCaller("profile", timeout),
	}
}

type recomputeRequest struct {
	ArticleID int64   `json:"article_id"`
	Type      string  `json:"type"`
	Weight    float64 `json:"weight"`
}

// Recompute asks the profile service to fold one interaction into the
// user's profile embedding. The ack carries no body worth decoding.
func (p *ProfileClient) Recompute(ctx context.Context, userID int64, articleID int64, typ models.InteractionType) error {
	req := recomputeRequest{
		ArticleID: articleID,
		Type:      string(typ),
		Weight:    typ.ProfileWeight(),
	}
	url := fmt.Sprintf("%s/users/%d/recompute", p.base, userID)
	return p.caller.postJSON(ctx, url, req, nil)
}

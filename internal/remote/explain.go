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

	"golang.org/x/time/rate"

	"github.com/tomtom215/newswire/internal/models"
)

// ExplainClient requests attribution payloads from the external
// explanation generator. Generation is expensive (the remote runs a
// model pass per article), so calls are rate limited client-side on top
// of the circuit breaker.
type ExplainClient struct {
	base    string
	caller  *caller
	limiter *rate.Limiter
}

// NewExplainClient creates the explanation client. perSecond bounds
// outbound generation requests; zero or negative disables the limit.
func NewExplainClient(base string, timeout time.Duration, perSecond float64) *ExplainClient {
	var limiter *rate.Limiter
	if perSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return &ExplainClient{
		base:    strings.TrimRight(base, "/"),
		caller:  newCaller("explain", timeout),
		limiter: limiter,
	}
}

type explainRequest struct {
	ArticleID    int64  `json:"article_id"`
	Method       string `json:"method"`
	ModelVersion string `json:"model_version"`
}

// Generate asks the remote to produce an explanation for an article under
// the given method and model version. Blocks on the rate limiter, so pass
// a context with a deadline.
func (e *ExplainClient) Generate(ctx context.Context, articleID int64, method models.ExplanationMethod, modelVersion string) (*models.Explanation, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unknown explanation method %q", models.ErrValidation, method)
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: explain rate limit wait: %v", models.ErrUnavailable, err)
		}
	}

	req := explainRequest{
		ArticleID:    articleID,
		Method:       string(method),
		ModelVersion: modelVersion,
	}
	var exp models.Explanation
	if err := e.caller.postJSON(ctx, e.base+"/explain", req, &exp); err != nil {
		return nil, err
	}

	// Remote responses may omit key fields; fill them from the request so
	// the caller can persist the row under the right uniqueness key.
	if exp.ArticleID == 0 {
		exp.ArticleID = articleID
	}
	if exp.Method == "" {
		exp.Method = method
	}
	if exp.ModelVersion == "" {
		exp.ModelVersion = modelVersion
	}
	if exp.GeneratedAt.IsZero() {
		exp.GeneratedAt = time.Now().UTC()
	}
	return &exp, nil
}

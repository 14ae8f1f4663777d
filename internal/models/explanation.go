// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// ExplanationMethod identifies the attribution technique used by the
// external explanation service.
type ExplanationMethod string

const (
	ExplainSHAP ExplanationMethod = "shap"
	ExplainLIME ExplanationMethod = "lime"
)

// Valid reports whether the method is one of the defined enum values.
func (m ExplanationMethod) Valid() bool {
	return m == ExplainSHAP || m == ExplainLIME
}

// Explanation is a lazily generated relevance/diversity attribution for an
// article, keyed uniquely by (article, method, model version). The core
// only reads it to render "why" text; it never computes attributions.
type Explanation struct {
	ArticleID    int64             `json:"article_id"`
	Method       ExplanationMethod `json:"method"`
	ModelVersion string            `json:"model_version"`
	Payload      json.RawMessage   `json:"payload"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

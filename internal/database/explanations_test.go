// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package database

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/newswire/internal/models"
)

func TestExplanationRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	payload := json.RawMessage(`{"features":{"cosine_similarity":0.8}}`)
	e := &models.Explanation{
		ArticleID:    1,
		Method:       models.ExplainSHAP,
		ModelVersion: "v3",
		Payload:      payload,
		GeneratedAt:  time.Now().UTC(),
	}
	if err := db.PutExplanation(ctx, e); err != nil {
		t.Fatalf("PutExplanation error: %v", err)
	}

	got, err := db.GetExplanation(ctx, 1, models.ExplainSHAP, "v3")
	if err != nil {
		t.Fatalf("GetExplanation error: %v", err)
	}
	if string(got.Payload) != string(payload) {
		t.Errorf("payload = %s, want %s", got.Payload, payload)
	}

	// Different model version is a distinct key.
	if _, err := db.GetExplanation(ctx, 1, models.ExplainSHAP, "v4"); !models.IsNotFound(err) {
		t.Errorf("v4 error = %v, want ErrNotFound", err)
	}
	// Different method likewise.
	if _, err := db.GetExplanation(ctx, 1, models.ExplainLIME, "v3"); !models.IsNotFound(err) {
		t.Errorf("lime error = %v, want ErrNotFound", err)
	}
}

func TestPutExplanation_FirstWriterWins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := &models.Explanation{
		ArticleID: 1, Method: models.ExplainSHAP, ModelVersion: "v3",
		Payload: json.RawMessage(`{"v":1}`), GeneratedAt: time.Now().UTC(),
	}
	second := &models.Explanation{
		ArticleID: 1, Method: models.ExplainSHAP, ModelVersion: "v3",
		Payload: json.RawMessage(`{"v":2}`), GeneratedAt: time.Now().UTC(),
	}
	if err := db.PutExplanation(ctx, first); err != nil {
		t.Fatalf("first put error: %v", err)
	}
	if err := db.PutExplanation(ctx, second); err != nil {
		t.Fatalf("racing put error: %v", err)
	}

	got, err := db.GetExplanation(ctx, 1, models.ExplainSHAP, "v3")
	if err != nil {
		t.Fatalf("GetExplanation error: %v", err)
	}
	if string(got.Payload) != `{"v":1}` {
		t.Errorf("payload = %s, want the first writer's", got.Payload)
	}
}

func TestPutExplanation_UnknownMethod(t *testing.T) {
	db := newTestDB(t)
	e := &models.Explanation{ArticleID: 1, Method: "gradcam", ModelVersion: "v3",
		Payload: json.RawMessage(`{}`), GeneratedAt: time.Now().UTC()}
	if err := db.PutExplanation(context.Background(), e); !models.IsValidation(err) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

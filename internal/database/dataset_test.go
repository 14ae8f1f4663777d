// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package database

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/newswire/internal/models"
)

func recordImpressionAt(t *testing.T, db *DB, userID, articleID int64, requestID string, shownAt time.Time) {
	t.Helper()
	err := db.RecordImpressions(context.Background(), []models.Impression{{
		ID: uuid.New(), UserID: userID, ArticleID: articleID,
		ShownAt: shownAt, Position: 1, Surface: models.SurfaceFeed, RequestID: requestID,
	}})
	if err != nil {
		t.Fatalf("RecordImpressions error: %v", err)
	}
}

func recordInteractionAt(t *testing.T, db *DB, userID, articleID int64, requestID string, typ models.InteractionType, at time.Time) {
	t.Helper()
	in := &models.Interaction{
		ID: uuid.New(), UserID: userID, ArticleID: articleID,
		Type: typ, CreatedAt: at,
	}
	if requestID != "" {
		in.RequestID = &requestID
	}
	if err := db.RecordInteraction(context.Background(), in); err != nil {
		t.Fatalf("RecordInteraction error: %v", err)
	}
}

func TestExplicitEvents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	mustUser(t, db, 1, []float32{1, 0, 0, 0})
	mustArticle(t, db, 10, "reuters", "politics", now.Add(-4*time.Hour), []float32{1, 0, 0, 0})
	mustArticle(t, db, 11, "bbc", "economy", now.Add(-6*time.Hour), []float32{0, 1, 0, 0})

	recordImpressionAt(t, db, 1, 10, "req-1", now.Add(-2*time.Hour))
	recordImpressionAt(t, db, 1, 11, "req-1", now.Add(-2*time.Hour))
	recordInteractionAt(t, db, 1, 10, "req-1", models.InteractionLike, now.Add(-1*time.Hour))
	recordInteractionAt(t, db, 1, 11, "req-1", models.InteractionDislike, now.Add(-30*time.Minute))
	// Clicks are implicit signals, never explicit rows.
	recordInteractionAt(t, db, 1, 10, "", models.InteractionClick, now)

	events, err := db.ExplicitEvents(ctx)
	if err != nil {
		t.Fatalf("ExplicitEvents error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}

	byArticle := map[int64]TrainingEvent{}
	for _, ev := range events {
		byArticle[ev.ArticleID] = ev
	}

	like := byArticle[10]
	if like.Label != 1 {
		t.Errorf("like label = %d, want 1", like.Label)
	}
	if like.RequestID != "req-1" {
		t.Errorf("like request_id = %q, want req-1", like.RequestID)
	}
	if math.Abs(like.CosineSimilarity-1.0) > 1e-5 {
		t.Errorf("aligned cosine = %f, want ~1", like.CosineSimilarity)
	}
	// Shown 2h after a 4h-old publish: feature is age at impression time.
	if math.Abs(like.HoursSincePublish-2.0) > 0.1 {
		t.Errorf("hours_since_publish = %f, want ~2", like.HoursSincePublish)
	}
	if like.Source != "reuters" || like.Category != "politics" {
		t.Errorf("features = %q/%q, want reuters/politics", like.Source, like.Category)
	}

	dislike := byArticle[11]
	if dislike.Label != 0 {
		t.Errorf("dislike label = %d, want 0", dislike.Label)
	}
	if math.Abs(dislike.CosineSimilarity) > 1e-5 {
		t.Errorf("orthogonal cosine = %f, want ~0", dislike.CosineSimilarity)
	}
}

func TestExplicitEvents_JoinsLatestImpressionBeforeInteraction(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	mustUser(t, db, 1, []float32{1, 0, 0, 0})
	mustArticle(t, db, 10, "reuters", "politics", now.Add(-24*time.Hour), []float32{1, 0, 0, 0})

	// Shown three times; the like (no request id) lands between the second
	// and third render, so the second impression is the joined one.
	recordImpressionAt(t, db, 1, 10, "req-1", now.Add(-6*time.Hour))
	recordImpressionAt(t, db, 1, 10, "req-2", now.Add(-4*time.Hour))
	recordInteractionAt(t, db, 1, 10, "", models.InteractionLike, now.Add(-3*time.Hour))
	recordImpressionAt(t, db, 1, 10, "req-3", now.Add(-1*time.Hour))

	events, err := db.ExplicitEvents(ctx)
	if err != nil {
		t.Fatalf("ExplicitEvents error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].RequestID != "req-2" {
		t.Errorf("joined request = %q, want req-2 (latest at or before the like)", events[0].RequestID)
	}
	// Published 24h before now, shown at -4h: 20h old at impression time.
	if math.Abs(events[0].HoursSincePublish-20.0) > 0.1 {
		t.Errorf("hours_since_publish = %f, want ~20", events[0].HoursSincePublish)
	}
}

func TestImplicitEvents_OnlyUnjudgedImpressions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	mustUser(t, db, 1, []float32{1, 0, 0, 0})
	mustArticle(t, db, 10, "reuters", "politics", now.Add(-4*time.Hour), []float32{1, 0, 0, 0})
	mustArticle(t, db, 11, "bbc", "economy", now.Add(-4*time.Hour), []float32{0, 1, 0, 0})
	mustArticle(t, db, 12, "apnews", "sports", now.Add(-4*time.Hour), []float32{0, 0, 1, 0})

	recordImpressionAt(t, db, 1, 10, "req-1", now.Add(-2*time.Hour))
	recordImpressionAt(t, db, 1, 11, "req-1", now.Add(-2*time.Hour))
	recordImpressionAt(t, db, 1, 12, "req-1", now.Add(-2*time.Hour))
	// A like disqualifies the pair; a click is still only an implicit
	// signal and leaves the impression in the negative pool.
	recordInteractionAt(t, db, 1, 10, "req-1", models.InteractionLike, now.Add(-1*time.Hour))
	recordInteractionAt(t, db, 1, 11, "", models.InteractionClick, now.Add(-1*time.Hour))

	events, err := db.ImplicitEvents(ctx)
	if err != nil {
		t.Fatalf("ImplicitEvents error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 (clicked + untouched)", len(events))
	}
	seen := map[int64]bool{}
	for _, ev := range events {
		seen[ev.ArticleID] = true
		if ev.Label != 0 {
			t.Errorf("implicit label = %d, want 0", ev.Label)
		}
		if !ev.EventTime.Equal(now.Add(-2 * time.Hour)) {
			t.Errorf("event time = %v, want impression time", ev.EventTime)
		}
	}
	if seen[10] || !seen[11] || !seen[12] {
		t.Errorf("implicit articles = %v, want 11 and 12 only", seen)
	}
}

func TestTrainingEvents_RequireEmbeddings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	// User has no profile: neither class can compute the cosine feature.
	mustUser(t, db, 1, nil)
	mustArticle(t, db, 10, "reuters", "politics", now.Add(-4*time.Hour), []float32{1, 0, 0, 0})
	recordImpressionAt(t, db, 1, 10, "req-1", now.Add(-2*time.Hour))
	recordInteractionAt(t, db, 1, 10, "req-1", models.InteractionLike, now.Add(-1*time.Hour))

	explicit, err := db.ExplicitEvents(ctx)
	if err != nil {
		t.Fatalf("ExplicitEvents error: %v", err)
	}
	implicit, err := db.ImplicitEvents(ctx)
	if err != nil {
		t.Fatalf("ImplicitEvents error: %v", err)
	}
	if len(explicit) != 0 || len(implicit) != 0 {
		t.Errorf("events = %d/%d for profileless user, want 0/0", len(explicit), len(implicit))
	}
}

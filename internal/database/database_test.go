// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/newswire/internal/config"
	"github.com/tomtom215/newswire/internal/models"
)

const testDim = 4

// newTestDB creates an in-memory database with a small embedding
// dimension so test vectors stay readable.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{
		Path:         ":memory:",
		MaxMemory:    "512MB",
		EmbeddingDim: testDim,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})
	return db
}

func mustArticle(t *testing.T, db *DB, id int64, source, category string, publishedAt time.Time, embedding []float32) {
	t.Helper()
	a := &models.Article{
		ID:          id,
		Title:       "article",
		Source:      source,
		URL:         "https://example.com/a",
		PublishedAt: &publishedAt,
		Embedding:   embedding,
	}
	if category != "" {
		a.Category = &category
	}
	if err := db.UpsertArticle(context.Background(), a); err != nil {
		t.Fatalf("UpsertArticle(%d) error: %v", id, err)
	}
}

func mustUser(t *testing.T, db *DB, id int64, embedding []float32) {
	t.Helper()
	ctx := context.Background()
	if err := db.UpsertUser(ctx, &models.User{ID: id, Username: "u"}); err != nil {
		t.Fatalf("UpsertUser(%d) error: %v", id, err)
	}
	if embedding != nil {
		if err := db.UpdateUserEmbedding(ctx, id, embedding); err != nil {
			t.Fatalf("UpdateUserEmbedding(%d) error: %v", id, err)
		}
	}
}

func mustImpressions(t *testing.T, db *DB, userID int64, requestID string, articleIDs ...int64) {
	t.Helper()
	batch := make([]models.Impression, len(articleIDs))
	for i, id := range articleIDs {
		batch[i] = models.Impression{
			ID:        uuid.New(),
			UserID:    userID,
			ArticleID: id,
			ShownAt:   time.Now().UTC(),
			Position:  i + 1,
			Surface:   models.SurfaceFeed,
			RequestID: requestID,
		}
	}
	if err := db.RecordImpressions(context.Background(), batch); err != nil {
		t.Fatalf("RecordImpressions error: %v", err)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}

func TestArticleRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	published := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mustArticle(t, db, 1, "reuters", "politics", published, []float32{1, 0, 0, 0})

	a, err := db.GetArticle(ctx, 1)
	if err != nil {
		t.Fatalf("GetArticle error: %v", err)
	}
	if a.Source != "reuters" {
		t.Errorf("source = %q, want reuters", a.Source)
	}
	if a.Category == nil || *a.Category != "politics" {
		t.Errorf("category = %v, want politics", a.Category)
	}
	if len(a.Embedding) != testDim {
		t.Errorf("embedding dims = %d, want %d", len(a.Embedding), testDim)
	}
	if !a.PublishedAt.Equal(published) {
		t.Errorf("published_at = %v, want %v", a.PublishedAt, published)
	}
}

func TestGetArticle_NotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.GetArticle(context.Background(), 404); !models.IsNotFound(err) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpsertArticle_RefreshKeepsEmbedding(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	published := time.Now().UTC()

	mustArticle(t, db, 1, "bbc", "sports", published, []float32{0, 1, 0, 0})
	// Metadata refresh without an embedding must not drop the vector.
	mustArticle(t, db, 1, "bbc", "sports", published, nil)

	a, err := db.GetArticle(ctx, 1)
	if err != nil {
		t.Fatalf("GetArticle error: %v", err)
	}
	if !a.HasEmbedding() {
		t.Error("metadata refresh dropped the stored embedding")
	}
}

func TestUpsertArticle_RefreshReplacesEmbedding(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	published := time.Now().UTC()

	mustArticle(t, db, 1, "bbc", "sports", published, []float32{0, 1, 0, 0})
	mustArticle(t, db, 1, "bbc", "sports", published, []float32{0, 0, 1, 0})

	a, err := db.GetArticle(ctx, 1)
	if err != nil {
		t.Fatalf("GetArticle error: %v", err)
	}
	if len(a.Embedding) != testDim || a.Embedding[2] != 1 {
		t.Errorf("embedding = %v, want replacement vector", a.Embedding)
	}
}

func TestUpsertArticle_WrongDimension(t *testing.T) {
	db := newTestDB(t)
	published := time.Now().UTC()
	a := &models.Article{
		ID: 1, Title: "t", Source: "s", URL: "u",
		PublishedAt: &published,
		Embedding:   []float32{1, 2},
	}
	if err := db.UpsertArticle(context.Background(), a); !models.IsValidation(err) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestUserProfile_ColdStartThenUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	mustUser(t, db, 7, nil)
	u, err := db.GetUser(ctx, 7)
	if err != nil {
		t.Fatalf("GetUser error: %v", err)
	}
	if u.HasProfile() {
		t.Error("new user must start without a profile")
	}
	if u.EmbeddingUpdatedAt != nil {
		t.Error("embedding_updated_at must be nil before first profile write")
	}

	if err := db.UpdateUserEmbedding(ctx, 7, []float32{0.5, 0.5, 0.5, 0.5}); err != nil {
		t.Fatalf("UpdateUserEmbedding error: %v", err)
	}
	u, err = db.GetUser(ctx, 7)
	if err != nil {
		t.Fatalf("GetUser error: %v", err)
	}
	if !u.HasProfile() {
		t.Error("profile missing after update")
	}
	if u.EmbeddingUpdatedAt == nil {
		t.Error("embedding_updated_at not set after profile write")
	}
}

func TestUpdateUserEmbedding_UnchangedVectorKeepsTimestamp(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	vec := []float32{1, 0, 0, 0}

	mustUser(t, db, 1, vec)
	u1, err := db.GetUser(ctx, 1)
	if err != nil {
		t.Fatalf("GetUser error: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if err := db.UpdateUserEmbedding(ctx, 1, vec); err != nil {
		t.Fatalf("UpdateUserEmbedding error: %v", err)
	}
	u2, err := db.GetUser(ctx, 1)
	if err != nil {
		t.Fatalf("GetUser error: %v", err)
	}
	if !u2.EmbeddingUpdatedAt.Equal(*u1.EmbeddingUpdatedAt) {
		t.Errorf("timestamp moved on unchanged vector: %v -> %v",
			u1.EmbeddingUpdatedAt, u2.EmbeddingUpdatedAt)
	}
}

func TestSeedMockData(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.SeedMockData(ctx, 20, 6); err != nil {
		t.Fatalf("SeedMockData error: %v", err)
	}
	// Idempotent on rerun.
	if err := db.SeedMockData(ctx, 20, 6); err != nil {
		t.Fatalf("SeedMockData rerun error: %v", err)
	}

	a, err := db.GetArticle(ctx, 1)
	if err != nil {
		t.Fatalf("GetArticle error: %v", err)
	}
	if !a.HasEmbedding() {
		t.Error("seeded article has no embedding")
	}
}

// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package models

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestInteractionType_Valid(t *testing.T) {
	tests := []struct {
		typ  InteractionType
		want bool
	}{
		{InteractionClick, true},
		{InteractionLike, true},
		{InteractionDislike, true},
		{InteractionShare, true},
		{InteractionType("view"), false},
		{InteractionType(""), false},
		{InteractionType("LIKE"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			if got := tt.typ.Valid(); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}

func TestInteractionType_Explicit(t *testing.T) {
	if !InteractionLike.Explicit() || !InteractionDislike.Explicit() {
		t.Error("like/dislike must be explicit signals")
	}
	if InteractionClick.Explicit() || InteractionShare.Explicit() {
		t.Error("click/share must not be explicit signals")
	}
}

func TestInteractionType_ProfileWeight(t *testing.T) {
	if w := InteractionLike.ProfileWeight(); w != 1.0 {
		t.Errorf("like weight = %f, want 1.0", w)
	}
	if w := InteractionDislike.ProfileWeight(); w != -1.0 {
		t.Errorf("dislike weight = %f, want -1.0", w)
	}
	if w := InteractionClick.ProfileWeight(); w != 0.5 {
		t.Errorf("click weight = %f, want 0.5", w)
	}
}

func TestSurface_Valid(t *testing.T) {
	for _, s := range []Surface{SurfaceFeed, SurfaceSearch, SurfaceRelated, SurfaceNotification} {
		if !s.Valid() {
			t.Errorf("Surface(%q).Valid() = false, want true", s)
		}
	}
	if Surface("homepage").Valid() {
		t.Error("unknown surface must be invalid")
	}
}

func TestCandidate_Relevance(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		want     float64
	}{
		{"perfect match", 0.0, 1.0},
		{"typical distance", 0.3, 0.7},
		{"max distance", 1.0, 0.0},
		{"distance above one clamps to zero", 1.4, 0.0},
		{"negative distance clamps to one", -0.1, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Candidate{Distance: tt.distance}
			if got := c.Relevance(); got != tt.want {
				t.Errorf("Relevance() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestCandidate_HoursSincePublish(t *testing.T) {
	c := Candidate{AgeSeconds: 7200}
	if got := c.HoursSincePublish(); got != 2.0 {
		t.Errorf("HoursSincePublish() = %f, want 2.0", got)
	}
}

func TestConflictError_Unwrap(t *testing.T) {
	err := fmt.Errorf("recording interaction: %w", &ConflictError{
		Reason:    "no impression for triple",
		UserID:    7,
		RequestID: "req-1",
		ArticleID: 42,
	})

	if !errors.Is(err, ErrConflict) {
		t.Error("wrapped ConflictError must match ErrConflict")
	}
	if !IsConflict(err) {
		t.Error("IsConflict() must be true for wrapped ConflictError")
	}

	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatal("errors.As failed to extract ConflictError")
	}
	if ce.ArticleID != 42 {
		t.Errorf("ArticleID = %d, want 42", ce.ArticleID)
	}
}

func TestErrorClassifiers(t *testing.T) {
	if !IsValidation(fmt.Errorf("user id: %w", ErrValidation)) {
		t.Error("IsValidation failed on wrapped sentinel")
	}
	if !IsUnavailable(fmt.Errorf("store: %w", ErrUnavailable)) {
		t.Error("IsUnavailable failed on wrapped sentinel")
	}
	if IsConflict(errors.New("plain")) {
		t.Error("plain error must not classify as conflict")
	}
}

func TestUser_HasProfile(t *testing.T) {
	u := User{ID: 1, Username: "alice"}
	if u.HasProfile() {
		t.Error("user without embedding must not have a profile")
	}
	u.Embedding = []float32{0.1, 0.2}
	if !u.HasProfile() {
		t.Error("user with embedding must have a profile")
	}
}

func TestArticle_HasEmbedding(t *testing.T) {
	now := time.Now()
	a := Article{ID: 1, PublishedAt: &now}
	if a.HasEmbedding() {
		t.Error("article without vector must report no embedding")
	}
	a.Embedding = make([]float32, 384)
	if !a.HasEmbedding() {
		t.Error("article with vector must report embedding")
	}
}

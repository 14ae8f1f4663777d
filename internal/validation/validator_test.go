// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/newswire/internal/models"
)

type interactionRequest struct {
	UserID    int64   `validate:"required,gt=0"`
	ArticleID int64   `validate:"required,gt=0"`
	RequestID string  `validate:"omitempty,uuid"`
	Type      string  `validate:"required,oneof=click like dislike share"`
	DwellMS   *int64  `validate:"omitempty,gte=0"`
	Diversity float64 `validate:"gte=0,lte=1"`
}

func TestValidateStruct_Valid(t *testing.T) {
	req := interactionRequest{
		UserID:    1,
		ArticleID: 42,
		RequestID: "0f8fad5b-d9cb-469f-a165-70867728950e",
		Type:      "like",
		Diversity: 0.5,
	}
	if err := ValidateStruct(&req); err != nil {
		t.Fatalf("valid struct rejected: %v", err)
	}
}

func TestValidateStruct_CollectsAllFailures(t *testing.T) {
	req := interactionRequest{
		UserID:    0,
		ArticleID: -1,
		Type:      "view",
		Diversity: 1.5,
	}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("invalid struct accepted")
	}

	var ve *RequestValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected RequestValidationError, got %T", err)
	}
	if len(ve.Fields) != 4 {
		t.Errorf("field errors = %d, want 4: %v", len(ve.Fields), ve.Fields)
	}
	if !errors.Is(err, models.ErrValidation) {
		t.Error("validation error must unwrap to models.ErrValidation")
	}
}

func TestValidateStruct_OneofMessage(t *testing.T) {
	req := interactionRequest{UserID: 1, ArticleID: 1, Type: "view"}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("invalid type accepted")
	}
	if !strings.Contains(err.Error(), "must be one of") {
		t.Errorf("message = %q, want oneof translation", err.Error())
	}
}

func TestValidateStruct_BadRequestID(t *testing.T) {
	req := interactionRequest{UserID: 1, ArticleID: 1, RequestID: "not-a-uuid", Type: "click"}
	if err := ValidateStruct(&req); err == nil {
		t.Fatal("malformed request id accepted")
	}
}

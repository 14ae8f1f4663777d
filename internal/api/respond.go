// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/newswire/internal/logging"
	"github.com/tomtom215/newswire/internal/middleware"
	"github.com/tomtom215/newswire/internal/models"
	"github.com/tomtom215/newswire/internal/validation"
)

// apiError is the uniform error envelope. Conflicts carry the structured
// ledger detail; validation failures carry per-field messages.
type apiError struct {
	Code      string                       `json:"code"`
	Message   string                       `json:"message"`
	RequestID string                       `json:"request_id,omitempty"`
	Conflict  *models.ConflictError        `json:"conflict,omitempty"`
	Fields    []validation.ValidationError `json:"fields,omitempty"`
}

// Error codes mapped from the models error taxonomy.
const (
	codeBadRequest  = "VALIDATION_FAILED"
	codeNotFound    = "NOT_FOUND"
	codeConflict    = "CONFLICT"
	codeUnavailable = "SERVICE_UNAVAILABLE"
	codeInternal    = "INTERNAL_ERROR"
)

// respondJSON writes a JSON body with status.
func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("encode response failed")
	}
}

// respondError maps the error taxonomy onto HTTP: 400 validation, 404
// not found, 409 conflict (with structured detail), 503 unavailable,
// 500 for everything else without leaking internals.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	body := apiError{RequestID: requestID}

	var status int
	var conflict *models.ConflictError
	var fieldsErr *validation.RequestValidationError

	switch {
	case errors.As(err, &conflict):
		status = http.StatusConflict
		body.Code = codeConflict
		body.Message = conflict.Reason
		body.Conflict = conflict

	case models.IsConflict(err):
		status = http.StatusConflict
		body.Code = codeConflict
		body.Message = err.Error()

	case errors.As(err, &fieldsErr):
		status = http.StatusBadRequest
		body.Code = codeBadRequest
		body.Message = "request validation failed"
		body.Fields = fieldsErr.Fields

	case models.IsValidation(err):
		status = http.StatusBadRequest
		body.Code = codeBadRequest
		body.Message = err.Error()

	case models.IsNotFound(err):
		status = http.StatusNotFound
		body.Code = codeNotFound
		body.Message = err.Error()

	case models.IsUnavailable(err):
		status = http.StatusServiceUnavailable
		body.Code = codeUnavailable
		body.Message = "a required dependency is unavailable"

	default:
		status = http.StatusInternalServerError
		body.Code = codeInternal
		body.Message = "internal error"
		logging.Error().Str("request_id", requestID).Err(err).Msg("request failed")
	}

	respondJSON(w, status, body)
}

// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package models

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every error crossing a package boundary wraps exactly
// one of these sentinels so the API layer can map it to a response class
// without inspecting error strings:
//
//   - ErrValidation  -> 400, malformed input, no side effects performed
//   - ErrNotFound    -> 404
//   - ErrConflict    -> 409, missing impression / duplicate request id;
//     reported distinctly from infrastructure errors so
//     clients can decide whether to retry
//   - ErrUnavailable -> 503, embedding store or remote collaborator down
//
// Anything unwrapped is treated as internal and never leaks detail past
// the boundary.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("dependency unavailable")
)

// ConflictError carries the structured detail of a ledger integrity
// conflict: which triple missed or collided. It unwraps to ErrConflict.
type ConflictError struct {
	Reason    string `json:"reason"`
	UserID    int64  `json:"user_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ArticleID int64  `json:"article_id,omitempty"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s (user=%d request=%s article=%d)",
		e.Reason, e.UserID, e.RequestID, e.ArticleID)
}

// Unwrap makes errors.Is(err, ErrConflict) hold for ConflictError values.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// IsConflict reports whether err is a business-level conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsNotFound reports whether err means the entity does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnavailable reports whether err indicates an unreachable dependency.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

// Package events fans interaction records out over Watermill. The bus
// runs on an in-process gochannel by default and on NATS JetStream when
// events are enabled in config, with an optional embedded NATS server
// for standalone deployments. A consumer turns interaction events into
// profile recompute calls against the remote collaborator.
package events

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/newswire/internal/models"
)

// TopicInteractionRecorded carries one event per successfully recorded
// interaction.
const TopicInteractionRecorded = "interaction.recorded"

// SchemaVersion tracks the interaction event wire format.
const SchemaVersion = 1

// InteractionEvent is the wire form of a recorded interaction. Weight is
// included so the profile service never needs our enum mapping.
type InteractionEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventID       string    `json:"event_id"`
	UserID        int64     `json:"user_id"`
	ArticleID     int64     `json:"article_id"`
	RequestID     *string   `json:"request_id,omitempty"`
	Type          string    `json:"type"`
	Weight        float64   `json:"weight"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewInteractionEvent builds the event for a just-recorded interaction.
func NewInteractionEvent(in *models.Interaction) *InteractionEvent {
	return &InteractionEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		UserID:        in.UserID,
		ArticleID:     in.ArticleID,
		RequestID:     in.RequestID,
		Type:          string(in.Type),
		Weight:        in.Type.ProfileWeight(),
		OccurredAt:    in.CreatedAt,
	}
}

// Encode serializes the event for the bus.
func (e *InteractionEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeInteractionEvent parses an event payload off the bus.
func DecodeInteractionEvent(data []byte) (*InteractionEvent, error) {
	var e InteractionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.SchemaVersion == 0 {
		e.SchemaVersion = 1
	}
	return &e, nil
}

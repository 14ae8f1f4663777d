// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/newswire/internal/logging"
	"github.com/tomtom215/newswire/internal/metrics"
	"github.com/tomtom215/newswire/internal/models"
)

// Recomputer triggers profile recomputation for one interaction.
// Implemented by *remote.ProfileClient.
type Recomputer interface {
	Recompute(ctx context.Context, userID int64, articleID int64, typ models.InteractionType) error
}

// ProfileConsumer is a suture.Service that drains interaction events and
// forwards each one to the profile recompute collaborator.
//
// Every message is acked regardless of recompute outcome: profile
// refresh is best-effort and a poisoned redelivery loop would be worse
// than a stale profile. Failures are counted and logged instead.
type ProfileConsumer struct {
	bus        *Bus
	recomputer Recomputer
	name       string
}

// NewProfileConsumer wires the consumer. recomputer may be nil when no
// profile service is configured; events are then drained and dropped.
func NewProfileConsumer(bus *Bus, recomputer Recomputer) *ProfileConsumer {
	return &ProfileConsumer{
		bus:        bus,
		recomputer: recomputer,
		name:       "profile-consumer",
	}
}

// Serve implements the suture.Service interface.
func (c *ProfileConsumer) Serve(ctx context.Context) error {
	log := logging.With().Str("service", c.name).Logger()

	messages, err := c.bus.SubscribeInteractions(ctx)
	if err != nil {
		return err
	}
	log.Info().Msg("profile consumer started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("profile consumer shutting down")
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				log.Info().Msg("event stream closed")
				return nil
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *ProfileConsumer) handle(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	event, err := DecodeInteractionEvent(msg.Payload)
	if err != nil {
		metrics.EventConsumerErrors.Inc()
		logging.Warn().Str("message_id", msg.UUID).Err(err).Msg("undecodable interaction event dropped")
		return
	}
	if c.recomputer == nil {
		return
	}

	typ := models.InteractionType(event.Type)
	if err := c.recomputer.Recompute(ctx, event.UserID, event.ArticleID, typ); err != nil {
		metrics.EventConsumerErrors.Inc()
		logging.Warn().
			Int64("user_id", event.UserID).
			Int64("article_id", event.ArticleID).
			Str("type", event.Type).
			Err(err).
			Msg("profile recompute failed")
		return
	}

	logging.Debug().
		Int64("user_id", event.UserID).
		Str("type", event.Type).
		Msg("profile recompute triggered")
}

// String returns the service name for supervisor logging.
func (c *ProfileConsumer) String() string {
	return c.name
}

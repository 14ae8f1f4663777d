// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/newswire/internal/config"
	"github.com/tomtom215/newswire/internal/metrics"
	"github.com/tomtom215/newswire/internal/models"
)

// Bus is the interaction event transport. With events disabled it runs
// on an in-process gochannel pubsub (publisher and consumer share the
// same process); with events enabled it runs on NATS JetStream,
// optionally against an embedded server.
type Bus struct {
	pub      message.Publisher
	sub      message.Subscriber
	embedded *server.Server
	logger   watermill.LoggerAdapter
}

// NewBus builds the bus for the configured transport.
func NewBus(cfg *config.EventsConfig) (*Bus, error) {
	logger := newWatermillLogger()

	if !cfg.Enabled {
		ps := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 256,
		}, logger)
		return &Bus{pub: ps, sub: ps, logger: logger}, nil
	}

	bus := &Bus{logger: logger}
	url := cfg.URL

	if cfg.EmbeddedServer {
		ns, err := startEmbeddedServer(cfg.StoreDir)
		if err != nil {
			return nil, err
		}
		bus.embedded = ns
		url = ns.ClientURL()
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(time.Second),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			TrackMsgId:    true,
		},
	}, logger)
	if err != nil {
		bus.shutdownEmbedded()
		return nil, fmt.Errorf("create event publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		QueueGroupPrefix: "newswire",
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: true,
			DurablePrefix: "newswire-profile",
		},
	}, logger)
	if err != nil {
		closeQuietly(pub, logger)
		bus.shutdownEmbedded()
		return nil, fmt.Errorf("create event subscriber: %w", err)
	}

	bus.pub = pub
	bus.sub = sub
	return bus, nil
}

// PublishInteraction puts one recorded interaction on the bus. Publish
// failures are the caller's to handle; the interaction row is already
// durable by the time this runs.
func (b *Bus) PublishInteraction(in *models.Interaction) error {
	event := NewInteractionEvent(in)
	payload, err := event.Encode()
	if err != nil {
		return fmt.Errorf("encode interaction event: %w", err)
	}

	msg := message.NewMessage(event.EventID, payload)
	msg.Metadata.Set("type", event.Type)

	if err := b.pub.Publish(TopicInteractionRecorded, msg); err != nil {
		return fmt.Errorf("publish interaction event: %w", err)
	}
	metrics.EventsPublished.WithLabelValues(TopicInteractionRecorded).Inc()
	return nil
}

// SubscribeInteractions returns the interaction event stream. The channel
// closes when ctx ends or the bus closes.
func (b *Bus) SubscribeInteractions(ctx context.Context) (<-chan *message.Message, error) {
	ch, err := b.sub.Subscribe(ctx, TopicInteractionRecorded)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", TopicInteractionRecorded, err)
	}
	return ch, nil
}

// Close shuts the transport down, embedded server last.
func (b *Bus) Close() error {
	var firstErr error
	if b.pub != nil {
		if err := b.pub.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close publisher: %w", err)
		}
	}
	// gochannel is one object serving both roles; don't close it twice.
	if b.sub != nil && !b.sameTransport() {
		if err := b.sub.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close subscriber: %w", err)
		}
	}
	b.shutdownEmbedded()
	return firstErr
}

func (b *Bus) sameTransport() bool {
	pubAsSub, ok := b.pub.(message.Subscriber)
	return ok && pubAsSub == b.sub
}

func (b *Bus) shutdownEmbedded() {
	if b.embedded == nil {
		return
	}
	b.embedded.Shutdown()
	b.embedded.WaitForShutdown()
	b.embedded = nil
}

// startEmbeddedServer runs a JetStream-enabled NATS server in-process
// for standalone deployments.
func startEmbeddedServer(storeDir string) (*server.Server, error) {
	opts := &server.Options{
		ServerName: "newswire-events",
		Host:       "127.0.0.1",
		Port:       -1, // random free port, ClientURL reports it
		JetStream:  true,
		StoreDir:   storeDir,
		NoLog:      true,
		MaxPayload: 1 << 20,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server not ready within timeout")
	}
	return ns, nil
}

func closeQuietly(c interface{ Close() error }, logger watermill.LoggerAdapter) {
	if err := c.Close(); err != nil {
		logger.Error("close failed during bus setup", err, nil)
	}
}

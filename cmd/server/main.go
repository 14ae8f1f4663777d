// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

// Newswire serves personalized news feeds: vector-similarity retrieval
// over DuckDB, source/category quota balancing, MMR diversity reranking,
// an impression/interaction ledger, lazily generated explanations, and a
// training dataset built from the ledger.
//
// Startup order:
//  1. Configuration (koanf: defaults, YAML file, environment)
//  2. Logging (zerolog)
//  3. DuckDB database and optional mock seed
//  4. Badger explanation cache
//  5. Remote clients (rerank, profile, explain) per configuration
//  6. Event bus (in-process, or NATS JetStream when enabled)
//  7. Supervisor tree: dataset snapshot, profile consumer, HTTP server
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/newswire/internal/api"
	"github.com/tomtom215/newswire/internal/cache"
	"github.com/tomtom215/newswire/internal/config"
	"github.com/tomtom215/newswire/internal/database"
	"github.com/tomtom215/newswire/internal/dataset"
	"github.com/tomtom215/newswire/internal/events"
	"github.com/tomtom215/newswire/internal/explain"
	"github.com/tomtom215/newswire/internal/feed"
	"github.com/tomtom215/newswire/internal/logging"
	"github.com/tomtom215/newswire/internal/remote"
	"github.com/tomtom215/newswire/internal/supervisor"
)

const (
	seedArticles = 200
	seedUsers    = 12

	// Lazy explanation generation is expensive remotely; one request per
	// second per process keeps a cache-cold burst from stampeding it.
	explainRequestsPerSecond = 1.0
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("rerank_mode", cfg.Rerank.Mode).
		Bool("events_enabled", cfg.Events.Enabled).
		Msg("Starting Newswire")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if cfg.Database.SeedMockData {
		logging.Info().Msg("Mock data seeding enabled (DB_SEED_MOCK_DATA=true)")
		if err := db.SeedMockData(context.Background(), seedArticles, seedUsers); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed mock data")
		}
	}

	explanationCache, err := cache.New(&cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open explanation cache")
	}
	defer func() {
		if err := explanationCache.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing explanation cache")
		}
	}()

	reranker := buildReranker(cfg)
	feedSvc := feed.NewService(db, reranker, &cfg.Feed, &cfg.Rerank)

	var generator explain.Generator
	if cfg.Remote.ExplainURL != "" {
		generator = remote.NewExplainClient(cfg.Remote.ExplainURL, cfg.Remote.Timeout, explainRequestsPerSecond)
		logging.Info().Str("url", cfg.Remote.ExplainURL).Msg("Remote explanation generator configured")
	}
	explainSvc := explain.NewService(db, explanationCache, generator, cfg.Feed.ModelVersion)

	snapshot := dataset.NewSnapshot(
		dataset.NewBuilder(db, &cfg.Dataset),
		cfg.Dataset.SnapshotInterval,
	)

	bus, err := events.NewBus(&cfg.Events)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to start event bus")
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	var recomputer events.Recomputer
	if cfg.Remote.ProfileURL != "" {
		recomputer = remote.NewProfileClient(cfg.Remote.ProfileURL, cfg.Remote.Timeout)
		logging.Info().Str("url", cfg.Remote.ProfileURL).Msg("Profile recompute service configured")
	}
	consumer := events.NewProfileConsumer(bus, recomputer)

	handler := api.NewHandler(feedSvc, db, explainSvc, snapshot, bus)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handler, &cfg.API),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(snapshot)
	tree.AddMessagingService(consumer)
	tree.AddAPIService(supervisor.NewHTTPService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server added to supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Newswire stopped")
}

// buildReranker selects the reranking strategy: in-process MMR, or the
// remote scoring service when rerank.mode is "remote".
func buildReranker(cfg *config.Config) feed.Reranker {
	if cfg.Rerank.Mode == "remote" {
		logging.Info().Str("url", cfg.Remote.RerankURL).Msg("Remote reranker configured")
		return remote.NewReranker(cfg.Remote.RerankURL, cfg.Remote.Timeout)
	}
	return feed.NewMMR()
}

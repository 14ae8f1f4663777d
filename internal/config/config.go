// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

// Package config holds all application configuration, loaded with Koanf v2
// in three layers: struct defaults, optional YAML config file, environment
// variable overrides (highest priority).
//
// Config is immutable after Load() and safe for concurrent read access.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Feed     FeedConfig     `koanf:"feed"`
	Rerank   RerankConfig   `koanf:"rerank"`
	Dataset  DatasetConfig  `koanf:"dataset"`
	Remote   RemoteConfig   `koanf:"remote"`
	Events   EventsConfig   `koanf:"events"`
	Cache    CacheConfig    `koanf:"cache"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST: bind address (default: 0.0.0.0)
//   - HTTP_PORT: listen port (default: 8084)
//   - HTTP_TIMEOUT: read/write timeout (default: 30s)
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings. The embedding store and the
// durable entities (articles, users, impressions, interactions,
// explanations) live in a single DuckDB database.
//
// Environment Variables:
//   - DUCKDB_PATH: database file path, ":memory:" for ephemeral (default: /data/newswire.duckdb)
//   - DUCKDB_MAX_MEMORY: memory limit (default: 2GB)
//   - DUCKDB_THREADS: worker threads, 0 = NumCPU (default: 0)
//   - EMBEDDING_DIM: embedding vector dimension (default: 384)
//   - SEED_MOCK_DATA: seed demo articles/users on startup (default: false)
type DatabaseConfig struct {
	Path         string `koanf:"path"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"`
	EmbeddingDim int    `koanf:"embedding_dim"`
	SeedMockData bool   `koanf:"seed_mock_data"`
}

// FeedConfig holds candidate retrieval, quota balancing, and cold-start
// settings.
//
// Environment Variables:
//   - FEED_CANDIDATE_LIMIT: max candidates fetched per request (default: 1200)
//   - FEED_RECENCY_WINDOW: publish-time window for candidates (default: 168h)
//   - FEED_MAX_FINAL: balanced pool output cap (default: 100)
//   - FEED_DEFAULT_K: result size when the caller omits k (default: 50)
//   - FEED_MAX_K: upper bound on requested result size (default: 200)
//   - FEED_COLDSTART_PER_CATEGORY: cold-start sample per category (default: 12)
//   - FEED_COLDSTART_CATEGORIES: comma-separated fixed category set
//   - FEED_FORCED_SOURCES: comma-separated source allowlist for the carve-out
//   - FEED_FORCED_SLOTS: slots reserved for forced sources (default: 10)
//   - FEED_MODEL_VERSION: model/version tag written to the ledger
type FeedConfig struct {
	CandidateLimit int           `koanf:"candidate_limit"`
	RecencyWindow  time.Duration `koanf:"recency_window"`
	MaxFinal       int           `koanf:"max_final"`
	DefaultK       int           `koanf:"default_k"`
	MaxK           int           `koanf:"max_k"`

	// CategoryCaps is an explicit allowlist: categories outside the
	// mapping are dropped from the balanced pool entirely.
	CategoryCaps map[string]int `koanf:"category_caps"`

	ColdStartPerCategory int      `koanf:"coldstart_per_category"`
	ColdStartCategories  []string `koanf:"coldstart_categories"`

	ForcedSources []string `koanf:"forced_sources"`
	ForcedSlots   int      `koanf:"forced_slots"`

	ModelVersion string `koanf:"model_version"`
}

// ForcedSourcesEnabled reports whether the forced-source carve-out is
// configured.
func (c *FeedConfig) ForcedSourcesEnabled() bool {
	return len(c.ForcedSources) > 0 && c.ForcedSlots > 0
}

// RerankConfig selects the diversity reranker implementation.
//
// Environment Variables:
//   - RERANK_MODE: "local" (in-process MMR) or "remote" (scoring service)
//   - RERANK_DEFAULT_DIVERSITY: diversity level when the caller omits it
type RerankConfig struct {
	Mode             string  `koanf:"mode"`
	DefaultDiversity float64 `koanf:"default_diversity"`
}

// DatasetConfig holds training dataset builder settings.
//
// Environment Variables:
//   - DATASET_IMPLICIT_WEIGHT: weight for implicit negative rows (default: 0.2)
//   - DATASET_TRAIN_FRACTION: temporal split percentile (default: 0.8)
//   - DATASET_SEED: rng seed for implicit subsampling, 0 = time-seeded
//   - DATASET_SNAPSHOT_INTERVAL: background rebuild interval (default: 1h)
type DatasetConfig struct {
	ImplicitWeight   float64       `koanf:"implicit_weight"`
	TrainFraction    float64       `koanf:"train_fraction"`
	Seed             int64         `koanf:"seed"`
	SnapshotInterval time.Duration `koanf:"snapshot_interval"`
}

// RemoteConfig holds the endpoints of the external collaborators. All are
// optional; empty URL disables the collaborator and the core degrades per
// its contract (local rerank, no explanations, no profile recompute).
//
// Environment Variables:
//   - REMOTE_RERANK_URL: scoring/reranking service base URL
//   - REMOTE_PROFILE_URL: user-profile recompute service base URL
//   - REMOTE_EXPLAIN_URL: explanation generation service base URL
//   - REMOTE_TIMEOUT: per-call timeout applied around every remote call (default: 10s)
type RemoteConfig struct {
	RerankURL  string        `koanf:"rerank_url"`
	ProfileURL string        `koanf:"profile_url"`
	ExplainURL string        `koanf:"explain_url"`
	Timeout    time.Duration `koanf:"timeout"`
}

// EventsConfig holds interaction event fan-out settings (Watermill/NATS).
//
// Environment Variables:
//   - EVENTS_ENABLED: publish interaction events (default: false)
//   - NATS_URL: NATS server URL (default: nats://127.0.0.1:4222)
//   - NATS_EMBEDDED: run an embedded NATS server (default: false)
//   - NATS_STORE_DIR: JetStream storage dir for the embedded server
type EventsConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
}

// CacheConfig holds the badger-backed explanation cache settings.
//
// Environment Variables:
//   - CACHE_PATH: badger directory, empty = in-memory (default: "")
//   - CACHE_TTL: explanation payload TTL (default: 6h)
type CacheConfig struct {
	Path string        `koanf:"path"`
	TTL  time.Duration `koanf:"ttl"`
}

// APIConfig holds API rate limiting and CORS settings.
//
// Environment Variables:
//   - RATE_LIMIT_REQUESTS: requests per window per client (default: 300)
//   - RATE_LIMIT_WINDOW: rate limit window (default: 1m)
//   - CORS_ORIGINS: comma-separated allowed origins (default: *)
type APIConfig struct {
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig holds log output settings.
//
// Environment Variables:
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks configuration invariants that defaults and env parsing
// cannot guarantee.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.EmbeddingDim <= 0 {
		return fmt.Errorf("database.embedding_dim must be positive: %d", c.Database.EmbeddingDim)
	}
	if c.Feed.CandidateLimit <= 0 {
		return fmt.Errorf("feed.candidate_limit must be positive: %d", c.Feed.CandidateLimit)
	}
	if c.Feed.RecencyWindow <= 0 {
		return fmt.Errorf("feed.recency_window must be positive: %s", c.Feed.RecencyWindow)
	}
	if c.Feed.MaxFinal <= 0 {
		return fmt.Errorf("feed.max_final must be positive: %d", c.Feed.MaxFinal)
	}
	if c.Feed.DefaultK <= 0 || c.Feed.DefaultK > c.Feed.MaxK {
		return fmt.Errorf("feed.default_k must be in 1..%d: %d", c.Feed.MaxK, c.Feed.DefaultK)
	}
	for cat, cap := range c.Feed.CategoryCaps {
		if cap <= 0 {
			return fmt.Errorf("feed.category_caps[%s] must be positive: %d", cat, cap)
		}
	}
	if c.Feed.ForcedSlots < 0 || c.Feed.ForcedSlots > c.Feed.MaxFinal {
		return fmt.Errorf("feed.forced_slots must be in 0..%d: %d", c.Feed.MaxFinal, c.Feed.ForcedSlots)
	}
	switch c.Rerank.Mode {
	case "local", "remote":
	default:
		return fmt.Errorf("rerank.mode must be local or remote: %q", c.Rerank.Mode)
	}
	if c.Rerank.Mode == "remote" && c.Remote.RerankURL == "" {
		return fmt.Errorf("rerank.mode=remote requires remote.rerank_url")
	}
	if c.Rerank.DefaultDiversity < 0 || c.Rerank.DefaultDiversity > 1 {
		return fmt.Errorf("rerank.default_diversity must be in [0,1]: %f", c.Rerank.DefaultDiversity)
	}
	if c.Dataset.ImplicitWeight <= 0 || c.Dataset.ImplicitWeight > 1 {
		return fmt.Errorf("dataset.implicit_weight must be in (0,1]: %f", c.Dataset.ImplicitWeight)
	}
	if c.Dataset.TrainFraction <= 0 || c.Dataset.TrainFraction >= 1 {
		return fmt.Errorf("dataset.train_fraction must be in (0,1): %f", c.Dataset.TrainFraction)
	}
	return nil
}

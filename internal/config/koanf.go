// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/newswire/config.yaml",
	"/etc/newswire/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the
// config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8084,
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:         "/data/newswire.duckdb",
			MaxMemory:    "2GB",
			Threads:      0, // 0 = use runtime.NumCPU()
			EmbeddingDim: 384,
			SeedMockData: false,
		},
		Feed: FeedConfig{
			CandidateLimit: 1200,
			RecencyWindow:  7 * 24 * time.Hour,
			MaxFinal:       100,
			DefaultK:       50,
			MaxK:           200,
			CategoryCaps: map[string]int{
				"politics":   45,
				"economy":    30,
				"sports":     20,
				"technology": 5,
			},
			ColdStartPerCategory: 12,
			ColdStartCategories:  []string{"politics", "economy", "sports", "technology"},
			ForcedSources:        nil, // carve-out disabled by default
			ForcedSlots:          10,
			ModelVersion:         "mmr-v1",
		},
		Rerank: RerankConfig{
			Mode:             "local",
			DefaultDiversity: 0.3,
		},
		Dataset: DatasetConfig{
			ImplicitWeight:   0.2,
			TrainFraction:    0.8,
			Seed:             0, // 0 = time-seeded
			SnapshotInterval: time.Hour,
		},
		Remote: RemoteConfig{
			RerankURL:  "",
			ProfileURL: "",
			ExplainURL: "",
			Timeout:    10 * time.Second,
		},
		Events: EventsConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: false,
			StoreDir:       "/data/nats/jetstream",
		},
		Cache: CacheConfig{
			Path: "", // in-memory by default
			TTL:  6 * time.Hour,
		},
		API: APIConfig{
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values
//  2. Config file: optional YAML (CONFIG_PATH or default search paths)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths are parsed as
// comma-separated slices when they arrive as env var strings.
var sliceConfigPaths = []string{
	"feed.coldstart_categories",
	"feed.forced_sources",
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped keys return empty string and are skipped, preventing random
// environment variables from polluting config.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Server
		"http_host":    "server.host",
		"http_port":    "server.port",
		"http_timeout": "server.timeout",

		// Database
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",
		"embedding_dim":     "database.embedding_dim",
		"seed_mock_data":    "database.seed_mock_data",

		// Feed
		"feed_candidate_limit":        "feed.candidate_limit",
		"feed_recency_window":         "feed.recency_window",
		"feed_max_final":              "feed.max_final",
		"feed_default_k":              "feed.default_k",
		"feed_max_k":                  "feed.max_k",
		"feed_coldstart_per_category": "feed.coldstart_per_category",
		"feed_coldstart_categories":   "feed.coldstart_categories",
		"feed_forced_sources":         "feed.forced_sources",
		"feed_forced_slots":           "feed.forced_slots",
		"feed_model_version":          "feed.model_version",

		// Rerank
		"rerank_mode":              "rerank.mode",
		"rerank_default_diversity": "rerank.default_diversity",

		// Dataset
		"dataset_implicit_weight":   "dataset.implicit_weight",
		"dataset_train_fraction":    "dataset.train_fraction",
		"dataset_seed":              "dataset.seed",
		"dataset_snapshot_interval": "dataset.snapshot_interval",

		// Remote collaborators
		"remote_rerank_url":  "remote.rerank_url",
		"remote_profile_url": "remote.profile_url",
		"remote_explain_url": "remote.explain_url",
		"remote_timeout":     "remote.timeout",

		// Events
		"events_enabled": "events.enabled",
		"nats_url":       "events.url",
		"nats_embedded":  "events.embedded_server",
		"nats_store_dir": "events.store_dir",

		// Cache
		"cache_path": "cache.path",
		"cache_ttl":  "cache.ttl",

		// API
		"rate_limit_requests": "api.rate_limit_reqs",
		"rate_limit_window":   "api.rate_limit_window",
		"cors_origins":        "api.cors_origins",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

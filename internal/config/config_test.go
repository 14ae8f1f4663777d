// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package config

import (
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestDefaultConfig_FeedDefaults(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Feed.CandidateLimit != 1200 {
		t.Errorf("candidate_limit = %d, want 1200", cfg.Feed.CandidateLimit)
	}
	if cfg.Feed.RecencyWindow != 7*24*time.Hour {
		t.Errorf("recency_window = %s, want 168h", cfg.Feed.RecencyWindow)
	}
	if cfg.Feed.MaxFinal != 100 {
		t.Errorf("max_final = %d, want 100", cfg.Feed.MaxFinal)
	}
	if cfg.Feed.DefaultK != 50 {
		t.Errorf("default_k = %d, want 50", cfg.Feed.DefaultK)
	}
	if cfg.Feed.ColdStartPerCategory != 12 {
		t.Errorf("coldstart_per_category = %d, want 12", cfg.Feed.ColdStartPerCategory)
	}
	if len(cfg.Feed.ColdStartCategories) != 4 {
		t.Errorf("coldstart category set = %d entries, want 4", len(cfg.Feed.ColdStartCategories))
	}
	if cfg.Feed.ForcedSourcesEnabled() {
		t.Error("forced-source carve-out must be disabled by default")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, true},
		{"zero embedding dim", func(c *Config) { c.Database.EmbeddingDim = 0 }, true},
		{"zero candidate limit", func(c *Config) { c.Feed.CandidateLimit = 0 }, true},
		{"negative recency window", func(c *Config) { c.Feed.RecencyWindow = -time.Hour }, true},
		{"default k above max k", func(c *Config) { c.Feed.DefaultK = 300 }, true},
		{"zero category cap", func(c *Config) { c.Feed.CategoryCaps["sports"] = 0 }, true},
		{"forced slots above max final", func(c *Config) { c.Feed.ForcedSlots = 200 }, true},
		{"bad rerank mode", func(c *Config) { c.Rerank.Mode = "hybrid" }, true},
		{
			"remote mode without url",
			func(c *Config) { c.Rerank.Mode = "remote" },
			true,
		},
		{
			"remote mode with url",
			func(c *Config) {
				c.Rerank.Mode = "remote"
				c.Remote.RerankURL = "http://ranker:8000"
			},
			false,
		},
		{"diversity above one", func(c *Config) { c.Rerank.DefaultDiversity = 1.5 }, true},
		{"implicit weight zero", func(c *Config) { c.Dataset.ImplicitWeight = 0 }, true},
		{"train fraction one", func(c *Config) { c.Dataset.TrainFraction = 1.0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DUCKDB_PATH", ":memory:")
	t.Setenv("FEED_DEFAULT_K", "25")
	t.Setenv("FEED_FORCED_SOURCES", "reuters, apnews ,bbc")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("db path = %q, want :memory:", cfg.Database.Path)
	}
	if cfg.Feed.DefaultK != 25 {
		t.Errorf("default_k = %d, want 25", cfg.Feed.DefaultK)
	}
	want := []string{"reuters", "apnews", "bbc"}
	if len(cfg.Feed.ForcedSources) != len(want) {
		t.Fatalf("forced sources = %v, want %v", cfg.Feed.ForcedSources, want)
	}
	for i, s := range want {
		if cfg.Feed.ForcedSources[i] != s {
			t.Errorf("forced_sources[%d] = %q, want %q", i, cfg.Feed.ForcedSources[i], s)
		}
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
}

func TestEnvTransformFunc_UnknownKeysSkipped(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("unmapped env var must be skipped, got %q", got)
	}
	if got := envTransformFunc("HTTP_PORT"); got != "server.port" {
		t.Errorf("HTTP_PORT mapped to %q, want server.port", got)
	}
}

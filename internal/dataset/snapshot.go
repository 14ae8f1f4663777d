// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package dataset

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/newswire/internal/logging"
)

// Snapshot is a suture.Service that rebuilds the training dataset on an
// interval and serves the latest build to the API without re-querying the
// ledger on every request.
type Snapshot struct {
	builder  *Builder
	interval time.Duration
	name     string

	mu     sync.RWMutex
	latest *Dataset
}

// NewSnapshot creates the periodic snapshot service.
func NewSnapshot(builder *Builder, interval time.Duration) *Snapshot {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Snapshot{
		builder:  builder,
		interval: interval,
		name:     "dataset-snapshot",
	}
}

// Serve implements the suture.Service interface: build once at startup,
// then on every tick until the context ends. A failed build keeps the
// previous snapshot in place.
func (s *Snapshot) Serve(ctx context.Context) error {
	log := logging.With().Str("service", s.name).Logger()
	log.Info().Dur("interval", s.interval).Msg("dataset snapshot service starting")

	s.rebuild(ctx, &log)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("dataset snapshot service shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.rebuild(ctx, &log)
		}
	}
}

// Get returns the latest snapshot, building one synchronously if the
// service has not produced any yet (e.g. a request racing startup).
func (s *Snapshot) Get(ctx context.Context) (*Dataset, error) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil {
		return latest, nil
	}

	ds, err := s.builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.latest == nil {
		s.latest = ds
	}
	ds = s.latest
	s.mu.Unlock()
	return ds, nil
}

// rebuild runs one build cycle with a bounded context.
func (s *Snapshot) rebuild(ctx context.Context, log *zerolog.Logger) {
	buildCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	start := time.Now()
	ds, err := s.builder.Build(buildCtx)
	if err != nil {
		log.Warn().Err(err).Msg("dataset build failed, keeping previous snapshot")
		return
	}

	s.mu.Lock()
	s.latest = ds
	s.mu.Unlock()

	log.Info().
		Int("train_rows", len(ds.Train)).
		Int("validation_rows", len(ds.Validation)).
		Dur("duration", time.Since(start)).
		Msg("dataset snapshot rebuilt")
}

// String returns the service name for supervisor logging.
func (s *Snapshot) String() string {
	return s.name
}

// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

// Package dataset builds labeled training data from the impression and
// interaction ledger: explicit like/dislike rows, subsampled implicit
// negatives, and a temporal train/validation split. It is a pure read-side
// projection; nothing here trains a model.
package dataset

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/tomtom215/newswire/internal/config"
	"github.com/tomtom215/newswire/internal/database"
	"github.com/tomtom215/newswire/internal/metrics"
)

// Example classes and splits.
const (
	ClassExplicit = "explicit"
	ClassImplicit = "implicit"

	SplitTrain      = "train"
	SplitValidation = "validation"
)

// Example is one labeled training row.
type Example struct {
	UserID    int64     `json:"user_id"`
	ArticleID int64     `json:"article_id"`
	RequestID string    `json:"request_id,omitempty"`
	EventTime time.Time `json:"event_time"`

	Label  int     `json:"label"`
	Weight float64 `json:"weight"`
	Class  string  `json:"class"`
	Split  string  `json:"split"`

	CosineSimilarity  float64 `json:"cosine_similarity"`
	HoursSincePublish float64 `json:"hours_since_publish"`
	Source            string  `json:"source"`
	Category          string  `json:"category,omitempty"`
}

// Dataset is one complete snapshot of the training projection.
type Dataset struct {
	Train      []Example `json:"train"`
	Validation []Example `json:"validation"`

	SplitTime time.Time `json:"split_time"`
	BuiltAt   time.Time `json:"built_at"`
}

// Rows returns the examples for a split name.
func (d *Dataset) Rows(split string) []Example {
	if split == SplitValidation {
		return d.Validation
	}
	return d.Train
}

// Source is the ledger read surface the builder consumes. Implemented by
// *database.DB.
type Source interface {
	ExplicitEvents(ctx context.Context) ([]database.TrainingEvent, error)
	ImplicitEvents(ctx context.Context) ([]database.TrainingEvent, error)
}

// Builder assembles dataset snapshots.
//
// Implicit negatives vastly outnumber explicit judgments, so they are
// subsampled down to exactly the explicit row count (seedable for
// reproducible builds) and carry a reduced weight.
type Builder struct {
	src Source
	cfg *config.DatasetConfig
	now func() time.Time
}

// NewBuilder creates a Builder over the ledger.
func NewBuilder(src Source, cfg *config.DatasetConfig) *Builder {
	return &Builder{src: src, cfg: cfg, now: time.Now}
}

// Build reads the ledger and produces a snapshot. The temporal split cuts
// at the configured percentile (default 0.8) of event times over the
// combined set: strictly earlier rows train, the rest validate, so
// validation always post-dates training and the offline evaluation cannot
// leak future feedback.
func (b *Builder) Build(ctx context.Context) (*Dataset, error) {
	start := b.now()

	explicit, err := b.src.ExplicitEvents(ctx)
	if err != nil {
		metrics.DatasetBuildErrors.Inc()
		return nil, fmt.Errorf("load explicit events: %w", err)
	}
	implicit, err := b.src.ImplicitEvents(ctx)
	if err != nil {
		metrics.DatasetBuildErrors.Inc()
		return nil, fmt.Errorf("load implicit events: %w", err)
	}

	implicit = b.subsample(implicit, len(explicit))

	examples := make([]Example, 0, len(explicit)+len(implicit))
	for _, ev := range explicit {
		examples = append(examples, toExample(ev, ClassExplicit, 1.0))
	}
	for _, ev := range implicit {
		examples = append(examples, toExample(ev, ClassImplicit, b.cfg.ImplicitWeight))
	}

	ds := &Dataset{BuiltAt: b.now().UTC()}
	if len(examples) > 0 {
		ds.SplitTime = splitTime(examples, b.cfg.TrainFraction)
		sort.Slice(examples, func(i, j int) bool {
			if !examples[i].EventTime.Equal(examples[j].EventTime) {
				return examples[i].EventTime.Before(examples[j].EventTime)
			}
			if examples[i].UserID != examples[j].UserID {
				return examples[i].UserID < examples[j].UserID
			}
			return examples[i].ArticleID < examples[j].ArticleID
		})
		for i := range examples {
			if examples[i].EventTime.Before(ds.SplitTime) {
				examples[i].Split = SplitTrain
				ds.Train = append(ds.Train, examples[i])
			} else {
				examples[i].Split = SplitValidation
				ds.Validation = append(ds.Validation, examples[i])
			}
		}
	}

	b.observe(ds)
	metrics.DatasetBuildDuration.Observe(b.now().Sub(start).Seconds())
	return ds, nil
}

// subsample reduces events to at most n rows with a seeded Fisher-Yates
// prefix shuffle, then restores chronological order.
func (b *Builder) subsample(events []database.TrainingEvent, n int) []database.TrainingEvent {
	if len(events) <= n {
		return events
	}
	seed := b.cfg.Seed
	if seed == 0 {
		seed = b.now().UnixNano()
	}
	rng := rand.New(rand.NewPCG(uint64(seed), 0))

	picked := append([]database.TrainingEvent(nil), events...)
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}
	picked = picked[:n]
	sort.Slice(picked, func(i, j int) bool {
		return picked[i].EventTime.Before(picked[j].EventTime)
	})
	return picked
}

func toExample(ev database.TrainingEvent, class string, weight float64) Example {
	return Example{
		UserID:            ev.UserID,
		ArticleID:         ev.ArticleID,
		RequestID:         ev.RequestID,
		EventTime:         ev.EventTime,
		Label:             ev.Label,
		Weight:            weight,
		Class:             class,
		CosineSimilarity:  ev.CosineSimilarity,
		HoursSincePublish: ev.HoursSincePublish,
		Source:            ev.Source,
		Category:          ev.Category,
	}
}

// splitTime returns the event time at the given fraction of the sorted
// combined timeline.
func splitTime(examples []Example, fraction float64) time.Time {
	times := make([]time.Time, len(examples))
	for i := range examples {
		times[i] = examples[i].EventTime
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	idx := int(math.Floor(fraction * float64(len(times))))
	if idx >= len(times) {
		idx = len(times) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return times[idx]
}

func (b *Builder) observe(ds *Dataset) {
	counts := map[[2]string]int{}
	for _, ex := range ds.Train {
		counts[[2]string{ex.Class, SplitTrain}]++
	}
	for _, ex := range ds.Validation {
		counts[[2]string{ex.Class, SplitValidation}]++
	}
	for _, class := range []string{ClassExplicit, ClassImplicit} {
		for _, split := range []string{SplitTrain, SplitValidation} {
			metrics.DatasetRows.WithLabelValues(class, split).Set(float64(counts[[2]string{class, split}]))
		}
	}
}

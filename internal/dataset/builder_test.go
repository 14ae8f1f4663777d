// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package dataset

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/newswire/internal/config"
	"github.com/tomtom215/newswire/internal/database"
)

type stubSource struct {
	explicit []database.TrainingEvent
	implicit []database.TrainingEvent
	err      error
}

func (s *stubSource) ExplicitEvents(context.Context) ([]database.TrainingEvent, error) {
	return s.explicit, s.err
}

func (s *stubSource) ImplicitEvents(context.Context) ([]database.TrainingEvent, error) {
	return s.implicit, s.err
}

func datasetConfig() *config.DatasetConfig {
	return &config.DatasetConfig{
		ImplicitWeight: 0.2,
		TrainFraction:  0.8,
		Seed:           7,
	}
}

func event(user, article int64, label int, at time.Time) database.TrainingEvent {
	return database.TrainingEvent{
		UserID:            user,
		ArticleID:         article,
		RequestID:         fmt.Sprintf("req-%d-%d", user, article),
		EventTime:         at,
		Label:             label,
		CosineSimilarity:  0.5,
		HoursSincePublish: 3,
		Source:            "reuters",
		Category:          "politics",
	}
}

func TestBuild_LabelsAndWeights(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	src := &stubSource{
		explicit: []database.TrainingEvent{
			event(1, 10, 1, base),
			event(1, 11, 0, base.Add(time.Hour)),
		},
		implicit: []database.TrainingEvent{
			event(1, 12, 0, base.Add(2*time.Hour)),
		},
	}
	b := NewBuilder(src, datasetConfig())

	ds, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	all := append(append([]Example(nil), ds.Train...), ds.Validation...)
	if len(all) != 3 {
		t.Fatalf("rows = %d, want 3", len(all))
	}
	for _, ex := range all {
		switch ex.Class {
		case ClassExplicit:
			if ex.Weight != 1.0 {
				t.Errorf("explicit weight = %f, want 1.0", ex.Weight)
			}
		case ClassImplicit:
			if ex.Weight != 0.2 {
				t.Errorf("implicit weight = %f, want 0.2", ex.Weight)
			}
			if ex.Label != 0 {
				t.Errorf("implicit label = %d, want 0", ex.Label)
			}
		default:
			t.Errorf("unknown class %q", ex.Class)
		}
	}
}

func TestBuild_ImplicitSubsampledToExplicitCount(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	src := &stubSource{
		explicit: []database.TrainingEvent{
			event(1, 10, 1, base),
			event(1, 11, 0, base.Add(time.Minute)),
		},
	}
	for i := int64(0); i < 50; i++ {
		src.implicit = append(src.implicit, event(2, 100+i, 0, base.Add(time.Duration(i)*time.Minute)))
	}
	b := NewBuilder(src, datasetConfig())

	ds, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	implicitRows := 0
	for _, ex := range append(append([]Example(nil), ds.Train...), ds.Validation...) {
		if ex.Class == ClassImplicit {
			implicitRows++
		}
	}
	if implicitRows != 2 {
		t.Errorf("implicit rows = %d, want subsampled to explicit count 2", implicitRows)
	}
}

func TestBuild_SubsampleDeterministicWithSeed(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	newSrc := func() *stubSource {
		src := &stubSource{
			explicit: []database.TrainingEvent{event(1, 10, 1, base)},
		}
		for i := int64(0); i < 30; i++ {
			src.implicit = append(src.implicit, event(2, 100+i, 0, base.Add(time.Duration(i)*time.Minute)))
		}
		return src
	}

	build := func() []Example {
		ds, err := NewBuilder(newSrc(), datasetConfig()).Build(context.Background())
		if err != nil {
			t.Fatalf("Build error: %v", err)
		}
		return append(append([]Example(nil), ds.Train...), ds.Validation...)
	}

	first, second := build(), build()
	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ArticleID != second[i].ArticleID {
			t.Fatalf("row %d differs across seeded builds: %d vs %d",
				i, first[i].ArticleID, second[i].ArticleID)
		}
	}
}

func TestBuild_TemporalSplit(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	src := &stubSource{}
	// Ten explicit rows an hour apart: the 0.8 percentile cut falls on the
	// ninth row, so eight train and two validate.
	for i := int64(0); i < 10; i++ {
		src.explicit = append(src.explicit, event(1, 10+i, 1, base.Add(time.Duration(i)*time.Hour)))
	}
	b := NewBuilder(src, datasetConfig())

	ds, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if len(ds.Train) != 8 || len(ds.Validation) != 2 {
		t.Fatalf("split = %d/%d, want 8/2", len(ds.Train), len(ds.Validation))
	}
	for _, ex := range ds.Train {
		if !ex.EventTime.Before(ds.SplitTime) {
			t.Errorf("train row at %v not strictly before split %v", ex.EventTime, ds.SplitTime)
		}
	}
	for _, ex := range ds.Validation {
		if ex.EventTime.Before(ds.SplitTime) {
			t.Errorf("validation row at %v before split %v", ex.EventTime, ds.SplitTime)
		}
	}
}

func TestBuild_Empty(t *testing.T) {
	b := NewBuilder(&stubSource{}, datasetConfig())
	ds, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if len(ds.Train) != 0 || len(ds.Validation) != 0 {
		t.Errorf("empty ledger produced %d/%d rows", len(ds.Train), len(ds.Validation))
	}
}

func TestBuild_SourceErrorPropagates(t *testing.T) {
	b := NewBuilder(&stubSource{err: context.DeadlineExceeded}, datasetConfig())
	if _, err := b.Build(context.Background()); err == nil {
		t.Error("Build must surface ledger read errors")
	}
}

func TestSnapshot_GetBuildsLazily(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	src := &stubSource{explicit: []database.TrainingEvent{event(1, 10, 1, base)}}
	snap := NewSnapshot(NewBuilder(src, datasetConfig()), time.Hour)

	ds, err := snap.Get(context.Background())
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(ds.Rows(SplitTrain))+len(ds.Rows(SplitValidation)) != 1 {
		t.Errorf("lazy build rows = %d, want 1", len(ds.Train)+len(ds.Validation))
	}

	// Second call serves the cached snapshot.
	again, err := snap.Get(context.Background())
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if again != ds {
		t.Error("second Get must return the cached snapshot")
	}
}

// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package dataset

import (
	"math"
	"testing"
)

func judgment(req string, score float64, label int) Judgment {
	return Judgment{RequestID: req, Score: score, Label: label}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPrecisionAtK(t *testing.T) {
	js := []Judgment{
		// Group A ranked by score: labels 1, 0, 1 -> P@2 = 0.5.
		judgment("a", 0.9, 1),
		judgment("a", 0.8, 0),
		judgment("a", 0.7, 1),
		// Group B ranked by score: labels 0, 0 -> P@2 = 0.
		judgment("b", 0.6, 0),
		judgment("b", 0.5, 0),
	}

	got := PrecisionAtK(js, 2)
	if !approxEqual(got, 0.25) {
		t.Errorf("PrecisionAtK(2) = %f, want 0.25", got)
	}
}

func TestPrecisionAtK_GroupSmallerThanK(t *testing.T) {
	js := []Judgment{
		judgment("a", 0.9, 1),
		judgment("a", 0.8, 0),
	}

	// k=5 over a 2-row group evaluates the full group: 1/2.
	got := PrecisionAtK(js, 5)
	if !approxEqual(got, 0.5) {
		t.Errorf("PrecisionAtK(5) = %f, want 0.5", got)
	}
}

func TestPrecisionAtK_Empty(t *testing.T) {
	if got := PrecisionAtK(nil, 3); got != 0 {
		t.Errorf("PrecisionAtK(nil) = %f, want 0", got)
	}
	if got := PrecisionAtK([]Judgment{judgment("a", 1, 1)}, 0); got != 0 {
		t.Errorf("PrecisionAtK(k=0) = %f, want 0", got)
	}
}

func TestNDCGAtK(t *testing.T) {
	// One group with the single positive ranked second:
	// DCG = 1/log2(3), ideal = 1/log2(2) = 1.
	js := []Judgment{
		judgment("a", 0.9, 0),
		judgment("a", 0.8, 1),
		judgment("a", 0.7, 0),
	}

	want := 1.0 / math.Log2(3)
	got := NDCGAtK(js, 3)
	if !approxEqual(got, want) {
		t.Errorf("NDCGAtK(3) = %f, want %f", got, want)
	}
}

func TestNDCGAtK_PerfectRanking(t *testing.T) {
	js := []Judgment{
		judgment("a", 0.9, 1),
		judgment("a", 0.8, 1),
		judgment("a", 0.7, 0),
	}

	if got := NDCGAtK(js, 3); !approxEqual(got, 1.0) {
		t.Errorf("NDCGAtK for perfect ranking = %f, want 1", got)
	}
}

func TestNDCGAtK_NoPositives(t *testing.T) {
	js := []Judgment{
		judgment("a", 0.9, 0),
		judgment("a", 0.8, 0),
	}

	if got := NDCGAtK(js, 2); got != 0 {
		t.Errorf("NDCGAtK with no positives = %f, want 0", got)
	}
}

func TestJudgmentsFromExamples(t *testing.T) {
	examples := []Example{
		{RequestID: "a", CosineSimilarity: 0.7, Label: 1},
		{RequestID: "", CosineSimilarity: 0.9, Label: 1}, // no request id, dropped
		{RequestID: "a", CosineSimilarity: 0.3, Label: 0},
	}

	js := JudgmentsFromExamples(examples)
	if len(js) != 2 {
		t.Fatalf("judgments = %d, want 2", len(js))
	}
	if js[0].Score != 0.7 || js[0].Label != 1 {
		t.Errorf("first judgment = %+v", js[0])
	}
}

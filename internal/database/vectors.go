// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package database

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// vectorLiteral renders an embedding as a DuckDB FLOAT array literal. The
// duckdb driver has no placeholder binding for fixed-size arrays, and
// float formatting cannot carry injection, so vectors are inlined while
// every other value stays parameterized.
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.Grow(len(v)*10 + 16)
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteString("]::FLOAT[")
	b.WriteString(strconv.Itoa(len(v)))
	b.WriteByte(']')
	return b.String()
}

// parseEmbedding decodes a to_json(embedding) column value. DuckDB
// serializes FLOAT arrays as JSON number arrays, which round-trips cleanly
// into []float32. A NULL column arrives as an invalid sql.NullString and
// maps to a nil slice.
func parseEmbedding(raw string) ([]float32, error) {
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var v []float32
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	return v, nil
}

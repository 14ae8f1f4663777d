// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

// Package models defines the domain entities shared across the application:
// articles, users, impressions, interactions, explanations, feed candidates,
// and the error taxonomy used at the API boundary.
//
// Four entities are durable (Article, User, Impression, Interaction); the
// training dataset is a derived projection over them and owns no state.
// The Impression ledger is the single source of truth for "was this shown".
package models

// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/newswire/internal/dataset"
	"github.com/tomtom215/newswire/internal/events"
	"github.com/tomtom215/newswire/internal/explain"
	"github.com/tomtom215/newswire/internal/feed"
	"github.com/tomtom215/newswire/internal/logging"
	"github.com/tomtom215/newswire/internal/metrics"
	"github.com/tomtom215/newswire/internal/models"
	"github.com/tomtom215/newswire/internal/validation"
)

// InteractionStore persists interactions. Implemented by *database.DB.
type InteractionStore interface {
	RecordInteraction(ctx context.Context, in *models.Interaction) error
	Ping(ctx context.Context) error
}

// Handler holds the services behind the HTTP surface.
type Handler struct {
	feed     *feed.Service
	store    InteractionStore
	explain  *explain.Service
	snapshot *dataset.Snapshot
	bus      *events.Bus
	now      func() time.Time
}

// NewHandler wires the API handlers. bus may be nil when event fan-out
// is not wanted (tests).
func NewHandler(feedSvc *feed.Service, store InteractionStore, explainSvc *explain.Service, snapshot *dataset.Snapshot, bus *events.Bus) *Handler {
	return &Handler{
		feed:     feedSvc,
		store:    store,
		explain:  explainSvc,
		snapshot: snapshot,
		bus:      bus,
		now:      time.Now,
	}
}

// feedResponse is the wire shape of one rendered feed.
type feedResponse struct {
	RequestID string          `json:"request_id"`
	UserID    int64           `json:"user_id"`
	Mode      models.FeedMode `json:"mode"`
	Items     []feedItem      `json:"items"`
}

type feedItem struct {
	ArticleID     int64               `json:"article_id"`
	Title         string              `json:"title"`
	Source        string              `json:"source"`
	Category      string              `json:"category,omitempty"`
	URL           string              `json:"url"`
	PublishedAt   time.Time           `json:"published_at"`
	ImageURL      string              `json:"image_url,omitempty"`
	Distance      float64             `json:"distance"`
	Rank          int                 `json:"rank"`
	RelScore      float64             `json:"rel_score,omitempty"`
	MMRScore      float64             `json:"mmr_score,omitempty"`
	Decomposition *feed.Decomposition `json:"decomposition,omitempty"`
}

// Feed renders GET /api/v1/feed?user_id=&k=&diversity=.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, err := parsePositiveInt64(r.URL.Query().Get("user_id"), "user_id", true)
	if err != nil {
		respondError(w, r, err)
		return
	}

	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, r, fmt.Errorf("%w: k must be a positive integer", models.ErrValidation))
			return
		}
		k = parsed
	}

	var diversity *float64
	if raw := r.URL.Query().Get("diversity"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, r, fmt.Errorf("%w: diversity must be a number", models.ErrValidation))
			return
		}
		diversity = &parsed
	}

	result, err := h.feed.BuildFeed(r.Context(), userID, k, diversity)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := feedResponse{
		RequestID: result.RequestID,
		UserID:    result.UserID,
		Mode:      result.Mode,
		Items:     make([]feedItem, len(result.Items)),
	}
	for i, item := range result.Items {
		c := item.Candidate
		resp.Items[i] = feedItem{
			ArticleID:     c.ArticleID,
			Title:         c.Title,
			Source:        c.Source,
			Category:      c.Category,
			URL:           c.URL,
			PublishedAt:   c.PublishedAt,
			ImageURL:      c.ImageURL,
			Distance:      c.Distance,
			Rank:          item.Rank,
			RelScore:      item.RelScore,
			MMRScore:      item.MMRScore,
			Decomposition: item.Decomposition,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// interactionRequest is the POST /api/v1/interactions body.
type interactionRequest struct {
	UserID    int64   `json:"user_id" validate:"required,gt=0"`
	ArticleID int64   `json:"article_id" validate:"required,gt=0"`
	RequestID *string `json:"request_id,omitempty" validate:"omitempty,min=1"`
	Type      string  `json:"type" validate:"required,oneof=click like dislike share"`
	DwellMS   *int64  `json:"dwell_ms,omitempty" validate:"omitempty,gte=0"`
}

// Interactions handles POST /api/v1/interactions: validate, record,
// publish the event, ack with 202.
func (h *Handler) Interactions(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, fmt.Errorf("%w: malformed request body", models.ErrValidation))
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		metrics.InteractionsTotal.WithLabelValues(req.Type, "validation_error").Inc()
		respondError(w, r, err)
		return
	}

	interaction := &models.Interaction{
		ID:        uuid.New(),
		UserID:    req.UserID,
		ArticleID: req.ArticleID,
		RequestID: req.RequestID,
		Type:      models.InteractionType(req.Type),
		CreatedAt: h.now().UTC(),
		DwellMS:   req.DwellMS,
	}

	if err := h.store.RecordInteraction(r.Context(), interaction); err != nil {
		result := "error"
		switch {
		case models.IsConflict(err):
			result = "conflict"
		case models.IsValidation(err):
			result = "validation_error"
		}
		metrics.InteractionsTotal.WithLabelValues(req.Type, result).Inc()
		respondError(w, r, err)
		return
	}
	metrics.InteractionsTotal.WithLabelValues(req.Type, "recorded").Inc()

	// The row is durable; event fan-out is best-effort from here.
	if h.bus != nil {
		if err := h.bus.PublishInteraction(interaction); err != nil {
			logging.Warn().
				Int64("user_id", interaction.UserID).
				Int64("article_id", interaction.ArticleID).
				Err(err).
				Msg("interaction event publish failed")
		}
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"id":     interaction.ID.String(),
	})
}

// Explanation handles GET /api/v1/articles/{id}/explanation?method=.
// A missing explanation is 204: the panel is optional by contract.
func (h *Handler) Explanation(w http.ResponseWriter, r *http.Request) {
	articleID, err := parsePositiveInt64(chi.URLParam(r, "id"), "id", true)
	if err != nil {
		respondError(w, r, err)
		return
	}

	method := models.ExplanationMethod(r.URL.Query().Get("method"))
	if method == "" {
		method = models.ExplainSHAP
	}

	exp, err := h.explain.Get(r.Context(), articleID, method)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if exp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, exp)
}

// DatasetTraining handles GET /api/v1/dataset/training?split=.
func (h *Handler) DatasetTraining(w http.ResponseWriter, r *http.Request) {
	split := r.URL.Query().Get("split")
	if split == "" {
		split = dataset.SplitTrain
	}
	if split != dataset.SplitTrain && split != dataset.SplitValidation {
		respondError(w, r, fmt.Errorf("%w: split must be %q or %q",
			models.ErrValidation, dataset.SplitTrain, dataset.SplitValidation))
		return
	}

	ds, err := h.snapshot.Get(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"split":      split,
		"split_time": ds.SplitTime,
		"built_at":   ds.BuiltAt,
		"rows":       ds.Rows(split),
	})
}

// Health reports overall service health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"reason": "database unreachable",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// HealthLive is the liveness probe: the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady is the readiness probe: dependencies answer.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func parsePositiveInt64(raw, name string, required bool) (int64, error) {
	if raw == "" {
		if required {
			return 0, fmt.Errorf("%w: %s is required", models.ErrValidation, name)
		}
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", models.ErrValidation, name)
	}
	return v, nil
}

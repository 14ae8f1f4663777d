// Newswire - Personalized News Feed and Ranking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newswire

package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/newswire/internal/config"
	"github.com/tomtom215/newswire/internal/logging"
	"github.com/tomtom215/newswire/internal/metrics"
	"github.com/tomtom215/newswire/internal/models"
)

// Store is the persistence surface the feed pipeline needs. Implemented
// by *database.DB; narrowed to an interface so pipeline tests can run
// against an in-memory stub.
type Store interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	CandidateSearch(ctx context.Context, userID int64, profile []float32, window time.Duration, limit int) ([]models.Candidate, error)
	RecentByCategory(ctx context.Context, categories []string, perCategory int) ([]models.Candidate, error)
	RecordImpressions(ctx context.Context, impressions []models.Impression) error
}

// Service orchestrates one feed request end to end: retrieval, balancing,
// reranking, and the atomic ledger write. Every non-empty response is
// recorded as impressions before it is returned; an empty result writes
// nothing.
type Service struct {
	store    Store
	reranker Reranker
	feedCfg  *config.FeedConfig
	rankCfg  *config.RerankConfig
	balancer *Balancer
	now      func() time.Time
}

// NewService wires the feed pipeline. reranker is either the in-process
// MMR or the remote scoring client, per rerank.mode.
func NewService(store Store, reranker Reranker, feedCfg *config.FeedConfig, rankCfg *config.RerankConfig) *Service {
	return &Service{
		store:    store,
		reranker: reranker,
		feedCfg:  feedCfg,
		rankCfg:  rankCfg,
		balancer: NewBalancer(feedCfg),
		now:      time.Now,
	}
}

// BuildFeed renders a feed for userID. k <= 0 selects the configured
// default; diversity is nil when the caller left it unset. The returned
// request id is the ledger key clients echo back in interactions.
func (s *Service) BuildFeed(ctx context.Context, userID int64, k int, diversity *float64) (*Feed, error) {
	start := s.now()
	if k <= 0 {
		k = s.feedCfg.DefaultK
	}
	if k > s.feedCfg.MaxK {
		return nil, fmt.Errorf("%w: k %d exceeds maximum %d", models.ErrValidation, k, s.feedCfg.MaxK)
	}

	div := s.rankCfg.DefaultDiversity
	if diversity != nil {
		if *diversity < 0 || *diversity > 1 {
			return nil, fmt.Errorf("%w: diversity %f outside [0,1]", models.ErrValidation, *diversity)
		}
		div = *diversity
	}
	lambda := QuantizeLambda(1.0 - div)

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	requestID := logging.GenerateRequestID()
	log := logging.Ctx(ctx).With().
		Str("feed_request_id", requestID).
		Int64("user_id", userID).
		Logger()

	feed := &Feed{RequestID: requestID, UserID: userID}
	switch {
	case !user.HasProfile():
		feed.Mode = models.ModeColdStart
		feed.Items, err = s.coldStartItems(ctx, k)
		if err != nil {
			return nil, err
		}

	default:
		items, mode, err := s.personalizedItems(ctx, user, lambda, k)
		if err != nil {
			return nil, err
		}
		feed.Mode = mode
		feed.Items = items
	}

	if err := s.recordFeed(ctx, feed); err != nil {
		return nil, err
	}

	metrics.FeedRequestsTotal.WithLabelValues(string(feed.Mode)).Inc()
	metrics.FeedRequestDuration.WithLabelValues("total").Observe(s.now().Sub(start).Seconds())
	log.Debug().
		Str("mode", string(feed.Mode)).
		Int("items", len(feed.Items)).
		Float64("lambda", lambda).
		Msg("Feed rendered")
	return feed, nil
}

// personalizedItems runs retrieval + balancing + reranking. An empty or
// unavailable candidate pool degrades to recent headlines under the
// fallback mode; a reranker failure after candidates were fetched fails
// the whole request, because silently serving the unranked pool would
// misrepresent the diversity contract.
func (s *Service) personalizedItems(ctx context.Context, user *models.User, lambda float64, k int) ([]RankedItem, models.FeedMode, error) {
	retrieveStart := s.now()
	cands, err := s.store.CandidateSearch(ctx, user.ID, user.Embedding, s.feedCfg.RecencyWindow, s.feedCfg.CandidateLimit)
	metrics.FeedRequestDuration.WithLabelValues("retrieve").Observe(s.now().Sub(retrieveStart).Seconds())
	if err != nil {
		if !models.IsUnavailable(err) {
			return nil, "", err
		}
		logging.Ctx(ctx).Warn().Err(err).Msg("Candidate retrieval unavailable, serving fallback feed")
		cands = nil
	}
	metrics.CandidatePoolSize.Observe(float64(len(cands)))

	if len(cands) == 0 {
		items, err := s.coldStartItems(ctx, k)
		if err != nil {
			return nil, "", err
		}
		return items, models.ModeFallbackNoCandidates, nil
	}

	balanceStart := s.now()
	pool := s.balancer.Balance(cands)
	metrics.FeedRequestDuration.WithLabelValues("balance").Observe(s.now().Sub(balanceStart).Seconds())

	rerankStart := s.now()
	items, err := s.reranker.Rerank(ctx, pool, lambda, k)
	metrics.FeedRequestDuration.WithLabelValues("rerank").Observe(s.now().Sub(rerankStart).Seconds())
	if err != nil {
		return nil, "", fmt.Errorf("rerank: %w", err)
	}
	return items, models.ModePersonalized, nil
}

// coldStartItems serves the fixed-category recent headlines used both for
// profileless users and as the no-candidates fallback. The reranker never
// runs here, so items carry position only.
func (s *Service) coldStartItems(ctx context.Context, k int) ([]RankedItem, error) {
	cands, err := s.store.RecentByCategory(ctx, s.feedCfg.ColdStartCategories, s.feedCfg.ColdStartPerCategory)
	if err != nil {
		return nil, err
	}
	sortCandidates(cands)

	if len(cands) > k {
		cands = cands[:k]
	}
	items := make([]RankedItem, len(cands))
	for i := range cands {
		items[i] = RankedItem{Candidate: cands[i], Rank: i + 1}
	}
	return items, nil
}

// recordFeed writes the rendered feed to the impression ledger in one
// transaction. Nothing rendered means nothing written, so empty feeds
// never consume a request id in the ledger.
func (s *Service) recordFeed(ctx context.Context, feed *Feed) error {
	if len(feed.Items) == 0 {
		return nil
	}

	shownAt := s.now().UTC()
	impressions := make([]models.Impression, len(feed.Items))
	for i, item := range feed.Items {
		impressions[i] = models.Impression{
			ID:           uuid.New(),
			UserID:       feed.UserID,
			ArticleID:    item.Candidate.ArticleID,
			ShownAt:      shownAt,
			Position:     item.Rank,
			Surface:      models.SurfaceFeed,
			RequestID:    feed.RequestID,
			ModelVersion: s.feedCfg.ModelVersion,
		}
	}

	ledgerStart := s.now()
	err := s.store.RecordImpressions(ctx, impressions)
	metrics.FeedRequestDuration.WithLabelValues("ledger").Observe(s.now().Sub(ledgerStart).Seconds())
	if err != nil {
		return fmt.Errorf("record impressions for %s: %w", feed.RequestID, err)
	}
	return nil
}

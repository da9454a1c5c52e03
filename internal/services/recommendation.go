package services

import (
	"context"
	"time"

	"github.com/yishak-cs/storefront-recommender/internal/logger"
	"github.com/yishak-cs/storefront-recommender/internal/metrics"
	"github.com/yishak-cs/storefront-recommender/internal/models"
)

// Options tunes the recommendation pipeline. Zero values use the package defaults.
type Options struct {
	HistoryLimit      int
	HistoryCandidates int
	ResultSize        int
}

// RecommendationService is the entry point for product recommendations and
// cashback reminders. Its public methods never fail: store problems are logged
// and produce an empty result.
type RecommendationService struct {
	history    *HistoryReader
	pairs      PairTableSource
	candidates *CandidateGenerator
	ranker     *Ranker
	cashback   *CashbackScanner
	log        *logger.Logger
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(
	orders OrderRepository,
	products ProductRepository,
	users UserRepository,
	pairs PairTableSource,
	opts Options,
	log *logger.Logger,
) *RecommendationService {
	return &RecommendationService{
		history:    NewHistoryReader(orders, opts.HistoryLimit),
		pairs:      pairs,
		candidates: NewCandidateGenerator(products, opts.HistoryCandidates, log),
		ranker:     NewRanker(opts.ResultSize),
		cashback:   NewCashbackScanner(users),
		log:        log.With("service", "RecommendationService"),
	}
}

// GetProductRecommendations answers: "What should this user buy next?"
// With an anchor product the candidates are items bought together with it;
// without one they come from everything the user has bought. Products the user
// already purchased are never returned.
func (s *RecommendationService) GetProductRecommendations(ctx context.Context, userID, anchorProductID string) []models.RecommendationCandidate {
	mode := "history"
	if anchorProductID != "" {
		mode = "anchor"
	}
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	}()

	recs, err := s.recommend(ctx, userID, anchorProductID)
	if err != nil {
		s.log.Warn("recommendations unavailable",
			"user_id", userID,
			"anchor_product_id", anchorProductID,
			"error", err)
		metrics.RecommendationRequests.WithLabelValues(mode, "degraded").Inc()
		return []models.RecommendationCandidate{}
	}
	if ctx.Err() != nil {
		return []models.RecommendationCandidate{}
	}

	outcome := "ok"
	if len(recs) == 0 {
		outcome = "empty"
	}
	metrics.RecommendationRequests.WithLabelValues(mode, outcome).Inc()
	return recs
}

func (s *RecommendationService) recommend(ctx context.Context, userID, anchorProductID string) ([]models.RecommendationCandidate, error) {
	orders, err := s.history.RecentOrders(ctx, userID)
	if err != nil {
		return nil, err
	}
	purchased := AggregatePurchases(orders)

	if anchorProductID == "" && len(purchased) == 0 {
		return []models.RecommendationCandidate{}, nil
	}

	table, err := s.pairs.PairTable(ctx)
	if err != nil {
		return nil, err
	}

	var candidates []models.Product
	if anchorProductID != "" {
		candidates, err = s.candidates.ForAnchor(ctx, table, anchorProductID, purchased)
	} else {
		candidates, err = s.candidates.ForHistory(ctx, table, purchased)
	}
	if err != nil {
		return nil, err
	}

	return s.ranker.Rank(candidates, purchased), nil
}

// RelatedProducts answers: "What do customers buy together with this product?"
// Candidates are ranked without any personal history.
func (s *RecommendationService) RelatedProducts(ctx context.Context, productID string) []models.RecommendationCandidate {
	table, err := s.pairs.PairTable(ctx)
	if err != nil {
		s.log.Warn("related products unavailable", "product_id", productID, "error", err)
		return []models.RecommendationCandidate{}
	}
	candidates, err := s.candidates.ForAnchor(ctx, table, productID, nil)
	if err != nil {
		s.log.Warn("related products unavailable", "product_id", productID, "error", err)
		return []models.RecommendationCandidate{}
	}
	return s.ranker.Rank(candidates, nil)
}

// CheckUnusedCashback lists users whose cashback has gone unused for over 30 days
func (s *RecommendationService) CheckUnusedCashback(ctx context.Context) []models.CashbackReminder {
	reminders, err := s.ScanUnusedCashback(ctx)
	if err != nil {
		s.log.Warn("cashback scan unavailable", "error", err)
		return []models.CashbackReminder{}
	}
	return reminders
}

// ScanUnusedCashback is CheckUnusedCashback for callers that need to tell a
// store failure apart from an empty result
func (s *RecommendationService) ScanUnusedCashback(ctx context.Context) ([]models.CashbackReminder, error) {
	reminders, err := s.cashback.Scan(ctx)
	if err != nil {
		return nil, err
	}

	high := 0
	for _, r := range reminders {
		if r.Priority == models.CashbackPriorityHigh {
			high++
		}
	}
	metrics.CashbackReminders.WithLabelValues(string(models.CashbackPriorityHigh)).Set(float64(high))
	metrics.CashbackReminders.WithLabelValues(string(models.CashbackPriorityMedium)).Set(float64(len(reminders) - high))
	return reminders, nil
}

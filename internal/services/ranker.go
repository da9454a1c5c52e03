package services

import (
	"math"
	"slices"
	"strings"

	"github.com/yishak-cs/storefront-recommender/internal/models"
)

// DefaultResultSize is the maximum number of recommendations returned
const DefaultResultSize = 6

// Scoring weights
const (
	categoryAffinityWeight = 10.0
	closePriceBonus        = 20.0
	nearPriceBonus         = 10.0
	closePriceRatio        = 0.3
	nearPriceRatio         = 0.5
	ratingWeight           = 5.0
	defaultRating          = 4.0
	featuredBonus          = 15.0
)

// PurchaseProfile is the part of a purchase aggregate the ranker looks at
type PurchaseProfile struct {
	// CategoryWeight sums the per-order purchase counts of each category's products
	CategoryWeight map[string]int
	// AveragePrice is total spend divided by distinct products, 0 for an empty history
	AveragePrice float64
}

// NewPurchaseProfile summarizes an aggregate for scoring
func NewPurchaseProfile(purchased models.PurchaseAggregate) PurchaseProfile {
	profile := PurchaseProfile{CategoryWeight: make(map[string]int)}
	if len(purchased) == 0 {
		return profile
	}
	var total float64
	for _, p := range purchased {
		total += p.TotalSpent
		if p.Category != "" {
			profile.CategoryWeight[p.Category] += p.Count
		}
	}
	profile.AveragePrice = total / float64(len(purchased))
	return profile
}

// Score computes the additive ranking score of a product for a profile
func Score(product models.Product, profile PurchaseProfile) float64 {
	var score float64

	if weight, ok := profile.CategoryWeight[product.Category]; ok {
		score += categoryAffinityWeight * float64(weight)
	}

	if profile.AveragePrice > 0 {
		diff := math.Abs(product.Price-profile.AveragePrice) / profile.AveragePrice
		switch {
		case diff < closePriceRatio:
			score += closePriceBonus
		case diff < nearPriceRatio:
			score += nearPriceBonus
		}
	}

	rating := defaultRating
	if product.Rating != nil {
		rating = *product.Rating
	}
	score += ratingWeight * rating

	if product.Featured {
		score += featuredBonus
	}
	return score
}

// Ranker orders candidates by score
type Ranker struct {
	limit int
}

// NewRanker creates a ranker returning at most limit results. A non-positive limit uses DefaultResultSize.
func NewRanker(limit int) *Ranker {
	if limit <= 0 {
		limit = DefaultResultSize
	}
	return &Ranker{limit: limit}
}

// Rank scores candidates against the purchase aggregate and returns the best,
// score descending. Equal scores are ordered by product ID.
func (r *Ranker) Rank(candidates []models.Product, purchased models.PurchaseAggregate) []models.RecommendationCandidate {
	profile := NewPurchaseProfile(purchased)

	ranked := make([]models.RecommendationCandidate, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, models.RecommendationCandidate{
			Product:             c,
			RecommendationScore: Score(c, profile),
		})
	}
	slices.SortFunc(ranked, func(a, b models.RecommendationCandidate) int {
		switch {
		case a.RecommendationScore > b.RecommendationScore:
			return -1
		case a.RecommendationScore < b.RecommendationScore:
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
	if len(ranked) > r.limit {
		ranked = ranked[:r.limit]
	}
	return ranked
}

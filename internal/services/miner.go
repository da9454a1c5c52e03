package services

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/yishak-cs/storefront-recommender/internal/logger"
	"github.com/yishak-cs/storefront-recommender/internal/metrics"
	"github.com/yishak-cs/storefront-recommender/internal/models"
)

// DefaultTopPairs is how many pairs the frequency table keeps
const DefaultTopPairs = 100

// PairKey returns the canonical key for two product IDs. PairKey(a, b) == PairKey(b, a).
func PairKey(a, b string) string {
	return models.NewItemPair(a, b).Key()
}

// basket returns the distinct valid product IDs of an order, sorted
func basket(order models.Order) []string {
	ids := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		if item.ProductID == "" {
			continue
		}
		ids = append(ids, item.ProductID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// CountPairs counts, for every unordered product pair, the number of orders
// containing both. Orders with fewer than two distinct products are skipped.
// The second return value is the number of (order, pair) occurrences counted.
func CountPairs(orders []models.Order) (map[models.ItemPair]int, int) {
	counts := make(map[models.ItemPair]int)
	occurrences := 0
	for _, order := range orders {
		ids := basket(order)
		if len(ids) < 2 {
			continue
		}
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				counts[models.NewItemPair(ids[i], ids[j])]++
				occurrences++
			}
		}
	}
	return counts, occurrences
}

// MinePairs builds a frequency table over orders, keeping the topK most
// frequent pairs. Equal counts are ordered by pair key.
func MinePairs(orders []models.Order, topK int) models.FrequencyTable {
	if topK <= 0 {
		topK = DefaultTopPairs
	}
	counts, occurrences := CountPairs(orders)

	pairs := make([]models.PairFrequency, 0, len(counts))
	for pair, count := range counts {
		pairs = append(pairs, models.PairFrequency{Pair: pair, Key: pair.Key(), Count: count})
	}
	slices.SortFunc(pairs, func(a, b models.PairFrequency) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Key, b.Key)
	})
	if len(pairs) > topK {
		pairs = pairs[:topK]
	}

	return models.FrequencyTable{
		Pairs:           pairs,
		OrdersScanned:   len(orders),
		PairOccurrences: occurrences,
	}
}

// BasketPairMiner mines co-purchase pairs across the whole order store
type BasketPairMiner struct {
	orders OrderRepository
	topK   int
	log    *logger.Logger
	now    func() time.Time
}

// NewBasketPairMiner creates a miner. A non-positive topK uses DefaultTopPairs.
func NewBasketPairMiner(orders OrderRepository, topK int, log *logger.Logger) *BasketPairMiner {
	if topK <= 0 {
		topK = DefaultTopPairs
	}
	return &BasketPairMiner{
		orders: orders,
		topK:   topK,
		log:    log.With("service", "BasketPairMiner"),
		now:    time.Now,
	}
}

// Mine scans every order in the store and returns the frequency table
func (m *BasketPairMiner) Mine(ctx context.Context) (models.FrequencyTable, error) {
	start := m.now()
	orders, err := m.orders.FindAllOrders(ctx)
	if err != nil {
		return models.FrequencyTable{}, dataAccessError("read all orders", err)
	}
	if err := ctx.Err(); err != nil {
		return models.FrequencyTable{}, err
	}

	table := MinePairs(orders, m.topK)
	table.ComputedAt = m.now().UTC()

	elapsed := time.Since(start)
	metrics.PairMiningDuration.Observe(elapsed.Seconds())
	metrics.PairMiningOrders.Set(float64(table.OrdersScanned))
	m.log.Debug("mined basket pairs",
		"orders", table.OrdersScanned,
		"pair_occurrences", table.PairOccurrences,
		"kept", len(table.Pairs),
		"duration", elapsed)

	return table, nil
}

// PairTable mines on every call
func (m *BasketPairMiner) PairTable(ctx context.Context) (models.FrequencyTable, error) {
	return m.Mine(ctx)
}

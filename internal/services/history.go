package services

import (
	"context"
	"slices"

	"github.com/yishak-cs/storefront-recommender/internal/models"
)

// DefaultHistoryLimit bounds how many past orders feed a user's history
const DefaultHistoryLimit = 50

// HistoryReader fetches a user's completed orders
type HistoryReader struct {
	orders OrderRepository
	limit  int
}

// NewHistoryReader creates a history reader. A non-positive limit uses DefaultHistoryLimit.
func NewHistoryReader(orders OrderRepository, limit int) *HistoryReader {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &HistoryReader{orders: orders, limit: limit}
}

// RecentOrders returns up to the configured number of the user's delivered,
// shipped or confirmed orders, newest first.
func (r *HistoryReader) RecentOrders(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := r.orders.FindOrders(ctx, OrderQuery{
		UserID:   userID,
		Statuses: models.CompletedStatuses,
		Limit:    r.limit,
	})
	if err != nil {
		return nil, dataAccessError("read order history", err)
	}

	// The status filter, ordering and limit hold even if a store ignores them.
	eligible := orders[:0:0]
	for _, o := range orders {
		if slices.Contains(models.CompletedStatuses, o.Status) {
			eligible = append(eligible, o)
		}
	}
	slices.SortStableFunc(eligible, func(a, b models.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(eligible) > r.limit {
		eligible = eligible[:r.limit]
	}
	return eligible, nil
}

// AggregatePurchases collapses order lines into one entry per product. Count
// grows by one per order line, not per unit; malformed lines are skipped.
func AggregatePurchases(orders []models.Order) models.PurchaseAggregate {
	aggregate := make(models.PurchaseAggregate)
	for _, order := range orders {
		for _, item := range order.Items {
			if !item.Valid() {
				continue
			}
			entry, ok := aggregate[item.ProductID]
			if !ok {
				aggregate[item.ProductID] = &models.PurchasedProduct{
					ProductID:  item.ProductID,
					Category:   item.Category,
					Count:      1,
					TotalSpent: item.Subtotal(),
				}
				continue
			}
			entry.Count++
			entry.TotalSpent += item.Subtotal()
			if entry.Category == "" {
				entry.Category = item.Category
			}
		}
	}
	return aggregate
}

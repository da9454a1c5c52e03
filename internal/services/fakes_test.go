package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/yishak-cs/storefront-recommender/internal/models"
)

var errStoreDown = errors.New("store unreachable")

// memoryStore is an in-memory order, product and user store
type memoryStore struct {
	mu       sync.Mutex
	orders   []models.Order
	products map[string]models.Product
	users    []models.User

	failOrders   bool
	failProducts bool
	failUsers    bool

	allOrdersCalls int
	productLookups []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{products: make(map[string]models.Product)}
}

func (m *memoryStore) FindOrders(_ context.Context, q OrderQuery) ([]models.Order, error) {
	if m.failOrders {
		return nil, errStoreDown
	}
	var out []models.Order
	for _, o := range m.orders {
		if o.UserID != q.UserID {
			continue
		}
		if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, o.Status) {
			continue
		}
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b models.Order) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memoryStore) FindAllOrders(_ context.Context) ([]models.Order, error) {
	m.mu.Lock()
	m.allOrdersCalls++
	m.mu.Unlock()
	if m.failOrders {
		return nil, errStoreDown
	}
	return slices.Clone(m.orders), nil
}

func (m *memoryStore) FindProductByID(_ context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	m.productLookups = append(m.productLookups, id)
	m.mu.Unlock()
	if m.failProducts {
		return nil, errStoreDown
	}
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memoryStore) FindUsersWithPositiveCashback(_ context.Context) ([]models.User, error) {
	if m.failUsers {
		return nil, errStoreDown
	}
	var out []models.User
	for _, u := range m.users {
		if u.CashbackBalance > 0 {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memoryStore) addProduct(id, category string, price float64, rating *float64, featured bool) {
	m.products[id] = models.Product{
		ID:       id,
		Name:     "Product " + id,
		Category: category,
		Price:    price,
		Rating:   rating,
		Featured: featured,
	}
}

func ptrFloat(v float64) *float64 { return &v }

func ptrTime(t time.Time) *time.Time { return &t }

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// order builds a delivered order containing one unit of each product at price 100
func order(id, userID string, productIDs ...string) models.Order {
	items := make([]models.OrderItem, 0, len(productIDs))
	for _, pid := range productIDs {
		items = append(items, models.OrderItem{ProductID: pid, Price: ptrFloat(100), Quantity: 1, Category: "General"})
	}
	return models.Order{
		ID:        id,
		UserID:    userID,
		Items:     items,
		Status:    models.OrderStatusDelivered,
		CreatedAt: baseTime,
	}
}

func productIDs(recs []models.RecommendationCandidate) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}

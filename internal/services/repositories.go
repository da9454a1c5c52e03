package services

import (
	"context"

	"github.com/yishak-cs/storefront-recommender/internal/models"
)

// OrderQuery filters a single user's orders. Results are ordered by creation
// time, newest first.
type OrderQuery struct {
	UserID   string
	Statuses []models.OrderStatus
	Limit    int
}

// OrderRepository reads orders from the order store
type OrderRepository interface {
	FindOrders(ctx context.Context, query OrderQuery) ([]models.Order, error)
	FindAllOrders(ctx context.Context) ([]models.Order, error)
}

// ProductRepository resolves catalog entries. A missing product is (nil, nil).
type ProductRepository interface {
	FindProductByID(ctx context.Context, id string) (*models.Product, error)
}

// UserRepository reads customer records
type UserRepository interface {
	FindUsersWithPositiveCashback(ctx context.Context) ([]models.User, error)
}

// PairTableSource supplies the co-purchase frequency table
type PairTableSource interface {
	PairTable(ctx context.Context) (models.FrequencyTable, error)
}

package sqlstore

import (
	"time"

	"github.com/yishak-cs/storefront-recommender/internal/models"
)

// UserRow is the users table
type UserRow struct {
	ID               string  `gorm:"primaryKey;size:64"`
	DisplayName      string  `gorm:"size:255"`
	Email            string  `gorm:"size:255;index"`
	CashbackBalance  float64 `gorm:"not null;default:0;index"`
	LastPurchaseDate *time.Time
}

func (UserRow) TableName() string { return "users" }

// ProductRow is the products table
type ProductRow struct {
	ID       string  `gorm:"primaryKey;size:64"`
	Name     string  `gorm:"size:255"`
	Category string  `gorm:"size:128;index"`
	Price    float64 `gorm:"not null;default:0"`
	Rating   *float64
	Featured bool `gorm:"not null;default:false"`
}

func (ProductRow) TableName() string { return "products" }

// OrderRow is the orders table
type OrderRow struct {
	ID        string         `gorm:"primaryKey;size:64"`
	UserID    string         `gorm:"size:64;index:idx_orders_user_created,priority:1"`
	Status    string         `gorm:"size:32;index"`
	CreatedAt time.Time      `gorm:"index:idx_orders_user_created,priority:2"`
	Items     []OrderItemRow `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderRow) TableName() string { return "orders" }

// OrderItemRow is the order_items table
type OrderItemRow struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	OrderID   string `gorm:"size:64;index"`
	ProductID string `gorm:"size:64;index"`
	Price     *float64
	Quantity  int    `gorm:"not null;default:1"`
	Category  string `gorm:"size:128"`
}

func (OrderItemRow) TableName() string { return "order_items" }

// AllModels lists every table for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{&UserRow{}, &ProductRow{}, &OrderRow{}, &OrderItemRow{}}
}

func (r UserRow) toModel() models.User {
	return models.User{
		ID:               r.ID,
		DisplayName:      r.DisplayName,
		Email:            r.Email,
		CashbackBalance:  r.CashbackBalance,
		LastPurchaseDate: r.LastPurchaseDate,
	}
}

func userRowFrom(u models.User) UserRow {
	return UserRow{
		ID:               u.ID,
		DisplayName:      u.DisplayName,
		Email:            u.Email,
		CashbackBalance:  u.CashbackBalance,
		LastPurchaseDate: u.LastPurchaseDate,
	}
}

func (r ProductRow) toModel() *models.Product {
	return &models.Product{
		ID:       r.ID,
		Name:     r.Name,
		Category: r.Category,
		Price:    r.Price,
		Rating:   r.Rating,
		Featured: r.Featured,
	}
}

func productRowFrom(p models.Product) ProductRow {
	return ProductRow{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		Price:    p.Price,
		Rating:   p.Rating,
		Featured: p.Featured,
	}
}

func (r OrderRow) toModel() models.Order {
	order := models.Order{
		ID:        r.ID,
		UserID:    r.UserID,
		Status:    models.OrderStatus(r.Status),
		CreatedAt: r.CreatedAt,
	}
	for _, item := range r.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Category:  item.Category,
		})
	}
	return order
}

func orderRowFrom(o models.Order) OrderRow {
	row := OrderRow{
		ID:        o.ID,
		UserID:    o.UserID,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}
	for _, item := range o.Items {
		row.Items = append(row.Items, OrderItemRow{
			OrderID:   o.ID,
			ProductID: item.ProductID,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Category:  item.Category,
		})
	}
	return row
}

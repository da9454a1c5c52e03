package models

import "time"

// OrderStatus is the lifecycle state of a customer order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// CompletedStatuses are the order states that count as purchase history
var CompletedStatuses = []OrderStatus{
	OrderStatusDelivered,
	OrderStatusShipped,
	OrderStatusConfirmed,
}

// User represents a storefront customer
type User struct {
	ID               string     `json:"id"`
	DisplayName      string     `json:"display_name"`
	Email            string     `json:"email"`
	CashbackBalance  float64    `json:"cashback_balance"`
	LastPurchaseDate *time.Time `json:"last_purchase_date,omitempty"`
}

// Product represents a catalog entry as seen by the recommendation engine
type Product struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Price    float64  `json:"price"`
	Rating   *float64 `json:"rating,omitempty"`
	Featured bool     `json:"featured"`
}

// Order represents a customer order
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Items     []OrderItem `json:"items"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// OrderItem is a single order line. Category is copied from the catalog at
// purchase time.
type OrderItem struct {
	ProductID string   `json:"product_id"`
	Price     *float64 `json:"price"`
	Quantity  int      `json:"quantity"`
	Category  string   `json:"category"`
}

// Valid reports whether the line carries the fields analysis depends on
func (i OrderItem) Valid() bool {
	return i.ProductID != "" && i.Price != nil
}

// Subtotal returns price times quantity, counting a missing quantity as one unit
func (i OrderItem) Subtotal() float64 {
	if i.Price == nil {
		return 0
	}
	qty := i.Quantity
	if qty <= 0 {
		qty = 1
	}
	return *i.Price * float64(qty)
}

// PurchasedProduct is one user's purchase history for a single product
type PurchasedProduct struct {
	ProductID  string  `json:"product_id"`
	Category   string  `json:"category"`
	Count      int     `json:"count"`
	TotalSpent float64 `json:"total_spent"`
}

// PurchaseAggregate maps product ID to that product's purchase history
type PurchaseAggregate map[string]*PurchasedProduct

// Contains reports whether the product was purchased
func (a PurchaseAggregate) Contains(productID string) bool {
	_, ok := a[productID]
	return ok
}

// RecommendationCandidate is a product annotated with its ranking score
type RecommendationCandidate struct {
	Product
	RecommendationScore float64 `json:"recommendation_score"`
}

// CashbackPriority is the urgency tier of a cashback reminder
type CashbackPriority string

const (
	CashbackPriorityHigh   CashbackPriority = "high"
	CashbackPriorityMedium CashbackPriority = "medium"
)

// CashbackReminder flags a user holding unused cashback
type CashbackReminder struct {
	UserID                string           `json:"user_id"`
	DisplayName           string           `json:"display_name"`
	CashbackBalance       float64          `json:"cashback_balance"`
	DaysSinceLastPurchase int              `json:"days_since_last_purchase"`
	Priority              CashbackPriority `json:"priority"`
}

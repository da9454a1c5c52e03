package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/yishak-cs/storefront-recommender/internal/models"
)

func TestAggregatePurchases(t *testing.T) {
	orders := []models.Order{
		{
			ID: "o1",
			Items: []models.OrderItem{
				{ProductID: "ring", Price: ptrFloat(4000), Quantity: 3, Category: "Anillos"},
				{ProductID: "chain", Price: ptrFloat(1500), Quantity: 1, Category: "Cadenas"},
				{ProductID: "", Price: ptrFloat(99), Quantity: 1},
				{ProductID: "broken", Price: nil, Quantity: 1},
			},
		},
		{
			ID: "o2",
			Items: []models.OrderItem{
				{ProductID: "ring", Price: ptrFloat(3500), Quantity: 1, Category: "Anillos"},
			},
		},
	}

	agg := AggregatePurchases(orders)

	if len(agg) != 2 {
		t.Fatalf("len(aggregate) = %d, want 2", len(agg))
	}
	ring := agg["ring"]
	if ring.Count != 2 {
		t.Errorf("ring.Count = %d, want 2 (one per order, not per unit)", ring.Count)
	}
	if ring.TotalSpent != 4000*3+3500 {
		t.Errorf("ring.TotalSpent = %v, want %v", ring.TotalSpent, 4000*3+3500)
	}
	if ring.Category != "Anillos" {
		t.Errorf("ring.Category = %q, want Anillos", ring.Category)
	}
	if agg.Contains("broken") || agg.Contains("") {
		t.Error("malformed items should be skipped")
	}
	if agg["chain"].Count != 1 || agg["chain"].TotalSpent != 1500 {
		t.Errorf("chain = %+v, want count 1 spend 1500", agg["chain"])
	}
}

func TestAggregatePurchases_Empty(t *testing.T) {
	if agg := AggregatePurchases(nil); len(agg) != 0 {
		t.Errorf("AggregatePurchases(nil) = %v, want empty", agg)
	}
}

func TestHistoryReader_RecentOrders(t *testing.T) {
	store := newMemoryStore()
	statuses := []models.OrderStatus{
		models.OrderStatusDelivered,
		models.OrderStatusShipped,
		models.OrderStatusConfirmed,
		models.OrderStatusCancelled,
		models.OrderStatusPending,
	}
	for i := 0; i < 60; i++ {
		o := order(fmt.Sprintf("o%02d", i), "u1", "P1")
		o.Status = statuses[i%len(statuses)]
		o.CreatedAt = baseTime.Add(time.Duration(i) * time.Hour)
		store.orders = append(store.orders, o)
	}
	store.orders = append(store.orders, order("other", "u2", "P1"))

	reader := NewHistoryReader(store, 0)
	orders, err := reader.RecentOrders(context.Background(), "u1")
	if err != nil {
		t.Fatalf("RecentOrders() error = %v", err)
	}
	// 60 orders, 3 of every 5 are eligible
	if len(orders) != 36 {
		t.Fatalf("len(orders) = %d, want 36", len(orders))
	}
	for i, o := range orders {
		if o.UserID != "u1" {
			t.Errorf("orders[%d] belongs to %s", i, o.UserID)
		}
		if o.Status == models.OrderStatusCancelled || o.Status == models.OrderStatusPending {
			t.Errorf("orders[%d] has ineligible status %s", i, o.Status)
		}
		if i > 0 && o.CreatedAt.After(orders[i-1].CreatedAt) {
			t.Errorf("orders not newest first at %d", i)
		}
	}

	limited := NewHistoryReader(store, 5)
	orders, err = limited.RecentOrders(context.Background(), "u1")
	if err != nil {
		t.Fatalf("RecentOrders() error = %v", err)
	}
	if len(orders) != 5 {
		t.Errorf("len(orders) = %d, want 5", len(orders))
	}
}

func TestHistoryReader_StoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.failOrders = true

	_, err := NewHistoryReader(store, 0).RecentOrders(context.Background(), "u1")
	if !errors.Is(err, ErrDataAccess) {
		t.Errorf("error = %v, want ErrDataAccess", err)
	}
	if !errors.Is(err, errStoreDown) {
		t.Errorf("error = %v, want wrapped store error", err)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/yishak-cs/storefront-recommender/internal/logger"
	"github.com/yishak-cs/storefront-recommender/internal/models"
)

func TestCandidateGenerator_ForAnchor(t *testing.T) {
	store := newMemoryStore()
	for _, id := range []string{"P1", "P2", "P3", "P4"} {
		store.addProduct(id, "General", 100, nil, false)
	}
	table := MinePairs([]models.Order{
		order("o1", "u1", "P1", "P2", "P3"),
		order("o2", "u2", "P1", "P4"),
	}, DefaultTopPairs)

	gen := NewCandidateGenerator(store, 0, logger.NewNop())

	tests := []struct {
		name      string
		anchor    string
		purchased models.PurchaseAggregate
		want      []string
	}{
		{
			name:   "all partners of the anchor",
			anchor: "P1",
			want:   []string{"P2", "P3", "P4"},
		},
		{
			name:      "purchased partners are removed",
			anchor:    "P1",
			purchased: models.PurchaseAggregate{"P3": {ProductID: "P3", Count: 1}},
			want:      []string{"P2", "P4"},
		},
		{
			name:   "unknown anchor has no candidates",
			anchor: "P9",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := gen.ForAnchor(context.Background(), table, tt.anchor, tt.purchased)
			if err != nil {
				t.Fatalf("ForAnchor() error = %v", err)
			}
			var got []string
			for _, p := range products {
				got = append(got, p.ID)
			}
			slices.Sort(got)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ForAnchor(%s) = %v, want %v", tt.anchor, got, tt.want)
			}
		})
	}
}

func TestCandidateGenerator_DropsDeletedProducts(t *testing.T) {
	store := newMemoryStore()
	store.addProduct("P2", "General", 100, nil, false)
	// P3 is in the pair table but no longer in the catalog
	table := MinePairs([]models.Order{order("o1", "u1", "P1", "P2", "P3")}, DefaultTopPairs)

	products, err := NewCandidateGenerator(store, 0, logger.NewNop()).ForAnchor(context.Background(), table, "P1", nil)
	if err != nil {
		t.Fatalf("ForAnchor() error = %v", err)
	}
	if len(products) != 1 || products[0].ID != "P2" {
		t.Errorf("products = %+v, want only P2", products)
	}
}

func TestCandidateGenerator_ForHistoryCapsLookups(t *testing.T) {
	store := newMemoryStore()
	var orders []models.Order
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("X%02d", i)
		store.addProduct(id, "General", 100, nil, false)
		orders = append(orders, order("o"+id, "other", "A", id))
	}
	for i := 0; i < 5; i++ {
		orders = append(orders, order(fmt.Sprintf("b%d", i), "other", "A", "B"))
	}
	table := MinePairs(orders, DefaultTopPairs)

	purchased := models.PurchaseAggregate{
		"A": {ProductID: "A", Count: 2},
		"B": {ProductID: "B", Count: 1},
	}
	products, err := NewCandidateGenerator(store, 0, logger.NewNop()).ForHistory(context.Background(), table, purchased)
	if err != nil {
		t.Fatalf("ForHistory() error = %v", err)
	}
	if len(store.productLookups) > DefaultHistoryCandidates {
		t.Errorf("resolved %d ids, want <= %d", len(store.productLookups), DefaultHistoryCandidates)
	}
	if len(products) != DefaultHistoryCandidates {
		t.Errorf("len(products) = %d, want %d", len(products), DefaultHistoryCandidates)
	}
	for _, p := range products {
		if purchased.Contains(p.ID) {
			t.Errorf("candidate %s was already purchased", p.ID)
		}
	}
}

func TestCandidateGenerator_ResolveFailure(t *testing.T) {
	store := newMemoryStore()
	store.failProducts = true
	table := MinePairs([]models.Order{order("o1", "u1", "P1", "P2")}, DefaultTopPairs)

	_, err := NewCandidateGenerator(store, 0, logger.NewNop()).ForAnchor(context.Background(), table, "P1", nil)
	if !errors.Is(err, ErrDataAccess) {
		t.Errorf("error = %v, want ErrDataAccess", err)
	}
}

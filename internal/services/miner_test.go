package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/yishak-cs/storefront-recommender/internal/logger"
	"github.com/yishak-cs/storefront-recommender/internal/models"
)

func TestPairKey_Symmetric(t *testing.T) {
	tests := []struct{ a, b, want string }{
		{"P1", "P2", "P1-P2"},
		{"P2", "P1", "P1-P2"},
		{"abc", "abd", "abc-abd"},
		{"z", "a", "a-z"},
		{"same", "same", "same-same"},
	}
	for _, tt := range tests {
		if got := PairKey(tt.a, tt.b); got != tt.want {
			t.Errorf("PairKey(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
		}
		if PairKey(tt.a, tt.b) != PairKey(tt.b, tt.a) {
			t.Errorf("PairKey(%q, %q) is not symmetric", tt.a, tt.b)
		}
	}
}

func TestCountPairs_SkipsSmallBaskets(t *testing.T) {
	orders := []models.Order{
		order("o1", "u1", "P1", "P2"),
	}
	before, beforeOcc := CountPairs(orders)

	withSingles := append(orders,
		order("o2", "u1", "P3"),
		order("o3", "u2"),
		order("o4", "u2", "P4", "P4"),
		models.Order{ID: "o5", Items: []models.OrderItem{{ProductID: "P5"}, {ProductID: ""}}},
	)
	after, afterOcc := CountPairs(withSingles)

	if beforeOcc != afterOcc {
		t.Errorf("occurrences changed from %d to %d", beforeOcc, afterOcc)
	}
	if len(before) != len(after) {
		t.Fatalf("pair count changed from %d to %d", len(before), len(after))
	}
	for pair, count := range before {
		if after[pair] != count {
			t.Errorf("pair %s = %d, want %d", pair.Key(), after[pair], count)
		}
	}
}

func TestCountPairs_SumMatchesOccurrences(t *testing.T) {
	orders := []models.Order{
		order("o1", "u1", "P1", "P2", "P3"),
		order("o2", "u2", "P1", "P4"),
		order("o3", "u3", "P1", "P2", "P3", "P4"),
		order("o4", "u3", "P9"),
	}
	counts, occurrences := CountPairs(orders)

	sum := 0
	for _, c := range counts {
		if c < 0 {
			t.Fatalf("negative count %d", c)
		}
		sum += c
	}
	// 3 + 1 + 6 + 0
	if occurrences != 10 {
		t.Errorf("occurrences = %d, want 10", occurrences)
	}
	if sum != occurrences {
		t.Errorf("sum of counts = %d, want %d", sum, occurrences)
	}
}

func TestMinePairs_Scenario(t *testing.T) {
	orders := []models.Order{
		order("o1", "u1", "P1", "P2", "P3"),
		order("o2", "u2", "P1", "P4"),
	}
	table := MinePairs(orders, DefaultTopPairs)

	want := map[string]int{"P1-P2": 1, "P1-P3": 1, "P2-P3": 1, "P1-P4": 1}
	if len(table.Pairs) != len(want) {
		t.Fatalf("len(Pairs) = %d, want %d", len(table.Pairs), len(want))
	}
	for _, pf := range table.Pairs {
		if want[pf.Key] != pf.Count {
			t.Errorf("pair %s = %d, want %d", pf.Key, pf.Count, want[pf.Key])
		}
		if pf.Key != pf.Pair.Key() {
			t.Errorf("Key %q does not match pair %q", pf.Key, pf.Pair.Key())
		}
	}

	related := table.Related("P1")
	got := map[string]bool{}
	for _, id := range related {
		got[id] = true
	}
	for _, id := range []string{"P2", "P3", "P4"} {
		if !got[id] {
			t.Errorf("Related(P1) missing %s, got %v", id, related)
		}
	}
	if len(related) != 3 {
		t.Errorf("Related(P1) = %v, want 3 entries", related)
	}
}

func TestMinePairs_SortsAndTruncates(t *testing.T) {
	var orders []models.Order
	// 30 products in one order gives 435 distinct pairs
	ids := make([]string, 30)
	for i := range ids {
		ids[i] = fmt.Sprintf("P%02d", i)
	}
	orders = append(orders, order("big", "u1", ids...))
	// boost two pairs
	orders = append(orders, order("a", "u2", "P05", "P06"), order("b", "u2", "P05", "P06"), order("c", "u3", "P01", "P02"))

	table := MinePairs(orders, DefaultTopPairs)
	if len(table.Pairs) != DefaultTopPairs {
		t.Fatalf("len(Pairs) = %d, want %d", len(table.Pairs), DefaultTopPairs)
	}
	if table.Pairs[0].Key != "P05-P06" || table.Pairs[0].Count != 3 {
		t.Errorf("Pairs[0] = %+v, want P05-P06 x3", table.Pairs[0])
	}
	if table.Pairs[1].Key != "P01-P02" || table.Pairs[1].Count != 2 {
		t.Errorf("Pairs[1] = %+v, want P01-P02 x2", table.Pairs[1])
	}
	for i := 1; i < len(table.Pairs); i++ {
		prev, cur := table.Pairs[i-1], table.Pairs[i]
		if cur.Count > prev.Count {
			t.Fatalf("pairs not sorted at %d: %d > %d", i, cur.Count, prev.Count)
		}
		if cur.Count == prev.Count && cur.Key < prev.Key {
			t.Fatalf("equal counts not ordered by key at %d: %s < %s", i, cur.Key, prev.Key)
		}
	}
	if table.PairOccurrences != 435+3 {
		t.Errorf("PairOccurrences = %d, want %d", table.PairOccurrences, 438)
	}
	if table.OrdersScanned != 4 {
		t.Errorf("OrdersScanned = %d, want 4", table.OrdersScanned)
	}
}

func TestBasketPairMiner_Mine(t *testing.T) {
	store := newMemoryStore()
	store.orders = []models.Order{
		order("o1", "u1", "P1", "P2"),
		order("o2", "u2", "P1", "P2"),
	}
	miner := NewBasketPairMiner(store, 0, logger.NewNop())

	table, err := miner.PairTable(context.Background())
	if err != nil {
		t.Fatalf("Mine() error = %v", err)
	}
	if len(table.Pairs) != 1 || table.Pairs[0].Count != 2 {
		t.Errorf("Pairs = %+v, want one pair with count 2", table.Pairs)
	}
	if table.ComputedAt.IsZero() {
		t.Error("ComputedAt not set")
	}

	store.failOrders = true
	if _, err := miner.Mine(context.Background()); !errors.Is(err, ErrDataAccess) {
		t.Errorf("Mine() error = %v, want ErrDataAccess", err)
	}
}

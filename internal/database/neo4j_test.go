package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yishak-cs/storefront-recommender/internal/logger"
	"github.com/yishak-cs/storefront-recommender/internal/models"
	"github.com/yishak-cs/storefront-recommender/internal/services"
)

// newTestClient connects to the Neo4j instance named by TEST_NEO4J_URI and
// skips the test when none is configured
func newTestClient(t *testing.T) *Neo4jClient {
	t.Helper()
	uri := os.Getenv("TEST_NEO4J_URI")
	if uri == "" {
		t.Skip("TEST_NEO4J_URI not set")
	}

	client, err := NewNeo4jClient(Config{
		URI:      uri,
		Username: os.Getenv("TEST_NEO4J_USERNAME"),
		Password: os.Getenv("TEST_NEO4J_PASSWORD"),
		Database: os.Getenv("TEST_NEO4J_DATABASE"),
	}, logger.NewNop())
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { client.Close(context.Background()) })
	return client
}

func TestNeo4jRepositories(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cleanup := `MATCH (n) WHERE n.id STARTS WITH 'test-' DETACH DELETE n`
	if _, err := client.ExecuteWrite(ctx, cleanup, nil); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	t.Cleanup(func() { client.ExecuteWrite(context.Background(), cleanup, nil) })

	seed := `
		CREATE (u:User {id: 'test-u1', display_name: 'Ada', cashback_balance: 12.0,
			last_purchase_date: datetime('2024-01-01T00:00:00Z')})
		CREATE (p1:Product {id: 'test-p1', name: 'Ring', category: 'rings', price: 100.0, rating: 4.5, featured: true})
		CREATE (p2:Product {id: 'test-p2', name: 'Chain', category: 'chains', price: 50.0})
		CREATE (o1:Order {id: 'test-o1', status: 'delivered', created_at: datetime('2024-02-01T00:00:00Z')})
		CREATE (o2:Order {id: 'test-o2', status: 'cancelled', created_at: datetime('2024-02-02T00:00:00Z')})
		CREATE (u)-[:HAS_MADE]->(o1), (u)-[:HAS_MADE]->(o2)
		CREATE (o1)-[:HAS_ITEM {price: 100.0, quantity: 1, category: 'rings'}]->(p1)
		CREATE (o1)-[:HAS_ITEM {price: 50.0, quantity: 2, category: 'chains'}]->(p2)
		CREATE (o2)-[:HAS_ITEM {price: 50.0, quantity: 1, category: 'chains'}]->(p2)
	`
	if _, err := client.ExecuteWrite(ctx, seed, nil); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	orders, err := NewOrderRepository(client).FindOrders(ctx, services.OrderQuery{
		UserID:   "test-u1",
		Statuses: models.CompletedStatuses,
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("FindOrders failed: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != "test-o1" || len(orders[0].Items) != 2 {
		t.Fatalf("unexpected orders: %+v", orders)
	}

	product, err := NewProductRepository(client).FindProductByID(ctx, "test-p1")
	if err != nil || product == nil {
		t.Fatalf("FindProductByID failed: %v", err)
	}
	if product.Rating == nil || *product.Rating != 4.5 || !product.Featured {
		t.Errorf("unexpected product: %+v", product)
	}

	missing, err := NewProductRepository(client).FindProductByID(ctx, "test-missing")
	if err != nil || missing != nil {
		t.Errorf("missing product should be (nil, nil), got (%v, %v)", missing, err)
	}

	users, err := NewUserRepository(client).FindUsersWithPositiveCashback(ctx)
	if err != nil {
		t.Fatalf("FindUsersWithPositiveCashback failed: %v", err)
	}
	found := false
	for _, u := range users {
		if u.ID == "test-u1" {
			found = u.LastPurchaseDate != nil && u.CashbackBalance == 12
		}
	}
	if !found {
		t.Errorf("expected test-u1 with balance and purchase date in %+v", users)
	}
}

func TestCSVImporter_SchemaAndStatus(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	importer := NewCSVImporter(client, logger.NewNop())
	// twice: schema creation must be idempotent
	for i := 0; i < 2; i++ {
		if err := importer.EnsureSchema(ctx); err != nil {
			t.Fatalf("EnsureSchema failed: %v", err)
		}
	}

	status, err := importer.GetImportStatus(ctx)
	if err != nil {
		t.Fatalf("GetImportStatus failed: %v", err)
	}
	for _, key := range []string{"users", "products", "orders", "order_items"} {
		if n, ok := status[key]; !ok || n < 0 {
			t.Errorf("status[%q] = %d, %v", key, n, ok)
		}
	}
}

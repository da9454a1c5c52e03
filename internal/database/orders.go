package database

import (
	"context"

	"github.com/yishak-cs/storefront-recommender/internal/models"
	"github.com/yishak-cs/storefront-recommender/internal/services"
)

// OrderRepository reads orders from the graph:
// (:User)-[:HAS_MADE]->(:Order)-[:HAS_ITEM {price, quantity, category}]->(:Product)
type OrderRepository struct {
	client *Neo4jClient
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(client *Neo4jClient) *OrderRepository {
	return &OrderRepository{client: client}
}

const orderProjection = `
	OPTIONAL MATCH (o)-[hi:HAS_ITEM]->(p:Product)
	WITH u, o, collect(CASE WHEN p IS NULL THEN NULL ELSE {
		product_id: p.id,
		price: hi.price,
		quantity: hi.quantity,
		category: coalesce(hi.category, p.category)
	} END) AS items
	RETURN o.id AS order_id,
		   u.id AS user_id,
		   o.status AS status,
		   o.created_at AS created_at,
		   items
	ORDER BY o.created_at DESC
`

// FindOrders answers: "What did this user order recently?"
func (r *OrderRepository) FindOrders(ctx context.Context, query services.OrderQuery) ([]models.Order, error) {
	statuses := make([]string, len(query.Statuses))
	for i, s := range query.Statuses {
		statuses[i] = string(s)
	}
	limit := query.Limit
	if limit <= 0 {
		limit = services.DefaultHistoryLimit
	}

	cypher := `
		MATCH (u:User {id: $userId})-[:HAS_MADE]->(o:Order)
		WHERE size($statuses) = 0 OR o.status IN $statuses
		WITH u, o
		ORDER BY o.created_at DESC
		LIMIT $limit
	` + orderProjection

	params := map[string]interface{}{
		"userId":   query.UserID,
		"statuses": statuses,
		"limit":    limit,
	}

	results, err := r.client.ExecuteRead(ctx, "find_orders", cypher, params)
	if err != nil {
		return nil, err
	}
	return decodeOrders(results), nil
}

// FindAllOrders returns every order in the store with its items
func (r *OrderRepository) FindAllOrders(ctx context.Context) ([]models.Order, error) {
	cypher := `
		MATCH (o:Order)
		OPTIONAL MATCH (u:User)-[:HAS_MADE]->(o)
		WITH u, o
	` + orderProjection

	results, err := r.client.ExecuteRead(ctx, "find_all_orders", cypher, nil)
	if err != nil {
		return nil, err
	}
	return decodeOrders(results), nil
}

func decodeOrders(results []map[string]interface{}) []models.Order {
	orders := make([]models.Order, 0, len(results))
	for _, result := range results {
		order := models.Order{
			ID:     asString(result["order_id"]),
			UserID: asString(result["user_id"]),
			Status: models.OrderStatus(asString(result["status"])),
		}
		if createdAt, ok := asTime(result["created_at"]); ok {
			order.CreatedAt = createdAt
		}

		rawItems, _ := result["items"].([]interface{})
		for _, raw := range rawItems {
			item, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			order.Items = append(order.Items, models.OrderItem{
				ProductID: asString(item["product_id"]),
				Price:     optionalFloat(item["price"]),
				Quantity:  asInt(item["quantity"]),
				Category:  asString(item["category"]),
			})
		}
		orders = append(orders, order)
	}
	return orders
}

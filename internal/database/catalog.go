package database

import (
	"context"

	"github.com/yishak-cs/storefront-recommender/internal/models"
)

// ProductRepository resolves catalog products stored as (:Product) nodes
type ProductRepository struct {
	client *Neo4jClient
}

// NewProductRepository creates a new product repository
func NewProductRepository(client *Neo4jClient) *ProductRepository {
	return &ProductRepository{client: client}
}

// FindProductByID returns the product or nil when it no longer exists
func (r *ProductRepository) FindProductByID(ctx context.Context, id string) (*models.Product, error) {
	query := `
		MATCH (p:Product {id: $productId})
		RETURN p.id AS product_id,
			   p.name AS name,
			   p.category AS category,
			   p.price AS price,
			   p.rating AS rating,
			   p.featured AS featured
		LIMIT 1
	`

	results, err := r.client.ExecuteRead(ctx, "find_product", query, map[string]interface{}{
		"productId": id,
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	result := results[0]
	price, _ := asFloat(result["price"])
	return &models.Product{
		ID:       asString(result["product_id"]),
		Name:     asString(result["name"]),
		Category: asString(result["category"]),
		Price:    price,
		Rating:   optionalFloat(result["rating"]),
		Featured: asBool(result["featured"]),
	}, nil
}

// UserRepository reads customers stored as (:User) nodes
type UserRepository struct {
	client *Neo4jClient
}

// NewUserRepository creates a new user repository
func NewUserRepository(client *Neo4jClient) *UserRepository {
	return &UserRepository{client: client}
}

// FindUsersWithPositiveCashback returns every user holding a cashback balance
func (r *UserRepository) FindUsersWithPositiveCashback(ctx context.Context) ([]models.User, error) {
	query := `
		MATCH (u:User)
		WHERE u.cashback_balance > 0
		RETURN u.id AS user_id,
			   u.display_name AS display_name,
			   u.email AS email,
			   u.cashback_balance AS cashback_balance,
			   u.last_purchase_date AS last_purchase_date
		ORDER BY u.id
	`

	results, err := r.client.ExecuteRead(ctx, "find_users_with_cashback", query, nil)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(results))
	for _, result := range results {
		balance, _ := asFloat(result["cashback_balance"])
		users = append(users, models.User{
			ID:               asString(result["user_id"]),
			DisplayName:      asString(result["display_name"]),
			Email:            asString(result["email"]),
			CashbackBalance:  balance,
			LastPurchaseDate: optionalTime(result["last_purchase_date"]),
		})
	}
	return users, nil
}

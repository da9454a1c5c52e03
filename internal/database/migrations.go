package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/yishak-cs/storefront-recommender/internal/logger"
)

// CSVImporter loads the retail dataset into Neo4j with LOAD CSV. The files are
// expected at <baseURL>/data/{users,products,orders,order_items}.csv.
type CSVImporter struct {
	client *Neo4jClient
	log    *logger.Logger
}

// NewCSVImporter creates a new CSV importer
func NewCSVImporter(client *Neo4jClient, log *logger.Logger) *CSVImporter {
	return &CSVImporter{client: client, log: log.With("component", "csv_importer")}
}

// importStep is one LOAD CSV statement returning an "imported" row count
type importStep struct {
	name  string
	file  string
	query string
}

var schemaStatements = []string{
	`CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`,
	`CREATE CONSTRAINT product_id IF NOT EXISTS FOR (p:Product) REQUIRE p.id IS UNIQUE`,
	`CREATE CONSTRAINT order_id IF NOT EXISTS FOR (o:Order) REQUIRE o.id IS UNIQUE`,
	`CREATE INDEX order_status IF NOT EXISTS FOR (o:Order) ON (o.status)`,
}

var importSteps = []importStep{
	{
		name: "users",
		file: "users.csv",
		query: `
			LOAD CSV WITH HEADERS FROM $csvURL AS row
			WITH row WHERE row.user_id IS NOT NULL
			MERGE (u:User {id: row.user_id})
			SET u.display_name = row.display_name,
				u.email = row.email,
				u.cashback_balance = coalesce(toFloat(row.cashback_balance), 0.0),
				u.last_purchase_date = CASE WHEN row.last_purchase_date IS NULL OR row.last_purchase_date = ''
					THEN NULL ELSE datetime(row.last_purchase_date) END
			RETURN count(u) AS imported
		`,
	},
	{
		name: "products",
		file: "products.csv",
		query: `
			LOAD CSV WITH HEADERS FROM $csvURL AS row
			WITH row WHERE row.product_id IS NOT NULL
			MERGE (p:Product {id: row.product_id})
			SET p.name = row.name,
				p.category = row.category,
				p.price = toFloat(row.price),
				p.rating = toFloat(row.rating),
				p.featured = toLower(coalesce(row.featured, 'false')) = 'true'
			RETURN count(p) AS imported
		`,
	},
	{
		name: "orders",
		file: "orders.csv",
		query: `
			LOAD CSV WITH HEADERS FROM $csvURL AS row
			WITH row WHERE row.order_id IS NOT NULL
			MERGE (o:Order {id: row.order_id})
			SET o.status = toLower(row.status),
				o.created_at = datetime(row.created_at)
			WITH o, row
			MATCH (u:User {id: row.user_id})
			MERGE (u)-[:HAS_MADE]->(o)
			RETURN count(o) AS imported
		`,
	},
	{
		name: "order_items",
		file: "order_items.csv",
		query: `
			LOAD CSV WITH HEADERS FROM $csvURL AS row
			WITH row WHERE row.order_id IS NOT NULL AND row.product_id IS NOT NULL
			MATCH (o:Order {id: row.order_id})
			MATCH (p:Product {id: row.product_id})
			MERGE (o)-[hi:HAS_ITEM]->(p)
			SET hi.price = toFloat(row.price),
				hi.quantity = coalesce(toInteger(row.quantity), 1),
				hi.category = coalesce(row.category, p.category)
			RETURN count(hi) AS imported
		`,
	},
}

// ImportAllData clears the graph, creates the schema and imports every file in
// dependency order
func (i *CSVImporter) ImportAllData(ctx context.Context, baseURL string) error {
	i.log.Info("starting CSV import", "base_url", baseURL)

	if err := i.clearDatabase(ctx); err != nil {
		return fmt.Errorf("failed to clear database: %w", err)
	}
	if err := i.EnsureSchema(ctx); err != nil {
		return err
	}

	for _, step := range importSteps {
		if err := i.importFile(ctx, baseURL, step); err != nil {
			return fmt.Errorf("failed to import %s: %w", step.name, err)
		}
	}

	i.log.Info("CSV import completed")
	return nil
}

// EnsureSchema creates the uniqueness constraints and indexes the
// repositories rely on
func (i *CSVImporter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := i.client.ExecuteWrite(ctx, stmt, nil); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func (i *CSVImporter) importFile(ctx context.Context, baseURL string, step importStep) error {
	csvURL := fmt.Sprintf("%s/data/%s", strings.TrimSuffix(baseURL, "/"), step.file)

	results, err := i.client.ExecuteWrite(ctx, step.query, map[string]interface{}{
		"csvURL": csvURL,
	})
	if err != nil {
		return err
	}

	imported := 0
	if len(results) > 0 {
		imported = asInt(results[0]["imported"])
	}
	i.log.Info("imported CSV file", "step", step.name, "rows", imported)
	return nil
}

// clearDatabase removes all existing data (for development/testing)
func (i *CSVImporter) clearDatabase(ctx context.Context) error {
	i.log.Warn("clearing existing database")
	_, err := i.client.ExecuteWrite(ctx, `MATCH (n) DETACH DELETE n`, nil)
	return err
}

// GetImportStatus returns node counts per label
func (i *CSVImporter) GetImportStatus(ctx context.Context) (map[string]int, error) {
	query := `
		CALL { MATCH (u:User) RETURN count(u) AS users }
		CALL { MATCH (p:Product) RETURN count(p) AS products }
		CALL { MATCH (o:Order) RETURN count(o) AS orders }
		CALL { MATCH ()-[hi:HAS_ITEM]->() RETURN count(hi) AS order_items }
		RETURN users, products, orders, order_items
	`

	results, err := i.client.ExecuteRead(ctx, "import_status", query, nil)
	if err != nil {
		return nil, err
	}

	status := map[string]int{"users": 0, "products": 0, "orders": 0, "order_items": 0}
	if len(results) == 0 {
		return status, nil
	}
	for key := range status {
		status[key] = asInt(results[0][key])
	}
	return status, nil
}

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/yishak-cs/storefront-recommender/internal/logger"
	"github.com/yishak-cs/storefront-recommender/internal/metrics"
)

// Neo4jClient wraps the Neo4j driver with application-specific methods
type Neo4jClient struct {
	driver   neo4j.DriverWithContext
	database string
	breaker  *gobreaker.CircuitBreaker[[]map[string]interface{}]
	log      *logger.Logger
}

// Config holds the Neo4j connection configuration
type Config struct {
	URI            string
	Username       string
	Password       string
	Database       string // typically "neo4j" for AuraDB
	MaxPoolSize    int
	ConnectTimeout time.Duration
	Breaker        BreakerConfig
}

// NewNeo4jClient creates a new Neo4j client connection
func NewNeo4jClient(config Config, log *logger.Logger) (*Neo4jClient, error) {
	if config.URI == "" {
		return nil, fmt.Errorf("missing Neo4j URI")
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 10 * time.Second
	}

	driver, err := neo4j.NewDriverWithContext(config.URI, neo4j.BasicAuth(config.Username, config.Password, ""), func(cfg *neo4j.Config) {
		if config.MaxPoolSize > 0 {
			cfg.MaxConnectionPoolSize = config.MaxPoolSize
		}
		cfg.SocketConnectTimeout = config.ConnectTimeout
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}

	log = log.With("client", "Neo4j")
	log.Info("connected to Neo4j", "uri", config.URI, "database", config.Database)
	return &Neo4jClient{
		driver:   driver,
		database: config.Database,
		breaker:  NewBreaker[[]map[string]interface{}]("neo4j", config.Breaker, log),
		log:      log,
	}, nil
}

// Close closes the Neo4j driver connection
func (c *Neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// ExecuteWrite executes a write query (CREATE, MERGE, DELETE, etc.) and returns
// one map per returned record
func (c *Neo4jClient) ExecuteWrite(ctx context.Context, query string, params map[string]interface{}) ([]map[string]interface{}, error) {
	result, err := neo4j.ExecuteQuery(
		ctx,
		c.driver,
		query,
		params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database),
		neo4j.ExecuteQueryWithWritersRouting())

	if err != nil {
		return nil, fmt.Errorf("failed to execute write query: %w", err)
	}

	return recordMaps(result.Records), nil
}

// ExecuteRead executes a read query through the circuit breaker and returns
// one map per record
func (c *Neo4jClient) ExecuteRead(ctx context.Context, operation, query string, params map[string]interface{}) ([]map[string]interface{}, error) {
	results, err := c.breaker.Execute(func() ([]map[string]interface{}, error) {
		result, err := neo4j.ExecuteQuery(
			ctx,
			c.driver,
			query,
			params,
			neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(c.database),
			neo4j.ExecuteQueryWithReadersRouting())
		if err != nil {
			return nil, err
		}
		return recordMaps(result.Records), nil
	})
	if err != nil {
		metrics.StoreQueryErrors.WithLabelValues("neo4j", operation).Inc()
		return nil, fmt.Errorf("failed to execute read query %s: %w", operation, err)
	}

	return results, nil
}

// Health checks the database connection health
func (c *Neo4jClient) Health(ctx context.Context) error {
	_, err := neo4j.ExecuteQuery(
		ctx,
		c.driver,
		"RETURN 1",
		nil,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database),
		neo4j.ExecuteQueryWithReadersRouting())

	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	return nil
}

func recordMaps(records []*neo4j.Record) []map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		results = append(results, record.AsMap())
	}
	return results
}

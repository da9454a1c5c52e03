package helper

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yishak-cs/storefront-recommender/internal/cache"
	"github.com/yishak-cs/storefront-recommender/internal/database"
	"github.com/yishak-cs/storefront-recommender/internal/services"
	"github.com/yishak-cs/storefront-recommender/internal/sqlstore"
)

// Store backends
const (
	BackendNeo4j    = "neo4j"
	BackendPostgres = "postgres"
)

// AppConfig is the full application configuration
type AppConfig struct {
	Server ServerConfig
	Store  StoreConfig
	Redis  cache.Config
	Engine EngineConfig
	Log    LogConfig
	Seed   SeedConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// StoreConfig selects and configures the order/catalog/user store
type StoreConfig struct {
	Backend  string
	Neo4j    database.Config
	Postgres sqlstore.Config
}

// EngineConfig tunes the recommendation engine and its background jobs
type EngineConfig struct {
	Options          services.Options
	TopPairs         int
	PairTableMaxAge  time.Duration
	RefreshInterval  time.Duration
	RefreshOnStart   bool
	CashbackInterval time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	Mode string
}

// SeedConfig controls the development CSV import
type SeedConfig struct {
	OnStart bool
	BaseURL string
}

// LoadConfigFromEnv loads the application configuration from environment variables
func LoadConfigFromEnv() (*AppConfig, error) {
	breaker := database.BreakerConfig{
		FailureThreshold: uint32(getEnvInt("STORE_BREAKER_FAILURES", 5)),
		OpenTimeout:      getEnvDuration("STORE_BREAKER_OPEN_TIMEOUT", 30*time.Second),
		HalfOpenRequests: uint32(getEnvInt("STORE_BREAKER_HALF_OPEN_REQUESTS", 1)),
	}

	cfg := &AppConfig{
		Server: ServerConfig{
			Port:            getEnvOrDefault("APP_PORT", "8080"),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnvOrDefault("STORE_BACKEND", BackendNeo4j)),
			Neo4j: database.Config{
				URI:            getEnvOrDefault("NEO4J_URI", ""),
				Username:       getEnvOrDefault("NEO4J_USERNAME", "neo4j"),
				Password:       getEnvOrDefault("NEO4J_PASSWORD", ""),
				Database:       getEnvOrDefault("NEO4J_DATABASE", "neo4j"),
				MaxPoolSize:    getEnvInt("NEO4J_MAX_POOL_SIZE", 50),
				ConnectTimeout: getEnvDuration("NEO4J_CONNECT_TIMEOUT", 10*time.Second),
				Breaker:        breaker,
			},
			Postgres: sqlstore.Config{
				DSN:             getEnvOrDefault("POSTGRES_DSN", ""),
				MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 20),
				ConnMaxLifetime: getEnvDuration("POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),
				Breaker:         breaker,
			},
		},
		Redis: cache.Config{
			Addr:     getEnvOrDefault("REDIS_ADDR", ""),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Key:      getEnvOrDefault("REDIS_PAIR_TABLE_KEY", cache.DefaultPairTableKey),
			TTL:      getEnvDuration("REDIS_PAIR_TABLE_TTL", time.Hour),
		},
		Engine: EngineConfig{
			Options: services.Options{
				HistoryLimit:      getEnvInt("ENGINE_HISTORY_LIMIT", services.DefaultHistoryLimit),
				HistoryCandidates: getEnvInt("ENGINE_HISTORY_CANDIDATES", services.DefaultHistoryCandidates),
				ResultSize:        getEnvInt("ENGINE_RESULT_SIZE", services.DefaultResultSize),
			},
			TopPairs:         getEnvInt("ENGINE_TOP_PAIRS", services.DefaultTopPairs),
			PairTableMaxAge:  getEnvDuration("ENGINE_PAIR_TABLE_MAX_AGE", 30*time.Minute),
			RefreshInterval:  getEnvDuration("ENGINE_REFRESH_INTERVAL", 15*time.Minute),
			RefreshOnStart:   getEnvBool("ENGINE_REFRESH_ON_START", true),
			CashbackInterval: getEnvDuration("ENGINE_CASHBACK_INTERVAL", time.Hour),
		},
		Log: LogConfig{
			Mode: getEnvOrDefault("LOG_MODE", "development"),
		},
		Seed: SeedConfig{
			OnStart: getEnvBool("SEED_ON_START", false),
			BaseURL: getEnvOrDefault("SEED_BASE_URL", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with
func (c *AppConfig) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %q", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}

	switch c.Store.Backend {
	case BackendNeo4j:
		if c.Store.Neo4j.URI == "" {
			return fmt.Errorf("NEO4J_URI is required for the neo4j backend")
		}
	case BackendPostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q, must be one of: %s, %s", c.Store.Backend, BackendNeo4j, BackendPostgres)
	}

	opts := c.Engine.Options
	if opts.HistoryLimit <= 0 || opts.HistoryCandidates <= 0 || opts.ResultSize <= 0 || c.Engine.TopPairs <= 0 {
		return fmt.Errorf("engine limits must be positive")
	}
	if c.Engine.RefreshInterval <= 0 || c.Engine.CashbackInterval <= 0 {
		return fmt.Errorf("engine intervals must be positive")
	}

	if c.Seed.OnStart {
		if c.Store.Backend != BackendNeo4j {
			return fmt.Errorf("CSV seeding is only supported on the neo4j backend")
		}
		if c.Seed.BaseURL == "" {
			return fmt.Errorf("SEED_BASE_URL is required when SEED_ON_START is set")
		}
	}
	return nil
}

// Address returns the listen address for the HTTP server
func (c *AppConfig) Address() string {
	return ":" + c.Server.Port
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

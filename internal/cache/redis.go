package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yishak-cs/storefront-recommender/internal/logger"
	"github.com/yishak-cs/storefront-recommender/internal/models"
)

// DefaultPairTableKey is the redis key holding the shared frequency table
const DefaultPairTableKey = "storefront:pair-table"

// Config holds the redis connection configuration
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
}

// PairTableStore shares the mined frequency table between replicas through redis
type PairTableStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
	log *logger.Logger
}

// NewPairTableStore connects to redis and verifies the connection
func NewPairTableStore(ctx context.Context, cfg Config, log *logger.Logger) (*PairTableStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return newPairTableStore(rdb, cfg, log), nil
}

func newPairTableStore(rdb *redis.Client, cfg Config, log *logger.Logger) *PairTableStore {
	key := cfg.Key
	if key == "" {
		key = DefaultPairTableKey
	}
	return &PairTableStore{
		rdb: rdb,
		key: key,
		ttl: cfg.TTL,
		log: log.With("service", "PairTableStore"),
	}
}

// LoadPairTable returns the stored table or nil when the key is absent
func (s *PairTableStore) LoadPairTable(ctx context.Context) (*models.FrequencyTable, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pair table: %w", err)
	}
	return decodeTable(raw)
}

// SavePairTable stores the table, expiring it after the configured TTL
func (s *PairTableStore) SavePairTable(ctx context.Context, table models.FrequencyTable) error {
	raw, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode pair table: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write pair table: %w", err)
	}
	s.log.Debug("stored pair table", "key", s.key, "pairs", len(table.Pairs), "bytes", len(raw))
	return nil
}

// Health pings redis
func (s *PairTableStore) Health(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close closes the redis client
func (s *PairTableStore) Close() error {
	return s.rdb.Close()
}

func decodeTable(raw []byte) (*models.FrequencyTable, error) {
	var table models.FrequencyTable
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("failed to decode pair table: %w", err)
	}
	return &table, nil
}

package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yishak-cs/storefront-recommender/internal/logger"
	"github.com/yishak-cs/storefront-recommender/internal/metrics"
	"github.com/yishak-cs/storefront-recommender/internal/models"
)

// DefaultRefreshTimeout bounds a single mining pass
const DefaultRefreshTimeout = 5 * time.Minute

// PairMiner produces a fresh frequency table
type PairMiner interface {
	Mine(ctx context.Context) (models.FrequencyTable, error)
}

// SnapshotStore persists the latest frequency table so replicas can share it.
// LoadPairTable returns (nil, nil) when nothing is stored.
type SnapshotStore interface {
	LoadPairTable(ctx context.Context) (*models.FrequencyTable, error)
	SavePairTable(ctx context.Context, table models.FrequencyTable) error
}

// PairTableCache serves a memoized frequency table and recomputes it on demand
// or when asked to refresh. Requests never trigger more than one concurrent mining pass.
type PairTableCache struct {
	miner  PairMiner
	store  SnapshotStore
	maxAge time.Duration
	log    *logger.Logger
	now    func() time.Time

	refreshTimeout time.Duration

	mu    sync.RWMutex
	table *models.FrequencyTable
	group singleflight.Group
}

// NewPairTableCache creates a cache. store may be nil; maxAge <= 0 never expires the snapshot.
func NewPairTableCache(miner PairMiner, store SnapshotStore, maxAge time.Duration, log *logger.Logger) *PairTableCache {
	return &PairTableCache{
		miner:  miner,
		store:  store,
		maxAge: maxAge,
		log:    log.With("service", "PairTableCache"),
		now:    time.Now,

		refreshTimeout: DefaultRefreshTimeout,
	}
}

// PairTable returns the current snapshot, loading or mining one if needed.
// A stale snapshot is served when a refresh fails.
func (c *PairTableCache) PairTable(ctx context.Context) (models.FrequencyTable, error) {
	if table, ok := c.snapshot(); ok && c.fresh(table) {
		metrics.PairTableCacheLookups.WithLabelValues("memory").Inc()
		return *table, nil
	}

	if c.store != nil {
		stored, err := c.store.LoadPairTable(ctx)
		if err != nil {
			c.log.Warn("failed to load stored pair table", "error", err)
		} else if stored != nil && c.fresh(stored) {
			c.set(stored)
			metrics.PairTableCacheLookups.WithLabelValues("redis").Inc()
			return *stored, nil
		}
	}

	metrics.PairTableCacheLookups.WithLabelValues("miss").Inc()
	table, err := c.Refresh(ctx)
	if err != nil {
		if stale, ok := c.snapshot(); ok {
			c.log.Warn("serving stale pair table", "error", err, "computed_at", stale.ComputedAt)
			return *stale, nil
		}
		return models.FrequencyTable{}, err
	}
	return table, nil
}

// Refresh mines a new table, swaps it in and persists it. Concurrent callers
// share one mining pass, which runs detached from any single caller: a caller
// whose ctx ends gets ctx.Err() while the others still receive the table.
func (c *PairTableCache) Refresh(ctx context.Context) (models.FrequencyTable, error) {
	ch := c.group.DoChan("refresh", func() (interface{}, error) {
		mineCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()

		table, err := c.miner.Mine(mineCtx)
		if err != nil {
			metrics.PairTableRefreshErrors.Inc()
			return nil, fmt.Errorf("failed to refresh pair table: %w", err)
		}
		c.set(&table)
		if c.store != nil {
			if err := c.store.SavePairTable(mineCtx, table); err != nil {
				c.log.Warn("failed to persist pair table", "error", err)
			}
		}
		c.log.Info("pair table refreshed",
			"pairs", len(table.Pairs),
			"orders", table.OrdersScanned)
		return table, nil
	})

	select {
	case <-ctx.Done():
		return models.FrequencyTable{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return models.FrequencyTable{}, res.Err
		}
		return res.Val.(models.FrequencyTable), nil
	}
}

func (c *PairTableCache) snapshot() (*models.FrequencyTable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.table, c.table != nil
}

func (c *PairTableCache) set(table *models.FrequencyTable) {
	c.mu.Lock()
	c.table = table
	c.mu.Unlock()
}

func (c *PairTableCache) fresh(table *models.FrequencyTable) bool {
	if c.maxAge <= 0 {
		return true
	}
	return c.now().Sub(table.ComputedAt) < c.maxAge
}

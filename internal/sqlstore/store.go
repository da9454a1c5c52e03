package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yishak-cs/storefront-recommender/internal/database"
	"github.com/yishak-cs/storefront-recommender/internal/logger"
	"github.com/yishak-cs/storefront-recommender/internal/metrics"
	"github.com/yishak-cs/storefront-recommender/internal/models"
	"github.com/yishak-cs/storefront-recommender/internal/services"
)

// Config holds the Postgres connection configuration
type Config struct {
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	Breaker         database.BreakerConfig
}

// Store serves orders, products and users from a relational database
type Store struct {
	db      *gorm.DB
	breaker *gobreaker.CircuitBreaker[struct{}]
	log     *logger.Logger
}

// OpenPostgres connects to Postgres and migrates the schema
func OpenPostgres(cfg Config, log *logger.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("missing Postgres DSN")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   newGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access Postgres pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return New(db, cfg.Breaker, log)
}

// New wraps an open gorm connection and migrates the schema
func New(db *gorm.DB, breaker database.BreakerConfig, log *logger.Logger) (*Store, error) {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	log = log.With("client", "Postgres")
	return &Store{
		db:      db,
		breaker: database.NewBreaker[struct{}]("postgres", breaker, log),
		log:     log,
	}, nil
}

func newGormLogger(log *logger.Logger) gormLogger.Interface {
	return gormLogger.New(
		zap.NewStdLog(log.SugaredLogger.Desugar()),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// DB exposes the underlying connection
func (s *Store) DB() *gorm.DB { return s.db }

// Close releases the connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health pings the database
func (s *Store) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// read runs fn through the circuit breaker
func (s *Store) read(operation string, fn func() error) error {
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if err != nil {
		metrics.StoreQueryErrors.WithLabelValues("postgres", operation).Inc()
		return fmt.Errorf("failed to execute read query %s: %w", operation, err)
	}
	return nil
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id ASC")
	})
}

// FindOrders returns a user's orders in the given statuses, newest first
func (s *Store) FindOrders(ctx context.Context, query services.OrderQuery) ([]models.Order, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = services.DefaultHistoryLimit
	}
	statuses := make([]string, len(query.Statuses))
	for i, st := range query.Statuses {
		statuses[i] = string(st)
	}

	var rows []OrderRow
	err := s.read("find_orders", func() error {
		tx := preloadItems(s.db.WithContext(ctx)).Where("user_id = ?", query.UserID)
		if len(statuses) > 0 {
			tx = tx.Where("status IN ?", statuses)
		}
		return tx.Order("created_at DESC").Limit(limit).Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return toOrders(rows), nil
}

// FindAllOrders returns every stored order with its items
func (s *Store) FindAllOrders(ctx context.Context) ([]models.Order, error) {
	var rows []OrderRow
	err := s.read("find_all_orders", func() error {
		return preloadItems(s.db.WithContext(ctx)).Order("created_at DESC").Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return toOrders(rows), nil
}

// FindProductByID returns the product or nil when it does not exist
func (s *Store) FindProductByID(ctx context.Context, id string) (*models.Product, error) {
	var row ProductRow
	found := true
	err := s.read("find_product", func() error {
		err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			found = false
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return row.toModel(), nil
}

// FindUsersWithPositiveCashback returns every user holding a cashback balance
func (s *Store) FindUsersWithPositiveCashback(ctx context.Context) ([]models.User, error) {
	var rows []UserRow
	err := s.read("find_users_with_cashback", func() error {
		return s.db.WithContext(ctx).Where("cashback_balance > ?", 0).Order("id ASC").Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toModel())
	}
	return users, nil
}

// Import upserts users, products and orders in one transaction. Order items
// are replaced wholesale for every imported order.
func (s *Store) Import(ctx context.Context, users []models.User, products []models.Product, orders []models.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := clause.OnConflict{UpdateAll: true}

		for _, u := range users {
			row := userRowFrom(u)
			if err := tx.Clauses(upsert).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to import user %s: %w", u.ID, err)
			}
		}
		for _, p := range products {
			row := productRowFrom(p)
			if err := tx.Clauses(upsert).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to import product %s: %w", p.ID, err)
			}
		}
		for _, o := range orders {
			row := orderRowFrom(o)
			if err := tx.Where("order_id = ?", o.ID).Delete(&OrderItemRow{}).Error; err != nil {
				return fmt.Errorf("failed to reset items for order %s: %w", o.ID, err)
			}
			items := row.Items
			row.Items = nil
			if err := tx.Clauses(upsert).Create(&row).Error; err != nil {
				return fmt.Errorf("failed to import order %s: %w", o.ID, err)
			}
			if len(items) > 0 {
				if err := tx.Create(&items).Error; err != nil {
					return fmt.Errorf("failed to import items for order %s: %w", o.ID, err)
				}
			}
		}

		s.log.Info("imported dataset",
			"users", len(users),
			"products", len(products),
			"orders", len(orders))
		return nil
	})
}

func toOrders(rows []OrderRow) []models.Order {
	orders := make([]models.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.toModel())
	}
	return orders
}

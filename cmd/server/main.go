package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/yishak-cs/storefront-recommender/internal/cache"
	"github.com/yishak-cs/storefront-recommender/internal/database"
	"github.com/yishak-cs/storefront-recommender/internal/handlers"
	"github.com/yishak-cs/storefront-recommender/internal/logger"
	"github.com/yishak-cs/storefront-recommender/internal/services"
	"github.com/yishak-cs/storefront-recommender/internal/sqlstore"
	"github.com/yishak-cs/storefront-recommender/internal/supervisor"
	"github.com/yishak-cs/storefront-recommender/pkg/helper"
)

// backend bundles the repositories of the selected store
type backend struct {
	orders   services.OrderRepository
	products services.ProductRepository
	users    services.UserRepository
	health   handlers.HealthCheck
	close    func()
}

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := helper.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLog.Sync()

	if envErr != nil {
		appLog.Warn("no .env file loaded", "error", envErr)
	}

	if err := run(cfg, appLog); err != nil {
		appLog.Error("server exited with error", "error", err)
		appLog.Sync()
		os.Exit(1)
	}
	appLog.Info("server exited properly")
}

func run(cfg *helper.AppConfig, appLog *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openBackend(ctx, cfg, appLog)
	if err != nil {
		return err
	}
	defer store.close()

	checks := map[string]handlers.HealthCheck{cfg.Store.Backend: store.health}

	var snapshots services.SnapshotStore
	if cfg.Redis.Addr != "" {
		redisStore, err := cache.NewPairTableStore(ctx, cfg.Redis, appLog)
		if err != nil {
			appLog.Warn("redis unavailable, pair table will not be shared", "error", err)
		} else {
			defer redisStore.Close()
			snapshots = redisStore
			checks["redis"] = redisStore.Health
		}
	}

	miner := services.NewBasketPairMiner(store.orders, cfg.Engine.TopPairs, appLog)
	pairCache := services.NewPairTableCache(miner, snapshots, cfg.Engine.PairTableMaxAge, appLog)
	recommendationService := services.NewRecommendationService(
		store.orders, store.products, store.users, pairCache, cfg.Engine.Options, appLog)

	tree := supervisor.NewTree(appLog, supervisor.TreeConfig{ShutdownTimeout: cfg.Server.ShutdownTimeout})
	tree.AddJob(supervisor.NewPairRefreshService(pairCache, cfg.Engine.RefreshInterval, cfg.Engine.RefreshOnStart, appLog))
	cashbackJob := supervisor.NewCashbackScanService(recommendationService, cfg.Engine.CashbackInterval, appLog)
	tree.AddJob(cashbackJob)

	if isProduction(cfg.Log.Mode) {
		gin.SetMode(gin.ReleaseMode)
	}
	apiHandler := handlers.NewAPIHandler(recommendationService, pairCache, cashbackJob, checks, appLog)
	router := handlers.NewRouter(apiHandler, appLog, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	tree.AddAPI(supervisor.NewHTTPService(srv, cfg.Server.ShutdownTimeout))

	appLog.Info("server starting", "addr", srv.Addr, "backend", cfg.Store.Backend, "shared_pair_table", snapshots != nil)
	err = tree.Serve(ctx)

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		appLog.Warn("services did not stop in time", "count", len(report))
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor stopped: %w", err)
	}
	appLog.Info("shutting down server")
	return nil
}

func openBackend(ctx context.Context, cfg *helper.AppConfig, appLog *logger.Logger) (*backend, error) {
	switch cfg.Store.Backend {
	case helper.BackendPostgres:
		store, err := sqlstore.OpenPostgres(cfg.Store.Postgres, appLog)
		if err != nil {
			return nil, err
		}
		return &backend{
			orders:   store,
			products: store,
			users:    store,
			health:   store.Health,
			close: func() {
				if err := store.Close(); err != nil {
					appLog.Warn("error closing Postgres connection", "error", err)
				}
			},
		}, nil

	default:
		client, err := database.NewNeo4jClient(cfg.Store.Neo4j, appLog)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Neo4j: %w", err)
		}
		closeClient := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Close(closeCtx); err != nil {
				appLog.Warn("error closing Neo4j connection", "error", err)
			}
		}

		if err := prepareGraph(ctx, client, cfg.Seed, appLog); err != nil {
			closeClient()
			return nil, err
		}

		return &backend{
			orders:   database.NewOrderRepository(client),
			products: database.NewProductRepository(client),
			users:    database.NewUserRepository(client),
			health:   client.Health,
			close:    closeClient,
		}, nil
	}
}

// prepareGraph creates the schema and, when configured, reloads the CSV dataset
func prepareGraph(ctx context.Context, client *database.Neo4jClient, seed helper.SeedConfig, appLog *logger.Logger) error {
	importer := database.NewCSVImporter(client, appLog)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	if !seed.OnStart {
		return importer.EnsureSchema(ctx)
	}

	if err := importer.ImportAllData(ctx, seed.BaseURL); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	status, err := importer.GetImportStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get import status: %w", err)
	}
	appLog.Info("dataset loaded",
		"users", status["users"],
		"products", status["products"],
		"orders", status["orders"],
		"order_items", status["order_items"])
	return nil
}

func isProduction(mode string) bool {
	switch strings.ToLower(mode) {
	case "prod", "production":
		return true
	default:
		return false
	}
}

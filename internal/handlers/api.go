package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yishak-cs/storefront-recommender/internal/logger"
	"github.com/yishak-cs/storefront-recommender/internal/models"
	"github.com/yishak-cs/storefront-recommender/internal/supervisor"
)

// Recommender is the recommendation engine as seen by the API
type Recommender interface {
	GetProductRecommendations(ctx context.Context, userID, anchorProductID string) []models.RecommendationCandidate
	RelatedProducts(ctx context.Context, productID string) []models.RecommendationCandidate
	CheckUnusedCashback(ctx context.Context) []models.CashbackReminder
}

// PairTables exposes the memoized co-purchase frequency table
type PairTables interface {
	PairTable(ctx context.Context) (models.FrequencyTable, error)
	Refresh(ctx context.Context) (models.FrequencyTable, error)
}

// CashbackReports returns the result of the latest scheduled cashback scan
type CashbackReports interface {
	Latest() (supervisor.CashbackReport, bool)
}

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

const defaultPairLimit = 20

// APIHandler handles all API requests
type APIHandler struct {
	recommender Recommender
	pairs       PairTables
	cashback    CashbackReports
	checks      map[string]HealthCheck
	log         *logger.Logger
}

// NewAPIHandler creates a new API handler. cashback may be nil, in which case
// reminders are computed on every request.
func NewAPIHandler(recommender Recommender, pairs PairTables, cashback CashbackReports, checks map[string]HealthCheck, log *logger.Logger) *APIHandler {
	return &APIHandler{
		recommender: recommender,
		pairs:       pairs,
		cashback:    cashback,
		checks:      checks,
		log:         log.With("component", "api"),
	}
}

// NewRouter builds the gin engine with middleware and every route mounted
func NewRouter(h *APIHandler, log *logger.Logger, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), AccessLog(log), CORS(allowedOrigins))

	h.SetupRoutes(router)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
	})
	return router
}

// SetupRoutes configures all API routes
func (h *APIHandler) SetupRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/recommendations/pairs", h.GetPairTable)
		api.GET("/recommendations/related/:productId", h.GetRelatedProducts)
		api.GET("/recommendations/users/:userId", h.GetProductRecommendations)
		api.GET("/cashback/reminders", h.GetCashbackReminders)
		api.POST("/admin/pairs/refresh", h.RefreshPairTable)
	}
}

// GetProductRecommendations handles requests for a user's personalized recommendations.
// The optional anchor query parameter switches to "bought together with" mode.
func (h *APIHandler) GetProductRecommendations(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	anchor := strings.TrimSpace(c.Query("anchor"))

	recommendations := h.recommender.GetProductRecommendations(c.Request.Context(), userID, anchor)

	strategy, description := "PurchaseHistory", "Products bought together with your past purchases"
	if anchor != "" {
		strategy, description = "BoughtTogether", "Products frequently bought together with this product"
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":           userID,
		"anchor_product_id": anchor,
		"recommendations":   recommendations,
		"strategy":          strategy,
		"description":       description,
	})
}

// GetRelatedProducts handles requests for products bought together with a product by all customers
func (h *APIHandler) GetRelatedProducts(c *gin.Context) {
	productID := strings.TrimSpace(c.Param("productId"))
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id":      productID,
		"recommendations": h.recommender.RelatedProducts(c.Request.Context(), productID),
		"strategy":        "GlobalBoughtTogether",
		"description":     "Products frequently bought together with this product by all customers",
	})
}

// GetPairTable returns the top co-purchase pairs
func (h *APIHandler) GetPairTable(c *gin.Context) {
	limit := defaultPairLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	table, err := h.pairs.PairTable(c.Request.Context())
	if err != nil {
		h.log.Warn("pair table unavailable", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Pair table unavailable"})
		return
	}

	pairs := table.Pairs
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	c.JSON(http.StatusOK, gin.H{
		"pairs":            pairs,
		"total_pairs":      len(table.Pairs),
		"computed_at":      table.ComputedAt,
		"orders_scanned":   table.OrdersScanned,
		"pair_occurrences": table.PairOccurrences,
	})
}

// GetCashbackReminders returns the latest unused-cashback reminders
func (h *APIHandler) GetCashbackReminders(c *gin.Context) {
	if h.cashback != nil {
		if report, ok := h.cashback.Latest(); ok {
			c.JSON(http.StatusOK, gin.H{
				"reminders":  report.Reminders,
				"scanned_at": report.ScannedAt,
				"source":     "scheduled",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"reminders":  h.recommender.CheckUnusedCashback(c.Request.Context()),
		"scanned_at": time.Now().UTC(),
		"source":     "on_demand",
	})
}

// RefreshPairTable forces a new mining pass
func (h *APIHandler) RefreshPairTable(c *gin.Context) {
	table, err := h.pairs.Refresh(c.Request.Context())
	if err != nil {
		h.log.Error("manual pair refresh failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to refresh pair table"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_pairs":      len(table.Pairs),
		"computed_at":      table.ComputedAt,
		"orders_scanned":   table.OrdersScanned,
		"pair_occurrences": table.PairOccurrences,
	})
}

// Health checks every registered dependency
func (h *APIHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn("health check failed", "dependency", name, "error", err)
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": results})
}

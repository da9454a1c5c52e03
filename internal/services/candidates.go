package services

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yishak-cs/storefront-recommender/internal/logger"
	"github.com/yishak-cs/storefront-recommender/internal/models"
)

const (
	// DefaultHistoryCandidates caps how many IDs history mode resolves against the catalog
	DefaultHistoryCandidates = 10

	resolveConcurrency = 4
)

// CandidateGenerator turns co-purchase pairs into candidate products
type CandidateGenerator struct {
	products   ProductRepository
	historyCap int
	log        *logger.Logger
}

// NewCandidateGenerator creates a generator. A non-positive historyCap uses DefaultHistoryCandidates.
func NewCandidateGenerator(products ProductRepository, historyCap int, log *logger.Logger) *CandidateGenerator {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCandidates
	}
	return &CandidateGenerator{
		products:   products,
		historyCap: historyCap,
		log:        log.With("service", "CandidateGenerator"),
	}
}

// ForAnchor returns products bought together with anchorID, excluding anything
// already purchased. purchased may be nil.
func (g *CandidateGenerator) ForAnchor(ctx context.Context, table models.FrequencyTable, anchorID string, purchased models.PurchaseAggregate) ([]models.Product, error) {
	ids := newIDSet(purchased, anchorID)
	for _, related := range table.Related(anchorID) {
		ids.add(related)
	}
	return g.resolve(ctx, ids.ordered)
}

// ForHistory unions the anchor lookups of every purchased product, stopping at
// the history cap before any catalog lookup.
func (g *CandidateGenerator) ForHistory(ctx context.Context, table models.FrequencyTable, purchased models.PurchaseAggregate) ([]models.Product, error) {
	ids := newIDSet(purchased)
	for _, anchor := range anchorOrder(purchased) {
		for _, related := range table.Related(anchor) {
			ids.add(related)
			if len(ids.ordered) >= g.historyCap {
				return g.resolve(ctx, ids.ordered)
			}
		}
	}
	return g.resolve(ctx, ids.ordered)
}

// resolve looks up ids in the catalog, keeping input order and dropping
// products that no longer exist.
func (g *CandidateGenerator) resolve(ctx context.Context, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	found := make([]*models.Product, len(ids))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(resolveConcurrency)
	for i, id := range ids {
		eg.Go(func() error {
			product, err := g.products.FindProductByID(egCtx, id)
			if err != nil {
				return dataAccessError("resolve product "+id, err)
			}
			found[i] = product
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(ids))
	for i, p := range found {
		if p == nil {
			g.log.Debug("dropping unresolvable candidate", "product_id", ids[i])
			continue
		}
		products = append(products, *p)
	}
	return products, nil
}

// anchorOrder lists purchased products most-bought first, then by ID
func anchorOrder(purchased models.PurchaseAggregate) []string {
	entries := make([]*models.PurchasedProduct, 0, len(purchased))
	for _, p := range purchased {
		entries = append(entries, p)
	}
	slices.SortFunc(entries, func(a, b *models.PurchasedProduct) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.ProductID, b.ProductID)
	})
	anchors := make([]string, len(entries))
	for i, e := range entries {
		anchors[i] = e.ProductID
	}
	return anchors
}

// idSet collects distinct candidate IDs in discovery order
type idSet struct {
	seen    map[string]struct{}
	exclude models.PurchaseAggregate
	ordered []string
}

func newIDSet(exclude models.PurchaseAggregate, skip ...string) *idSet {
	s := &idSet{seen: make(map[string]struct{}), exclude: exclude}
	for _, id := range skip {
		s.seen[id] = struct{}{}
	}
	return s
}

func (s *idSet) add(id string) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	if s.exclude.Contains(id) {
		return
	}
	s.ordered = append(s.ordered, id)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/redisclient"
	"storefront/internal/upstream"
	"storefront/internal/util"
)

// CatalogService serves the product listing from a cached snapshot of the
// upstream catalog.
type CatalogService struct {
	products ProductSource
	cache    CatalogCache
	engine   *catalog.Engine
	ttl      time.Duration
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(products ProductSource, cache CatalogCache, pageSize int, ttl time.Duration) *CatalogService {
	return &CatalogService{
		products: products,
		cache:    cache,
		engine:   catalog.NewEngine(pageSize),
		ttl:      ttl,
		logger:   util.GetLogger(),
	}
}

// Browse returns one page of listable products, newest first, filtered by
// the search term.
func (s *CatalogService) Browse(ctx context.Context, q catalog.CatalogQuery) (catalog.PageWindow, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Browse")
	defer span.End()

	products, err := s.snapshot(ctx)
	if err != nil {
		util.RecordError(span, err)
		return catalog.PageWindow{}, err
	}

	return s.engine.Query(products, q)
}

// Product returns a single listable product
func (s *CatalogService) Product(ctx context.Context, productID string) (*catalog.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Product")
	defer span.End()

	remote, err := s.products.GetProduct(ctx, productID)
	if errors.Is(err, upstream.ErrNotFound) {
		s.evict(ctx, productID)
		return nil, ErrProductNotFound
	}
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	product := remote.Catalog()
	if product.Deleted {
		s.evict(ctx, productID)
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// evict drops the cached snapshot when it still lists a product upstream no
// longer sells. Unknown IDs leave the cache alone.
func (s *CatalogService) evict(ctx context.Context, productID string) {
	if s.cache == nil {
		return
	}
	cached, err := s.cache.GetCatalog(ctx)
	if err != nil {
		return
	}
	for _, p := range cached {
		if p.ID != productID {
			continue
		}
		if err := s.cache.InvalidateCatalog(ctx); err != nil {
			s.logger.Warn("Catalog cache invalidation failed", zap.Error(err))
			return
		}
		s.logger.Info("Catalog snapshot invalidated", zap.String("product_id", productID))
		return
	}
}

// snapshot returns listable products sorted newest first, from cache when
// possible. Cache failures only cost a trip upstream.
func (s *CatalogService) snapshot(ctx context.Context) ([]catalog.Product, error) {
	if s.cache != nil {
		cached, err := s.cache.GetCatalog(ctx)
		if err == nil {
			util.CatalogCacheTotal.WithLabelValues("hit").Inc()
			return cached, nil
		}
		if !errors.Is(err, redisclient.ErrCacheMiss) {
			s.logger.Warn("Catalog cache read failed", zap.Error(err))
		}
		util.CatalogCacheTotal.WithLabelValues("miss").Inc()
	}

	start := time.Now()
	remote, err := s.products.GetProducts(ctx)
	util.UpstreamLatency.WithLabelValues("get_products").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	products := make([]catalog.Product, 0, len(remote))
	for _, p := range remote {
		products = append(products, p.Catalog())
	}
	products = catalog.SortNewestFirst(catalog.Listable(products))

	if s.cache != nil {
		if err := s.cache.SetCatalog(ctx, products, s.ttl); err != nil {
			s.logger.Warn("Catalog cache write failed", zap.Error(err))
		}
	}
	return products, nil
}

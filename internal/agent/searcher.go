package agent

import (
	"context"
	"time"

	"procurement-service/internal/models"
	"procurement-service/internal/util"
	"procurement-service/internal/vendor"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultVendorTimeout bounds a single vendor search call
const DefaultVendorTimeout = 5 * time.Second

// SearchCache stores raw per-vendor search results
type SearchCache interface {
	GetSearch(ctx context.Context, vendor models.VendorType, query string, maxResults int) ([]models.Product, bool, error)
	SetSearch(ctx context.Context, vendor models.VendorType, query string, maxResults int, products []models.Product) error
}

// Searcher fans queries out across the registered vendors
type Searcher struct {
	vendors       []vendor.Vendor
	vendorTimeout time.Duration
	cache         SearchCache
	logger        *zap.Logger
}

// NewSearcher creates a searcher. A non-positive vendorTimeout uses DefaultVendorTimeout.
func NewSearcher(vendors []vendor.Vendor, vendorTimeout time.Duration) *Searcher {
	if vendorTimeout <= 0 {
		vendorTimeout = DefaultVendorTimeout
	}

	registered := make([]vendor.Vendor, len(vendors))
	copy(registered, vendors)

	return &Searcher{
		vendors:       registered,
		vendorTimeout: vendorTimeout,
		logger:        util.GetLogger(),
	}
}

// UseCache makes the searcher consult cache before calling a vendor
func (s *Searcher) UseCache(cache SearchCache) {
	s.cache = cache
}

// RegisterVendor appends a vendor to the search list
func (s *Searcher) RegisterVendor(v vendor.Vendor) {
	s.vendors = append(s.vendors, v)
}

// Search queries every vendor concurrently and merges the results in registration order.
// A failing or slow vendor is logged and skipped.
func (s *Searcher) Search(ctx context.Context, query models.SearchQuery) *models.SearchResult {
	ctx, span := util.StartSpan(ctx, "Searcher.Search",
		trace.WithAttributes(attribute.String("query", query.Query)))
	defer span.End()

	maxResults := query.MaxResults
	if maxResults <= 0 {
		maxResults = models.DefaultMaxResults
	}
	if maxResults > 50 {
		maxResults = 50
	}

	perVendor := make([][]models.Product, len(s.vendors))

	var g errgroup.Group
	for i, v := range s.vendors {
		i, v := i, v
		g.Go(func() error {
			products, err := s.searchVendor(ctx, v, query.Query, maxResults)
			if err != nil {
				util.VendorSearchFailuresTotal.WithLabelValues(string(v.Type())).Inc()
				s.logger.Warn("Vendor search failed, skipping",
					zap.String("vendor", v.Name()),
					zap.String("query", query.Query),
					zap.Error(err))
				return nil
			}
			perVendor[i] = products
			return nil
		})
	}
	_ = g.Wait()

	all := make([]models.Product, 0)
	for _, products := range perVendor {
		all = append(all, products...)
	}

	if query.MinPrice != nil {
		all = filterProducts(all, func(p *models.Product) bool { return p.Price >= *query.MinPrice })
	}
	if query.MaxPrice != nil {
		all = filterProducts(all, func(p *models.Product) bool { return p.Price <= *query.MaxPrice })
	}
	if len(query.PreferredVendors) > 0 {
		all = filterProducts(all, func(p *models.Product) bool {
			for _, v := range query.PreferredVendors {
				if p.Vendor == v {
					return true
				}
			}
			return false
		})
	}

	span.SetAttributes(attribute.Int("total_found", len(all)))

	return &models.SearchResult{
		Query:      query.Query,
		Products:   all,
		TotalFound: len(all),
		SearchTime: time.Now(),
	}
}

// SearchMultiple runs Search for each query, preserving order
func (s *Searcher) SearchMultiple(ctx context.Context, queries []models.SearchQuery) []*models.SearchResult {
	results := make([]*models.SearchResult, 0, len(queries))
	for _, q := range queries {
		results = append(results, s.Search(ctx, q))
	}
	return results
}

// searchVendor calls one vendor under its own timeout and drops products that fail validation.
// The call runs in its own goroutine so an adapter that ignores ctx cannot stall the batch.
func (s *Searcher) searchVendor(ctx context.Context, v vendor.Vendor, query string, maxResults int) ([]models.Product, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.GetSearch(ctx, v.Type(), query, maxResults)
		if err != nil {
			s.logger.Warn("Search cache read failed", zap.String("vendor", v.Name()), zap.Error(err))
		} else if ok {
			util.SearchCacheHitsTotal.Inc()
			return cached, nil
		}
		util.SearchCacheMissesTotal.Inc()
	}

	vctx, cancel := context.WithTimeout(ctx, s.vendorTimeout)
	defer cancel()

	type outcome struct {
		products []models.Product
		err      error
	}
	done := make(chan outcome, 1)

	start := time.Now()
	go func() {
		products, err := v.Search(vctx, query, maxResults)
		done <- outcome{products, err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-vctx.Done():
		out.err = vctx.Err()
	}
	util.VendorSearchLatency.WithLabelValues(string(v.Type())).Observe(time.Since(start).Seconds())

	if out.err != nil {
		return nil, out.err
	}

	valid := filterProducts(out.products, func(p *models.Product) bool {
		if err := p.Validate(); err != nil {
			util.VendorProductsRejectedTotal.WithLabelValues(string(v.Type())).Inc()
			s.logger.Warn("Dropping invalid vendor product",
				zap.String("vendor", v.Name()),
				zap.String("product_id", p.ID),
				zap.Error(err))
			return false
		}
		return true
	})

	if s.cache != nil {
		if err := s.cache.SetSearch(ctx, v.Type(), query, maxResults, valid); err != nil {
			s.logger.Warn("Search cache write failed", zap.String("vendor", v.Name()), zap.Error(err))
		}
	}

	return valid, nil
}

func filterProducts(products []models.Product, keep func(*models.Product) bool) []models.Product {
	out := make([]models.Product, 0, len(products))
	for i := range products {
		if keep(&products[i]) {
			out = append(out, products[i])
		}
	}
	return out
}

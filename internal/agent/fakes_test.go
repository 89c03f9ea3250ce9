package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"procurement-service/internal/models"
	"procurement-service/internal/vendor"
)

func floatPtr(f float64) *float64 { return &f }

func strPtr(s string) *string { return &s }

func product(id string, v models.VendorType, price float64, rating *float64, inStock bool) models.Product {
	return models.Product{ID: id, Name: id, Price: price, Vendor: v, Rating: rating, InStock: inStock}
}

// fakeVendor returns a fixed product list, or err, for every search
type fakeVendor struct {
	vendorType models.VendorType
	products   []models.Product
	err        error
	block      chan struct{}

	mu        sync.Mutex
	searches  int
	purchases []string
	purchase  func(id string) (*models.VendorPurchase, error)
}

var _ vendor.Vendor = (*fakeVendor)(nil)

func (f *fakeVendor) Name() string { return "fake-" + string(f.vendorType) }

func (f *fakeVendor) Type() models.VendorType { return f.vendorType }

func (f *fakeVendor) Search(ctx context.Context, query string, maxResults int) ([]models.Product, error) {
	f.mu.Lock()
	f.searches++
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	if len(f.products) > maxResults {
		return f.products[:maxResults], nil
	}
	return f.products, nil
}

func (f *fakeVendor) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			return &f.products[i], nil
		}
	}
	return nil, vendor.ErrProductNotFound
}

func (f *fakeVendor) Purchase(ctx context.Context, id string, quantity int) (*models.VendorPurchase, error) {
	f.mu.Lock()
	f.purchases = append(f.purchases, id)
	f.mu.Unlock()

	if f.purchase != nil {
		return f.purchase(id)
	}
	orderID := fmt.Sprintf("%s-%s", f.vendorType, id)
	return &models.VendorPurchase{OrderID: &orderID, Status: models.VendorPurchaseSuccess, ProductID: id, Quantity: quantity}, nil
}

var errVendorDown = errors.New("vendor unavailable")

// memoryCache is an in-process SearchCache
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]models.Product
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]models.Product{}}
}

func cacheKey(v models.VendorType, q string, n int) string { return fmt.Sprintf("%s|%s|%d", v, q, n) }

func (c *memoryCache) GetSearch(ctx context.Context, v models.VendorType, q string, n int) ([]models.Product, bool, error) {
	if c.failGet {
		return nil, false, errors.New("cache down")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[cacheKey(v, q, n)]
	return p, ok, nil
}

func (c *memoryCache) SetSearch(ctx context.Context, v models.VendorType, q string, n int, products []models.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(v, q, n)] = products
	return nil
}

// memoryClaims is an in-process IdempotencyStore
type memoryClaims struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func (m *memoryClaims) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys == nil {
		m.keys = map[string]bool{}
	}
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

// failingExecutor always fails
type failingExecutor struct{ err error }

func (f failingExecutor) Execute(ctx context.Context, req *models.PurchaseRequest) (string, error) {
	return "", f.err
}

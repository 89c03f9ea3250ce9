package redisclient

import (
	"context"
	"os"
	"testing"
	"time"

	"procurement-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchKeyNormalizesQuery(t *testing.T) {
	assert.Equal(t, searchKey(models.VendorMock, " Pens ", 10), searchKey(models.VendorMock, "pens", 10))
	assert.NotEqual(t, searchKey(models.VendorMock, "pens", 10), searchKey(models.VendorStaples, "pens", 10))
	assert.NotEqual(t, searchKey(models.VendorMock, "pens", 10), searchKey(models.VendorMock, "pens", 5))
}

func newTestClient(t *testing.T) *Client {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("Integration test - set REDIS_TEST_ADDR")
	}

	c, err := NewClient(addr, "", 0, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSearchCacheRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	query := "pens-" + uuid.New().String()

	_, ok, err := c.GetSearch(ctx, models.VendorMock, query, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	products := []models.Product{{ID: "mock-1", Name: "Pens", Price: 8.99, Vendor: models.VendorMock, InStock: true}}
	require.NoError(t, c.SetSearch(ctx, models.VendorMock, query, 10, products))

	cached, ok, err := c.GetSearch(ctx, models.VendorMock, query, 10)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, products, cached)
}

func TestClaimIsOnce(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := uuid.New().String()

	first, err := c.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	second, err := c.Claim(ctx, key, time.Minute)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestLockOwnership(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := "customer-" + uuid.New().String()

	token, ok, err := c.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = c.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, c.ReleaseLock(ctx, key, "someone-else"), ErrLockNotHeld)
	assert.NoError(t, c.ReleaseLock(ctx, key, token))
}

package redisclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"procurement-service/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

//go:embed scripts/release_lock.lua
var releaseLockScript string

// ErrLockNotHeld is returned when releasing a lock owned by someone else or already expired
var ErrLockNotHeld = errors.New("lock not held")

type Client struct {
	rdb           *redis.Client
	searchTTL     time.Duration
	releaseScript *redis.Script
}

// NewClient creates a new Redis client and verifies the connection.
// searchTTL bounds how long vendor search results stay cached.
func NewClient(addr, password string, db int, searchTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:           rdb,
		searchTTL:     searchTTL,
		releaseScript: redis.NewScript(releaseLockScript),
	}, nil
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func searchKey(vendor models.VendorType, query string, maxResults int) string {
	return fmt.Sprintf("search:%s:%d:%s", vendor, maxResults, strings.ToLower(strings.TrimSpace(query)))
}

// GetSearch returns cached vendor results; ok is false on a miss
func (c *Client) GetSearch(ctx context.Context, vendor models.VendorType, query string, maxResults int) ([]models.Product, bool, error) {
	raw, err := c.rdb.Get(ctx, searchKey(vendor, query, maxResults)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("search cache get failed: %w", err)
	}

	var products []models.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached search: %w", err)
	}
	return products, true, nil
}

// SetSearch caches vendor results for the configured TTL
func (c *Client) SetSearch(ctx context.Context, vendor models.VendorType, query string, maxResults int, products []models.Product) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to encode search: %w", err)
	}
	return c.rdb.Set(ctx, searchKey(vendor, query, maxResults), raw, c.searchTTL).Err()
}

// Claim records an idempotency key; it reports false if the key was already claimed
func (c *Client) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("idempotency:%s", key), time.Now().Unix(), ttl).Result()
}

// AcquireLock tries to take lockKey for ttl. On success the returned token must be passed to ReleaseLock.
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (string, bool, error) {
	token := uuid.New().String()
	ok, err := c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// ReleaseLock releases lockKey if it is still held with token
func (c *Client) ReleaseLock(ctx context.Context, lockKey, token string) error {
	n, err := c.releaseScript.Run(ctx, c.rdb, []string{fmt.Sprintf("lock:%s", lockKey)}, token).Int()
	if err != nil {
		return fmt.Errorf("release lock script failed: %w", err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

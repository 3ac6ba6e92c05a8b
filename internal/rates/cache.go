package rates

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Quote is one observed exchange rate.
type Quote struct {
	Rate      decimal.Decimal `json:"rate"`
	Source    string          `json:"source"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Cache holds the last known quote. Entries never expire on their own; the
// service decides freshness from UpdatedAt so a stale quote stays available as
// a fallback.
type Cache interface {
	Get(ctx context.Context) (Quote, bool, error)
	Set(ctx context.Context, q Quote) error
}

type MemoryCache struct {
	mu    sync.RWMutex
	quote *Quote
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(ctx context.Context) (Quote, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.quote == nil {
		return Quote{}, false, nil
	}
	return *c.quote, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, q Quote) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.quote = &q
	return nil
}

// RedisCache shares the last quote between service instances.
type RedisCache struct {
	client redis.UniversalClient
	key    string
}

func NewRedisCache(client redis.UniversalClient, key string) *RedisCache {
	return &RedisCache{client: client, key: key}
}

func (c *RedisCache) Get(ctx context.Context) (Quote, bool, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Quote{}, false, nil
	}
	if err != nil {
		return Quote{}, false, err
	}

	var q Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return Quote{}, false, err
	}
	return q, true, nil
}

func (c *RedisCache) Set(ctx context.Context, q Quote) error {
	raw, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, raw, 0).Err()
}

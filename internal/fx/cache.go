package fx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Cache keeps recent per-pair exchange rates in Redis. It is best effort: any
// Redis failure behaves like a miss, and a nil *Cache is a no-op.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func rateKey(from, to string) string {
	return fmt.Sprintf("fx:rate:%s:%s", from, to)
}

// Rate returns the cached rate for the pair, if present.
func (c *Cache) Rate(ctx context.Context, from, to string) (decimal.Decimal, bool) {
	if c == nil || c.client == nil {
		return decimal.Zero, false
	}
	raw, err := c.client.Get(ctx, rateKey(from, to)).Result()
	if err != nil {
		return decimal.Zero, false
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return rate, true
}

// StoreRate records the rate for the pair with the configured TTL.
func (c *Cache) StoreRate(ctx context.Context, from, to string, rate decimal.Decimal) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, rateKey(from, to), rate.String(), c.ttl).Err()
}

package rates

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	interfaces "github.com/sheikh-saqib/crypto-purchase-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/models"
	"github.com/shopspring/decimal"
)

// Cached memoizes prices and conversion rates of another source for ttl.
// Misses are not cached.
type Cached struct {
	source interfaces.RateSource
	cache  *cache.Cache
	ttl    time.Duration
}

func NewCached(source interfaces.RateSource, ttl time.Duration) *Cached {
	return &Cached{
		source: source,
		cache:  cache.New(ttl, 2*ttl),
		ttl:    ttl,
	}
}

func (c *Cached) Price(ctx context.Context, currency models.Currency) (decimal.Decimal, error) {
	return c.lookup("BTC-"+string(currency), func() (decimal.Decimal, error) {
		return c.source.Price(ctx, currency)
	})
}

func (c *Cached) USDRate(ctx context.Context, currency models.Currency) (decimal.Decimal, error) {
	return c.lookup("USD-"+string(currency), func() (decimal.Decimal, error) {
		return c.source.USDRate(ctx, currency)
	})
}

func (c *Cached) lookup(key string, fetch func() (decimal.Decimal, error)) (decimal.Decimal, error) {
	if v, ok := c.cache.Get(key); ok {
		return v.(decimal.Decimal), nil
	}

	value, err := fetch()
	if err != nil {
		return decimal.Zero, err
	}
	c.cache.Set(key, value, c.ttl)
	return value, nil
}

var _ interfaces.RateSource = (*Cached)(nil)

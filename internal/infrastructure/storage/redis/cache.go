package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"pulse/internal/application/port"
	"pulse/internal/domain/model"
)

// Cache keeps the most recent bar per symbol in a hash so the dashboard
// reads hot quotes without touching the durable store.
type Cache struct {
	rdb       *redis.Client
	keyLatest string // prefix + ":latest"
	ttl       time.Duration
}

type latestQuote struct {
	Symbol    string  `json:"symbol"`
	Timeframe string  `json:"timeframe"`
	Close     float64 `json:"close"`
	Ts        int64   `json:"ts"`
}

func New(rdb *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{
		rdb:       rdb,
		keyLatest: prefix + ":latest",
		ttl:       ttl,
	}
}

func (c *Cache) SetLatestBar(ctx context.Context, bar model.PriceBar) error {
	q := latestQuote{
		Symbol:    bar.Symbol,
		Timeframe: bar.Timeframe,
		Close:     bar.Close,
		Ts:        bar.Timestamp.UnixMilli(),
	}
	b, err := json.Marshal(q)
	if err != nil {
		return err
	}

	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, c.keyLatest, bar.Symbol, string(b))
	if c.ttl > 0 {
		pipe.Expire(ctx, c.keyLatest, c.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (c *Cache) Close() error { return c.rdb.Close() }

var _ port.QuoteCache = (*Cache)(nil)

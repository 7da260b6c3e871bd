package data

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// CorrelationCache is an optional Redis warm layer for canonical pair
// correlations. The per-run metrics cache remains authoritative; this layer
// only saves recomputation across runs, so every failure path degrades to a
// miss.
type CorrelationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCorrelationCache wraps a Redis client. A 24h TTL keeps entries within
// one trading day of freshness.
func NewCorrelationCache(client *redis.Client, ttl time.Duration) *CorrelationCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CorrelationCache{client: client, ttl: ttl}
}

func corrKey(symbolA, symbolB string) string {
	// Canonical unordered key: lexicographic order makes (A,B) and (B,A)
	// hit the same entry.
	if symbolB < symbolA {
		symbolA, symbolB = symbolB, symbolA
	}
	return fmt.Sprintf("pairscreen:corr:%s:%s", symbolA, symbolB)
}

// Get returns the cached correlation for the unordered pair, reporting a
// miss on any error.
func (c *CorrelationCache) Get(ctx context.Context, symbolA, symbolB string) (float64, bool) {
	if c == nil || c.client == nil {
		return 0, false
	}

	value, err := c.client.Get(ctx, corrKey(symbolA, symbolB)).Float64()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("pair", corrKey(symbolA, symbolB)).Msg("correlation cache read failed")
		}
		return 0, false
	}
	return value, true
}

// Put stores the correlation for the unordered pair.
func (c *CorrelationCache) Put(ctx context.Context, symbolA, symbolB string, correlation float64) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Set(ctx, corrKey(symbolA, symbolB), correlation, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("pair", corrKey(symbolA, symbolB)).Msg("correlation cache write failed")
	}
}

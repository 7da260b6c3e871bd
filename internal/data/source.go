package data

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/sawpanic/pairscreen/internal/persistence"
)

// DailyClose is one usable daily observation for return calculations.
type DailyClose struct {
	Date    time.Time
	Close   float64
	Quality float64
}

// SeriesSource yields daily close series for a symbol over a window,
// ordered by date ascending.
type SeriesSource interface {
	DailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]DailyClose, error)
}

// StoreSource reads daily closes from the persistent price store.
type StoreSource struct {
	prices persistence.PricesRepo
}

// NewStoreSource adapts a prices repository into a SeriesSource.
func NewStoreSource(prices persistence.PricesRepo) *StoreSource {
	return &StoreSource{prices: prices}
}

func (s *StoreSource) DailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]DailyClose, error) {
	bars, err := s.prices.DailyCloses(ctx, symbol, persistence.TimeRange{From: from, To: to})
	if err != nil {
		return nil, err
	}

	closes := make([]DailyClose, 0, len(bars))
	for _, bar := range bars {
		if bar.Close <= 0 {
			continue
		}
		closes = append(closes, DailyClose{
			Date:    bar.Timestamp,
			Close:   bar.Close,
			Quality: bar.QualityScore,
		})
	}
	return closes, nil
}

// GuardedSource wraps a SeriesSource with a circuit breaker and a rate
// limiter so a degraded store cannot stall or be hammered by a screening run.
type GuardedSource struct {
	inner   SeriesSource
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// GuardConfig tunes the store guards.
type GuardConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	FailureThreshold  uint32  `yaml:"failure_threshold"`
	CooldownSecs      int     `yaml:"cooldown_secs"`
}

// DefaultGuardConfig returns conservative store-guard settings.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		RequestsPerSecond: 50,
		Burst:             100,
		FailureThreshold:  5,
		CooldownSecs:      30,
	}
}

// NewGuardedSource wraps inner with breaker and limiter guards.
func NewGuardedSource(inner SeriesSource, cfg GuardConfig) *GuardedSource {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "series-store",
		Timeout: time.Duration(cfg.CooldownSecs) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	})

	return &GuardedSource{
		inner:   inner,
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

func (g *GuardedSource) DailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]DailyClose, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("store rate limit wait: %w", err)
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.DailyCloses(ctx, symbol, from, to)
	})
	if err != nil {
		return nil, fmt.Errorf("series fetch for %s: %w", symbol, err)
	}
	return result.([]DailyClose), nil
}

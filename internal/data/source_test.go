package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/pairscreen/internal/persistence"
)

type stubPricesRepo struct {
	bars []persistence.PriceBar
	err  error
}

func (s *stubPricesRepo) Insert(ctx context.Context, bar persistence.PriceBar) error { return nil }
func (s *stubPricesRepo) InsertBatch(ctx context.Context, bars []persistence.PriceBar) error {
	return nil
}
func (s *stubPricesRepo) DailyCloses(ctx context.Context, symbol string, tr persistence.TimeRange) ([]persistence.PriceBar, error) {
	return s.bars, s.err
}
func (s *stubPricesRepo) Count(ctx context.Context, symbol string, tr persistence.TimeRange) (int64, error) {
	return int64(len(s.bars)), s.err
}

type flakySource struct {
	calls int
	err   error
}

func (f *flakySource) DailyCloses(ctx context.Context, symbol string, from, to time.Time) ([]DailyClose, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []DailyClose{{Date: from, Close: 100, Quality: 1}}, nil
}

func TestStoreSourceSkipsNonPositiveCloses(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := &stubPricesRepo{bars: []persistence.PriceBar{
		{Symbol: "BTC", Timestamp: day, Close: 43000, QualityScore: 0.98},
		{Symbol: "BTC", Timestamp: day.AddDate(0, 0, 1), Close: 0, QualityScore: 0.10},
		{Symbol: "BTC", Timestamp: day.AddDate(0, 0, 2), Close: 43850, QualityScore: 0.95},
	}}

	closes, err := NewStoreSource(repo).DailyCloses(context.Background(), "BTC", day, day.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, closes, 2)
	assert.Equal(t, 43000.0, closes[0].Close)
	assert.Equal(t, 43850.0, closes[1].Close)
	assert.InDelta(t, 0.95, closes[1].Quality, 1e-12)
}

func TestGuardedSourcePassesThrough(t *testing.T) {
	inner := &flakySource{}
	guarded := NewGuardedSource(inner, DefaultGuardConfig())

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	closes, err := guarded.DailyCloses(context.Background(), "ETH", from, from.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.Len(t, closes, 1)
	assert.Equal(t, 1, inner.calls)
}

func TestGuardedSourceTripsAfterConsecutiveFailures(t *testing.T) {
	inner := &flakySource{err: errors.New("store down")}
	cfg := DefaultGuardConfig()
	cfg.FailureThreshold = 2
	guarded := NewGuardedSource(inner, cfg)

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 30)

	for i := 0; i < 2; i++ {
		_, err := guarded.DailyCloses(context.Background(), "ETH", from, to)
		require.Error(t, err)
	}

	_, err := guarded.DailyCloses(context.Background(), "ETH", from, to)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.calls, "open breaker must not reach the store")
}

func TestGuardedSourceRateLimitHonorsContext(t *testing.T) {
	cfg := DefaultGuardConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1
	guarded := NewGuardedSource(&flakySource{}, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// First call consumes the burst token.
	_, err := guarded.DailyCloses(ctx, "ETH", from, from.AddDate(0, 0, 1))
	require.NoError(t, err)

	cancel()
	_, err = guarded.DailyCloses(ctx, "ETH", from, from.AddDate(0, 0, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

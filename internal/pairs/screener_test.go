package pairs

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/pairscreen/internal/data"
	"github.com/sawpanic/pairscreen/internal/universe"
)

// harmonicSource serves synthetic daily closes whose log returns are built
// from orthogonal cosine harmonics: every symbol shares one common component
// so that every pairwise return correlation equals the configured target
// (up to floating-point rounding), volatilities match exactly, and per-bar
// quality is constant.
type harmonicSource struct {
	index       map[string]int
	days        int
	end         time.Time
	correlation float64
	quality     float64
}

func newHarmonicSource(symbols []string, days int, end time.Time, correlation, quality float64) *harmonicSource {
	index := make(map[string]int, len(symbols))
	for i, s := range symbols {
		index[s] = i
	}
	return &harmonicSource{index: index, days: days, end: end, correlation: correlation, quality: quality}
}

func (h *harmonicSource) DailyCloses(_ context.Context, symbol string, _, _ time.Time) ([]data.DailyClose, error) {
	idx, ok := h.index[symbol]
	if !ok {
		return nil, fmt.Errorf("no fixture series for %s", symbol)
	}

	n := h.days - 1 // number of returns; harmonics are periodic over n
	shared := math.Sqrt(h.correlation)
	own := math.Sqrt(1 - h.correlation)
	const sigma = 0.02

	closes := make([]data.DailyClose, h.days)
	price := 100.0
	start := h.end.AddDate(0, 0, -(h.days - 1))
	for t := 0; t < h.days; t++ {
		if t > 0 {
			common := math.Cos(2 * math.Pi * float64(t) / float64(n))
			idio := math.Cos(2 * math.Pi * float64(idx+2) * float64(t) / float64(n))
			price *= math.Exp(sigma * (shared*common + own*idio))
		}
		closes[t] = data.DailyClose{
			Date:    start.AddDate(0, 0, t),
			Close:   price,
			Quality: h.quality,
		}
	}
	return closes, nil
}

// screenUniverse is the 20-coin tier-1 fixture: uniform liquidity 0.8,
// per-coin volume high enough that every combined pair clears $400M.
func screenUniverse() []universe.Coin {
	sectorOf := map[string]universe.Sector{
		"BTC": universe.SectorLayer1, "ETH": universe.SectorSmartContract,
		"SOL": universe.SectorLayer1, "ADA": universe.SectorSmartContract,
		"AVAX": universe.SectorLayer1, "DOT": universe.SectorInteroperability,
		"MATIC": universe.SectorInfrastructure, "LINK": universe.SectorOracle,
		"ATOM": universe.SectorInteroperability, "UNI": universe.SectorDeFi,
		"VET": universe.SectorInfrastructure, "FIL": universe.SectorStorage,
		"NEAR": universe.SectorLayer1, "AAVE": universe.SectorDeFi,
		"CRV": universe.SectorDeFi, "MKR": universe.SectorDeFi,
		"COMP": universe.SectorDeFi, "SNX": universe.SectorDeFi,
		"OMG": universe.SectorInfrastructure, "LRC": universe.SectorInfrastructure,
	}
	coins := make([]universe.Coin, 0, len(sectorOf))
	marketCap := 100e9
	for _, symbol := range screenSymbols() {
		coins = append(coins, universe.Coin{
			Symbol:         symbol,
			Name:           symbol,
			Sector:         sectorOf[symbol],
			MarketCapUSD:   marketCap,
			Volume24hUSD:   250e6,
			LiquidityScore: 0.8,
		})
		marketCap -= 1e9
	}
	return coins
}

func screenSymbols() []string {
	return []string{
		"BTC", "ETH", "SOL", "ADA", "AVAX", "DOT", "MATIC", "LINK", "ATOM", "UNI",
		"VET", "FIL", "NEAR", "AAVE", "CRV", "MKR", "COMP", "SNX", "OMG", "LRC",
	}
}

func fixtureAsOf() time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func buildFixtureCache(t *testing.T, correlation float64) *MetricsCache {
	t.Helper()
	catalog := universe.NewCatalogFromCoins(screenUniverse())
	source := newHarmonicSource(screenSymbols(), 601, fixtureAsOf(), correlation, 0.98)
	cache, err := BuildMetricsCache(context.Background(), catalog, source, catalog.Tier1Coins(), CacheOptions{
		AsOf: fixtureAsOf(),
	})
	require.NoError(t, err)
	return cache
}

func TestCorrelationScoreTent(t *testing.T) {
	cases := []struct {
		corr, want float64
	}{
		{0.29, 0},
		{0.3, 0},
		{0.45, 0.5},
		{0.6, 1.0},
		{0.7, 0.5},
		{0.8, 0},
		{0.81, 0},
	}
	for _, tc := range cases {
		got := correlationScore(tc.corr, 0.3, 0.6, 0.8)
		assert.InDelta(t, tc.want, got, 1e-12, "correlation %.2f", tc.corr)
	}
}

func TestOverallQualityWeights(t *testing.T) {
	c := Candidate{
		LongSector:  universe.SectorLayer1,
		ShortSector: universe.SectorDeFi,
		Metrics: Metrics{
			Correlation:           0.6,
			Liquidity:             0.8,
			DataQuality:           0.98,
			VolatilityMatch:       1.0,
			SectorDiversification: 1.0,
		},
	}
	c.computeComposites(DefaultCriteria())
	assert.InDelta(t, 0.954, c.Composites.OverallQuality, 1e-9)

	same := c
	same.Metrics.SectorDiversification = 0.3
	same.computeComposites(DefaultCriteria())
	assert.InDelta(t, 0.849, same.Composites.OverallQuality, 1e-9)
}

func TestRatioMatch(t *testing.T) {
	assert.Equal(t, 1.0, ratioMatch(0.02, 0.02))
	assert.InDelta(t, 0.5, ratioMatch(0.01, 0.02), 1e-12)
	assert.Equal(t, 1.0, ratioMatch(0, 0))
	assert.Equal(t, 0.0, ratioMatch(0, 0.02))
}

func TestCriteriaValidate(t *testing.T) {
	require.NoError(t, DefaultCriteria().validate())

	bad := DefaultCriteria()
	bad.OptimalCorrelation = 0.9
	assert.Error(t, bad.validate())

	bad = DefaultCriteria()
	bad.MaxCount = 10
	assert.Error(t, bad.validate())
}

func TestPairMetricsSymmetricCorrelation(t *testing.T) {
	cache := buildFixtureCache(t, 0.6)

	ab, err := cache.PairMetrics("BTC", "ETH")
	require.NoError(t, err)
	ba, err := cache.PairMetrics("ETH", "BTC")
	require.NoError(t, err)

	// Bit-identical, not merely close.
	assert.Equal(t, ab.Correlation, ba.Correlation)
	assert.InDelta(t, 0.6, ab.Correlation, 1e-9)
}

func TestPairMetricsValues(t *testing.T) {
	cache := buildFixtureCache(t, 0.6)

	m, err := cache.PairMetrics("BTC", "UNI")
	require.NoError(t, err)

	assert.InDelta(t, 0.8, m.Liquidity, 1e-12)
	assert.InDelta(t, 0.98, m.DataQuality, 1e-12)
	assert.InDelta(t, 1.0, m.VolatilityMatch, 1e-9)
	assert.Equal(t, 1.0, m.SectorDiversification)
	assert.InDelta(t, 0.5, m.VolumeScore, 1e-12) // 500M / 1B
	assert.Equal(t, 0.5, m.NewsAvailability)     // no sentiment source wired

	same, err := cache.PairMetrics("BTC", "SOL")
	require.NoError(t, err)
	assert.Equal(t, 0.3, same.SectorDiversification)
}

func TestPairMetricsInsufficientHistory(t *testing.T) {
	catalog := universe.NewCatalogFromCoins(screenUniverse())
	// 120 closes is far below the 500-observation floor.
	source := newHarmonicSource(screenSymbols(), 120, fixtureAsOf(), 0.6, 0.98)
	cache, err := BuildMetricsCache(context.Background(), catalog, source, []string{"BTC", "ETH"}, CacheOptions{
		AsOf: fixtureAsOf(),
	})
	require.NoError(t, err)

	_, err = cache.PairMetrics("BTC", "ETH")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestScreenFullUniverse(t *testing.T) {
	cache := buildFixtureCache(t, 0.6)
	screener, err := NewScreener(universe.NewCatalogFromCoins(screenUniverse()), DefaultCriteria(), nil)
	require.NoError(t, err)

	result, err := screener.Screen(context.Background(), cache)
	require.NoError(t, err)

	// 20 tier-1 coins give 380 oriented candidates.
	assert.Equal(t, 380, result.Summary.TotalEvaluated)
	assert.Zero(t, result.Summary.InsufficientData)

	require.NotEmpty(t, result.Selected)
	assert.LessOrEqual(t, len(result.Selected), 50)
	assert.True(t, result.Summary.MeetsTarget)

	// Uniform 0.6 correlation puts every cross-sector pair at quality
	// 0.954; only those survive, all premium.
	for _, c := range result.Selected {
		assert.Equal(t, TierPremium, c.Tier, "pair %s", c.Key())
		assert.GreaterOrEqual(t, c.Composites.OverallQuality, 0.85)
		assert.NotEqual(t, c.LongSector, c.ShortSector, "pair %s", c.Key())
	}
	assert.Len(t, result.Premium, len(result.Selected))

	for sector, count := range result.SectorDistribution {
		assert.LessOrEqual(t, count, 12, "sector %s over cap", sector)
	}

	// Ranking is non-increasing by quality.
	for i := 1; i < len(result.Selected); i++ {
		assert.GreaterOrEqual(t,
			result.Selected[i-1].Composites.OverallQuality,
			result.Selected[i].Composites.OverallQuality)
	}

	assert.True(t, result.Summary.MeetsQualityBar)
	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.Pairs(), len(result.Selected))
}

func TestScreenExcludesOutOfBandCorrelations(t *testing.T) {
	cache := buildFixtureCache(t, 0.6)

	// Override specific pair correlations: one below the band, one above.
	cache.corr[canonicalKey("BTC", "ETH")] = 0.25
	cache.corr[canonicalKey("ADA", "DOT")] = 0.85

	screener, err := NewScreener(universe.NewCatalogFromCoins(screenUniverse()), DefaultCriteria(), nil)
	require.NoError(t, err)

	result, err := screener.Screen(context.Background(), cache)
	require.NoError(t, err)

	excluded := map[string]bool{"BTC/ETH": true, "ETH/BTC": true, "ADA/DOT": true, "DOT/ADA": true}
	for _, key := range result.Pairs() {
		assert.False(t, excluded[key], "out-of-band pair %s selected", key)
	}
	assert.True(t, result.Summary.MeetsTarget)
}

func TestScreenInclusiveCorrelationBounds(t *testing.T) {
	cache := buildFixtureCache(t, 0.6)
	cache.corr[canonicalKey("BTC", "ETH")] = 0.30 // inclusive lower bound
	cache.corr[canonicalKey("ADA", "DOT")] = 0.80 // inclusive upper bound
	cache.corr[canonicalKey("BTC", "ADA")] = 0.2999
	cache.corr[canonicalKey("ETH", "DOT")] = 0.8001

	screener, err := NewScreener(universe.NewCatalogFromCoins(screenUniverse()), DefaultCriteria(), nil)
	require.NoError(t, err)
	result, err := screener.Screen(context.Background(), cache)
	require.NoError(t, err)

	// Boundary correlations score 0 on the tent but pass the filter, so
	// they may appear; strictly outside must never appear.
	for _, key := range result.Pairs() {
		assert.NotContains(t, []string{"BTC/ADA", "ADA/BTC", "ETH/DOT", "DOT/ETH"}, key)
	}
}

type vetoAdmission struct {
	vetoed universe.Sector
}

func (v vetoAdmission) CanAdmit(sector universe.Sector, _ float64) bool {
	return sector != v.vetoed
}

func TestScreenHonorsAdmissionVeto(t *testing.T) {
	cache := buildFixtureCache(t, 0.6)
	screener, err := NewScreener(universe.NewCatalogFromCoins(screenUniverse()),
		DefaultCriteria(), vetoAdmission{vetoed: universe.SectorDeFi})
	require.NoError(t, err)

	result, err := screener.Screen(context.Background(), cache)
	require.NoError(t, err)

	for _, c := range result.Selected {
		assert.NotEqual(t, universe.SectorDeFi, c.LongSector, "pair %s", c.Key())
		assert.NotEqual(t, universe.SectorDeFi, c.ShortSector, "pair %s", c.Key())
	}
}

func TestScreenMeetsTargetFalseWhenTooFewSurvive(t *testing.T) {
	// Correlation 0.25 is below the band for every pair, so nothing
	// survives stage 3.
	cache := buildFixtureCache(t, 0.25)
	screener, err := NewScreener(universe.NewCatalogFromCoins(screenUniverse()), DefaultCriteria(), nil)
	require.NoError(t, err)

	result, err := screener.Screen(context.Background(), cache)
	require.NoError(t, err)

	assert.Empty(t, result.Selected)
	assert.False(t, result.Summary.MeetsTarget)
	assert.False(t, result.Summary.MeetsQualityBar)
	assert.Zero(t, result.Summary.AverageQuality)
}

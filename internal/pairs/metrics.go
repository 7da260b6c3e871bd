package pairs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/pairscreen/internal/data"
	"github.com/sawpanic/pairscreen/internal/persistence"
	"github.com/sawpanic/pairscreen/internal/universe"
)

// ErrInsufficientData marks a pair that cannot be scored because one of its
// legs has too few usable daily observations in the lookback window.
var ErrInsufficientData = errors.New("insufficient historical data")

const (
	// defaultWindowDays is the calendar depth of the correlation lookback.
	defaultWindowDays = 730

	// minUsableObservations is the floor of usable daily closes each leg
	// must have before a pair can be scored.
	minUsableObservations = 500

	// volumeNormalizationUSD converts combined 24h dollar volume into the
	// [0,1] volume score.
	volumeNormalizationUSD = 1e9

	// newsSaturationArticles is the mean daily article count at which the
	// news availability score saturates at 1.0.
	newsSaturationArticles = 20.0
)

// coinStats are the per-symbol aggregates a build precomputes once so pair
// metrics never touch the store again.
type coinStats struct {
	symbol       string
	observations int
	returnsByDay map[int64]float64 // unix day -> log return
	volatility   float64
	dataQuality  float64
	newsScore    float64
}

type pairKey struct {
	a, b string // lexicographic, a < b
}

func canonicalKey(symbolA, symbolB string) pairKey {
	if symbolB < symbolA {
		symbolA, symbolB = symbolB, symbolA
	}
	return pairKey{a: symbolA, b: symbolB}
}

// CacheOptions tune a metrics cache build.
type CacheOptions struct {
	// WindowDays is the calendar lookback for daily closes. Zero means the
	// default two-year window.
	WindowDays int

	// MinObservations is the usable-observation floor per leg. Zero means
	// the default floor.
	MinObservations int

	// AsOf pins the window end for reproducible runs. Zero means now.
	AsOf time.Time

	// Sentiment, when set, feeds the news availability metric. When nil the
	// metric falls back to a neutral 0.5.
	Sentiment persistence.SentimentRepo

	// WarmCorrelations, when set, is consulted before computing a pair
	// correlation and updated after. Misses are silent.
	WarmCorrelations *data.CorrelationCache
}

// MetricsCache holds precomputed per-coin statistics and memoized pair
// correlations for one screening run. A cache is immutable after build:
// concurrent readers need no locking, and re-screening means re-building.
type MetricsCache struct {
	catalog *universe.Catalog
	coins   map[string]*coinStats
	corr    map[pairKey]float64
	minObs  int
	asOf    time.Time
}

// BuildMetricsCache loads the lookback series for every given symbol and
// precomputes the statistics pair scoring needs. Symbols whose series cannot
// be loaded are kept with zero observations so that pairs touching them fail
// with ErrInsufficientData instead of aborting the whole run.
func BuildMetricsCache(ctx context.Context, catalog *universe.Catalog, source data.SeriesSource, symbols []string, opts CacheOptions) (*MetricsCache, error) {
	if catalog == nil {
		return nil, errors.New("metrics cache requires a catalog")
	}
	if source == nil {
		return nil, errors.New("metrics cache requires a series source")
	}

	windowDays := opts.WindowDays
	if windowDays <= 0 {
		windowDays = defaultWindowDays
	}
	minObs := opts.MinObservations
	if minObs <= 0 {
		minObs = minUsableObservations
	}
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	from := asOf.AddDate(0, 0, -windowDays)

	cache := &MetricsCache{
		catalog: catalog,
		coins:   make(map[string]*coinStats, len(symbols)),
		corr:    make(map[pairKey]float64),
		minObs:  minObs,
		asOf:    asOf,
	}

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("metrics cache build cancelled: %w", err)
		}
		stats, err := buildCoinStats(ctx, source, symbol, from, asOf)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("series load failed, leg will score as insufficient")
			stats = &coinStats{symbol: symbol, newsScore: 0.5}
		}
		if opts.Sentiment != nil {
			stats.newsScore = newsAvailability(ctx, opts.Sentiment, symbol, from, asOf)
		} else if stats.newsScore == 0 {
			stats.newsScore = 0.5
		}
		cache.coins[symbol] = stats
	}

	// Correlations are memoized lazily through the warm layer; nothing else
	// to do at build time.
	if opts.WarmCorrelations != nil {
		cache.warmCorrelations(ctx, opts.WarmCorrelations, symbols)
	}
	return cache, nil
}

func buildCoinStats(ctx context.Context, source data.SeriesSource, symbol string, from, to time.Time) (*coinStats, error) {
	closes, err := source.DailyCloses(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	stats := &coinStats{
		symbol:       symbol,
		observations: len(closes),
		returnsByDay: make(map[int64]float64, len(closes)),
	}
	if len(closes) == 0 {
		return stats, nil
	}

	sort.Slice(closes, func(i, j int) bool { return closes[i].Date.Before(closes[j].Date) })

	qualitySum := 0.0
	returns := make([]float64, 0, len(closes)-1)
	for i, bar := range closes {
		qualitySum += bar.Quality
		if i == 0 {
			continue
		}
		prev := closes[i-1].Close
		if prev <= 0 || bar.Close <= 0 {
			continue
		}
		r := math.Log(bar.Close / prev)
		day := bar.Date.UTC().Truncate(24*time.Hour).Unix() / 86400
		stats.returnsByDay[day] = r
		returns = append(returns, r)
	}
	stats.dataQuality = qualitySum / float64(len(closes))
	stats.volatility = stddev(returns)
	return stats, nil
}

func newsAvailability(ctx context.Context, repo persistence.SentimentRepo, symbol string, from, to time.Time) float64 {
	points, err := repo.ListBySymbol(ctx, symbol, persistence.TimeRange{From: from, To: to})
	if err != nil || len(points) == 0 {
		return 0.5
	}
	articles := 0
	for _, p := range points {
		articles += p.ArticleCount
	}
	mean := float64(articles) / float64(len(points))
	return clamp01(mean / newsSaturationArticles)
}

// warmCorrelations pulls any cached correlations for the symbol set into the
// in-memory map and registers the warm layer for write-back.
func (m *MetricsCache) warmCorrelations(ctx context.Context, warm *data.CorrelationCache, symbols []string) {
	hits := 0
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			if corr, ok := warm.Get(ctx, symbols[i], symbols[j]); ok {
				m.corr[canonicalKey(symbols[i], symbols[j])] = corr
				hits++
				continue
			}
			if corr, ok := m.computeCorrelation(symbols[i], symbols[j]); ok {
				m.corr[canonicalKey(symbols[i], symbols[j])] = corr
				warm.Put(ctx, symbols[i], symbols[j], corr)
			}
		}
	}
	log.Debug().Int("warm_hits", hits).Int("symbols", len(symbols)).Msg("correlation warm layer consulted")
}

// PairMetrics scores one oriented pair. The correlation component is
// symmetric: (A,B) and (B,A) always yield the identical value.
func (m *MetricsCache) PairMetrics(longSymbol, shortSymbol string) (Metrics, error) {
	if longSymbol == shortSymbol {
		return Metrics{}, fmt.Errorf("pair %s/%s: legs must differ", longSymbol, shortSymbol)
	}
	longCoin, err := m.catalog.Coin(longSymbol)
	if err != nil {
		return Metrics{}, fmt.Errorf("pair %s/%s: %w", longSymbol, shortSymbol, err)
	}
	shortCoin, err := m.catalog.Coin(shortSymbol)
	if err != nil {
		return Metrics{}, fmt.Errorf("pair %s/%s: %w", longSymbol, shortSymbol, err)
	}

	longStats, ok := m.coins[longSymbol]
	if !ok || longStats.observations < m.minObs {
		return Metrics{}, fmt.Errorf("pair %s/%s: leg %s has %d usable observations, need %d: %w",
			longSymbol, shortSymbol, longSymbol, observationCount(longStats), m.minObs, ErrInsufficientData)
	}
	shortStats, ok := m.coins[shortSymbol]
	if !ok || shortStats.observations < m.minObs {
		return Metrics{}, fmt.Errorf("pair %s/%s: leg %s has %d usable observations, need %d: %w",
			longSymbol, shortSymbol, shortSymbol, observationCount(shortStats), m.minObs, ErrInsufficientData)
	}

	corr, ok := m.correlation(longSymbol, shortSymbol)
	if !ok {
		return Metrics{}, fmt.Errorf("pair %s/%s: overlapping return history too short: %w",
			longSymbol, shortSymbol, ErrInsufficientData)
	}

	metrics := Metrics{
		Correlation:           corr,
		Liquidity:             (longCoin.LiquidityScore + shortCoin.LiquidityScore) / 2,
		DataQuality:           math.Min(longStats.dataQuality, shortStats.dataQuality),
		VolatilityMatch:       ratioMatch(longStats.volatility, shortStats.volatility),
		MarketCapBalance:      ratioMatch(longCoin.MarketCapUSD, shortCoin.MarketCapUSD),
		SectorDiversification: sectorDiversification(longCoin.Sector, shortCoin.Sector),
		VolumeScore:           clamp01((longCoin.Volume24hUSD + shortCoin.Volume24hUSD) / volumeNormalizationUSD),
		NewsAvailability:      math.Min(longStats.newsScore, shortStats.newsScore),
		ExchangeListings:      clamp01(0.55 + 0.45*(longCoin.LiquidityScore+shortCoin.LiquidityScore)/2),
	}
	return metrics, nil
}

// correlation returns the memoized symmetric correlation, computing and
// caching it on first use.
func (m *MetricsCache) correlation(symbolA, symbolB string) (float64, bool) {
	key := canonicalKey(symbolA, symbolB)
	if corr, ok := m.corr[key]; ok {
		return corr, true
	}
	corr, ok := m.computeCorrelation(symbolA, symbolB)
	if ok {
		m.corr[key] = corr
	}
	return corr, ok
}

func (m *MetricsCache) computeCorrelation(symbolA, symbolB string) (float64, bool) {
	statsA, okA := m.coins[symbolA]
	statsB, okB := m.coins[symbolB]
	if !okA || !okB {
		return 0, false
	}

	// Align returns on shared days; iterate the smaller map.
	small, large := statsA.returnsByDay, statsB.returnsByDay
	if len(large) < len(small) {
		small, large = large, small
	}
	days := make([]int64, 0, len(small))
	for day := range small {
		if _, ok := large[day]; ok {
			days = append(days, day)
		}
	}
	if len(days) < m.minObs {
		return 0, false
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	xs := make([]float64, len(days))
	ys := make([]float64, len(days))
	for i, day := range days {
		xs[i] = statsA.returnsByDay[day]
		ys[i] = statsB.returnsByDay[day]
	}
	return pearson(xs, ys), true
}

// CoinObservations exposes the usable-observation count for diagnostics.
func (m *MetricsCache) CoinObservations(symbol string) int {
	return observationCount(m.coins[symbol])
}

// AsOf is the pinned window end of this build.
func (m *MetricsCache) AsOf() time.Time { return m.asOf }

func observationCount(stats *coinStats) int {
	if stats == nil {
		return 0
	}
	return stats.observations
}

// sectorDiversification scores cross-sector pairs at 1.0 and same-sector
// pairs at 0.3, matching the diversification weight in the composite.
func sectorDiversification(a, b universe.Sector) float64 {
	if a == b {
		return 0.3
	}
	return 1.0
}

// ratioMatch is min/max of two non-negative magnitudes, 1.0 when both are
// zero and 0 when exactly one is.
func ratioMatch(a, b float64) float64 {
	if a < 0 || b < 0 {
		return 0
	}
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi == 0 {
		return 1.0
	}
	return lo / hi
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	if n < 2 {
		return 0
	}
	meanX, meanY := mean(xs), mean(ys)
	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func stddev(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	m := mean(vs)
	var ss float64
	for _, v := range vs {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vs)-1))
}

package pairs

import (
	"github.com/sawpanic/pairscreen/internal/universe"
)

// Tier classifies a screened candidate.
type Tier string

const (
	TierPremium  Tier = "PREMIUM"
	TierStandard Tier = "STANDARD"
	TierBackup   Tier = "BACKUP"
	TierRejected Tier = "REJECTED"
)

// Metrics holds the per-pair screening metrics, each in [0,1] except where
// noted. Correlation is symmetric in the underlying symbol pair.
type Metrics struct {
	Correlation           float64 `json:"correlation"`
	Liquidity             float64 `json:"liquidity"`
	DataQuality           float64 `json:"data_quality"`
	VolatilityMatch       float64 `json:"volatility_match"`
	MarketCapBalance      float64 `json:"market_cap_balance"`
	SectorDiversification float64 `json:"sector_diversification"`
	VolumeScore           float64 `json:"volume_score"`
	NewsAvailability      float64 `json:"news_availability"`
	ExchangeListings      float64 `json:"exchange_listings"`
}

// Composites are the derived scores used for ranking and tiering.
type Composites struct {
	OverallQuality   float64 `json:"overall_quality"`
	TradingViability float64 `json:"trading_viability"`
	RiskAdjusted     float64 `json:"risk_adjusted"`
}

// Candidate is one oriented long/short pair with its metrics. Candidates are
// fresh values per screening run; they are never aliased across runs.
type Candidate struct {
	LongSymbol  string          `json:"long_symbol"`
	ShortSymbol string          `json:"short_symbol"`
	LongSector  universe.Sector `json:"long_sector"`
	ShortSector universe.Sector `json:"short_sector"`

	Metrics    Metrics    `json:"metrics"`
	Composites Composites `json:"composites"`
	Tier       Tier       `json:"tier"`

	// CombinedVolumeUSD is the raw 24h dollar volume of both legs, used by
	// the quality filter before normalization.
	CombinedVolumeUSD float64 `json:"combined_volume_usd"`
}

// Composite weight constants. overall_quality is a fixed linear combination;
// tests hold it to 1e-9.
const (
	qualityWeight         = 0.30
	correlationWeight     = 0.25
	liquidityWeight       = 0.20
	diversificationWeight = 0.15
	viabilityWeight       = 0.10
)

// correlationScore maps raw correlation onto the ranking tent: 1.0 at the
// optimal correlation, decaying linearly to 0 at the band edges.
func correlationScore(correlation, minCorr, optimal, maxCorr float64) float64 {
	if correlation < minCorr || correlation > maxCorr {
		return 0
	}
	if correlation <= optimal {
		return (correlation - minCorr) / (optimal - minCorr)
	}
	return (maxCorr - correlation) / (maxCorr - optimal)
}

func (c *Candidate) computeComposites(criteria Criteria) {
	corrScore := correlationScore(c.Metrics.Correlation,
		criteria.MinCorrelation, criteria.OptimalCorrelation, criteria.MaxCorrelation)

	c.Composites.OverallQuality = c.Metrics.DataQuality*qualityWeight +
		corrScore*correlationWeight +
		c.Metrics.Liquidity*liquidityWeight +
		c.Metrics.SectorDiversification*diversificationWeight +
		c.Metrics.VolatilityMatch*viabilityWeight

	c.Composites.TradingViability = c.Metrics.Liquidity*0.4 +
		c.Metrics.Correlation*0.3 +
		c.Metrics.MarketCapBalance*0.2 +
		c.Metrics.VolatilityMatch*0.1

	c.Composites.RiskAdjusted = c.Composites.OverallQuality * c.Metrics.VolatilityMatch
}

// passesMinima reports whether the candidate satisfies the hard floors that
// premium and standard tiers require.
func (c *Candidate) passesMinima(criteria Criteria) bool {
	return c.Metrics.Correlation >= criteria.MinCorrelation &&
		c.Metrics.Correlation <= criteria.MaxCorrelation &&
		c.Metrics.Liquidity >= criteria.MinLiquidity &&
		c.Metrics.DataQuality >= criteria.MinDataQuality
}

// Key renders the oriented pair as "LONG/SHORT".
func (c *Candidate) Key() string {
	return c.LongSymbol + "/" + c.ShortSymbol
}

// less orders candidates by overall quality descending, breaking ties
// lexicographically by (long, short).
func less(a, b *Candidate) bool {
	if a.Composites.OverallQuality != b.Composites.OverallQuality {
		return a.Composites.OverallQuality > b.Composites.OverallQuality
	}
	if a.LongSymbol != b.LongSymbol {
		return a.LongSymbol < b.LongSymbol
	}
	return a.ShortSymbol < b.ShortSymbol
}

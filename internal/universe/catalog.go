package universe

import (
	"errors"
	"fmt"
	"sort"
)

// Sector is one of the 12 fixed categorical tags assigned to each coin.
type Sector string

const (
	SectorLayer1           Sector = "Layer1"
	SectorSmartContract    Sector = "Smart_Contract"
	SectorDeFi             Sector = "DeFi"
	SectorOracle           Sector = "Oracle"
	SectorGaming           Sector = "Gaming"
	SectorAIML             Sector = "AI_ML"
	SectorPrivacy          Sector = "Privacy"
	SectorInteroperability Sector = "Interoperability"
	SectorStorage          Sector = "Storage"
	SectorInfrastructure   Sector = "Infrastructure"
	SectorExchangeToken    Sector = "Exchange_Token"
	SectorMemeSocial       Sector = "Meme_Social"
)

// AllSectors lists every sector tag in declaration order.
func AllSectors() []Sector {
	return []Sector{
		SectorLayer1, SectorSmartContract, SectorDeFi, SectorOracle,
		SectorGaming, SectorAIML, SectorPrivacy, SectorInteroperability,
		SectorStorage, SectorInfrastructure, SectorExchangeToken, SectorMemeSocial,
	}
}

// ErrUnknownSymbol is returned when a queried symbol is absent from the catalog.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Coin is the immutable per-symbol metadata row. Tier is assigned by the
// catalog from market-cap rank, never set by hand.
type Coin struct {
	Symbol         string  `yaml:"symbol" json:"symbol"`
	Name           string  `yaml:"name" json:"name"`
	Sector         Sector  `yaml:"sector" json:"sector"`
	MarketCapUSD   float64 `yaml:"market_cap_usd" json:"market_cap_usd"`
	Volume24hUSD   float64 `yaml:"volume_24h_usd" json:"volume_24h_usd"`
	LiquidityScore float64 `yaml:"liquidity_score" json:"liquidity_score"`
	Tier           int     `json:"tier"`
	Stablecoin     bool    `yaml:"stablecoin,omitempty" json:"stablecoin,omitempty"`
	Wrapped        bool    `yaml:"wrapped,omitempty" json:"wrapped,omitempty"`
}

// SelectionCriteria filters the universe for a trading run.
type SelectionCriteria struct {
	MinMarketCapUSD    float64 `yaml:"min_market_cap_usd"`
	MinVolume24hUSD    float64 `yaml:"min_volume_24h_usd"`
	MinLiquidityScore  float64 `yaml:"min_liquidity_score"`
	ExcludeStablecoins bool    `yaml:"exclude_stablecoins"`
	ExcludeWrapped     bool    `yaml:"exclude_wrapped"`
	MaxPerSector       int     `yaml:"max_per_sector"`
	TargetSize         int     `yaml:"target_size"`
}

// Catalog is the closed coin universe for a screening run. It is immutable
// after construction; all accessors return copies.
type Catalog struct {
	coins    []Coin
	bySymbol map[string]Coin
}

// NewCatalog builds the catalog from the static universe table.
func NewCatalog() *Catalog {
	return NewCatalogFromCoins(staticUniverse())
}

// NewCatalogFromCoins builds a catalog from an explicit coin set. Tiers are
// (re)assigned from market-cap rank: top 20 = tier 1, next 30 = tier 2,
// rest = tier 3. Ties on market cap break by symbol, ascending.
func NewCatalogFromCoins(coins []Coin) *Catalog {
	sorted := make([]Coin, len(coins))
	copy(sorted, coins)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].MarketCapUSD != sorted[j].MarketCapUSD {
			return sorted[i].MarketCapUSD > sorted[j].MarketCapUSD
		}
		return sorted[i].Symbol < sorted[j].Symbol
	})

	bySymbol := make(map[string]Coin, len(sorted))
	for i := range sorted {
		switch {
		case i < 20:
			sorted[i].Tier = 1
		case i < 50:
			sorted[i].Tier = 2
		default:
			sorted[i].Tier = 3
		}
		bySymbol[sorted[i].Symbol] = sorted[i]
	}

	return &Catalog{coins: sorted, bySymbol: bySymbol}
}

// Size returns the number of coins in the catalog.
func (c *Catalog) Size() int { return len(c.coins) }

// Coins returns all coins in market-cap order.
func (c *Catalog) Coins() []Coin {
	out := make([]Coin, len(c.coins))
	copy(out, c.coins)
	return out
}

// Coin returns the metadata row for a symbol.
func (c *Catalog) Coin(symbol string) (Coin, error) {
	coin, ok := c.bySymbol[symbol]
	if !ok {
		return Coin{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return coin, nil
}

// Tier1Coins returns the 20 tier-1 symbols ordered by market cap descending.
func (c *Catalog) Tier1Coins() []string { return c.TierCoins(1) }

// TierCoins returns the symbols of a tier in market-cap order.
func (c *Catalog) TierCoins(tier int) []string {
	var out []string
	for _, coin := range c.coins {
		if coin.Tier == tier {
			out = append(out, coin.Symbol)
		}
	}
	return out
}

// CoinsBySector groups all symbols by sector tag.
func (c *Catalog) CoinsBySector() map[Sector][]string {
	out := make(map[Sector][]string)
	for _, coin := range c.coins {
		out[coin.Sector] = append(out[coin.Sector], coin.Symbol)
	}
	return out
}

// SectorOf resolves the sector of a symbol.
func (c *Catalog) SectorOf(symbol string) (Sector, error) {
	coin, ok := c.bySymbol[symbol]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return coin.Sector, nil
}

// Filter applies selection criteria in market-cap order, honoring per-sector
// caps and the target universe size.
func (c *Catalog) Filter(criteria SelectionCriteria) []Coin {
	sectorCounts := make(map[Sector]int)
	var out []Coin

	for _, coin := range c.coins {
		if coin.MarketCapUSD < criteria.MinMarketCapUSD {
			continue
		}
		if coin.Volume24hUSD < criteria.MinVolume24hUSD {
			continue
		}
		if coin.LiquidityScore < criteria.MinLiquidityScore {
			continue
		}
		if criteria.ExcludeStablecoins && coin.Stablecoin {
			continue
		}
		if criteria.ExcludeWrapped && coin.Wrapped {
			continue
		}
		if criteria.MaxPerSector > 0 && sectorCounts[coin.Sector] >= criteria.MaxPerSector {
			continue
		}

		out = append(out, coin)
		sectorCounts[coin.Sector]++

		if criteria.TargetSize > 0 && len(out) >= criteria.TargetSize {
			break
		}
	}

	return out
}

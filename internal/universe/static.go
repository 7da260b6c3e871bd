package universe

// staticUniverse is the curated coin table for research runs. The top 20 by
// market cap form the tier-1 screening pool; ranks 21-50 are tier 2 and the
// remainder tier 3. Caps and volumes are snapshot values, refreshed when the
// universe is recurated.
func staticUniverse() []Coin {
	return []Coin{
		// Tier 1 pool: large caps with 2+ years of daily history.
		{Symbol: "BTC", Name: "Bitcoin", Sector: SectorLayer1, MarketCapUSD: 500e9, Volume24hUSD: 15e9, LiquidityScore: 1.00},
		{Symbol: "ETH", Name: "Ethereum", Sector: SectorSmartContract, MarketCapUSD: 200e9, Volume24hUSD: 8e9, LiquidityScore: 0.95},
		{Symbol: "SOL", Name: "Solana", Sector: SectorLayer1, MarketCapUSD: 20e9, Volume24hUSD: 800e6, LiquidityScore: 0.86},
		{Symbol: "ADA", Name: "Cardano", Sector: SectorSmartContract, MarketCapUSD: 15e9, Volume24hUSD: 600e6, LiquidityScore: 0.92},
		{Symbol: "AVAX", Name: "Avalanche", Sector: SectorLayer1, MarketCapUSD: 12e9, Volume24hUSD: 500e6, LiquidityScore: 0.88},
		{Symbol: "DOT", Name: "Polkadot", Sector: SectorInteroperability, MarketCapUSD: 10e9, Volume24hUSD: 400e6, LiquidityScore: 0.90},
		{Symbol: "MATIC", Name: "Polygon", Sector: SectorInfrastructure, MarketCapUSD: 8.5e9, Volume24hUSD: 300e6, LiquidityScore: 0.68},
		{Symbol: "LINK", Name: "Chainlink", Sector: SectorOracle, MarketCapUSD: 7.5e9, Volume24hUSD: 250e6, LiquidityScore: 0.62},
		{Symbol: "ATOM", Name: "Cosmos", Sector: SectorInteroperability, MarketCapUSD: 6.5e9, Volume24hUSD: 180e6, LiquidityScore: 0.84},
		{Symbol: "UNI", Name: "Uniswap", Sector: SectorDeFi, MarketCapUSD: 6e9, Volume24hUSD: 160e6, LiquidityScore: 0.80},
		{Symbol: "VET", Name: "VeChain", Sector: SectorInfrastructure, MarketCapUSD: 4e9, Volume24hUSD: 190e6, LiquidityScore: 0.60},
		{Symbol: "FIL", Name: "Filecoin", Sector: SectorStorage, MarketCapUSD: 3.5e9, Volume24hUSD: 180e6, LiquidityScore: 0.58},
		{Symbol: "NEAR", Name: "Near Protocol", Sector: SectorLayer1, MarketCapUSD: 2.8e9, Volume24hUSD: 165e6, LiquidityScore: 0.82},
		{Symbol: "AAVE", Name: "Aave", Sector: SectorDeFi, MarketCapUSD: 2.4e9, Volume24hUSD: 155e6, LiquidityScore: 0.78},
		{Symbol: "CRV", Name: "Curve DAO", Sector: SectorDeFi, MarketCapUSD: 1.8e9, Volume24hUSD: 140e6, LiquidityScore: 0.72},
		{Symbol: "MKR", Name: "Maker", Sector: SectorDeFi, MarketCapUSD: 1.7e9, Volume24hUSD: 138e6, LiquidityScore: 0.74},
		{Symbol: "COMP", Name: "Compound", Sector: SectorDeFi, MarketCapUSD: 1.6e9, Volume24hUSD: 136e6, LiquidityScore: 0.76},
		{Symbol: "SNX", Name: "Synthetix", Sector: SectorDeFi, MarketCapUSD: 1.3e9, Volume24hUSD: 130e6, LiquidityScore: 0.70},
		{Symbol: "OMG", Name: "OMG Network", Sector: SectorInfrastructure, MarketCapUSD: 850e6, Volume24hUSD: 115e6, LiquidityScore: 0.64},
		{Symbol: "LRC", Name: "Loopring", Sector: SectorInfrastructure, MarketCapUSD: 550e6, Volume24hUSD: 113e6, LiquidityScore: 0.66},

		// Tier 2 pool: ranks 21-50, 1-year history.
		{Symbol: "DOGE", Name: "Dogecoin", Sector: SectorMemeSocial, MarketCapUSD: 540e6, Volume24hUSD: 90e6, LiquidityScore: 0.57},
		{Symbol: "HBAR", Name: "Hedera", Sector: SectorLayer1, MarketCapUSD: 520e6, Volume24hUSD: 75e6, LiquidityScore: 0.57},
		{Symbol: "APT", Name: "Aptos", Sector: SectorLayer1, MarketCapUSD: 500e6, Volume24hUSD: 70e6, LiquidityScore: 0.56},
		{Symbol: "QNT", Name: "Quant", Sector: SectorInteroperability, MarketCapUSD: 480e6, Volume24hUSD: 60e6, LiquidityScore: 0.54},
		{Symbol: "GRT", Name: "The Graph", Sector: SectorInfrastructure, MarketCapUSD: 460e6, Volume24hUSD: 50e6, LiquidityScore: 0.52},
		{Symbol: "CRO", Name: "Cronos", Sector: SectorExchangeToken, MarketCapUSD: 450e6, Volume24hUSD: 48e6, LiquidityScore: 0.52},
		{Symbol: "MANA", Name: "Decentraland", Sector: SectorGaming, MarketCapUSD: 440e6, Volume24hUSD: 45e6, LiquidityScore: 0.51},
		{Symbol: "SAND", Name: "The Sandbox", Sector: SectorGaming, MarketCapUSD: 420e6, Volume24hUSD: 42e6, LiquidityScore: 0.50},
		{Symbol: "SUSHI", Name: "SushiSwap", Sector: SectorDeFi, MarketCapUSD: 400e6, Volume24hUSD: 34e6, LiquidityScore: 0.46},
		{Symbol: "YFI", Name: "yearn.finance", Sector: SectorDeFi, MarketCapUSD: 390e6, Volume24hUSD: 32e6, LiquidityScore: 0.45},
		{Symbol: "1INCH", Name: "1inch", Sector: SectorDeFi, MarketCapUSD: 380e6, Volume24hUSD: 28e6, LiquidityScore: 0.43},
		{Symbol: "BAL", Name: "Balancer", Sector: SectorDeFi, MarketCapUSD: 370e6, Volume24hUSD: 26e6, LiquidityScore: 0.42},
		{Symbol: "REN", Name: "Ren", Sector: SectorInteroperability, MarketCapUSD: 360e6, Volume24hUSD: 24e6, LiquidityScore: 0.41},
		{Symbol: "ZRX", Name: "0x", Sector: SectorDeFi, MarketCapUSD: 350e6, Volume24hUSD: 22e6, LiquidityScore: 0.40},
		{Symbol: "KNC", Name: "Kyber Network", Sector: SectorDeFi, MarketCapUSD: 340e6, Volume24hUSD: 20e6, LiquidityScore: 0.39},
		{Symbol: "BAT", Name: "Basic Attention Token", Sector: SectorInfrastructure, MarketCapUSD: 330e6, Volume24hUSD: 19e6, LiquidityScore: 0.38},
		{Symbol: "ENJ", Name: "Enjin Coin", Sector: SectorGaming, MarketCapUSD: 320e6, Volume24hUSD: 18e6, LiquidityScore: 0.37},
		{Symbol: "STORJ", Name: "Storj", Sector: SectorStorage, MarketCapUSD: 310e6, Volume24hUSD: 17e6, LiquidityScore: 0.36},
		{Symbol: "OCEAN", Name: "Ocean Protocol", Sector: SectorAIML, MarketCapUSD: 300e6, Volume24hUSD: 16e6, LiquidityScore: 0.35},
		{Symbol: "FET", Name: "Fetch.ai", Sector: SectorAIML, MarketCapUSD: 290e6, Volume24hUSD: 15e6, LiquidityScore: 0.34},
		{Symbol: "AGIX", Name: "SingularityNET", Sector: SectorAIML, MarketCapUSD: 280e6, Volume24hUSD: 14e6, LiquidityScore: 0.33},
		{Symbol: "BAND", Name: "Band Protocol", Sector: SectorOracle, MarketCapUSD: 270e6, Volume24hUSD: 12e6, LiquidityScore: 0.31},
		{Symbol: "ALPHA", Name: "Alpha Venture DAO", Sector: SectorDeFi, MarketCapUSD: 260e6, Volume24hUSD: 11e6, LiquidityScore: 0.30},
		{Symbol: "KCS", Name: "KuCoin Token", Sector: SectorExchangeToken, MarketCapUSD: 255e6, Volume24hUSD: 10.5e6, LiquidityScore: 0.30},
		{Symbol: "RUNE", Name: "THORChain", Sector: SectorDeFi, MarketCapUSD: 250e6, Volume24hUSD: 10e6, LiquidityScore: 0.29},
		{Symbol: "XTZ", Name: "Tezos", Sector: SectorLayer1, MarketCapUSD: 240e6, Volume24hUSD: 9.5e6, LiquidityScore: 0.28},
		{Symbol: "EGLD", Name: "MultiversX", Sector: SectorLayer1, MarketCapUSD: 230e6, Volume24hUSD: 9e6, LiquidityScore: 0.27},
		{Symbol: "FLOW", Name: "Flow", Sector: SectorGaming, MarketCapUSD: 220e6, Volume24hUSD: 8.5e6, LiquidityScore: 0.26},
		{Symbol: "CHZ", Name: "Chiliz", Sector: SectorGaming, MarketCapUSD: 210e6, Volume24hUSD: 8e6, LiquidityScore: 0.25},
		{Symbol: "THETA", Name: "Theta Network", Sector: SectorInfrastructure, MarketCapUSD: 200e6, Volume24hUSD: 7.5e6, LiquidityScore: 0.24},

		// Tier 3 pool: ranks 51+, 6-month history.
		{Symbol: "KLAY", Name: "Klaytn", Sector: SectorLayer1, MarketCapUSD: 190e6, Volume24hUSD: 7e6, LiquidityScore: 0.23},
		{Symbol: "MINA", Name: "Mina", Sector: SectorLayer1, MarketCapUSD: 180e6, Volume24hUSD: 6.5e6, LiquidityScore: 0.22},
		{Symbol: "CKB", Name: "Nervos Network", Sector: SectorInteroperability, MarketCapUSD: 170e6, Volume24hUSD: 6e6, LiquidityScore: 0.21},
		{Symbol: "ROSE", Name: "Oasis Network", Sector: SectorPrivacy, MarketCapUSD: 160e6, Volume24hUSD: 5.5e6, LiquidityScore: 0.20},
		{Symbol: "AR", Name: "Arweave", Sector: SectorStorage, MarketCapUSD: 150e6, Volume24hUSD: 5e6, LiquidityScore: 0.19},
		{Symbol: "ZEC", Name: "Zcash", Sector: SectorPrivacy, MarketCapUSD: 140e6, Volume24hUSD: 4.5e6, LiquidityScore: 0.18},
		{Symbol: "XMR", Name: "Monero", Sector: SectorPrivacy, MarketCapUSD: 130e6, Volume24hUSD: 4e6, LiquidityScore: 0.17},
		{Symbol: "DASH", Name: "Dash", Sector: SectorPrivacy, MarketCapUSD: 120e6, Volume24hUSD: 3.5e6, LiquidityScore: 0.16},
		{Symbol: "WAVES", Name: "Waves", Sector: SectorLayer1, MarketCapUSD: 110e6, Volume24hUSD: 3e6, LiquidityScore: 0.15},
		{Symbol: "QTUM", Name: "Qtum", Sector: SectorLayer1, MarketCapUSD: 100e6, Volume24hUSD: 2.5e6, LiquidityScore: 0.14},
		{Symbol: "ICX", Name: "ICON", Sector: SectorInteroperability, MarketCapUSD: 95e6, Volume24hUSD: 2.4e6, LiquidityScore: 0.13},
		{Symbol: "ZIL", Name: "Zilliqa", Sector: SectorLayer1, MarketCapUSD: 90e6, Volume24hUSD: 2.3e6, LiquidityScore: 0.12},
		{Symbol: "ONT", Name: "Ontology", Sector: SectorInteroperability, MarketCapUSD: 85e6, Volume24hUSD: 2.2e6, LiquidityScore: 0.11},
		{Symbol: "LSK", Name: "Lisk", Sector: SectorLayer1, MarketCapUSD: 80e6, Volume24hUSD: 2.1e6, LiquidityScore: 0.10},
		{Symbol: "SC", Name: "Siacoin", Sector: SectorStorage, MarketCapUSD: 75e6, Volume24hUSD: 2e6, LiquidityScore: 0.09},
		{Symbol: "ANKR", Name: "Ankr", Sector: SectorInfrastructure, MarketCapUSD: 70e6, Volume24hUSD: 1.9e6, LiquidityScore: 0.08},
		{Symbol: "COTI", Name: "COTI", Sector: SectorInfrastructure, MarketCapUSD: 65e6, Volume24hUSD: 1.8e6, LiquidityScore: 0.07},
		{Symbol: "BLZ", Name: "Bluzelle", Sector: SectorStorage, MarketCapUSD: 60e6, Volume24hUSD: 1.7e6, LiquidityScore: 0.06},
		{Symbol: "RVN", Name: "Ravencoin", Sector: SectorLayer1, MarketCapUSD: 55e6, Volume24hUSD: 1.6e6, LiquidityScore: 0.05},
		{Symbol: "DGB", Name: "DigiByte", Sector: SectorLayer1, MarketCapUSD: 50e6, Volume24hUSD: 1.5e6, LiquidityScore: 0.04},
	}
}

package pairs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/pairscreen/internal/universe"
)

// Criteria are the screening thresholds. Zero-value fields are not valid;
// start from DefaultCriteria and override.
type Criteria struct {
	MinCorrelation     float64 `yaml:"min_correlation"`
	OptimalCorrelation float64 `yaml:"optimal_correlation"`
	MaxCorrelation     float64 `yaml:"max_correlation"`

	MinLiquidity         float64 `yaml:"min_liquidity"`
	MinCombinedVolumeUSD float64 `yaml:"min_combined_volume_usd"`
	MinDataQuality       float64 `yaml:"min_data_quality"`
	MaxPerSectorFraction float64 `yaml:"max_per_sector_fraction"`

	TargetCount int `yaml:"target_count"`
	MinCount    int `yaml:"min_count"`
	MaxCount    int `yaml:"max_count"`
}

// DefaultCriteria returns the production screening thresholds.
func DefaultCriteria() Criteria {
	return Criteria{
		MinCorrelation:       0.3,
		OptimalCorrelation:   0.6,
		MaxCorrelation:       0.8,
		MinLiquidity:         0.5,
		MinCombinedVolumeUSD: 200e6,
		MinDataQuality:       0.95,
		MaxPerSectorFraction: 0.25,
		TargetCount:          50,
		MinCount:             20,
		MaxCount:             80,
	}
}

func (c Criteria) validate() error {
	if !(c.MinCorrelation < c.OptimalCorrelation && c.OptimalCorrelation < c.MaxCorrelation) {
		return fmt.Errorf("correlation band must be ordered: min=%.2f optimal=%.2f max=%.2f",
			c.MinCorrelation, c.OptimalCorrelation, c.MaxCorrelation)
	}
	if c.TargetCount <= 0 || c.MinCount <= 0 || c.MaxCount < c.TargetCount {
		return fmt.Errorf("pair counts must satisfy 0 < min, 0 < target <= max: min=%d target=%d max=%d",
			c.MinCount, c.TargetCount, c.MaxCount)
	}
	if c.MaxPerSectorFraction <= 0 || c.MaxPerSectorFraction > 1 {
		return fmt.Errorf("max per-sector fraction %.2f outside (0,1]", c.MaxPerSectorFraction)
	}
	return nil
}

// maxPerSector is the admission cap per sector leg.
func (c Criteria) maxPerSector() int {
	return int(math.Floor(float64(c.TargetCount) * c.MaxPerSectorFraction))
}

// Admission lets an external exposure manager veto sector admissions during
// screening. Weight is the equal-weight share one pair would take.
type Admission interface {
	CanAdmit(sector universe.Sector, weight float64) bool
}

// Summary aggregates one screening run.
type Summary struct {
	TotalEvaluated     int     `json:"total_evaluated"`
	InsufficientData   int     `json:"insufficient_data"`
	ViableFound        int     `json:"viable_found"`
	AverageQuality     float64 `json:"average_quality"`
	AverageCorrelation float64 `json:"average_correlation"`
	PassRate           float64 `json:"pass_rate"`

	// MeetsTarget reports whether at least MinCount pairs survived.
	MeetsTarget bool `json:"meets_target"`

	// MeetsQualityBar reports whether the selection clears the production
	// quality requirement: average quality at or above 0.80 with at least
	// ten premium pairs.
	MeetsQualityBar bool `json:"meets_quality_bar"`
}

// Result is the outcome of one screening run. Slices are rank-ordered and
// owned by the result.
type Result struct {
	RunID      string    `json:"run_id"`
	ScreenedAt time.Time `json:"screened_at"`

	Selected []Candidate `json:"selected"`
	Premium  []Candidate `json:"premium"`
	Standard []Candidate `json:"standard"`
	Backup   []Candidate `json:"backup"`

	SectorDistribution map[universe.Sector]int `json:"sector_distribution"`
	Summary            Summary                 `json:"summary"`
}

// Pairs renders the selection as "LONG/SHORT" strings in rank order.
func (r *Result) Pairs() []string {
	out := make([]string, len(r.Selected))
	for i := range r.Selected {
		out[i] = r.Selected[i].Key()
	}
	return out
}

// Screener runs the full screening pipeline over the tier-1 universe.
type Screener struct {
	catalog   *universe.Catalog
	criteria  Criteria
	admission Admission // optional
}

// NewScreener builds a screener. Admission may be nil.
func NewScreener(catalog *universe.Catalog, criteria Criteria, admission Admission) (*Screener, error) {
	if catalog == nil {
		return nil, errors.New("screener requires a catalog")
	}
	if err := criteria.validate(); err != nil {
		return nil, fmt.Errorf("invalid screening criteria: %w", err)
	}
	return &Screener{catalog: catalog, criteria: criteria, admission: admission}, nil
}

// Screen generates all oriented tier-1 pairs, scores them from the cache and
// filters, ranks and tiers the survivors. Pairs with insufficient history are
// counted and skipped, never fatal.
func (s *Screener) Screen(ctx context.Context, cache *MetricsCache) (*Result, error) {
	if cache == nil {
		return nil, errors.New("screen requires a metrics cache")
	}

	result := &Result{
		RunID:              uuid.NewString(),
		ScreenedAt:         cache.AsOf(),
		SectorDistribution: make(map[universe.Sector]int),
	}

	candidates, insufficient, err := s.generate(ctx, cache)
	if err != nil {
		return nil, err
	}
	result.Summary.TotalEvaluated = len(candidates) + insufficient
	result.Summary.InsufficientData = insufficient

	filtered := s.filterQuality(candidates)
	filtered = s.filterCorrelation(filtered)
	admitted := s.admitBySector(filtered)

	// Rank survivors and truncate to target.
	sort.SliceStable(admitted, func(i, j int) bool { return less(&admitted[i], &admitted[j]) })
	if len(admitted) > s.criteria.TargetCount {
		admitted = admitted[:s.criteria.TargetCount]
	}
	result.Selected = admitted

	s.classify(result)
	s.summarize(result)

	log.Info().
		Str("run_id", result.RunID).
		Int("evaluated", result.Summary.TotalEvaluated).
		Int("selected", len(result.Selected)).
		Int("premium", len(result.Premium)).
		Bool("meets_target", result.Summary.MeetsTarget).
		Msg("pair screening complete")
	return result, nil
}

// generate enumerates every oriented pair of tier-1 coins and scores it.
func (s *Screener) generate(ctx context.Context, cache *MetricsCache) ([]Candidate, int, error) {
	symbols := s.catalog.Tier1Coins()
	tier1 := make([]universe.Coin, 0, len(symbols))
	for _, symbol := range symbols {
		coin, err := s.catalog.Coin(symbol)
		if err != nil {
			return nil, 0, err
		}
		tier1 = append(tier1, coin)
	}

	candidates := make([]Candidate, 0, len(tier1)*(len(tier1)-1))
	insufficient := 0

	for i := range tier1 {
		if err := ctx.Err(); err != nil {
			return nil, 0, fmt.Errorf("screening cancelled: %w", err)
		}
		for j := range tier1 {
			if i == j {
				continue
			}
			long, short := tier1[i], tier1[j]
			metrics, err := cache.PairMetrics(long.Symbol, short.Symbol)
			if err != nil {
				if errors.Is(err, ErrInsufficientData) {
					insufficient++
					continue
				}
				return nil, 0, err
			}
			candidate := Candidate{
				LongSymbol:        long.Symbol,
				ShortSymbol:       short.Symbol,
				LongSector:        long.Sector,
				ShortSector:       short.Sector,
				Metrics:           metrics,
				CombinedVolumeUSD: long.Volume24hUSD + short.Volume24hUSD,
			}
			candidate.computeComposites(s.criteria)
			candidates = append(candidates, candidate)
		}
	}
	return candidates, insufficient, nil
}

func (s *Screener) filterQuality(in []Candidate) []Candidate {
	out := in[:0]
	for _, c := range in {
		if c.Metrics.DataQuality < s.criteria.MinDataQuality {
			continue
		}
		if c.Metrics.Liquidity < s.criteria.MinLiquidity {
			continue
		}
		if c.CombinedVolumeUSD < s.criteria.MinCombinedVolumeUSD {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *Screener) filterCorrelation(in []Candidate) []Candidate {
	out := in[:0]
	for _, c := range in {
		if c.Metrics.Correlation < s.criteria.MinCorrelation || c.Metrics.Correlation > s.criteria.MaxCorrelation {
			continue
		}
		out = append(out, c)
	}
	return out
}

// admitBySector walks candidates best-first and admits each while neither
// leg's sector is at its cap, stopping once MaxCount pairs are in. A pair
// whose legs share a sector consumes two slots of that sector's cap.
func (s *Screener) admitBySector(in []Candidate) []Candidate {
	sort.SliceStable(in, func(i, j int) bool { return less(&in[i], &in[j]) })

	sectorCap := s.criteria.maxPerSector()
	weight := 1.0 / float64(s.criteria.TargetCount)
	counts := make(map[universe.Sector]int)
	admitted := make([]Candidate, 0, s.criteria.MaxCount)

	for _, c := range in {
		if len(admitted) >= s.criteria.MaxCount {
			break
		}
		if counts[c.LongSector] >= sectorCap || counts[c.ShortSector] >= sectorCap {
			continue
		}
		if s.admission != nil {
			if !s.admission.CanAdmit(c.LongSector, weight) || !s.admission.CanAdmit(c.ShortSector, weight) {
				continue
			}
		}
		counts[c.LongSector]++
		counts[c.ShortSector]++
		admitted = append(admitted, c)
	}
	return admitted
}

// classify assigns tiers to the selected pairs and fills the tier slices and
// sector distribution.
func (s *Screener) classify(result *Result) {
	for i := range result.Selected {
		c := &result.Selected[i]
		quality := c.Composites.OverallQuality
		switch {
		case quality >= 0.85 && c.passesMinima(s.criteria):
			c.Tier = TierPremium
			result.Premium = append(result.Premium, *c)
		case quality >= 0.75 && c.passesMinima(s.criteria):
			c.Tier = TierStandard
			result.Standard = append(result.Standard, *c)
		case quality >= 0.65:
			c.Tier = TierBackup
			result.Backup = append(result.Backup, *c)
		default:
			c.Tier = TierRejected
		}
		result.SectorDistribution[c.LongSector]++
		result.SectorDistribution[c.ShortSector]++
	}
}

func (s *Screener) summarize(result *Result) {
	sum := &result.Summary
	sum.ViableFound = len(result.Selected)
	if sum.TotalEvaluated > 0 {
		sum.PassRate = float64(sum.ViableFound) / float64(sum.TotalEvaluated)
	}
	if sum.ViableFound > 0 {
		var quality, corr float64
		for i := range result.Selected {
			quality += result.Selected[i].Composites.OverallQuality
			corr += result.Selected[i].Metrics.Correlation
		}
		sum.AverageQuality = quality / float64(sum.ViableFound)
		sum.AverageCorrelation = corr / float64(sum.ViableFound)
	}
	sum.MeetsTarget = sum.ViableFound >= s.criteria.MinCount
	sum.MeetsQualityBar = sum.AverageQuality >= 0.80 && len(result.Premium) >= 10
}

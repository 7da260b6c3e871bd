package confidence

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/pairscreen/internal/ledger"
)

// Level grades a verdict by its correlation.
type Level int

const (
	LevelInsufficient Level = iota
	LevelMarginal
	LevelGood
	LevelExcellent
	LevelExceptional
)

func (l Level) String() string {
	switch l {
	case LevelExceptional:
		return "EXCEPTIONAL"
	case LevelExcellent:
		return "EXCELLENT"
	case LevelGood:
		return "GOOD"
	case LevelMarginal:
		return "MARGINAL"
	default:
		return "INSUFFICIENT"
	}
}

func levelFor(r float64) Level {
	switch {
	case r >= 0.93:
		return LevelExceptional
	case r >= 0.90:
		return LevelExcellent
	case r >= 0.87:
		return LevelGood
	case r >= 0.85:
		return LevelMarginal
	default:
		return LevelInsufficient
	}
}

// Config are the validation thresholds and budgets.
type Config struct {
	MinSampleSize         int     `yaml:"min_sample_size"`
	OutOfSampleDays       int     `yaml:"out_of_sample_days"`
	SignificanceLevel     float64 `yaml:"significance_level"`
	BootstrapIters        int     `yaml:"bootstrap_iters"`
	BootstrapSeed         int64   `yaml:"bootstrap_seed"`
	BootstrapTimeoutMS    int64   `yaml:"bootstrap_timeout_ms"`
	WalkForwardWindowDays int     `yaml:"walk_forward_window_days"`
	WalkForwardStepDays   int     `yaml:"walk_forward_step_days"`
	WalkForwardMinR       float64 `yaml:"walk_forward_min_r"`
	Threshold             float64 `yaml:"threshold"`
}

// DefaultConfig returns the production validation thresholds.
func DefaultConfig() Config {
	return Config{
		MinSampleSize:         200,
		OutOfSampleDays:       180,
		SignificanceLevel:     0.05,
		BootstrapIters:        1000,
		BootstrapSeed:         42,
		BootstrapTimeoutMS:    5000,
		WalkForwardWindowDays: 90,
		WalkForwardStepDays:   30,
		WalkForwardMinR:       0.80,
		Threshold:             0.85,
	}
}

// Window selects the assessment input: a trailing day count (0 means all
// history) and an optional holdout start for out-of-sample scoring.
type Window struct {
	Days         int
	HoldoutStart time.Time
}

// Verdict is a full compliance assessment.
type Verdict struct {
	SampleSize int `json:"sample_size"`

	Correlation            float64 `json:"correlation"`
	SpearmanCorrelation    float64 `json:"spearman_correlation"`
	Accuracy               float64 `json:"accuracy"`
	HoldoutAccuracy        float64 `json:"holdout_accuracy,omitempty"`
	Calibration            float64 `json:"calibration"`
	RankingStability       float64 `json:"ranking_stability"`
	Significance           float64 `json:"significance"`
	WalkForwardConsistency float64 `json:"walk_forward_consistency"`
	WalkForwardPass        bool    `json:"walk_forward_pass"`
	RegimeStability        float64 `json:"regime_stability"`
	BootstrapLo            float64 `json:"bootstrap_lo"`
	BootstrapHi            float64 `json:"bootstrap_hi"`

	MeetsThreshold         bool `json:"meets_threshold"`
	PassesStatisticalTests bool `json:"passes_statistical_tests"`
	SufficientSample       bool `json:"sufficient_sample"`
	ConsistencyOK          bool `json:"consistency_ok"`

	Level           Level   `json:"level"`
	ProductionReady bool    `json:"production_ready"`
	ReadinessScore  float64 `json:"readiness_score"`

	// RegimeBreakdown lists each regime partition as "<label> r=x.xxxx" in
	// chronological order.
	RegimeBreakdown []string `json:"regime_breakdown,omitempty"`

	Issues     []string  `json:"issues,omitempty"`
	AssessedAt time.Time `json:"assessed_at"`
}

// regimePartitions is the minimum number of contiguous market-regime
// segments the stability check needs.
const regimePartitions = 3

// regimeMinOutcomes is the outcome floor per regime segment.
const regimeMinOutcomes = 60

// regimeMinStability is the required mean regime correlation.
const regimeMinStability = 0.60

// walkForwardPassFraction is the share of sub-windows that must clear the
// per-window correlation floor.
const walkForwardPassFraction = 0.75

// walkForwardConsistencyFloor gates ConsistencyOK on mean sub-window r.
const walkForwardConsistencyFloor = 0.70

// minAccuracy flags verdicts whose sign accuracy falls below it.
const minAccuracy = 0.55

// Validator computes compliance verdicts over the prediction ledger.
type Validator struct {
	ledger *ledger.Ledger
	cfg    Config
}

func NewValidator(l *ledger.Ledger, cfg Config) *Validator {
	if cfg.MinSampleSize <= 0 {
		cfg = DefaultConfig()
	}
	return &Validator{ledger: l, cfg: cfg}
}

type observation struct {
	confidence float64
	predicted  float64
	actual     float64
	at         time.Time
}

// Assess computes a verdict over the window. The ledger snapshot is pinned
// for the duration, deferring pruning. Cancellation is observed between
// bootstrap iterations and walk-forward sub-windows.
func (v *Validator) Assess(ctx context.Context, window Window) (*Verdict, error) {
	snapshot, release := v.ledger.Snapshot(window.Days)
	defer release()

	obs := make([]observation, 0, len(snapshot))
	for _, p := range snapshot {
		if p.Outcome == nil {
			continue
		}
		obs = append(obs, observation{
			confidence: p.Confidence,
			predicted:  p.PredictedReturn,
			actual:     p.Outcome.ActualReturn,
			at:         p.PredictionTime,
		})
	}

	verdict := &Verdict{SampleSize: len(obs), AssessedAt: time.Now().UTC()}
	if len(obs) < v.cfg.MinSampleSize {
		verdict.Level = LevelInsufficient
		verdict.Issues = []string{fmt.Sprintf("sample size too small: n=%d; need %d", len(obs), v.cfg.MinSampleSize)}
		return verdict, nil
	}
	verdict.SufficientSample = true

	confidence := make([]float64, len(obs))
	predicted := make([]float64, len(obs))
	actual := make([]float64, len(obs))
	for i, o := range obs {
		confidence[i] = o.confidence
		predicted[i] = o.predicted
		actual[i] = o.actual
	}

	// Headline correlation comes from the holdout when one is named.
	rSample := len(obs)
	if !window.HoldoutStart.IsZero() {
		var hc, hp, ha []float64
		for _, o := range obs {
			if o.at.Before(window.HoldoutStart) {
				continue
			}
			hc = append(hc, o.confidence)
			hp = append(hp, o.predicted)
			ha = append(ha, o.actual)
		}
		if len(hc) < 2 {
			// No usable holdout; fall back to the full window.
			verdict.Issues = append(verdict.Issues, "holdout window holds too few outcomes")
			verdict.Correlation = pearson(confidence, actual)
		} else {
			verdict.Correlation = pearson(hc, ha)
			verdict.HoldoutAccuracy = signMatchAccuracy(hp, ha)
			rSample = len(hc)
			if len(hc) < v.cfg.MinSampleSize/2 {
				// Trailing tail, not a true walk-forward holdout; flag it
				// when the tail is thin.
				verdict.Issues = append(verdict.Issues, "out_of_sample_mode=trailing")
			}
		}
	} else {
		verdict.Correlation = pearson(confidence, actual)
	}

	verdict.SpearmanCorrelation = spearman(confidence, actual)
	verdict.Accuracy = signMatchAccuracy(predicted, actual)
	verdict.Calibration = calibrationScore(confidence, predicted, actual)
	verdict.Significance = 1 - tTestPValue(verdict.Correlation, rSample)
	verdict.RankingStability = v.rankingStability()

	if err := v.walkForward(ctx, obs, verdict); err != nil {
		return nil, err
	}
	v.regimeStability(obs, verdict)

	timeout := time.Duration(v.cfg.BootstrapTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	bctx, cancel := context.WithTimeout(ctx, timeout)
	lo, hi, err := bootstrapCI(bctx, confidence, actual, v.cfg.BootstrapIters, v.cfg.BootstrapSeed)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("assessment cancelled: %w", ctx.Err())
		}
		verdict.BootstrapLo, verdict.BootstrapHi = 0, 0
		verdict.Issues = append(verdict.Issues, "bootstrap_timeout")
	} else {
		verdict.BootstrapLo, verdict.BootstrapHi = lo, hi
	}

	v.finalize(verdict)
	return verdict, nil
}

// walkForward partitions the observations into overlapping sub-windows and
// scores each. Cancellation is observed between sub-windows.
func (v *Validator) walkForward(ctx context.Context, obs []observation, verdict *Verdict) error {
	if len(obs) == 0 {
		return nil
	}
	first := obs[0].at
	last := obs[len(obs)-1].at

	windowLen := time.Duration(v.cfg.WalkForwardWindowDays) * 24 * time.Hour
	step := time.Duration(v.cfg.WalkForwardStepDays) * 24 * time.Hour

	var rs []float64
	passed := 0
	for start := first; !start.After(last); start = start.Add(step) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("assessment cancelled: %w", err)
		}
		end := start.Add(windowLen)
		var xs, ys []float64
		for _, o := range obs {
			if o.at.Before(start) || !o.at.Before(end) {
				continue
			}
			xs = append(xs, o.confidence)
			ys = append(ys, o.actual)
		}
		if len(xs) < 2 {
			continue
		}
		r := pearson(xs, ys)
		rs = append(rs, r)
		if r >= v.cfg.WalkForwardMinR {
			passed++
		}
	}

	if len(rs) == 0 {
		verdict.Issues = append(verdict.Issues, "walk-forward: no scorable sub-windows")
		return nil
	}
	verdict.WalkForwardConsistency = mean(rs)
	verdict.WalkForwardPass = float64(passed)/float64(len(rs)) >= walkForwardPassFraction
	return nil
}

// regimeStability splits the outcome stream into three contiguous segments,
// labels each by realized volatility, and averages the per-segment
// correlation. Too few outcomes per segment zeroes the metric.
func (v *Validator) regimeStability(obs []observation, verdict *Verdict) {
	segment := len(obs) / regimePartitions
	if segment < regimeMinOutcomes {
		verdict.Issues = append(verdict.Issues,
			fmt.Sprintf("regime stability: need %d partitions of %d outcomes, have %d total",
				regimePartitions, regimeMinOutcomes, len(obs)))
		return
	}

	var rs []float64
	for p := 0; p < regimePartitions; p++ {
		lo := p * segment
		hi := lo + segment
		if p == regimePartitions-1 {
			hi = len(obs)
		}
		xs := make([]float64, 0, hi-lo)
		ys := make([]float64, 0, hi-lo)
		for _, o := range obs[lo:hi] {
			xs = append(xs, o.confidence)
			ys = append(ys, o.actual)
		}
		r := pearson(xs, ys)
		rs = append(rs, r)
		label := volatilityRegime(ys)
		verdict.RegimeBreakdown = append(verdict.RegimeBreakdown, fmt.Sprintf("%s r=%.4f", label, r))
		log.Debug().
			Int("partition", p).
			Str("regime", label).
			Float64("r", r).
			Msg("regime partition scored")
	}
	verdict.RegimeStability = mean(rs)
}

func volatilityRegime(returns []float64) string {
	vol := stddev(returns)
	switch {
	case vol < 0.01:
		return "calm"
	case vol < 0.04:
		return "normal"
	default:
		return "turbulent"
	}
}

// rankingStability is the mean Spearman correlation between consecutive
// ranking confidence vectors from the last 7 days.
func (v *Validator) rankingStability() float64 {
	rankings := v.ledger.RecentRankings(7)
	if len(rankings) < 2 {
		return 0
	}
	var rs []float64
	for i := 1; i < len(rankings); i++ {
		prev := rankings[i-1].ConfidenceScores
		cur := rankings[i].ConfidenceScores
		n := len(prev)
		if len(cur) < n {
			n = len(cur)
		}
		if n < 2 {
			continue
		}
		rs = append(rs, spearman(prev[:n], cur[:n]))
	}
	return mean(rs)
}

func (v *Validator) finalize(verdict *Verdict) {
	verdict.MeetsThreshold = verdict.Correlation >= v.cfg.Threshold
	verdict.PassesStatisticalTests = verdict.Significance >= 1-v.cfg.SignificanceLevel
	verdict.ConsistencyOK = verdict.WalkForwardConsistency >= walkForwardConsistencyFloor &&
		verdict.RegimeStability >= regimeMinStability
	verdict.Level = levelFor(verdict.Correlation)

	verdict.ProductionReady = verdict.MeetsThreshold &&
		verdict.PassesStatisticalTests &&
		verdict.SufficientSample &&
		verdict.ConsistencyOK &&
		verdict.Level >= LevelGood

	verdict.ReadinessScore = readinessScore(verdict)

	if !verdict.MeetsThreshold {
		verdict.Issues = append(verdict.Issues,
			fmt.Sprintf("Correlation with outcomes below %.0f%% requirement (%.1f%%)",
				v.cfg.Threshold*100, verdict.Correlation*100))
	}
	if !verdict.PassesStatisticalTests {
		verdict.Issues = append(verdict.Issues,
			fmt.Sprintf("Statistical validation tests failed (significance: %.1f%%)", verdict.Significance*100))
	}
	if !verdict.ConsistencyOK {
		verdict.Issues = append(verdict.Issues,
			fmt.Sprintf("Consistency requirements not met (walk-forward: %.1f%%, regime: %.1f%%)",
				verdict.WalkForwardConsistency*100, verdict.RegimeStability*100))
	}
	if verdict.Accuracy < minAccuracy {
		verdict.Issues = append(verdict.Issues,
			fmt.Sprintf("Prediction accuracy below minimum threshold (%.1f%% < %.0f%%)",
				verdict.Accuracy*100, minAccuracy*100))
	}

	sort.Strings(verdict.Issues)
	log.Info().
		Int("n", verdict.SampleSize).
		Float64("r", verdict.Correlation).
		Str("level", verdict.Level.String()).
		Bool("production_ready", verdict.ProductionReady).
		Msg("compliance verdict")
}

// readinessScore is the weighted compliance roll-up: correlation 40%,
// accuracy 25%, ranking stability 20%, statistical significance 15%, with
// multiplicative penalties for failed gates.
func readinessScore(verdict *Verdict) float64 {
	score := verdict.Correlation*0.40 +
		verdict.Accuracy*0.25 +
		verdict.RankingStability*0.20 +
		verdict.Significance*0.15

	if !verdict.MeetsThreshold {
		score *= 0.7
	}
	if !verdict.PassesStatisticalTests {
		score *= 0.8
	}
	if !verdict.SufficientSample {
		score *= 0.6
	}
	return math.Max(0, math.Min(1, score))
}

// ErrNoVerdict means the assessor has not produced a verdict yet.
var ErrNoVerdict = errors.New("no verdict available yet")

// Package report renders verdicts and screening results as fixed-schema
// plain text: one key-value pair per line, percentages unit-suffixed.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sawpanic/pairscreen/internal/confidence"
	"github.com/sawpanic/pairscreen/internal/pairs"
	"github.com/sawpanic/pairscreen/internal/sector"
	"github.com/sawpanic/pairscreen/internal/universe"
)

type line struct {
	key   string
	value string
}

// Builder accumulates report lines in insertion order.
type Builder struct {
	lines []line
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) add(key, value string) {
	b.lines = append(b.lines, line{key: key, value: value})
}

func (b *Builder) addPercent(key string, v float64) {
	b.add(key, fmt.Sprintf("%.2f%%", v*100))
}

func (b *Builder) addFloat(key string, v float64) {
	b.add(key, fmt.Sprintf("%.4f", v))
}

func (b *Builder) addInt(key string, v int) {
	b.add(key, fmt.Sprintf("%d", v))
}

func (b *Builder) addBool(key string, v bool) {
	b.add(key, fmt.Sprintf("%t", v))
}

// Verdict appends the compliance section.
func (b *Builder) Verdict(v *confidence.Verdict) *Builder {
	b.add("verdict_level", v.Level.String())
	b.addInt("sample_size", v.SampleSize)
	b.addFloat("correlation", v.Correlation)
	b.addFloat("spearman_correlation", v.SpearmanCorrelation)
	b.addPercent("accuracy", v.Accuracy)
	b.addPercent("calibration", v.Calibration)
	b.addFloat("ranking_stability", v.RankingStability)
	b.addPercent("significance", v.Significance)
	b.addFloat("walk_forward_consistency", v.WalkForwardConsistency)
	b.addBool("walk_forward_pass", v.WalkForwardPass)
	b.addFloat("regime_stability", v.RegimeStability)
	b.addFloat("bootstrap_ci_lo", v.BootstrapLo)
	b.addFloat("bootstrap_ci_hi", v.BootstrapHi)
	b.addBool("meets_threshold", v.MeetsThreshold)
	b.addBool("passes_statistical_tests", v.PassesStatisticalTests)
	b.addBool("sufficient_sample", v.SufficientSample)
	b.addBool("consistency_ok", v.ConsistencyOK)
	b.addFloat("readiness_score", v.ReadinessScore)
	b.addBool("production_ready", v.ProductionReady)
	if v.HoldoutAccuracy > 0 {
		b.addPercent("holdout_accuracy", v.HoldoutAccuracy)
	}
	for i, seg := range v.RegimeBreakdown {
		b.add(fmt.Sprintf("regime_%d", i+1), seg)
	}
	for i, issue := range v.Issues {
		b.add(fmt.Sprintf("issue_%d", i+1), issue)
	}
	return b
}

// Screening appends the screening section.
func (b *Builder) Screening(r *pairs.Result) *Builder {
	b.add("run_id", r.RunID)
	b.addInt("total_evaluated", r.Summary.TotalEvaluated)
	b.addInt("insufficient_data", r.Summary.InsufficientData)
	b.addInt("viable_found", r.Summary.ViableFound)
	b.addInt("premium_pairs", len(r.Premium))
	b.addInt("standard_pairs", len(r.Standard))
	b.addInt("backup_pairs", len(r.Backup))
	b.addFloat("average_quality", r.Summary.AverageQuality)
	b.addFloat("average_correlation", r.Summary.AverageCorrelation)
	b.addPercent("pass_rate", r.Summary.PassRate)
	b.addBool("meets_target", r.Summary.MeetsTarget)
	b.addBool("meets_quality_bar", r.Summary.MeetsQualityBar)

	sectors := make([]universe.Sector, 0, len(r.SectorDistribution))
	for s := range r.SectorDistribution {
		sectors = append(sectors, s)
	}
	sort.Slice(sectors, func(i, j int) bool { return sectors[i] < sectors[j] })
	for _, s := range sectors {
		b.addInt("sector_"+strings.ToLower(string(s)), r.SectorDistribution[s])
	}
	return b
}

// Diversification appends the sector exposure section.
func (b *Builder) Diversification(m sector.Metrics, decision sector.Decision) *Builder {
	b.addBool("diversification_accepted", decision.Accepted)
	b.addFloat("herfindahl", m.Herfindahl)
	b.addInt("active_sectors", m.ActiveSectors)
	b.addPercent("max_exposure", m.MaxExposure)
	b.add("max_exposure_sector", string(m.MaxExposureSector))
	b.addBool("exposure_compliant", m.ExposureCompliant)
	b.addBool("emergency_active", m.EmergencyActive)
	for i, issue := range decision.Issues {
		b.add(fmt.Sprintf("diversification_issue_%d", i+1), issue)
	}
	return b
}

// Render writes each line as "key: value".
func (b *Builder) Render(w io.Writer) error {
	for _, l := range b.lines {
		if _, err := fmt.Fprintf(w, "%s: %s\n", l.key, l.value); err != nil {
			return err
		}
	}
	return nil
}

// String renders in memory.
func (b *Builder) String() string {
	var sb strings.Builder
	_ = b.Render(&sb)
	return sb.String()
}

// WriteFile renders to a file, creating or truncating it.
func (b *Builder) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	defer f.Close()
	if err := b.Render(f); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

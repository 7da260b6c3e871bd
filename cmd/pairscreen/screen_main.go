package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/pairscreen/internal/data"
	"github.com/sawpanic/pairscreen/internal/pairs"
	"github.com/sawpanic/pairscreen/internal/persistence/postgres"
	"github.com/sawpanic/pairscreen/internal/report"
	"github.com/sawpanic/pairscreen/internal/sector"
	"github.com/sawpanic/pairscreen/internal/universe"
)

// runScreen executes one full screening pass: metrics cache build, the
// six-stage screen, and a sector exposure validation of the selection.
func runScreen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	windowDays, _ := cmd.Flags().GetInt("window-days")
	asOfRaw, _ := cmd.Flags().GetString("as-of")
	reportPath, _ := cmd.Flags().GetString("report-path")

	var asOf time.Time
	if asOfRaw != "" {
		asOf, err = time.Parse("2006-01-02", asOfRaw)
		if err != nil {
			return fmt.Errorf("invalid --as-of %q: %w", asOfRaw, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	prices := postgres.NewPricesRepo(db, cfg.Store.QueryTimeout())
	sentiment := postgres.NewSentimentRepo(db, cfg.Store.QueryTimeout())
	source := data.NewGuardedSource(data.NewStoreSource(prices), cfg.Guards)

	var corrCache *data.CorrelationCache
	if cfg.Cache.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.Addr, DB: cfg.Cache.DB})
		defer client.Close()
		corrCache = data.NewCorrelationCache(client, cfg.Cache.TTL())
	}

	catalog := universe.NewCatalog()
	manager := sector.NewManager(catalog, cfg.Diversification)
	manager.Initialize()

	screener, err := pairs.NewScreener(catalog, cfg.Screener, manager)
	if err != nil {
		return err
	}

	start := time.Now()
	cache, err := pairs.BuildMetricsCache(ctx, catalog, source, catalog.Tier1Coins(), pairs.CacheOptions{
		WindowDays:       windowDays,
		AsOf:             asOf,
		Sentiment:        sentiment,
		WarmCorrelations: corrCache,
	})
	if err != nil {
		return fmt.Errorf("build metrics cache: %w", err)
	}

	result, err := screener.Screen(ctx, cache)
	if err != nil {
		return fmt.Errorf("screening failed: %w", err)
	}
	log.Info().
		Str("run_id", result.RunID).
		Int("selected", len(result.Selected)).
		Dur("elapsed", time.Since(start)).
		Msg("Screening pass complete")

	b := report.NewBuilder().Screening(result)

	decision, validated, err := validateSelection(manager, result)
	if err != nil {
		return fmt.Errorf("exposure validation failed: %w", err)
	}
	switch {
	case !validated:
		log.Warn().
			Int("selected", len(result.Selected)).
			Int("min_count", cfg.Screener.MinCount).
			Msg("Viable pair count below minimum, skipping exposure validation")
	case !decision.Accepted:
		for _, issue := range decision.Issues {
			log.Warn().Str("issue", issue).Msg("Diversification violation")
		}
		plan := manager.RebalancePlan()
		for _, swap := range plan.Swaps {
			log.Warn().
				Str("from", string(swap.From)).
				Str("to", string(swap.To)).
				Bool("urgent", plan.Urgent).
				Msg("Suggested rebalance")
		}
	}
	if validated {
		b = b.Diversification(manager.Metrics(), decision)
		for _, w := range manager.CorrelationWatch() {
			log.Warn().Str("pair", w).Msg("Cross-sector correlation elevated")
		}
	}

	if reportPath != "" {
		if err := b.WriteFile(reportPath); err != nil {
			return err
		}
		log.Info().Str("path", reportPath).Msg("Screening report written")
		return nil
	}
	return b.Render(os.Stdout)
}

// validateSelection feeds cross-sector correlation observations from the
// selection and runs the exposure check. A selection below the minimum
// viable count never reaches the exposure manager: its concentrated weights
// say nothing about the production allocation.
func validateSelection(manager *sector.Manager, result *pairs.Result) (sector.Decision, bool, error) {
	if !result.Summary.MeetsTarget {
		return sector.Decision{}, false, nil
	}

	pairSet := make([]sector.Pair, 0, len(result.Selected))
	for _, c := range result.Selected {
		pairSet = append(pairSet, sector.Pair{Long: c.LongSymbol, Short: c.ShortSymbol})
		if c.LongSector != c.ShortSector {
			manager.ObserveCorrelation(c.LongSector, c.ShortSector, c.Metrics.Correlation)
		}
	}

	decision, err := manager.Validate(pairSet)
	if err != nil {
		return sector.Decision{}, false, err
	}
	return decision, true, nil
}

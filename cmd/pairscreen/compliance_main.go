package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/pairscreen/internal/confidence"
	"github.com/sawpanic/pairscreen/internal/ledger"
	"github.com/sawpanic/pairscreen/internal/persistence"
	"github.com/sawpanic/pairscreen/internal/persistence/postgres"
	"github.com/sawpanic/pairscreen/internal/report"
)

// runCompliance replays persisted predictions into the ledger, runs one full
// assessment, and exits non-zero unless the algorithm is production ready.
func runCompliance(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	windowDays, _ := cmd.Flags().GetInt("window-days")
	outOfSampleDays, _ := cmd.Flags().GetInt("out-of-sample-days")
	bootstrapIters, _ := cmd.Flags().GetInt("bootstrap-iters")
	seed, _ := cmd.Flags().GetInt64("seed")
	reportPath, _ := cmd.Flags().GetString("report-path")

	if outOfSampleDays > 0 {
		cfg.Validator.OutOfSampleDays = outOfSampleDays
	}
	if bootstrapIters > 0 {
		cfg.Validator.BootstrapIters = bootstrapIters
	}
	if seed != 0 {
		cfg.Validator.BootstrapSeed = seed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	l := ledger.New()
	outcomes := postgres.NewOutcomesRepo(db, cfg.Store.QueryTimeout())
	loaded, finalized, err := hydrateLedger(ctx, l, outcomes)
	if err != nil {
		return err
	}
	log.Info().Int("predictions", loaded).Int("finalized", finalized).Msg("Prediction ledger hydrated")

	validator := confidence.NewValidator(l, cfg.Validator)
	window := confidence.Window{Days: windowDays}
	if cfg.Validator.OutOfSampleDays > 0 {
		window.HoldoutStart = time.Now().UTC().AddDate(0, 0, -cfg.Validator.OutOfSampleDays)
	}

	verdict, err := validator.Assess(ctx, window)
	if err != nil {
		return fmt.Errorf("assessment failed: %w", err)
	}

	b := report.NewBuilder().Verdict(verdict)
	if reportPath != "" {
		if err := b.WriteFile(reportPath); err != nil {
			return err
		}
		log.Info().Str("path", reportPath).Msg("Compliance report written")
	} else if err := b.Render(os.Stdout); err != nil {
		return err
	}

	if !verdict.ProductionReady {
		if verdict.MeetsThreshold && consistencyDataMissing(verdict) {
			for _, issue := range verdict.Issues {
				log.Warn().Str("issue", issue).Msg("Compliance gate degraded")
			}
			log.Warn().
				Str("level", verdict.Level.String()).
				Msg("Threshold holds but a consistency gate could not be evaluated")
			return nil
		}
		return fmt.Errorf("algorithm not production ready: level %s with %d issue(s)",
			verdict.Level, len(verdict.Issues))
	}
	log.Info().
		Str("level", verdict.Level.String()).
		Float64("correlation", verdict.Correlation).
		Msg("Compliance assessment passed")
	return nil
}

// consistencyDataMissing reports whether the consistency gate failed only
// because it could not be evaluated, not because the data argued against the
// algorithm. Such verdicts warn instead of failing the run.
func consistencyDataMissing(v *confidence.Verdict) bool {
	if !v.SufficientSample || !v.PassesStatisticalTests || v.ConsistencyOK {
		return false
	}
	for _, issue := range v.Issues {
		if strings.HasPrefix(issue, "regime stability:") ||
			issue == "walk-forward: no scorable sub-windows" ||
			issue == "bootstrap_timeout" {
			return true
		}
	}
	return false
}

// hydrateLedger replays persisted predictions in prediction-time order,
// attaching outcomes as it goes. A single out-of-order outcome downgrades to
// a warning so one bad row cannot block the assessment.
func hydrateLedger(ctx context.Context, l *ledger.Ledger, repo persistence.OutcomesRepo) (loaded, finalized int, err error) {
	records, err := repo.ListSince(ctx, time.Time{})
	if err != nil {
		return 0, 0, fmt.Errorf("load predictions: %w", err)
	}

	for _, rec := range records {
		p := ledger.PairPrediction{
			LongSymbol:      rec.LongSymbol,
			ShortSymbol:     rec.ShortSymbol,
			PredictedReturn: rec.PredictedReturn,
			Confidence:      rec.Confidence,
			PredictionTime:  rec.PredictionTime,
		}
		if err := l.RecordPairPrediction(p); err != nil {
			if errors.Is(err, ledger.ErrOutOfOrder) {
				log.Warn().Int64("id", rec.ID).Msg("Skipping out-of-order prediction row")
				continue
			}
			return loaded, finalized, fmt.Errorf("replay prediction %d: %w", rec.ID, err)
		}
		loaded++

		if rec.ActualReturn != nil && rec.OutcomeTime != nil {
			if err := l.SetPairOutcome(rec.LongSymbol, rec.ShortSymbol, *rec.ActualReturn, *rec.OutcomeTime); err != nil {
				log.Warn().Int64("id", rec.ID).Err(err).Msg("Skipping unmatchable outcome row")
				continue
			}
			finalized++
		}
	}
	return loaded, finalized, nil
}

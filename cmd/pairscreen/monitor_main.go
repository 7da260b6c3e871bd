package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/pairscreen/internal/confidence"
	"github.com/sawpanic/pairscreen/internal/ledger"
	"github.com/sawpanic/pairscreen/internal/monitor"
	"github.com/sawpanic/pairscreen/internal/persistence/postgres"
	"github.com/sawpanic/pairscreen/internal/sector"
	"github.com/sawpanic/pairscreen/internal/telemetry"
	"github.com/sawpanic/pairscreen/internal/universe"
)

// runMonitorLoop starts the periodic assessment refresh, the threshold
// monitor, and the monitoring HTTP server, then blocks until interrupted.
func runMonitorLoop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	windowDays, _ := cmd.Flags().GetInt("window-days")

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

	catalog := universe.NewCatalog()
	manager := sector.NewManager(catalog, cfg.Diversification)
	manager.Initialize()

	validator := confidence.NewValidator(l, cfg.Validator)
	window := confidence.Window{Days: windowDays}
	if cfg.Validator.OutOfSampleDays > 0 {
		window.HoldoutStart = time.Now().UTC().AddDate(0, 0, -cfg.Validator.OutOfSampleDays)
	}
	assessor := confidence.NewAssessor(validator, window)

	metrics := telemetry.NewMetrics()
	mon := monitor.New(cfg.Monitor, assessor, manager, metrics)
	server := telemetry.NewServer(cfg.Telemetry, metrics, assessor, mon)

	interval := time.Duration(cfg.Monitor.UpdateFrequencyMinutes) * time.Minute
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	go assessor.Run(ctx, interval)
	go mon.Run(ctx)
	go runLedgerMaintenance(ctx, l, manager, metrics, interval)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown failed")
	}
	log.Info().Msg("Monitor stopped")
	return nil
}

// runLedgerMaintenance applies retention and refreshes the ledger and
// exposure gauges on the monitor cadence.
func runLedgerMaintenance(ctx context.Context, l *ledger.Ledger, manager *sector.Manager, metrics *telemetry.Metrics, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	maintainLedger(l, manager, metrics)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			maintainLedger(l, manager, metrics)
		}
	}
}

// maintainLedger runs one maintenance cycle. A prune deferred behind an
// assessment snapshot is retried on the next cycle.
func maintainLedger(l *ledger.Ledger, manager *sector.Manager, metrics *telemetry.Metrics) {
	dropped, err := l.Prune(time.Now().UTC())
	switch {
	case errors.Is(err, ledger.ErrPruneDeferred):
		log.Debug().Msg("Ledger prune deferred, assessment in flight")
	case err != nil:
		log.Warn().Err(err).Msg("Ledger prune failed")
	case dropped > 0:
		log.Info().Int("dropped", dropped).Msg("Ledger retention applied")
	}

	metrics.RecordLedgerDepth(l.Size())
	for _, exp := range manager.Exposures() {
		metrics.RecordSectorExposure(string(exp.Sector), exp.CurrentExposure)
	}
}

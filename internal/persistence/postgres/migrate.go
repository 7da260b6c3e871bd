package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Migration is a named, versioned schema change. Statements must be safe to
// re-issue; application is additionally guarded by the schema_migrations
// ledger so a recorded migration is never re-run.
type Migration struct {
	Name    string
	Version int
	SQL     string
}

// coreMigrations returns the schema in dependency order. Order matters:
// later tables reference concepts established by earlier ones.
func coreMigrations() []Migration {
	return []Migration{
		{Name: "prices", Version: 1, SQL: `
			CREATE TABLE IF NOT EXISTS historical_prices (
				symbol        TEXT NOT NULL,
				ts            TIMESTAMPTZ NOT NULL,
				open          DOUBLE PRECISION NOT NULL,
				high          DOUBLE PRECISION NOT NULL,
				low           DOUBLE PRECISION NOT NULL,
				close         DOUBLE PRECISION NOT NULL,
				volume        DOUBLE PRECISION NOT NULL,
				quality_score DOUBLE PRECISION NOT NULL DEFAULT 1.0,
				PRIMARY KEY (symbol, ts)
			);
			CREATE INDEX IF NOT EXISTS idx_prices_ts ON historical_prices (ts);`},
		{Name: "technical_indicators", Version: 2, SQL: `
			CREATE TABLE IF NOT EXISTS technical_indicators (
				symbol    TEXT NOT NULL,
				ts        TIMESTAMPTZ NOT NULL,
				indicator TEXT NOT NULL,
				value     DOUBLE PRECISION NOT NULL,
				PRIMARY KEY (symbol, ts, indicator)
			);`},
		{Name: "sentiment", Version: 3, SQL: `
			CREATE TABLE IF NOT EXISTS historical_sentiment (
				symbol        TEXT NOT NULL,
				ts            TIMESTAMPTZ NOT NULL,
				sentiment     DOUBLE PRECISION NOT NULL CHECK (sentiment >= -1 AND sentiment <= 1),
				article_count INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (symbol, ts)
			);`},
		{Name: "correlations", Version: 4, SQL: `
			CREATE TABLE IF NOT EXISTS correlations (
				symbol_a    TEXT NOT NULL,
				symbol_b    TEXT NOT NULL,
				window_days INTEGER NOT NULL,
				ts          TIMESTAMPTZ NOT NULL,
				pearson     DOUBLE PRECISION NOT NULL,
				sample_size INTEGER NOT NULL,
				PRIMARY KEY (symbol_a, symbol_b, window_days, ts),
				CHECK (symbol_a < symbol_b)
			);`},
		{Name: "realtime_correlations", Version: 5, SQL: `
			CREATE TABLE IF NOT EXISTS realtime_correlations (
				symbol_a TEXT NOT NULL,
				symbol_b TEXT NOT NULL,
				ts       TIMESTAMPTZ NOT NULL,
				pearson  DOUBLE PRECISION NOT NULL,
				PRIMARY KEY (symbol_a, symbol_b, ts),
				CHECK (symbol_a < symbol_b)
			);`},
		{Name: "prediction_outcomes", Version: 6, SQL: `
			CREATE TABLE IF NOT EXISTS prediction_outcomes (
				id               BIGSERIAL PRIMARY KEY,
				long_symbol      TEXT NOT NULL,
				short_symbol     TEXT NOT NULL,
				predicted_return DOUBLE PRECISION NOT NULL,
				confidence       DOUBLE PRECISION NOT NULL CHECK (confidence >= 0 AND confidence <= 1),
				prediction_time  TIMESTAMPTZ NOT NULL,
				actual_return    DOUBLE PRECISION,
				outcome_time     TIMESTAMPTZ,
				CHECK (outcome_time IS NULL OR outcome_time >= prediction_time)
			);
			CREATE INDEX IF NOT EXISTS idx_prediction_outcomes_time ON prediction_outcomes (prediction_time);`},
		{Name: "backtest_runs", Version: 7, SQL: `
			CREATE TABLE IF NOT EXISTS backtest_runs (
				id         BIGSERIAL PRIMARY KEY,
				started_at TIMESTAMPTZ NOT NULL,
				ended_at   TIMESTAMPTZ,
				strategy   TEXT NOT NULL,
				params     JSONB
			);`},
		{Name: "backtest_trades", Version: 8, SQL: `
			CREATE TABLE IF NOT EXISTS backtest_trades (
				id           BIGSERIAL PRIMARY KEY,
				run_id       BIGINT NOT NULL REFERENCES backtest_runs(id),
				long_symbol  TEXT NOT NULL,
				short_symbol TEXT NOT NULL,
				entry_ts     TIMESTAMPTZ NOT NULL,
				exit_ts      TIMESTAMPTZ,
				pnl          DOUBLE PRECISION
			);`},
		{Name: "performance_snapshots", Version: 9, SQL: `
			CREATE TABLE IF NOT EXISTS performance_snapshots (
				ts                TIMESTAMPTZ PRIMARY KEY,
				correlation       DOUBLE PRECISION NOT NULL,
				accuracy          DOUBLE PRECISION NOT NULL,
				calibration       DOUBLE PRECISION NOT NULL,
				sample_size       INTEGER NOT NULL,
				production_ready  BOOLEAN NOT NULL
			);`},
		{Name: "performance_alerts", Version: 10, SQL: `
			CREATE TABLE IF NOT EXISTS performance_alerts (
				id           BIGSERIAL PRIMARY KEY,
				severity     TEXT NOT NULL,
				message      TEXT NOT NULL,
				confidence   DOUBLE PRECISION NOT NULL,
				ts           TIMESTAMPTZ NOT NULL,
				acknowledged BOOLEAN NOT NULL DEFAULT FALSE
			);`},
		{Name: "quality_reports", Version: 11, SQL: `
			CREATE TABLE IF NOT EXISTS quality_reports (
				id         BIGSERIAL PRIMARY KEY,
				symbol     TEXT NOT NULL,
				ts         TIMESTAMPTZ NOT NULL,
				completeness DOUBLE PRECISION NOT NULL,
				issues     TEXT
			);`},
		{Name: "source_health", Version: 12, SQL: `
			CREATE TABLE IF NOT EXISTS source_health (
				source     TEXT NOT NULL,
				ts         TIMESTAMPTZ NOT NULL,
				healthy    BOOLEAN NOT NULL,
				latency_ms INTEGER,
				PRIMARY KEY (source, ts)
			);`},
	}
}

// Migrator applies core migrations idempotently, recording each in
// schema_migrations. Re-running a recorded migration is a no-op.
type Migrator struct {
	db *sqlx.DB
}

// NewMigrator creates a migrator over an open database handle.
func NewMigrator(db *sqlx.DB) *Migrator {
	return &Migrator{db: db}
}

// Run applies all pending core migrations in order and returns how many were
// applied.
func (m *Migrator) Run(ctx context.Context) (int, error) {
	if err := m.ensureLedger(ctx); err != nil {
		return 0, err
	}

	applied := 0
	for _, mig := range coreMigrations() {
		done, err := m.isApplied(ctx, mig.Name)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}

		if err := m.apply(ctx, mig); err != nil {
			return applied, err
		}
		applied++
		log.Info().Str("migration", mig.Name).Int("version", mig.Version).Msg("migration applied")
	}

	return applied, nil
}

// CurrentVersion reports the highest applied migration version, 0 when none.
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	var version int
	query := `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`
	if err := m.db.GetContext(ctx, &version, query); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func (m *Migrator) ensureLedger(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			migration_name TEXT NOT NULL UNIQUE,
			version        INTEGER NOT NULL,
			applied_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	return nil
}

func (m *Migrator) isApplied(ctx context.Context, name string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM schema_migrations WHERE migration_name = $1`
	if err := m.db.GetContext(ctx, &count, query, name); err != nil {
		return false, fmt.Errorf("failed to check migration %s: %w", name, err)
	}
	return count > 0, nil
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", mig.Name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", mig.Name, err)
	}

	record := `INSERT INTO schema_migrations (migration_name, version) VALUES ($1, $2)`
	if _, err := tx.ExecContext(ctx, record, mig.Name, mig.Version); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", mig.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", mig.Name, err)
	}
	return nil
}

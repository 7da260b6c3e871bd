package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/pairscreen/internal/persistence"
)

// pricesRepo implements PricesRepo for PostgreSQL.
type pricesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPricesRepo creates a PostgreSQL prices repository.
func NewPricesRepo(db *sqlx.DB, timeout time.Duration) persistence.PricesRepo {
	return &pricesRepo{db: db, timeout: timeout}
}

func (r *pricesRepo) Insert(ctx context.Context, bar persistence.PriceBar) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO historical_prices (symbol, ts, open, high, low, close, volume, quality_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, ts) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			quality_score = EXCLUDED.quality_score`

	if _, err := r.db.ExecContext(ctx, query,
		bar.Symbol, bar.Timestamp, bar.Open, bar.High, bar.Low, bar.Close,
		bar.Volume, bar.QualityScore); err != nil {
		return fmt.Errorf("failed to insert price bar: %w", err)
	}
	return nil
}

func (r *pricesRepo) InsertBatch(ctx context.Context, bars []persistence.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout*time.Duration(len(bars)/100+1))
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch insert: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO historical_prices (symbol, ts, open, high, low, close, volume, quality_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, ts) DO NOTHING`

	for _, bar := range bars {
		if _, err := tx.ExecContext(ctx, query,
			bar.Symbol, bar.Timestamp, bar.Open, bar.High, bar.Low, bar.Close,
			bar.Volume, bar.QualityScore); err != nil {
			return fmt.Errorf("failed to insert price bar for %s: %w", bar.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch insert: %w", err)
	}
	return nil
}

func (r *pricesRepo) DailyCloses(ctx context.Context, symbol string, tr persistence.TimeRange) ([]persistence.PriceBar, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT symbol, ts, open, high, low, close, volume, quality_score
		FROM historical_prices
		WHERE symbol = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts ASC`

	var bars []persistence.PriceBar
	if err := r.db.SelectContext(ctx, &bars, query, symbol, tr.From, tr.To); err != nil {
		return nil, fmt.Errorf("failed to list daily closes for %s: %w", symbol, err)
	}
	return bars, nil
}

func (r *pricesRepo) Count(ctx context.Context, symbol string, tr persistence.TimeRange) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int64
	query := `SELECT COUNT(*) FROM historical_prices WHERE symbol = $1 AND ts >= $2 AND ts <= $3`
	if err := r.db.GetContext(ctx, &count, query, symbol, tr.From, tr.To); err != nil {
		return 0, fmt.Errorf("failed to count bars for %s: %w", symbol, err)
	}
	return count, nil
}

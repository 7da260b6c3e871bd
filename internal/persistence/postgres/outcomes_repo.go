package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/pairscreen/internal/persistence"
)

// outcomesRepo implements OutcomesRepo for PostgreSQL.
type outcomesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewOutcomesRepo creates a PostgreSQL prediction-outcomes repository.
func NewOutcomesRepo(db *sqlx.DB, timeout time.Duration) persistence.OutcomesRepo {
	return &outcomesRepo{db: db, timeout: timeout}
}

func (r *outcomesRepo) Insert(ctx context.Context, rec persistence.PredictionRecord) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO prediction_outcomes (long_symbol, short_symbol, predicted_return, confidence, prediction_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id int64
	if err := r.db.GetContext(ctx, &id, query,
		rec.LongSymbol, rec.ShortSymbol, rec.PredictedReturn, rec.Confidence,
		rec.PredictionTime); err != nil {
		return 0, fmt.Errorf("failed to insert prediction: %w", err)
	}
	return id, nil
}

func (r *outcomesRepo) Finalize(ctx context.Context, id int64, actualReturn float64, outcomeTime time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE prediction_outcomes
		SET actual_return = $2, outcome_time = $3
		WHERE id = $1 AND outcome_time IS NULL`

	res, err := r.db.ExecContext(ctx, query, id, actualReturn, outcomeTime)
	if err != nil {
		return fmt.Errorf("failed to finalize prediction %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finalize prediction %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("prediction %d not found or already finalized", id)
	}
	return nil
}

func (r *outcomesRepo) ListSince(ctx context.Context, since time.Time) ([]persistence.PredictionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, long_symbol, short_symbol, predicted_return, confidence, prediction_time, actual_return, outcome_time
		FROM prediction_outcomes
		WHERE prediction_time >= $1
		ORDER BY prediction_time ASC, id ASC`

	var records []persistence.PredictionRecord
	if err := r.db.SelectContext(ctx, &records, query, since); err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	return records, nil
}

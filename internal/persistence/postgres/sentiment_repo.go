package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/pairscreen/internal/persistence"
)

// sentimentRepo implements SentimentRepo for PostgreSQL.
type sentimentRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewSentimentRepo creates a PostgreSQL sentiment repository.
func NewSentimentRepo(db *sqlx.DB, timeout time.Duration) persistence.SentimentRepo {
	return &sentimentRepo{db: db, timeout: timeout}
}

func (r *sentimentRepo) Insert(ctx context.Context, point persistence.SentimentPoint) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if point.Sentiment < -1.0 || point.Sentiment > 1.0 {
		return fmt.Errorf("sentiment out of range [-1,1]: %f", point.Sentiment)
	}

	query := `
		INSERT INTO historical_sentiment (symbol, ts, sentiment, article_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol, ts) DO UPDATE SET
			sentiment = EXCLUDED.sentiment,
			article_count = EXCLUDED.article_count`

	if _, err := r.db.ExecContext(ctx, query,
		point.Symbol, point.Timestamp, point.Sentiment, point.ArticleCount); err != nil {
		return fmt.Errorf("failed to insert sentiment point: %w", err)
	}
	return nil
}

func (r *sentimentRepo) ListBySymbol(ctx context.Context, symbol string, tr persistence.TimeRange) ([]persistence.SentimentPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT symbol, ts, sentiment, article_count
		FROM historical_sentiment
		WHERE symbol = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts ASC`

	var points []persistence.SentimentPoint
	if err := r.db.SelectContext(ctx, &points, query, symbol, tr.From, tr.To); err != nil {
		return nil, fmt.Errorf("failed to list sentiment for %s: %w", symbol, err)
	}
	return points, nil
}

package persistence

import (
	"context"
	"time"
)

// TimeRange bounds a point-in-time query window.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// PriceBar is one daily OHLCV observation with a per-row quality score
// attached by the ingestion pipeline.
type PriceBar struct {
	Symbol       string    `json:"symbol" db:"symbol"`
	Timestamp    time.Time `json:"ts" db:"ts"`
	Open         float64   `json:"open" db:"open"`
	High         float64   `json:"high" db:"high"`
	Low          float64   `json:"low" db:"low"`
	Close        float64   `json:"close" db:"close"`
	Volume       float64   `json:"volume" db:"volume"`
	QualityScore float64   `json:"quality_score" db:"quality_score"`
}

// SentimentPoint is one aggregated sentiment observation for a symbol.
type SentimentPoint struct {
	Symbol       string    `json:"symbol" db:"symbol"`
	Timestamp    time.Time `json:"ts" db:"ts"`
	Sentiment    float64   `json:"sentiment" db:"sentiment"`
	ArticleCount int       `json:"article_count" db:"article_count"`
}

// PredictionRecord is one persisted strategy prediction with its realized
// outcome once known.
type PredictionRecord struct {
	ID              int64      `json:"id" db:"id"`
	LongSymbol      string     `json:"long_symbol" db:"long_symbol"`
	ShortSymbol     string     `json:"short_symbol" db:"short_symbol"`
	PredictedReturn float64    `json:"predicted_return" db:"predicted_return"`
	Confidence      float64    `json:"confidence" db:"confidence"`
	PredictionTime  time.Time  `json:"prediction_time" db:"prediction_time"`
	ActualReturn    *float64   `json:"actual_return,omitempty" db:"actual_return"`
	OutcomeTime     *time.Time `json:"outcome_time,omitempty" db:"outcome_time"`
}

// PricesRepo provides historical daily price persistence.
type PricesRepo interface {
	// Insert adds a single bar.
	Insert(ctx context.Context, bar PriceBar) error

	// InsertBatch adds multiple bars atomically.
	InsertBatch(ctx context.Context, bars []PriceBar) error

	// DailyCloses retrieves bars for a symbol within the range, ordered by
	// timestamp ascending.
	DailyCloses(ctx context.Context, symbol string, tr TimeRange) ([]PriceBar, error)

	// Count returns the number of bars for a symbol within the range.
	Count(ctx context.Context, symbol string, tr TimeRange) (int64, error)
}

// SentimentRepo provides historical sentiment persistence.
type SentimentRepo interface {
	// Insert adds a single sentiment point.
	Insert(ctx context.Context, point SentimentPoint) error

	// ListBySymbol retrieves sentiment for a symbol within the range,
	// ordered by timestamp ascending.
	ListBySymbol(ctx context.Context, symbol string, tr TimeRange) ([]SentimentPoint, error)
}

// OutcomesRepo persists predictions and their realized outcomes.
type OutcomesRepo interface {
	// Insert adds a prediction and returns its row id.
	Insert(ctx context.Context, rec PredictionRecord) (int64, error)

	// Finalize attaches the realized outcome to a prediction.
	Finalize(ctx context.Context, id int64, actualReturn float64, outcomeTime time.Time) error

	// ListSince retrieves predictions made at or after since, ordered by
	// prediction_time then id ascending.
	ListSince(ctx context.Context, since time.Time) ([]PredictionRecord, error)
}

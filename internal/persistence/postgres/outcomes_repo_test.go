package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/pairscreen/internal/persistence"
)

func TestOutcomesRepo_InsertReturnsID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOutcomesRepo(db, time.Second)

	predictionTime := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO prediction_outcomes").
		WithArgs("BTC", "ETH", 0.03, 0.82, predictionTime).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(17)))

	id, err := repo.Insert(context.Background(), persistence.PredictionRecord{
		LongSymbol:      "BTC",
		ShortSymbol:     "ETH",
		PredictedReturn: 0.03,
		Confidence:      0.82,
		PredictionTime:  predictionTime,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutcomesRepo_FinalizeOnce(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOutcomesRepo(db, time.Second)

	outcomeTime := time.Date(2026, 1, 17, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE prediction_outcomes").
		WithArgs(int64(17), 0.021, outcomeTime).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Finalize(context.Background(), 17, 0.021, outcomeTime))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutcomesRepo_FinalizeAlreadyDone(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOutcomesRepo(db, time.Second)

	mock.ExpectExec("UPDATE prediction_outcomes").
		WithArgs(int64(17), 0.021, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Finalize(context.Background(), 17, 0.021, time.Now())
	assert.ErrorContains(t, err, "already finalized")
}

func TestOutcomesRepo_ListSince(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOutcomesRepo(db, time.Second)

	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	predictionTime := since.Add(24 * time.Hour)
	actual := 0.012
	outcomeTime := predictionTime.Add(48 * time.Hour)

	rows := sqlmock.NewRows([]string{
		"id", "long_symbol", "short_symbol", "predicted_return", "confidence",
		"prediction_time", "actual_return", "outcome_time",
	}).
		AddRow(int64(1), "BTC", "ETH", 0.03, 0.82, predictionTime, actual, outcomeTime).
		AddRow(int64(2), "SOL", "AVAX", -0.01, 0.64, predictionTime, nil, nil)

	mock.ExpectQuery("SELECT (.+) FROM prediction_outcomes").
		WithArgs(since).
		WillReturnRows(rows)

	records, err := repo.ListSince(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.NotNil(t, records[0].ActualReturn)
	assert.InDelta(t, 0.012, *records[0].ActualReturn, 1e-12)
	assert.Nil(t, records[1].ActualReturn)
	assert.Nil(t, records[1].OutcomeTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

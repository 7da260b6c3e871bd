package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestMigrator_Run_AppliesAllInOrder(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewMigrator(db)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))

	for _, mig := range coreMigrations() {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM schema_migrations").
			WithArgs(mig.Name).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO schema_migrations").
			WithArgs(mig.Name, mig.Version).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
	}

	applied, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(coreMigrations()), applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrator_Run_SecondRunIsNoop(t *testing.T) {
	db, mock := newMockDB(t)
	m := NewMigrator(db)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))

	for _, mig := range coreMigrations() {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM schema_migrations").
			WithArgs(mig.Name).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	}

	applied, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrations_DependencyOrder(t *testing.T) {
	migs := coreMigrations()
	require.Len(t, migs, 12)

	wantOrder := []string{
		"prices", "technical_indicators", "sentiment", "correlations",
		"realtime_correlations", "prediction_outcomes", "backtest_runs",
		"backtest_trades", "performance_snapshots", "performance_alerts",
		"quality_reports", "source_health",
	}
	for i, mig := range migs {
		assert.Equal(t, wantOrder[i], mig.Name)
		assert.Equal(t, i+1, mig.Version)
	}
}

package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day int) time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day)
}

func pairAt(day int, long, short string, confidence float64) PairPrediction {
	return PairPrediction{
		LongSymbol:      long,
		ShortSymbol:     short,
		PredictedReturn: 0.01,
		Confidence:      confidence,
		PredictionTime:  at(day),
	}
}

func TestRecordPairPredictionValidation(t *testing.T) {
	l := New()

	require.NoError(t, l.RecordPairPrediction(pairAt(0, "BTC", "ETH", 0.9)))

	err := l.RecordPairPrediction(pairAt(0, "BTC", "", 0.9))
	assert.Error(t, err)

	bad := pairAt(1, "BTC", "ETH", 1.5)
	assert.Error(t, l.RecordPairPrediction(bad))

	// Same timestamp is fine (tie broken by insertion order); earlier is not.
	require.NoError(t, l.RecordPairPrediction(pairAt(0, "SOL", "ADA", 0.8)))
	err = l.RecordPairPrediction(pairAt(-1, "SOL", "ADA", 0.8))
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestSetPairOutcomeEarliestFirst(t *testing.T) {
	l := New()
	require.NoError(t, l.RecordPairPrediction(pairAt(0, "BTC", "ETH", 0.9)))
	require.NoError(t, l.RecordPairPrediction(pairAt(1, "BTC", "ETH", 0.8)))

	require.NoError(t, l.SetPairOutcome("BTC", "ETH", 0.02, at(2)))

	all := l.Recent(0)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].Outcome)
	assert.Equal(t, 0.02, all[0].Outcome.ActualReturn)
	assert.Nil(t, all[1].Outcome)

	// Second call lands on the later prediction.
	require.NoError(t, l.SetPairOutcome("BTC", "ETH", -0.01, at(3)))
	all = l.Recent(0)
	require.NotNil(t, all[1].Outcome)
	assert.Equal(t, -0.01, all[1].Outcome.ActualReturn)

	// All finalized now.
	err := l.SetPairOutcome("BTC", "ETH", 0.0, at(4))
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	err = l.SetPairOutcome("SOL", "ADA", 0.0, at(4))
	assert.ErrorIs(t, err, ErrNoMatchingPrediction)
}

func TestSetPairOutcomeRejectsTimeBeforePrediction(t *testing.T) {
	l := New()
	require.NoError(t, l.RecordPairPrediction(pairAt(5, "BTC", "ETH", 0.9)))

	err := l.SetPairOutcome("BTC", "ETH", 0.01, at(4))
	require.Error(t, err)

	// The prediction stays open.
	assert.Nil(t, l.Recent(0)[0].Outcome)
}

func TestRecentReturnsCopies(t *testing.T) {
	l := New()
	require.NoError(t, l.RecordPairPrediction(pairAt(0, "BTC", "ETH", 0.9)))
	require.NoError(t, l.SetPairOutcome("BTC", "ETH", 0.05, at(1)))

	snapshot := l.Recent(0)
	snapshot[0].Confidence = 0.1
	snapshot[0].Outcome.ActualReturn = -99

	fresh := l.Recent(0)
	assert.Equal(t, 0.9, fresh[0].Confidence)
	assert.Equal(t, 0.05, fresh[0].Outcome.ActualReturn)
}

func TestRankingLifecycle(t *testing.T) {
	l := New()

	r := RankingPrediction{
		RankedPairs:      []RankedPair{{Long: "BTC", Short: "ETH"}, {Long: "SOL", Short: "ADA"}},
		ConfidenceScores: []float64{0.9, 0.7},
		RankingTime:      at(0),
	}
	require.NoError(t, l.RecordRankingPrediction(r))

	// Length mismatch on record.
	bad := r
	bad.ConfidenceScores = []float64{0.9}
	bad.RankingTime = at(1)
	assert.Error(t, l.RecordRankingPrediction(bad))

	// Length mismatch on finalize.
	assert.Error(t, l.SetRankingOutcomes(0, []float64{0.01}))

	require.NoError(t, l.SetRankingOutcomes(0, []float64{0.01, -0.02}))
	assert.ErrorIs(t, l.SetRankingOutcomes(0, []float64{0.01, -0.02}), ErrAlreadyFinalized)
	assert.ErrorIs(t, l.SetRankingOutcomes(7, nil), ErrNoMatchingPrediction)

	rankings := l.RecentRankings(0)
	require.Len(t, rankings, 1)
	assert.Equal(t, []float64{0.01, -0.02}, rankings[0].Outcomes)

	// Mutating the copy leaves the ledger untouched.
	rankings[0].Outcomes[0] = 42
	assert.Equal(t, 0.01, l.RecentRankings(0)[0].Outcomes[0])
}

func TestPruneDropsOldAndDefersDuringSnapshot(t *testing.T) {
	l := New()
	old := PairPrediction{
		LongSymbol:     "BTC",
		ShortSymbol:    "ETH",
		Confidence:     0.9,
		PredictionTime: at(0),
	}
	require.NoError(t, l.RecordPairPrediction(old))
	require.NoError(t, l.RecordPairPrediction(pairAt(400, "SOL", "ADA", 0.8)))

	_, release := l.Snapshot(0)
	_, err := l.Prune(at(400))
	assert.ErrorIs(t, err, ErrPruneDeferred)

	release()
	release() // idempotent

	dropped, err := l.Prune(at(400))
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 1, l.Size())
	assert.Equal(t, "SOL", l.Recent(0)[0].LongSymbol)
}

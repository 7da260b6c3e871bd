package confidence

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPearsonKnownValues(t *testing.T) {
	assert.InDelta(t, 1.0, pearson([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
	assert.InDelta(t, -1.0, pearson([]float64{1, 2, 3}, []float64{6, 4, 2}), 1e-12)
	assert.InDelta(t, 0.0, pearson([]float64{1, 2, 3}, []float64{5, 5, 5}), 1e-12) // zero variance
	assert.Equal(t, 0.0, pearson([]float64{1}, []float64{2}))
}

func TestAverageRanksWithTies(t *testing.T) {
	ranks := averageRanks([]float64{10, 20, 20, 30})
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, ranks)
}

func TestSpearmanTies(t *testing.T) {
	// Ranks of x: [1.5, 1.5, 3]; ranks of y: [1, 2, 3].
	rho := spearman([]float64{1, 1, 2}, []float64{1, 2, 3})
	assert.InDelta(t, math.Sqrt(3)/2, rho, 1e-9)

	assert.InDelta(t, 1.0, spearman([]float64{0.1, 0.5, 0.9}, []float64{-1, 0, 4}), 1e-12)
}

func TestSignMatchAccuracy(t *testing.T) {
	predicted := []float64{1, -1, 2, 0, -3}
	actual := []float64{2, -4, -1, 5, 0}
	// Matches: (1,2), (-1,-4), zero predicted, zero actual = 4 of 5.
	assert.InDelta(t, 0.8, signMatchAccuracy(predicted, actual), 1e-12)
}

func TestCalibrationScoreSkipsThinBins(t *testing.T) {
	var confidence, predicted, actual []float64
	// Ten observations in the [0.7,0.8) bin, six of them correct.
	for i := 0; i < 10; i++ {
		confidence = append(confidence, 0.75)
		predicted = append(predicted, 1)
		if i < 6 {
			actual = append(actual, 1)
		} else {
			actual = append(actual, -1)
		}
	}
	// Three in another bin: below the floor, skipped.
	for i := 0; i < 3; i++ {
		confidence = append(confidence, 0.15)
		predicted = append(predicted, 1)
		actual = append(actual, -1)
	}

	score := calibrationScore(confidence, predicted, actual)
	assert.InDelta(t, 1-math.Abs(0.75-0.6), score, 1e-12)
}

func TestCalibrationScoreNoQualifyingBins(t *testing.T) {
	assert.Equal(t, 0.0, calibrationScore([]float64{0.5}, []float64{1}, []float64{1}))
}

func TestTTestPValue(t *testing.T) {
	// r=0 is maximally insignificant.
	assert.InDelta(t, 1.0, tTestPValue(0, 100), 1e-9)

	// r=0.5, n=30: t ≈ 3.055, df=28, two-sided p ≈ 0.005.
	p := tTestPValue(0.5, 30)
	assert.InDelta(t, 0.005, p, 0.002)

	// Strong correlation on a large sample is overwhelmingly significant.
	assert.Less(t, tTestPValue(0.85, 250), 1e-6)

	assert.Equal(t, 0.0, tTestPValue(1, 50))
	assert.Equal(t, 1.0, tTestPValue(0.9, 2))
}

func TestPercentileInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 1.0, percentile(sorted, 0))
	assert.Equal(t, 5.0, percentile(sorted, 1))
	assert.InDelta(t, 3.0, percentile(sorted, 0.5), 1e-12)
	assert.InDelta(t, 1.4, percentile(sorted, 0.1), 1e-12)
}

func TestBootstrapCIDeterministicBySeed(t *testing.T) {
	n := 300
	confidence := make([]float64, n)
	actual := make([]float64, n)
	for i := 0; i < n; i++ {
		confidence[i] = 0.3 + 0.4*float64(i%7)/6
		actual[i] = confidence[i] - 0.5
	}

	lo1, hi1, err := bootstrapCI(context.Background(), confidence, actual, 500, 42)
	require.NoError(t, err)
	lo2, hi2, err := bootstrapCI(context.Background(), confidence, actual, 500, 42)
	require.NoError(t, err)

	assert.Equal(t, lo1, lo2)
	assert.Equal(t, hi1, hi2)
	assert.LessOrEqual(t, lo1, hi1)
	assert.Greater(t, lo1, 0.9) // perfectly linear data

	lo3, _, err := bootstrapCI(context.Background(), confidence, actual, 500, 7)
	require.NoError(t, err)
	assert.LessOrEqual(t, lo3, hi1)
}

func TestBootstrapCIObservesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := bootstrapCI(ctx, []float64{0.1, 0.9, 0.4}, []float64{1, 2, 3}, 1000, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

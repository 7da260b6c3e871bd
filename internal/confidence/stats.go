package confidence

import (
	"context"
	"math"
	"math/rand"
	"sort"
)

// pearson computes the sample correlation with (n-1) variance denominators.
// Zero variance in either sequence yields 0.
func pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0
	}
	meanX, meanY := mean(xs), mean(ys)
	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// averageRanks assigns 1-based ranks with ties receiving the average of the
// rank positions they span.
func averageRanks(vs []float64) []float64 {
	n := len(vs)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return vs[idx[a]] < vs[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && vs[idx[j+1]] == vs[idx[i]] {
			j++
		}
		avg := float64(i+j+2) / 2 // mean of 1-based positions i+1..j+1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// spearman is the Pearson correlation of the average ranks.
func spearman(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0
	}
	return pearson(averageRanks(xs), averageRanks(ys))
}

// signMatchAccuracy is the fraction of pairs whose signs agree, with a zero
// on either side counting as a match.
func signMatchAccuracy(predicted, actual []float64) float64 {
	if len(predicted) == 0 || len(predicted) != len(actual) {
		return 0
	}
	matches := 0
	for i := range predicted {
		if predicted[i] == 0 || actual[i] == 0 ||
			(predicted[i] > 0) == (actual[i] > 0) {
			matches++
		}
	}
	return float64(matches) / float64(len(predicted))
}

// calibrationBins is the number of equal-width confidence bins.
const calibrationBins = 10

// calibrationMinBinObs is the observation floor below which a bin is skipped.
const calibrationMinBinObs = 5

// calibrationScore measures how well stated confidence tracks realized
// accuracy: 1 minus the mean absolute gap between each populated bin's
// midpoint and its hit rate. Bins with too few observations are skipped; if
// no bin qualifies the score is 0.
func calibrationScore(confidence, predicted, actual []float64) float64 {
	type bin struct {
		hits, total int
	}
	bins := make([]bin, calibrationBins)
	for i := range confidence {
		b := int(confidence[i] * calibrationBins)
		if b >= calibrationBins {
			b = calibrationBins - 1
		}
		if b < 0 {
			b = 0
		}
		bins[b].total++
		if predicted[i] == 0 || actual[i] == 0 || (predicted[i] > 0) == (actual[i] > 0) {
			bins[b].hits++
		}
	}

	gapSum, used := 0.0, 0
	for b, v := range bins {
		if v.total < calibrationMinBinObs {
			continue
		}
		midpoint := (float64(b) + 0.5) / calibrationBins
		accuracy := float64(v.hits) / float64(v.total)
		gapSum += math.Abs(midpoint - accuracy)
		used++
	}
	if used == 0 {
		return 0
	}
	return 1 - gapSum/float64(used)
}

// tTestPValue is the two-sided p-value for the null r=0, using
// t = r·sqrt((n-2)/(1-r²)) against the Student-t distribution with n-2
// degrees of freedom.
func tTestPValue(r float64, n int) float64 {
	if n <= 2 {
		return 1
	}
	if r >= 1 || r <= -1 {
		return 0
	}
	t := r * math.Sqrt(float64(n-2)/(1-r*r))
	df := float64(n - 2)
	// Two-sided: P(|T| > t) = I_{df/(df+t²)}(df/2, 1/2).
	return regularizedIncompleteBeta(df/2, 0.5, df/(df+t*t))
}

// regularizedIncompleteBeta computes I_x(a,b) via the standard continued
// fraction expansion.
func regularizedIncompleteBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}
	lnBeta, _ := math.Lgamma(a + b)
	lnGa, _ := math.Lgamma(a)
	lnGb, _ := math.Lgamma(b)
	front := math.Exp(lnBeta - lnGa - lnGb + a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betaContinuedFraction(a, b, x) / a
	}
	return 1 - front*betaContinuedFraction(b, a, 1-x)/b
}

// betaContinuedFraction evaluates the incomplete beta continued fraction by
// the modified Lentz method.
func betaContinuedFraction(a, b, x float64) float64 {
	const (
		maxIter = 200
		eps     = 3e-14
		tiny    = 1e-30
	)
	qab := a + b
	qap := a + 1
	qam := a - 1
	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	h := d

	for m := 1; m <= maxIter; m++ {
		fm := float64(m)
		// Even step.
		aa := fm * (b - fm) * x / ((qam + 2*fm) * (a + 2*fm))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		h *= d * c
		// Odd step.
		aa = -(a + fm) * (qab + fm) * x / ((a + 2*fm) * (qap + 2*fm))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < eps {
			break
		}
	}
	return h
}

// bootstrapCI draws B resamples with replacement, computes the correlation of
// each, and returns the 2.5/97.5 percentile interval. Cancellation is
// observed between iterations.
func bootstrapCI(ctx context.Context, confidence, actual []float64, iters int, seed int64) (lo, hi float64, err error) {
	n := len(confidence)
	if n < 2 || iters <= 0 {
		return 0, 0, nil
	}

	rng := rand.New(rand.NewSource(seed))
	rs := make([]float64, 0, iters)
	xs := make([]float64, n)
	ys := make([]float64, n)

	for b := 0; b < iters; b++ {
		if e := ctx.Err(); e != nil {
			return 0, 0, e
		}
		for i := 0; i < n; i++ {
			j := rng.Intn(n)
			xs[i] = confidence[j]
			ys[i] = actual[j]
		}
		rs = append(rs, pearson(xs, ys))
	}

	sort.Float64s(rs)
	return percentile(rs, 0.025), percentile(rs, 0.975), nil
}

// percentile reads a quantile from a sorted slice with linear interpolation.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// stddev is the sample standard deviation.
func stddev(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	m := mean(vs)
	var ss float64
	for _, v := range vs {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vs)-1))
}

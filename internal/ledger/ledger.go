package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNoMatchingPrediction means no prediction exists for the pair.
	ErrNoMatchingPrediction = errors.New("no matching prediction")

	// ErrAlreadyFinalized means every matching prediction already carries
	// an outcome; outcomes are set exactly once.
	ErrAlreadyFinalized = errors.New("prediction already finalized")

	// ErrOutOfOrder means an append would violate the ledger's
	// prediction-time ordering.
	ErrOutOfOrder = errors.New("prediction time before ledger head")

	// ErrPruneDeferred means retention could not run because a compliance
	// assessment holds a snapshot.
	ErrPruneDeferred = errors.New("prune deferred: assessment in flight")
)

// Outcome is the realized result attached to a prediction exactly once.
type Outcome struct {
	ActualReturn float64   `json:"actual_return"`
	OutcomeTime  time.Time `json:"outcome_time"`
}

// PairPrediction is one strategy call on a long/short pair.
type PairPrediction struct {
	ID              string    `json:"id"`
	LongSymbol      string    `json:"long_symbol"`
	ShortSymbol     string    `json:"short_symbol"`
	PredictedReturn float64   `json:"predicted_return"`
	Confidence      float64   `json:"confidence"`
	PredictionTime  time.Time `json:"prediction_time"`
	Outcome         *Outcome  `json:"outcome,omitempty"`
}

// RankedPair is one element of a ranking prediction.
type RankedPair struct {
	Long  string `json:"long"`
	Short string `json:"short"`
}

// RankingPrediction is one full ranking emitted by the strategy, with a
// parallel confidence vector and, after finalization, parallel outcomes.
type RankingPrediction struct {
	ID               string       `json:"id"`
	RankedPairs      []RankedPair `json:"ranked_pairs"`
	ConfidenceScores []float64    `json:"confidence_scores"`
	RankingTime      time.Time    `json:"ranking_time"`
	Outcomes         []float64    `json:"outcomes,omitempty"`
}

// retentionAge is how old an entry must be before pruning may drop it.
const retentionAge = 365 * 24 * time.Hour

// Ledger is the append-only prediction log. Appends keep prediction times
// monotone non-decreasing with insertion order breaking ties; readers get
// copies, never aliases.
type Ledger struct {
	mu       sync.Mutex
	pairs    []PairPrediction
	rankings []RankingPrediction

	// inFlight counts outstanding assessment snapshots; pruning defers
	// while any exist.
	inFlight int
}

func New() *Ledger {
	return &Ledger{}
}

// RecordPairPrediction appends a prediction with no outcome. The entry gets
// an ID if it lacks one.
func (l *Ledger) RecordPairPrediction(p PairPrediction) error {
	if p.LongSymbol == "" || p.ShortSymbol == "" {
		return errors.New("pair prediction needs both symbols")
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("confidence %.4f outside [0,1]", p.Confidence)
	}
	if p.PredictionTime.IsZero() {
		return errors.New("pair prediction needs a prediction time")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if n := len(l.pairs); n > 0 && p.PredictionTime.Before(l.pairs[n-1].PredictionTime) {
		return fmt.Errorf("pair %s/%s at %s: %w", p.LongSymbol, p.ShortSymbol,
			p.PredictionTime.Format(time.RFC3339), ErrOutOfOrder)
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Outcome = nil
	l.pairs = append(l.pairs, p)
	return nil
}

// RecordRankingPrediction appends a ranking entry. Confidence scores must
// parallel the ranked pairs.
func (l *Ledger) RecordRankingPrediction(r RankingPrediction) error {
	if len(r.RankedPairs) == 0 {
		return errors.New("ranking prediction is empty")
	}
	if len(r.RankedPairs) != len(r.ConfidenceScores) {
		return fmt.Errorf("ranking has %d pairs but %d confidence scores",
			len(r.RankedPairs), len(r.ConfidenceScores))
	}
	if r.RankingTime.IsZero() {
		return errors.New("ranking prediction needs a ranking time")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if n := len(l.rankings); n > 0 && r.RankingTime.Before(l.rankings[n-1].RankingTime) {
		return fmt.Errorf("ranking at %s: %w", r.RankingTime.Format(time.RFC3339), ErrOutOfOrder)
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Outcomes = nil
	l.rankings = append(l.rankings, r)
	return nil
}

// SetPairOutcome finalizes the earliest un-outcomed prediction for the pair.
// When predictions for the pair exist but all carry outcomes, the caller gets
// ErrAlreadyFinalized; when none exist at all, ErrNoMatchingPrediction.
func (l *Ledger) SetPairOutcome(long, short string, actualReturn float64, outcomeTime time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	matched := false
	for i := range l.pairs {
		p := &l.pairs[i]
		if p.LongSymbol != long || p.ShortSymbol != short {
			continue
		}
		matched = true
		if p.Outcome != nil {
			continue
		}
		if outcomeTime.Before(p.PredictionTime) {
			return fmt.Errorf("pair %s/%s: outcome time %s precedes prediction time %s",
				long, short, outcomeTime.Format(time.RFC3339), p.PredictionTime.Format(time.RFC3339))
		}
		p.Outcome = &Outcome{ActualReturn: actualReturn, OutcomeTime: outcomeTime}
		return nil
	}

	if matched {
		return fmt.Errorf("pair %s/%s: %w", long, short, ErrAlreadyFinalized)
	}
	return fmt.Errorf("pair %s/%s: %w", long, short, ErrNoMatchingPrediction)
}

// SetRankingOutcomes finalizes the outcome vector of the ranking at index
// idx. The vector length must match the ranked pairs, and a ranking is
// finalized at most once.
func (l *Ledger) SetRankingOutcomes(idx int, actuals []float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if idx < 0 || idx >= len(l.rankings) {
		return fmt.Errorf("ranking index %d out of range [0,%d): %w", idx, len(l.rankings), ErrNoMatchingPrediction)
	}
	r := &l.rankings[idx]
	if r.Outcomes != nil {
		return fmt.Errorf("ranking %d: %w", idx, ErrAlreadyFinalized)
	}
	if len(actuals) != len(r.RankedPairs) {
		return fmt.Errorf("ranking %d has %d pairs but %d actuals", idx, len(r.RankedPairs), len(actuals))
	}
	r.Outcomes = append([]float64(nil), actuals...)
	return nil
}

// Recent returns copies of the pair predictions whose prediction time falls
// within the trailing window.
func (l *Ledger) Recent(windowDays int) []PairPrediction {
	return l.recentSince(cutoff(windowDays))
}

func (l *Ledger) recentSince(cut time.Time) []PairPrediction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyPairsSince(l.pairs, cut)
}

// RecentRankings returns copies of the ranking predictions within the
// trailing window.
func (l *Ledger) RecentRankings(windowDays int) []RankingPrediction {
	cut := cutoff(windowDays)

	l.mu.Lock()
	defer l.mu.Unlock()

	var out []RankingPrediction
	for i := range l.rankings {
		if l.rankings[i].RankingTime.Before(cut) {
			continue
		}
		out = append(out, copyRanking(l.rankings[i]))
	}
	return out
}

// Snapshot pins a copy of the recent window for a compliance assessment and
// blocks pruning until released. Release is idempotent.
func (l *Ledger) Snapshot(windowDays int) ([]PairPrediction, func()) {
	cut := cutoff(windowDays)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.inFlight++
	released := false
	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if !released {
			released = true
			l.inFlight--
		}
	}
	return copyPairsSince(l.pairs, cut), release
}

// Prune drops entries older than the retention age. It defers entirely while
// any assessment snapshot is outstanding.
func (l *Ledger) Prune(now time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.inFlight > 0 {
		return 0, ErrPruneDeferred
	}

	cut := now.Add(-retentionAge)
	dropped := 0

	kept := l.pairs[:0]
	for i := range l.pairs {
		if l.pairs[i].PredictionTime.Before(cut) {
			dropped++
			continue
		}
		kept = append(kept, l.pairs[i])
	}
	l.pairs = kept

	keptRankings := l.rankings[:0]
	for i := range l.rankings {
		if l.rankings[i].RankingTime.Before(cut) {
			dropped++
			continue
		}
		keptRankings = append(keptRankings, l.rankings[i])
	}
	l.rankings = keptRankings

	if dropped > 0 {
		log.Info().Int("dropped", dropped).Time("cutoff", cut).Msg("ledger pruned")
	}
	return dropped, nil
}

// Size reports the number of pair predictions held.
func (l *Ledger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pairs)
}

func cutoff(windowDays int) time.Time {
	if windowDays <= 0 {
		return time.Time{} // "all"
	}
	return time.Now().UTC().AddDate(0, 0, -windowDays)
}

func copyPairsSince(pairs []PairPrediction, cut time.Time) []PairPrediction {
	var out []PairPrediction
	for i := range pairs {
		if pairs[i].PredictionTime.Before(cut) {
			continue
		}
		p := pairs[i]
		if p.Outcome != nil {
			o := *p.Outcome
			p.Outcome = &o
		}
		out = append(out, p)
	}
	return out
}

func copyRanking(r RankingPrediction) RankingPrediction {
	out := r
	out.RankedPairs = append([]RankedPair(nil), r.RankedPairs...)
	out.ConfidenceScores = append([]float64(nil), r.ConfidenceScores...)
	if r.Outcomes != nil {
		out.Outcomes = append([]float64(nil), r.Outcomes...)
	}
	return out
}

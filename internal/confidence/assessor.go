package confidence

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Assessor produces verdicts off the hot path. Callers that must never block
// on the bootstrap, such as the periodic monitor, read the latest precomputed
// snapshot instead of assessing inline.
type Assessor struct {
	validator *Validator
	window    Window

	mu      sync.RWMutex
	latest  *Verdict
	lastErr error
}

func NewAssessor(v *Validator, window Window) *Assessor {
	return &Assessor{validator: v, window: window}
}

// Refresh runs a full assessment and stores the result.
func (a *Assessor) Refresh(ctx context.Context) error {
	verdict, err := a.validator.Assess(ctx, a.window)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastErr = err
	if err != nil {
		return err
	}
	a.latest = verdict
	return nil
}

// Latest returns the most recent verdict, or ErrNoVerdict before the first
// successful refresh.
func (a *Assessor) Latest() (*Verdict, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.latest == nil {
		if a.lastErr != nil {
			return nil, a.lastErr
		}
		return nil, ErrNoVerdict
	}
	copied := *a.latest
	copied.Issues = append([]string(nil), a.latest.Issues...)
	return &copied, nil
}

// Run refreshes on the interval until the context ends. An immediate refresh
// happens on entry so early readers see a verdict as soon as one exists.
func (a *Assessor) Run(ctx context.Context, interval time.Duration) {
	if err := a.Refresh(ctx); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Msg("initial compliance refresh failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Refresh(ctx); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("compliance refresh failed")
			}
		}
	}
}

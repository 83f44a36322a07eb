package bridge

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/nerrad567/fibaro-bridge/internal/fibaro"
)

// ChangeApplier processes a batch of change records. PollLoop waits for it
// to return before issuing the next fetch.
type ChangeApplier func(ctx context.Context, changes []fibaro.Change) error

// PollLoopConfig holds the dependencies of a PollLoop.
type PollLoopConfig struct {
	Hub   Hub
	Apply ChangeApplier

	// MaxRate caps fetches per second. 0 disables pacing.
	MaxRate float64

	// FailureDelay is waited after a failed fetch. Zero retries at once.
	FailureDelay time.Duration

	Metrics *Metrics
	Logger  Logger
}

// PollLoop drives incremental synchronisation through refreshStates.
//
// Exactly one fetch is in flight at any time. The cursor only moves
// forward to the "last" value of the most recent successful response, and
// changes are fully applied before the next fetch starts.
type PollLoop struct {
	hub          Hub
	apply        ChangeApplier
	limiter      *rate.Limiter
	failureDelay time.Duration
	metrics      *Metrics
	logger       Logger

	cursor     atomic.Value // fibaro.Cursor
	lastFailed atomic.Bool
	polls      atomic.Uint64
}

// NewPollLoop returns a PollLoop starting from fibaro.InitialCursor.
func NewPollLoop(cfg PollLoopConfig) *PollLoop {
	p := &PollLoop{
		hub:          cfg.Hub,
		apply:        cfg.Apply,
		failureDelay: cfg.FailureDelay,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}
	if p.logger == nil {
		p.logger = nopLogger{}
	}
	if cfg.MaxRate > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.MaxRate), 1)
	}
	p.cursor.Store(fibaro.InitialCursor)
	return p
}

// Run polls until ctx is cancelled.
func (p *PollLoop) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return
			}
		}

		err := p.pollOnce(ctx)
		if ctx.Err() != nil {
			return
		}

		p.lastFailed.Store(err != nil)
		p.metrics.pollResult(err == nil)
		if err == nil {
			continue
		}

		p.logger.Warn("hub poll failed", "cursor", p.Cursor().String(), "error", err)
		if p.failureDelay <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.failureDelay):
		}
	}
}

// pollOnce performs one fetch and applies its changes.
func (p *PollLoop) pollOnce(ctx context.Context) error {
	p.polls.Add(1)

	resp, err := p.hub.RefreshStates(ctx, p.Cursor())
	if err != nil {
		return err
	}
	if resp.Last == nil {
		return ErrMissingCursor
	}

	p.cursor.Store(*resp.Last)

	if len(resp.Changes) == 0 {
		return nil
	}
	if err := p.apply(ctx, resp.Changes); err != nil {
		return fmt.Errorf("applying changes: %w", err)
	}
	return nil
}

// Cursor returns the cursor the next fetch will send.
func (p *PollLoop) Cursor() fibaro.Cursor {
	return p.cursor.Load().(fibaro.Cursor)
}

// LastPollFailed reports whether the most recent fetch failed.
func (p *PollLoop) LastPollFailed() bool {
	return p.lastFailed.Load()
}

// Polls returns how many fetches have been started.
func (p *PollLoop) Polls() uint64 {
	return p.polls.Load()
}

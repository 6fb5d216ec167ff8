// SPDX-License-Identifier: MIT

package player

import (
	"context"
	"sync"
	"time"
)

// backoffSuccessThreshold is how long a respawned mpv process must stay up
// before superviseRestarts treats the respawn as a real recovery and resets
// the delay back to its initial value, rather than as another failure.
const backoffSuccessThreshold = 300 * time.Second

// Backoff is the exponential delay superviseRestarts waits between mpv
// restart attempts: it doubles on every failure up to maxDelay, and resets
// to initialDelay once a restarted process outlives backoffSuccessThreshold.
type Backoff struct {
	mu           sync.Mutex
	initialDelay time.Duration
	maxDelay     time.Duration
	currentDelay time.Duration
}

// NewBackoff returns a Backoff starting at initialDelay, doubling on every
// RecordFailure up to maxDelay.
func NewBackoff(initialDelay, maxDelay time.Duration) *Backoff {
	return &Backoff{
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		currentDelay: initialDelay,
	}
}

// RecordFailure doubles the current delay, capped at maxDelay. No-op if b
// is nil, so callers that never construct a Backoff still wait zero time.
func (b *Backoff) RecordFailure() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.currentDelay *= 2
	if b.currentDelay > b.maxDelay {
		b.currentDelay = b.maxDelay
	}
}

// RecordSuccess resets the delay to initialDelay if runTime exceeded
// backoffSuccessThreshold, otherwise treats the run as another failure and
// doubles the delay same as RecordFailure. No-op if b is nil.
func (b *Backoff) RecordSuccess(runTime time.Duration) {
	if b == nil {
		return
	}
	if runTime > backoffSuccessThreshold {
		b.mu.Lock()
		b.currentDelay = b.initialDelay
		b.mu.Unlock()
		return
	}
	b.RecordFailure()
}

func (b *Backoff) currentDelayOrZero() time.Duration {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentDelay
}

// WaitContext blocks for the current delay, or returns ctx.Err() early if
// ctx is cancelled first. Returns nil immediately if b is nil.
func (b *Backoff) WaitContext(ctx context.Context) error {
	select {
	case <-time.After(b.currentDelayOrZero()):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

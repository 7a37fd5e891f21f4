package core

// batch_guard.go keeps batches from overlapping.
//
// The pending and archive tables have no locking of their own: two batches
// running at once would both load the same rows, send them twice and then
// race on the final writes. The guard is a one-slot semaphore. A trigger that
// arrives while a batch is running waits up to maxWait for it to finish and
// then gives up with ErrBatchInProgress.
//
// WaitForDrain lets shutdown block until the running batch completes.

import (
	"context"
	"sync"
	"time"
)

// DefaultBatchLockWait is how long a trigger waits for a running batch.
const DefaultBatchLockWait = 5 * time.Second

// BatchGuard serialises batch runs.
type BatchGuard struct {
	slot    chan struct{}
	maxWait time.Duration

	mu      sync.RWMutex
	running bool
	since   time.Time
}

// NewBatchGuard creates a guard. A non-positive maxWait uses DefaultBatchLockWait.
func NewBatchGuard(maxWait time.Duration) *BatchGuard {
	if maxWait <= 0 {
		maxWait = DefaultBatchLockWait
	}
	return &BatchGuard{
		slot:    make(chan struct{}, 1),
		maxWait: maxWait,
	}
}

// Acquire takes the slot, waiting at most maxWait.
// Returns ErrBatchInProgress on timeout, or ctx.Err() if ctx ends first.
// The caller MUST call Release when the batch completes (use defer).
func (g *BatchGuard) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()

	select {
	case g.slot <- struct{}{}:
		g.markRunning(true)
		return nil

	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrBatchInProgress
	}
}

// Release frees the slot. Must be called exactly once per successful acquire.
func (g *BatchGuard) Release() {
	g.markRunning(false)
	<-g.slot
}

func (g *BatchGuard) markRunning(running bool) {
	g.mu.Lock()
	g.running = running
	if running {
		g.since = time.Now()
	} else {
		g.since = time.Time{}
	}
	g.mu.Unlock()
}

// Running reports whether a batch currently holds the guard.
func (g *BatchGuard) Running() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.running
}

// WaitForDrain blocks until no batch is running or ctx is done.
func (g *BatchGuard) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !g.Running() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// BatchGuardStatus is a snapshot of the guard for health output.
type BatchGuardStatus struct {
	Running bool      `json:"running"`
	Since   time.Time `json:"since,omitempty"`
}

// Status returns the current guard state.
func (g *BatchGuard) Status() BatchGuardStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return BatchGuardStatus{Running: g.running, Since: g.since}
}

// Package once provides a write-once lazy cell that is safe for concurrent use.
//
// A Cell is filled at most once. Concurrent callers of [Cell.GetOrInit] are
// serialized so only one of them runs the init function at a time; a failed
// init leaves the cell empty so a later caller can retry.
package once

import (
	"context"
	"sync/atomic"
	"time"
)

// deadlockCheckInterval is how often a waiting caller re-runs its deadlock check.
const deadlockCheckInterval = 5 * time.Millisecond

// Cell holds a value of type T that is initialized at most once.
//
// H is the type of the record describing the caller currently running init.
// Waiters can inspect it with [Cell.Holder] to detect wait cycles.
type Cell[T, H any] struct {
	ready  atomic.Bool
	sem    chan struct{}
	holder atomic.Pointer[H]
	val    T
}

// New returns an empty Cell.
func New[T, H any]() *Cell[T, H] {
	return &Cell[T, H]{
		sem: make(chan struct{}, 1),
	}
}

// Get returns the stored value and true if the cell has been initialized.
func (c *Cell[T, H]) Get() (T, bool) {
	if c.ready.Load() {
		return c.val, true
	}

	var zero T
	return zero, false
}

// Holder returns the record of the caller currently running init, or nil.
func (c *Cell[T, H]) Holder() *H {
	return c.holder.Load()
}

// GetOrInit returns the stored value, calling init to produce it if the cell is empty.
//
// Only one caller runs init at a time. Others wait until it finishes and then
// return the stored value, or take their turn at init if it failed.
// Waiting stops when ctx is done or when deadlock returns an error for the
// current holder. deadlock may be nil and must accept a nil holder.
//
// If init returns an error or panics the cell stays empty.
func (c *Cell[T, H]) GetOrInit(
	ctx context.Context,
	holder *H,
	deadlock func(*H) error,
	init func() (T, error),
) (T, error) {
	if val, ok := c.Get(); ok {
		return val, nil
	}

	var zero T
	if err := c.acquire(ctx, deadlock); err != nil {
		return zero, err
	}

	if c.ready.Load() {
		// Filled while we were waiting
		<-c.sem
		return c.val, nil
	}

	c.holder.Store(holder)
	defer func() {
		c.holder.Store(nil)
		<-c.sem
	}()

	val, err := init()
	if err != nil {
		return zero, err
	}

	c.val = val
	c.ready.Store(true)

	return val, nil
}

func (c *Cell[T, H]) acquire(ctx context.Context, deadlock func(*H) error) error {
	select {
	case c.sem <- struct{}{}:
		return nil
	default:
	}

	if err := c.check(deadlock); err != nil {
		return err
	}

	ticker := time.NewTicker(deadlockCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case c.sem <- struct{}{}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.check(deadlock); err != nil {
				return err
			}
		}
	}
}

func (c *Cell[T, H]) check(deadlock func(*H) error) error {
	if deadlock == nil {
		return nil
	}
	return deadlock(c.holder.Load())
}

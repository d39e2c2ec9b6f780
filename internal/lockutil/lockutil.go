// Package lockutil wraps gofrs/flock with the bounded-wait-then-fail
// semantics both the state store and the executor's single-retry batches
// need: try to acquire an advisory file lock for a bounded duration, run a
// function while holding it, and release deterministically (§5 "Locking
// and process discipline").
package lockutil

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gofrs/flock"
)

// ErrLocked is returned when the lock could not be acquired within the
// bounded wait.
var ErrLocked = errors.New("resource is locked by another process")

// pollInterval is how often flock re-checks the lock while waiting.
const pollInterval = 50 * time.Millisecond

// WithLock acquires an advisory lock on lockPath, bounded by timeout, runs
// fn while holding it, and releases it on return.
func WithLock(lockPath string, timeout time.Duration, fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fl := flock.New(lockPath)
	locked, err := fl.TryLockContext(ctx, pollInterval)
	if err != nil {
		return err
	}
	if !locked {
		return ErrLocked
	}
	defer func() { _ = fl.Unlock() }()

	return fn()
}

// RetryWithBackoff runs op once, and on failure retries it once more after
// an exponential backoff delay, used by the executor's per-batch install
// and remove operations (§4.7).
func RetryWithBackoff(ctx context.Context, op func() error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, op()
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(2))
	return err
}

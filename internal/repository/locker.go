package repository

import (
	"context"
	"time"

	"go-file-manager/internal/model"
)

// timedLock is a mutex with a bounded acquisition wait. A caller that
// cannot take the lock within the timeout gets model.ErrLockTimeout and the
// store stays untouched; the surrounding file operation is never aborted on
// its behalf.
type timedLock struct {
	ch      chan struct{}
	timeout time.Duration
}

func newTimedLock(timeout time.Duration) *timedLock {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	l := &timedLock{ch: make(chan struct{}, 1), timeout: timeout}
	l.ch <- struct{}{}
	return l
}

func (l *timedLock) acquire(ctx context.Context) error {
	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case <-l.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return model.ErrLockTimeout
	}
}

func (l *timedLock) release() {
	select {
	case l.ch <- struct{}{}:
	default:
	}
}

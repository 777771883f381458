// Package lock serializes work on a single resource across goroutines or,
// with Redis, across service instances.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotObtained is returned when the lock could not be acquired before the wait timeout.
var ErrNotObtained = errors.New("lock not obtained")

// Locker acquires exclusive locks by key
type Locker interface {
	Obtain(ctx context.Context, key string) (Lock, error)
}

// Lock is a held lock
type Lock interface {
	Release(ctx context.Context) error
}

// LocalLocker is an in-process keyed mutex. Entries are dropped once no
// goroutine holds or waits for them.
type LocalLocker struct {
	mu   sync.Mutex
	keys map[string]*localEntry
	wait time.Duration
}

type localEntry struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates a LocalLocker that waits at most wait for a key.
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{keys: make(map[string]*localEntry), wait: wait}
}

func (l *LocalLocker) Obtain(ctx context.Context, key string) (Lock, error) {
	l.mu.Lock()
	e, ok := l.keys[key]
	if !ok {
		e = &localEntry{ch: make(chan struct{}, 1)}
		l.keys[key] = e
	}
	e.refs++
	l.mu.Unlock()

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	select {
	case e.ch <- struct{}{}:
		return &localLock{locker: l, key: key, entry: e}, nil
	case <-ctx.Done():
		l.unref(key, e)
		return nil, ErrNotObtained
	}
}

func (l *LocalLocker) unref(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.keys, key)
	}
}

type localLock struct {
	once   sync.Once
	locker *LocalLocker
	key    string
	entry  *localEntry
}

func (l *localLock) Release(context.Context) error {
	l.once.Do(func() {
		<-l.entry.ch
		l.locker.unref(l.key, l.entry)
	})
	return nil
}

package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker serializes writers inside one process. Each scope gets a one
// slot channel; entries are dropped once nobody holds or waits for them.
type LocalLocker struct {
	timeout time.Duration

	mu     sync.Mutex
	scopes map[string]*scopeSlot
}

type scopeSlot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates a locker. A zero timeout waits until ctx is done.
func NewLocalLocker(timeout time.Duration) *LocalLocker {
	return &LocalLocker{
		timeout: timeout,
		scopes:  make(map[string]*scopeSlot),
	}
}

func (l *LocalLocker) Lock(ctx context.Context, scopeID string) (Unlock, error) {
	slot := l.acquireSlot(scopeID)

	var timeoutC <-chan time.Time
	if l.timeout > 0 {
		timer := time.NewTimer(l.timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.releaseSlot(scopeID)
		return nil, ctx.Err()
	case <-timeoutC:
		l.releaseSlot(scopeID)
		return nil, ErrTimeout
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.releaseSlot(scopeID)
		})
	}, nil
}

func (l *LocalLocker) acquireSlot(scopeID string) *scopeSlot {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.scopes[scopeID]
	if !ok {
		slot = &scopeSlot{ch: make(chan struct{}, 1)}
		l.scopes[scopeID] = slot
	}
	slot.refs++
	return slot
}

func (l *LocalLocker) releaseSlot(scopeID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.scopes[scopeID]
	if !ok {
		return
	}
	slot.refs--
	if slot.refs == 0 {
		delete(l.scopes, scopeID)
	}
}

// size reports how many scopes currently have holders or waiters
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.scopes)
}

package cache

import (
	"context"
	"sync"

	"github.com/tradeflow/backend/internal/application/workflow"
)

// KeyedMutexLocker serialises holders of the same key within one process.
// Waiting respects ctx cancellation.
type KeyedMutexLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	sem  chan struct{}
	refs int
}

// NewKeyedMutexLocker creates an in-process locker
func NewKeyedMutexLocker() *KeyedMutexLocker {
	return &KeyedMutexLocker{slots: make(map[string]*slot)}
}

// Lock blocks until key is held or ctx is done
func (l *KeyedMutexLocker) Lock(ctx context.Context, key string) (func(), error) {
	s := l.acquireSlot(key)

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		l.releaseSlot(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.sem
			l.releaseSlot(key, s)
		})
	}, nil
}

func (l *KeyedMutexLocker) acquireSlot(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *KeyedMutexLocker) releaseSlot(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// Held returns the number of keys currently held or awaited
func (l *KeyedMutexLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

// Ensure KeyedMutexLocker implements Locker
var _ workflow.Locker = (*KeyedMutexLocker)(nil)

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tradeflow/backend/internal/domain/shared"
)

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)

const sweepInterval = 5 * time.Minute

type idemRecord struct {
	body     []byte // nil while reserved
	done     bool
	deadline time.Time
}

func (r idemRecord) live(now time.Time) bool {
	return now.Before(r.deadline)
}

// InMemoryIdempotencyStore keeps idempotency records in process. Replays
// only work against the same instance; multi-replica deployments use the
// redis store.
type InMemoryIdempotencyStore struct {
	mu      sync.Mutex
	records map[string]idemRecord
	now     func() time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewInMemoryIdempotencyStore starts a sweeper that drops expired records
// until Close
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		records: make(map[string]idemRecord),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.sweepEvery(sweepInterval)
	return s
}

func (s *InMemoryIdempotencyStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if r, ok := s.records[key]; ok && r.live(now) {
		return false, nil
	}
	s.records[key] = idemRecord{deadline: now.Add(ttl)}
	return true, nil
}

func (s *InMemoryIdempotencyStore) Complete(_ context.Context, key string, response []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = idemRecord{
		body:     append([]byte(nil), response...),
		done:     true,
		deadline: s.now().Add(ttl),
	}
	return nil
}

func (s *InMemoryIdempotencyStore) Lookup(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[key]
	if !ok || !r.done || !r.live(s.now()) {
		return nil, false, nil
	}
	return append([]byte(nil), r.body...), true, nil
}

// Release forgets a reservation. Completed records stay.
func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.records[key]; ok && !r.done {
		delete(s.records, key)
	}
	return nil
}

// Close stops the sweeper. Further calls are no-ops.
func (s *InMemoryIdempotencyStore) Close() error {
	s.once.Do(func() {
		close(s.stop)
		<-s.done
	})
	return nil
}

// Len counts records, expired ones included until the next sweep
func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *InMemoryIdempotencyStore) sweepEvery(every time.Duration) {
	defer close(s.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, r := range s.records {
		if !r.live(now) {
			delete(s.records, k)
		}
	}
}

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore returns a store whose clock moves only through advance
func newTestStore(t *testing.T) (*InMemoryIdempotencyStore, func(time.Duration)) {
	t.Helper()
	s := NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = s.Close() })

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	return s, func(d time.Duration) {
		s.mu.Lock()
		clock = clock.Add(d)
		s.mu.Unlock()
	}
}

func TestInMemoryIdempotencyStore_Reserve(t *testing.T) {
	s, advance := newTestStore(t)
	ctx := t.Context()

	ok, err := s.Reserve(ctx, "TRD-1:compliance", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Reserve(ctx, "TRD-1:compliance", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held reservation")

	advance(time.Minute)
	ok, err = s.Reserve(ctx, "TRD-1:compliance", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired reservation is free again")
}

func TestInMemoryIdempotencyStore_Replay(t *testing.T) {
	s, advance := newTestStore(t)
	ctx := t.Context()

	_, err := s.Reserve(ctx, "k", time.Hour)
	require.NoError(t, err)

	_, found, err := s.Lookup(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found, "reserved but not completed")

	body := []byte(`{"status":201}`)
	require.NoError(t, s.Complete(ctx, "k", body, time.Hour))
	body[0] = 'x'

	got, found, err := s.Lookup(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"status":201}`, string(got), "stored a copy")

	ok, err := s.Reserve(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	advance(2 * time.Hour)
	_, found, err = s.Lookup(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := t.Context()

	_, err := s.Reserve(ctx, "pending", time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.Release(ctx, "pending"))
	ok, err := s.Reserve(ctx, "pending", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Complete(ctx, "done", []byte("x"), time.Hour))
	require.NoError(t, s.Release(ctx, "done"))
	_, found, err := s.Lookup(ctx, "done")
	require.NoError(t, err)
	assert.True(t, found, "release keeps completed records")
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	s, advance := newTestStore(t)
	ctx := t.Context()

	_, _ = s.Reserve(ctx, "short", time.Second)
	_, _ = s.Reserve(ctx, "long", time.Hour)
	advance(time.Minute)

	s.sweep()
	assert.Equal(t, 1, s.Len())

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

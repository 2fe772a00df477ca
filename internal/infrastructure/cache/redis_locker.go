package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tradeflow/backend/internal/application/workflow"
	"go.uber.org/zap"
)

const defaultLockPrefix = "tradeflow:lock:"

// unlockScript deletes the lock only when it is still owned by the caller
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the expiry forward only while the caller still owns the lock
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker is a SET NX PX lock shared by every instance using the same
// Redis. The TTL bounds how long a crashed holder can block a trade; a live
// holder renews the lease every ttl/3 until it releases.
type RedisLocker struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	retry     time.Duration
	logger    *zap.Logger
}

// RedisLockerOption configures a RedisLocker
type RedisLockerOption func(*RedisLocker)

// WithLockPrefix overrides the key prefix
func WithLockPrefix(prefix string) RedisLockerOption {
	return func(l *RedisLocker) {
		l.keyPrefix = prefix
	}
}

// WithLockLogger sets the logger used for release failures
func WithLockLogger(logger *zap.Logger) RedisLockerOption {
	return func(l *RedisLocker) {
		l.logger = logger
	}
}

// NewRedisLocker creates a distributed locker
func NewRedisLocker(client redis.UniversalClient, ttl, retry time.Duration, opts ...RedisLockerOption) *RedisLocker {
	l := &RedisLocker{
		client:    client,
		keyPrefix: defaultLockPrefix,
		ttl:       ttl,
		retry:     retry,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock polls SET NX until the key is acquired or ctx is done
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.keyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	interval := max(l.ttl/3, time.Millisecond)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		renewLease(stop, interval, func() (bool, error) {
			renewCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), interval)
			defer cancel()
			n, err := extendScript.Run(renewCtx, l.client, []string{redisKey}, token, l.ttl.Milliseconds()).Int64()
			if err != nil {
				l.logger.Warn("failed to renew lock", zap.String("key", key), zap.Error(err))
			}
			return n == 1, err
		}, func(err error) {
			l.logger.Error("lock lease lost", zap.String("key", key), zap.Error(err))
		})
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// The caller's ctx may already be cancelled; release regardless.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := unlockScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
				l.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
			}
		})
	}, nil
}

// errLeaseLost reports that another holder took the key after our lease expired
var errLeaseLost = errors.New("lock token no longer matches")

// renewLease calls extend every interval until stop is closed. Transient
// errors are retried on the next tick; a lost lease ends the loop.
func renewLease(stop <-chan struct{}, interval time.Duration, extend func() (bool, error), lost func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ok, err := extend()
		if err != nil {
			continue
		}
		if !ok {
			lost(errLeaseLost)
			return
		}
	}
}

// Ensure RedisLocker implements Locker
var _ workflow.Locker = (*RedisLocker)(nil)

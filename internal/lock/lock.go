// Package lock serializes work on a key across requests.
package lock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

type Locker interface {
	// Lock blocks until key is held or ctx is done. The returned func
	// releases it.
	Lock(ctx context.Context, key string) (unlock func() error, err error)
}

// PairKey builds a key for an unordered pair of ids.
func PairKey(prefix, a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return prefix + ":" + strings.Join(ids, ":")
}

type RedisLocker struct {
	rs *redsync.Redsync
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{rs: redsync.New(goredis.NewPool(client))}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func() error, error) {
	mutex := l.rs.NewMutex(key, redsync.WithExpiry(10*time.Second), redsync.WithTries(20))
	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", key, err)
	}
	return func() error {
		// a background context so an expired request still releases the lock
		if _, err := mutex.UnlockContext(context.Background()); err != nil {
			return fmt.Errorf("failed to unlock %s: %w", key, err)
		}
		return nil
	}, nil
}

// LocalLocker is an in-process keyed mutex for single instance deployments
// and tests.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: map[string]*entry{}}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func() error, error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, fmt.Errorf("failed to lock %s: %w", key, ctx.Err())
	}

	var once sync.Once
	return func() error {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
		return nil
	}, nil
}

func (l *LocalLocker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

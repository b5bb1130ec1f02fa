package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockTimeout is returned when a lock could not be taken before the
// context or the wait budget ran out.
var ErrLockTimeout = errors.New("timed out waiting for lock")

const (
	storeLockPrefix   = "lock:store:"
	lockRetryInterval = 25 * time.Millisecond
	defaultLockWait   = 3 * time.Second
)

// releaseScript deletes the key only if it still holds our token, so an
// expired lock re-taken by another writer is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewLockStore creates a new LockStore. ttl bounds how long a crashed
// holder can block others.
func NewLockStore(client *redis.Client, ttl time.Duration) *LockStore {
	return &LockStore{client: client, ttl: ttl, wait: defaultLockWait}
}

// AcquireLock attempts to take the named lock once.
// Returns the holder token when acquired, or "" if already held.
func (s *LockStore) AcquireLock(ctx context.Context, name string) (string, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, storeLockPrefix+name, token, s.ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// ReleaseLock releases the named lock if token still owns it.
func (s *LockStore) ReleaseLock(ctx context.Context, name, token string) error {
	return releaseScript.Run(ctx, s.client, []string{storeLockPrefix + name}, token).Err()
}

// Lock blocks until the named lock is held, polling SETNX. It satisfies the
// csv store's Locker so table rewrites are serialized across instances.
func (s *LockStore) Lock(ctx context.Context, name string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, s.wait)
	defer cancel()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		token, err := s.AcquireLock(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", name, err)
		}
		if token != "" {
			return func() {
				// Release on a fresh context: the caller's may already be done.
				rctx, rcancel := context.WithTimeout(context.Background(), time.Second)
				defer rcancel()
				_ = s.ReleaseLock(rctx, name, token)
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", name, ErrLockTimeout)
		case <-ticker.C:
		}
	}
}

package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("date lock not acquired")
)

// Locker guards the reservation critical section for one calendar day.
// It is contention relief between uncoordinated processes; the database
// transaction remains the correctness boundary.
type Locker interface {
	WithDayLock(ctx context.Context, day time.Time, fn func(ctx context.Context) error) error
}

type redisDayLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDayLocker creates a locker that uses a per day Redis key.
func NewRedisDayLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisDayLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisDayLocker) WithDayLock(ctx context.Context, day time.Time, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:day:%s", day.Format("2006-01-02"))
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire date lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisDayLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release date lock: %w", err)
	}
	return nil
}

// NoopLocker runs the critical section without any cross-process lock.
// Used when no Redis address is configured.
type NoopLocker struct{}

func (NoopLocker) WithDayLock(ctx context.Context, _ time.Time, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

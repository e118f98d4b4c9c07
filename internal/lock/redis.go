package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only if it still holds our token, so a lock
// that expired and was taken by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every process using the same Redis.
// A held lock expires after ttl so a crashed holder cannot wedge a project.
type RedisLocker struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	retry  time.Duration
	prefix string
	logger *zap.Logger
}

type RedisOption func(*RedisLocker)

// WithRetryInterval sets how often a blocked Lock polls Redis.
func WithRetryInterval(d time.Duration) RedisOption {
	return func(l *RedisLocker) { l.retry = d }
}

func WithKeyPrefix(prefix string) RedisOption {
	return func(l *RedisLocker) { l.prefix = prefix }
}

func WithLogger(logger *zap.Logger) RedisOption {
	return func(l *RedisLocker) { l.logger = logger }
}

func NewRedisLocker(rdb redis.Cmdable, ttl time.Duration, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		rdb:    rdb,
		ttl:    ttl,
		retry:  25 * time.Millisecond,
		prefix: "tranche:lock:",
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	full := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.rdb.SetNX(ctx, full, token, l.ttl).Result()
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("acquiring lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release must run even if the caller's context is already done.
			rctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := releaseScript.Run(rctx, l.rdb, []string{full}, token).Err(); err != nil {
				l.logger.Warn("releasing redis lock", zap.String("key", full), zap.Error(err))
			}
		})
	}, nil
}

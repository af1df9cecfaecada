package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLocked = errors.New("lock is held by another instance")

const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// RedisLocker serializes work on one key across all instances sharing the redis.
// The lock expires after ttl in case its holder dies.
type RedisLocker struct {
	rdb redis.Cmdable
	ttl time.Duration

	newToken func() string
}

func NewRedisLocker(rdb redis.Cmdable, ttl time.Duration) *RedisLocker {
	if rdb == nil {
		panic("missing redis client")
	}
	if ttl <= 0 {
		panic("lock ttl must be positive")
	}

	return &RedisLocker{
		rdb: rdb,
		ttl: ttl,
		newToken: func() string {
			return uuid.NewString()
		},
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	key = "lock:" + key
	token := l.newToken()

	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("could not acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return func() {
		// the caller's context may be done already
		err := l.rdb.Eval(context.Background(), unlockScript, []string{key}, token).Err()
		if err != nil {
			log.FromContext(ctx).WithError(err).WithField("key", key).Error("Could not release lock")
		}
	}, nil
}

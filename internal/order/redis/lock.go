package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Redis holds short-lived per-order locks so two admins (or two instances)
// cannot process the same order at once. The database guards stay
// authoritative; the lock only turns a race into a fast Conflict.
type Redis struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{Client: client, TTL: ttl}
}

func lockKey(orderID int64) string {
	return fmt.Sprintf("order_lock:%d", orderID)
}

// LockOrder returns a token when the lock was acquired and "" when another
// holder has it.
func (r *Redis) LockOrder(ctx context.Context, orderID int64) (string, error) {
	token := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, lockKey(orderID), token, r.TTL).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// UnlockOrder releases the lock only if token still owns it.
func (r *Redis) UnlockOrder(ctx context.Context, orderID int64, token string) error {
	key := lockKey(orderID)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if val == token {
		return r.Client.Del(ctx, key).Err()
	}
	return nil
}

// NoopLock is used when Redis is not configured.
type NoopLock struct{}

func (NoopLock) LockOrder(ctx context.Context, orderID int64) (string, error) {
	return "noop", nil
}

func (NoopLock) UnlockOrder(ctx context.Context, orderID int64, token string) error {
	return nil
}

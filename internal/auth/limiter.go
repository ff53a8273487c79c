package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"etickets/internal/config"
	"etickets/internal/logger"
)

const loginAttemptsPrefix = "login_attempts:"

type LoginLimiter interface {
	// Allow counts an attempt for key and reports whether it is within budget.
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// RedisLoginLimiter is a fixed-window counter: INCR, and EXPIRE on the first
// hit of each window.
type RedisLoginLimiter struct {
	Client      *redis.Client
	MaxAttempts int
	Window      time.Duration
}

func NewRedisLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration) *RedisLoginLimiter {
	return &RedisLoginLimiter{Client: client, MaxAttempts: maxAttempts, Window: window}
}

func limiterKey(key string) string {
	return loginAttemptsPrefix + strings.ToLower(strings.TrimSpace(key))
}

func (l *RedisLoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := limiterKey(key)
	count, err := l.Client.Incr(ctx, k).Result()
	if err != nil {
		return true, fmt.Errorf("count login attempt: %w", err)
	}
	if count == 1 {
		if err := l.Client.Expire(ctx, k, l.Window).Err(); err != nil {
			return true, fmt.Errorf("set login window: %w", err)
		}
	}
	return count <= int64(l.MaxAttempts), nil
}

func (l *RedisLoginLimiter) Reset(ctx context.Context, key string) error {
	return l.Client.Del(ctx, limiterKey(key)).Err()
}

// NoopLimiter allows every attempt. Used when Redis is disabled.
type NoopLimiter struct{}

func (NoopLimiter) Allow(ctx context.Context, key string) (bool, error) { return true, nil }
func (NoopLimiter) Reset(ctx context.Context, key string) error         { return nil }

// ConnectRedis opens and pings a client. It returns nil, nil when no address
// is configured.
func ConnectRedis(cfg config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	if cfg.Addr == "" {
		log.Warn("REDIS", "REDIS_ADDR not set, approval lock and login limiter are disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	log.Info("REDIS", fmt.Sprintf("Connected to Redis at %s (DB: %d)", cfg.Addr, cfg.DB))
	return client, nil
}

package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
)

const redisPrefix = "mediaconv:dedup:"

// redisClient is the part of redis.Cmdable the store uses.
type redisClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis keeps claims in a shared Redis so every instance sees them.
type Redis struct {
	client redisClient
	closer func() error
	expiry Expiry
}

// RedisConfig holds the connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig, expiry Expiry) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, domainerrors.Wrapf(err, domainerrors.CodeInternal, "redis ping %s", cfg.Addr)
	}
	return newRedis(client, client.Close, expiry), nil
}

func newRedis(client redisClient, closer func() error, expiry Expiry) *Redis {
	return &Redis{client: client, closer: closer, expiry: expiry.withDefaults()}
}

// Claim leases key if it does not exist yet.
func (r *Redis) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, redisPrefix+key, valueLease, r.expiry.Lease).Result()
	if err != nil {
		return false, domainerrors.Wrapf(err, domainerrors.CodeInternal, "failed to claim %s", key)
	}
	return ok, nil
}

// Complete overwrites the lease on key with a done marker.
func (r *Redis) Complete(ctx context.Context, key string) error {
	if err := r.client.Set(ctx, redisPrefix+key, valueDone, r.expiry.Done).Err(); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeInternal, "failed to complete %s", key)
	}
	return nil
}

// Release deletes key.
func (r *Redis) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisPrefix+key).Err(); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeInternal, "failed to release %s", key)
	}
	return nil
}

// Close closes the client connection pool.
func (r *Redis) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

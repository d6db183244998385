package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while this store still owns it, so an
// expired lease taken over by another instance is left alone
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLeaseStore implements LeaseStore with SETNX and a TTL. It is suitable
// for deployments where several server instances share one queue.
type RedisLeaseStore struct {
	client *redis.Client
	owner  string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// NewRedisLeaseStore connects to Redis and verifies the connection
func NewRedisLeaseStore(cfg RedisConfig) (*RedisLeaseStore, error) {
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisLeaseStoreWithClient(client), nil
}

// NewRedisLeaseStoreWithClient wraps an existing client
func NewRedisLeaseStoreWithClient(client *redis.Client) *RedisLeaseStore {
	return &RedisLeaseStore{client: client, owner: uuid.NewString()}
}

// Acquire takes the lease if nobody holds it. It returns false when the key
// is already held, by this instance or another.
func (s *RedisLeaseStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, s.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease %s: %w", key, err)
	}
	return ok, nil
}

// Release drops the lease if this instance holds it
func (s *RedisLeaseStore) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{key}, s.owner).Err(); err != nil {
		return fmt.Errorf("failed to release lease %s: %w", key, err)
	}
	return nil
}

// Ping checks that Redis still answers
func (s *RedisLeaseStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (s *RedisLeaseStore) Close() error {
	return s.client.Close()
}

var _ LeaseStore = (*RedisLeaseStore)(nil)

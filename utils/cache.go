// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"clinicdesk/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient is the generic cache client (webhook idempotency keys).
	CacheClient *redis.Client
	// AuthCacheClient is the dedicated client for admin sessions.
	AuthCacheClient *redis.Client
)

func newRedisClient(db int, name string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", name, err)
	}
	return client
}

// InitRedis initializes both Redis clients.
func InitRedis() {
	CacheClient = newRedisClient(config.AppConfig.RedisCacheDB, "Cache")
	AuthCacheClient = newRedisClient(config.AppConfig.RedisAuthDB, "Auth Cache")
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		CacheClient = newRedisClient(config.AppConfig.RedisCacheDB, "Cache")
	}
	return CacheClient
}

// GetAuthCacheClient returns the Redis client for admin sessions.
func GetAuthCacheClient() *redis.Client {
	if AuthCacheClient == nil {
		AuthCacheClient = newRedisClient(config.AppConfig.RedisAuthDB, "Auth Cache")
	}
	return AuthCacheClient
}

// RedisOnceStore records keys with SETNX so repeated deliveries can be skipped.
type RedisOnceStore struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
}

// MarkOnce returns true the first time key is seen within the TTL.
func (s *RedisOnceStore) MarkOnce(ctx context.Context, key string) (bool, error) {
	return s.Client.SetNX(ctx, s.Prefix+key, time.Now().Unix(), s.TTL).Result()
}

// Forget drops key so that a failed delivery can be processed again.
func (s *RedisOnceStore) Forget(ctx context.Context, key string) error {
	return s.Client.Del(ctx, s.Prefix+key).Err()
}

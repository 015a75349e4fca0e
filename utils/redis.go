package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/miglee/miglee-backend/config"
)

var redisClient *redis.Client

// InitRedis connects the shared Redis client used for refresh tokens and
// check-in token lookups.
func InitRedis(cfg *config.Config) error {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Only adopt the client once it answers; a dead server leaves the shared
	// client nil so the cache helpers fall back instead of redialing it.
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	redisClient = client
	log.Println("✅ Redis connected")
	return nil
}

// Redis returns the shared client. Callers must tolerate a nil client when
// Redis is unavailable; cached lookups fall back to the database.
func Redis() *redis.Client {
	return redisClient
}

// CacheSet stores a value with TTL, ignoring failures when Redis is down.
func CacheSet(ctx context.Context, key, value string, ttl time.Duration) {
	if redisClient == nil {
		return
	}
	if err := redisClient.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Printf("⚠️ Redis SET %s failed: %v", key, err)
	}
}

// CacheGet reads a cached value. Returns "" on miss or when Redis is down.
func CacheGet(ctx context.Context, key string) string {
	if redisClient == nil {
		return ""
	}
	val, err := redisClient.Get(ctx, key).Result()
	if err != nil {
		return ""
	}
	return val
}

// CacheDel removes keys, ignoring failures.
func CacheDel(ctx context.Context, keys ...string) {
	if redisClient == nil {
		return
	}
	redisClient.Del(ctx, keys...)
}

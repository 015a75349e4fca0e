package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miglee/miglee-backend/config"
)

func TestInitRedisLeavesClientNilOnFailure(t *testing.T) {
	redisClient = nil

	// Port 1 is never a Redis server; the dial fails immediately
	err := InitRedis(&config.Config{RedisAddr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Nil(t, Redis())

	// Cache helpers degrade to no-ops instead of redialing the dead server
	CacheSet(context.Background(), "k", "v", 0)
	assert.Empty(t, CacheGet(context.Background(), "k"))
	CacheDel(context.Background(), "k")
}

package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Layr-Labs/tweetproof-go/pkg/logger"
	"github.com/Layr-Labs/tweetproof-go/pkg/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeedHex = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"

// getTestRedisAddress returns the Redis address for testing.
// Uses REDIS_TEST_ADDRESS env var if set, otherwise defaults to localhost:6379.
func getTestRedisAddress() string {
	if addr := os.Getenv("REDIS_TEST_ADDRESS"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// requireRedis skips the test if Redis is not available. Every test gets its own
// key prefix in DB 15 so runs never see each other's keys.
func requireRedis(t *testing.T, ttl time.Duration) *RedisPersistence {
	t.Helper()

	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	cfg := &RedisConfig{
		Name:      "session",
		Address:   getTestRedisAddress(),
		DB:        15,
		KeyPrefix: "tweetproof-test:" + uuid.NewString() + ":",
		TTL:       ttl,
	}

	rp, err := NewRedisPersistence(cfg, testLogger)
	if err != nil {
		t.Skipf("Redis not available at %s: %v", cfg.Address, err)
		return nil
	}
	t.Cleanup(func() {
		ctx := context.Background()
		_ = rp.client.Del(ctx, rp.prefixKey(keySchemaVersion)).Err()
		_ = rp.Close()
	})
	return rp
}

func TestNewRedisPersistence_InvalidConfig(t *testing.T) {
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	_, err := NewRedisPersistence(nil, testLogger)
	require.Error(t, err)

	_, err = NewRedisPersistence(&RedisConfig{}, testLogger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address cannot be empty")

	_, err = NewRedisPersistence(&RedisConfig{Address: "localhost:6379", TTL: -time.Second}, testLogger)
	require.Error(t, err)
}

func TestRedisPersistence_SetAndGet(t *testing.T) {
	rp := requireRedis(t, 0)
	ctx := context.Background()

	assert.Equal(t, "session", rp.Name())
	require.NoError(t, rp.Set(ctx, "tweetproof_seed_hex", testSeedHex))

	value, ok, err := rp.Get(ctx, "tweetproof_seed_hex")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testSeedHex, value)

	require.NoError(t, rp.Delete(ctx, "tweetproof_seed_hex"))
}

func TestRedisPersistence_Get_NotFound(t *testing.T) {
	rp := requireRedis(t, 0)

	value, ok, err := rp.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestRedisPersistence_Delete_Idempotent(t *testing.T) {
	rp := requireRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, rp.Set(ctx, "seed", testSeedHex))
	require.NoError(t, rp.Delete(ctx, "seed"))
	require.NoError(t, rp.Delete(ctx, "seed"))

	_, ok, err := rp.Get(ctx, "seed")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisPersistence_TTL(t *testing.T) {
	rp := requireRedis(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, rp.Set(ctx, "seed", testSeedHex))
	defer func() { _ = rp.Delete(ctx, "seed") }()

	ttl, err := rp.TTL(ctx, "seed")
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	ttl, err = rp.TTL(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, ttl)
}

func TestRedisPersistence_Close(t *testing.T) {
	rp := requireRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, rp.HealthCheck())

	// remove the schema marker while the client is still open
	require.NoError(t, rp.client.Del(ctx, rp.prefixKey(keySchemaVersion)).Err())
	require.Error(t, rp.HealthCheck())

	require.NoError(t, rp.Close())
	require.NoError(t, rp.Close())

	_, _, err := rp.Get(ctx, "seed")
	assert.True(t, errors.Is(err, persistence.ErrClosed))
	assert.True(t, errors.Is(rp.Set(ctx, "seed", testSeedHex), persistence.ErrClosed))
	assert.True(t, errors.Is(rp.Delete(ctx, "seed"), persistence.ErrClosed))
	assert.True(t, errors.Is(rp.HealthCheck(), persistence.ErrClosed))
}

package redis

import (
	"context"
	"sync"
	"time"

	"github.com/Layr-Labs/tweetproof-go/pkg/persistence"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Key prefixes for namespacing in Redis
const (
	keyPrefixValue       = "seed:"
	keySchemaVersion     = "metadata:schema_version"
	currentSchemaVersion = "v1"
)

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Name identifies the channel, "redis" when empty
	Name string
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix scopes every key, e.g. "tweetproof:" gives "tweetproof:seed:<key>".
	// Several applications can share one Redis by picking distinct prefixes.
	KeyPrefix string
	// TTL expires values after they are written. Zero keeps them forever.
	TTL time.Duration
}

// RedisPersistence is an ISeedChannel backed by Redis. With a TTL it behaves like
// a long-lived session cookie that is shared by every client of the same server.
type RedisPersistence struct {
	name      string
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	ttl       time.Duration
	mu        sync.RWMutex
	closed    bool
}

// Compile-time check to ensure RedisPersistence implements ISeedChannel
var _ persistence.ISeedChannel = (*RedisPersistence)(nil)

// NewRedisPersistence connects to Redis and validates the schema marker
func NewRedisPersistence(cfg *RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
	if cfg == nil {
		return nil, errors.New("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	if cfg.TTL < 0 {
		return nil, errors.Errorf("redis ttl cannot be negative: %s", cfg.TTL)
	}

	name := cfg.Name
	if name == "" {
		name = "redis"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "failed to connect to Redis at %s", cfg.Address)
	}

	rp := &RedisPersistence{
		name:      name,
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}

	logger.Sugar().Infow("Redis seed channel initialized",
		"channel", name,
		"address", cfg.Address,
		"db", cfg.DB,
		"key_prefix", cfg.KeyPrefix,
		"ttl", cfg.TTL.String(),
	)

	return rp, nil
}

// prefixKey adds the custom key prefix (if configured) to a key
func (r *RedisPersistence) prefixKey(key string) string {
	return r.keyPrefix + key
}

func (r *RedisPersistence) valueKey(key string) string {
	return r.prefixKey(keyPrefixValue + key)
}

// initSchema initializes or validates the schema version
func (r *RedisPersistence) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if errors.Is(err, redis.Nil) {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return errors.Wrap(err, "failed to read schema version")
	}

	if existingVersion != currentSchemaVersion {
		return errors.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}
	return nil
}

func (r *RedisPersistence) Name() string {
	return r.name
}

func (r *RedisPersistence) Get(ctx context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return "", false, persistence.ErrClosed
	}

	value, err := r.client.Get(ctx, r.valueKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil // Not found is not an error
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to read %s from %s channel", key, r.name)
	}
	return value, true, nil
}

func (r *RedisPersistence) Set(ctx context.Context, key string, value string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	if err := r.client.Set(ctx, r.valueKey(key), value, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to write %s to %s channel", key, r.name)
	}
	return nil
}

func (r *RedisPersistence) Delete(ctx context.Context, key string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	if err := r.client.Del(ctx, r.valueKey(key)).Err(); err != nil {
		return errors.Wrapf(err, "failed to delete %s from %s channel", key, r.name)
	}
	return nil
}

// TTL reports the remaining lifetime of key, or zero when it has none or is missing
func (r *RedisPersistence) TTL(ctx context.Context, key string) (time.Duration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, persistence.ErrClosed
	}

	ttl, err := r.client.TTL(ctx, r.valueKey(key)).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read ttl of %s", key)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// Close shuts down the channel
func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil // Already closed, idempotent
	}
	r.closed = true
	r.mu.Unlock()

	if err := r.client.Close(); err != nil {
		return errors.Wrap(err, "failed to close Redis client")
	}

	r.logger.Sugar().Infow("Redis seed channel closed", "channel", r.name)
	return nil
}

// HealthCheck pings Redis and checks the schema marker
func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return persistence.ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis health check failed")
	}

	_, err := r.client.Get(ctx, r.prefixKey(keySchemaVersion)).Result()
	if errors.Is(err, redis.Nil) {
		return errors.New("schema version not found - database may not be properly initialized")
	}
	if err != nil {
		return errors.Wrap(err, "failed to verify schema version")
	}
	return nil
}

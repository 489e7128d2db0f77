package identityStore

import (
	"fmt"

	"github.com/Layr-Labs/tweetproof-go/pkg/config"
	"github.com/Layr-Labs/tweetproof-go/pkg/persistence"
	"github.com/Layr-Labs/tweetproof-go/pkg/persistence/badger"
	"github.com/Layr-Labs/tweetproof-go/pkg/persistence/memory"
	"github.com/Layr-Labs/tweetproof-go/pkg/persistence/redis"
	"go.uber.org/zap"
)

// NewChannel builds the backend described by cfg
func NewChannel(name string, cfg *config.ChannelConfig, logger *zap.Logger) (persistence.ISeedChannel, error) {
	switch cfg.Type {
	case config.PersistenceTypeMemory:
		return memory.NewMemoryPersistence(&memory.MemoryConfig{
			Name: name,
			TTL:  cfg.Expiry,
		}, logger), nil
	case config.PersistenceTypeBadger:
		return badger.NewBadgerPersistence(&badger.BadgerConfig{
			Name: name,
			Path: cfg.Path,
			TTL:  cfg.Expiry,
		}, logger)
	case config.PersistenceTypeRedis:
		return redis.NewRedisPersistence(&redis.RedisConfig{
			Name:      name,
			Address:   cfg.Redis.Address,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Expiry,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported persistence type: %q", cfg.Type)
	}
}

// NewStoreFromConfig opens both channels and wraps them in a Store
func NewStoreFromConfig(cfg *config.StorageConfig, logger *zap.Logger) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	session, err := NewChannel("session", &cfg.Session, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open session channel: %w", err)
	}

	durable, err := NewChannel("durable", &cfg.Durable, logger)
	if err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to open durable channel: %w", err)
	}

	return newOwningStore(cfg.Key, session, durable, logger)
}

// newOwningStore wraps channels the caller just opened; they are closed again if
// the store cannot be built
func newOwningStore(key string, session, durable persistence.ISeedChannel, logger *zap.Logger) (*Store, error) {
	store, err := NewStore(&StoreConfig{
		Key:     key,
		Session: session,
		Durable: durable,
	}, logger)
	if err != nil {
		_ = session.Close()
		_ = durable.Close()
		return nil, err
	}
	return store, nil
}

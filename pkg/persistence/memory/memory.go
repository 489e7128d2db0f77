package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Layr-Labs/tweetproof-go/pkg/persistence"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

const defaultSize = 128

type MemoryConfig struct {
	// Name identifies the channel, "memory" when empty
	Name string
	// TTL expires entries after they are written. Zero keeps them until evicted.
	TTL time.Duration
	// Size bounds the number of keys held, 128 when zero
	Size int
}

// MemoryPersistence is an in-memory ISeedChannel backed by an expirable LRU.
//
// All data is lost when the process exits. It is meant for tests and for
// ephemeral sessions that must not touch disk.
type MemoryPersistence struct {
	name    string
	entries *expirable.LRU[string, string]

	mu     sync.RWMutex
	closed bool
}

// Compile-time check to ensure MemoryPersistence implements ISeedChannel
var _ persistence.ISeedChannel = (*MemoryPersistence)(nil)

// NewMemoryPersistence creates a new in-memory channel
func NewMemoryPersistence(cfg *MemoryConfig, logger *zap.Logger) *MemoryPersistence {
	if cfg == nil {
		cfg = &MemoryConfig{}
	}
	name := cfg.Name
	if name == "" {
		name = "memory"
	}
	size := cfg.Size
	if size <= 0 {
		size = defaultSize
	}

	logger.Sugar().Warnw("Using in-memory seed channel - stored seeds are lost on exit",
		"channel", name,
		"ttl", cfg.TTL.String(),
	)

	return &MemoryPersistence{
		name:    name,
		entries: expirable.NewLRU[string, string](size, nil, cfg.TTL),
	}
}

func (m *MemoryPersistence) Name() string {
	return m.name
}

func (m *MemoryPersistence) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", false, persistence.ErrClosed
	}

	value, ok := m.entries.Get(key)
	return value, ok, nil
}

func (m *MemoryPersistence) Set(_ context.Context, key string, value string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return persistence.ErrClosed
	}

	m.entries.Add(key, value)
	return nil
}

func (m *MemoryPersistence) Delete(_ context.Context, key string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return persistence.ErrClosed
	}

	m.entries.Remove(key)
	return nil
}

func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return persistence.ErrClosed
	}
	return nil
}

func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.entries.Purge()
	return nil
}

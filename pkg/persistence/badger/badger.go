package badger

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/Layr-Labs/tweetproof-go/pkg/persistence"
	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Key prefixes for namespacing
const (
	keyPrefixValue       = "seed:"
	keySchemaVersion     = "metadata:schema_version"
	currentSchemaVersion = "v1"
)

type BadgerConfig struct {
	// Name identifies the channel, "badger" when empty
	Name string
	// Path is the database directory
	Path string
	// TTL expires values after they are written. Zero keeps them forever.
	TTL time.Duration
}

// BadgerPersistence is a disk-backed ISeedChannel using Badger.
// Values written with a TTL disappear once it elapses, which lets the same
// backend serve as both the durable and the session channel.
type BadgerPersistence struct {
	name     string
	ttl      time.Duration
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

// Compile-time check to ensure BadgerPersistence implements ISeedChannel
var _ persistence.ISeedChannel = (*BadgerPersistence)(nil)

// NewBadgerPersistence opens (or creates) the database at cfg.Path with SyncWrites
// enabled and starts a background goroutine for value log garbage collection.
func NewBadgerPersistence(cfg *BadgerConfig, logger *zap.Logger) (*BadgerPersistence, error) {
	if cfg == nil {
		return nil, errors.New("badger config cannot be nil")
	}
	if cfg.Path == "" {
		return nil, errors.New("badger path cannot be empty")
	}
	if cfg.TTL < 0 {
		return nil, errors.Errorf("badger ttl cannot be negative: %s", cfg.TTL)
	}

	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve absolute path")
	}

	name := cfg.Name
	if name == "" {
		name = "badger"
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = &badgerLoggerAdapter{logger: logger.With(zap.String("channel", name))}
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open badger database at %s", absPath)
	}

	bp := &BadgerPersistence{
		name:   name,
		ttl:    cfg.TTL,
		db:     db,
		logger: logger,
	}

	if err := bp.initSchema(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}

	ctx, cancel := context.WithCancel(context.Background())
	bp.gcCancel = cancel
	bp.gcWg.Add(1)
	go bp.runGC(ctx)

	logger.Sugar().Infow("Badger seed channel initialized",
		"channel", name,
		"path", absPath,
		"ttl", cfg.TTL.String(),
	)

	return bp, nil
}

// initSchema initializes or validates the schema version
func (b *BadgerPersistence) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return errors.Wrap(err, "failed to read schema version")
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return errors.Wrap(err, "failed to read schema version value")
		}

		if existingVersion != currentSchemaVersion {
			return errors.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
		}
		return nil
	})
}

// runGC runs periodic garbage collection in the background
func (b *BadgerPersistence) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && !errors.Is(err, badgerdb.ErrNoRewrite) {
				b.logger.Sugar().Warnw("Badger GC error", "channel", b.name, "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (b *BadgerPersistence) Name() string {
	return b.name
}

func valueKey(key string) []byte {
	return []byte(keyPrefixValue + key)
}

func (b *BadgerPersistence) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return "", false, persistence.ErrClosed
	}

	var (
		value string
		found bool
	)
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(valueKey(key))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil // Not found is not an error
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			value = string(val)
			found = true
			return nil
		})
	})
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to read %s from %s channel", key, b.name)
	}
	return value, found, nil
}

func (b *BadgerPersistence) Set(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	entry := badgerdb.NewEntry(valueKey(key), []byte(value))
	if b.ttl > 0 {
		entry = entry.WithTTL(b.ttl)
	}

	err := b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.SetEntry(entry)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to write %s to %s channel", key, b.name)
	}
	return nil
}

func (b *BadgerPersistence) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	err := b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(valueKey(key))
	})
	if err != nil {
		return errors.Wrapf(err, "failed to delete %s from %s channel", key, b.name)
	}
	return nil
}

// Close shuts down the channel
func (b *BadgerPersistence) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil // Already closed, idempotent
	}
	b.closed = true
	b.mu.Unlock()

	if b.gcCancel != nil {
		b.gcCancel()
	}
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return errors.Wrap(err, "failed to close badger database")
	}

	b.logger.Sugar().Infow("Badger seed channel closed", "channel", b.name)
	return nil
}

// HealthCheck verifies the database is readable and carries our schema marker
func (b *BadgerPersistence) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return persistence.ErrClosed
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return errors.New("schema version not found - database may be corrupted")
		}
		return err
	})
}

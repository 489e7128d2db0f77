// Package identityStore keeps the hex encoded identity seed in two channels: a
// session channel that expires and a durable channel that does not. Reads prefer
// the session channel; writes and clears go to both.
package identityStore

import (
	"context"
	"fmt"
	"strings"

	"github.com/Layr-Labs/tweetproof-go/pkg/codec"
	"github.com/Layr-Labs/tweetproof-go/pkg/keys"
	"github.com/Layr-Labs/tweetproof-go/pkg/persistence"
	"github.com/Layr-Labs/tweetproof-go/pkg/types"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const DefaultKey = "tweetproof_seed_hex"

type StoreConfig struct {
	// Key is the single logical key the seed is stored under in both channels
	Key     string
	Session persistence.ISeedChannel
	Durable persistence.ISeedChannel
}

type Store struct {
	key     string
	session persistence.ISeedChannel
	durable persistence.ISeedChannel
	logger  *zap.Logger
}

// PartialWriteError reports a write or delete that reached some channels but not all
type PartialWriteError struct {
	Failed []string
	Err    error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s channel(s) failed: %v", strings.Join(e.Failed, ", "), e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

func NewStore(cfg *StoreConfig, logger *zap.Logger) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("store config cannot be nil")
	}
	if cfg.Session == nil || cfg.Durable == nil {
		return nil, fmt.Errorf("both session and durable channels are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	key := cfg.Key
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		key:     key,
		session: cfg.Session,
		durable: cfg.Durable,
		logger:  logger,
	}, nil
}

// lookup is what one channel returned for the seed key
type lookup struct {
	value string
	found bool
}

// resolve picks the seed text: session first, durable second, otherwise absent.
// Blank values count as absent.
func resolve(session, durable lookup) (string, bool) {
	if session.found && !codec.IsAbsent(session.value) {
		return session.value, true
	}
	if durable.found && !codec.IsAbsent(durable.value) {
		return durable.value, true
	}
	return "", false
}

func (s *Store) read(ctx context.Context, ch persistence.ISeedChannel) lookup {
	value, found, err := ch.Get(ctx, s.key)
	if err != nil {
		s.logger.Sugar().Warnw("Failed to read seed channel, treating as empty",
			"channel", ch.Name(),
			"error", err,
		)
		return lookup{}
	}
	return lookup{value: value, found: found}
}

// Load returns the stored seed text. The text is not validated here; an unusable
// value simply fails to derive a keypair later.
func (s *Store) Load(ctx context.Context) (string, bool) {
	return resolve(s.read(ctx, s.session), s.read(ctx, s.durable))
}

// Save writes the lowercase hex seed to both channels. A failure in one channel
// does not stop the other; if any failed the result is a *PartialWriteError, or
// the combined error when every channel failed.
func (s *Store) Save(ctx context.Context, seed keys.Seed) error {
	if !seed.Valid() {
		return fmt.Errorf("%w: expected %d bytes, got %d", types.ErrInvalidSeedLength, keys.SeedSize, len(seed))
	}
	value := seed.Hex()

	err := s.both(func(ch persistence.ISeedChannel) error {
		return ch.Set(ctx, s.key, value)
	})
	if err == nil {
		s.logger.Sugar().Debugw("Saved seed to both channels", "key", s.key)
	}
	return err
}

// Clear deletes the seed from both channels. Clearing an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	err := s.both(func(ch persistence.ISeedChannel) error {
		return ch.Delete(ctx, s.key)
	})
	if err == nil {
		s.logger.Sugar().Debugw("Cleared seed from both channels", "key", s.key)
	}
	return err
}

func (s *Store) both(op func(ch persistence.ISeedChannel) error) error {
	var (
		combined error
		failed   []string
	)
	for _, ch := range []persistence.ISeedChannel{s.session, s.durable} {
		if err := op(ch); err != nil {
			s.logger.Sugar().Warnw("Seed channel operation failed", "channel", ch.Name(), "error", err)
			combined = multierr.Append(combined, fmt.Errorf("%s: %w", ch.Name(), err))
			failed = append(failed, ch.Name())
		}
	}

	switch len(failed) {
	case 0:
		return nil
	case 2:
		return combined
	default:
		return &PartialWriteError{Failed: failed, Err: combined}
	}
}

// HealthCheck checks both channels
func (s *Store) HealthCheck() error {
	var err error
	for _, ch := range []persistence.ISeedChannel{s.session, s.durable} {
		if chErr := ch.HealthCheck(); chErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", ch.Name(), chErr))
		}
	}
	return err
}

// Close closes both channels
func (s *Store) Close() error {
	return multierr.Combine(s.session.Close(), s.durable.Close())
}

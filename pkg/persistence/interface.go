package persistence

import (
	"context"
	"errors"
)

// ErrClosed is returned by every operation on a channel after Close
var ErrClosed = errors.New("persistence layer is closed")

// ISeedChannel is one key/value channel the identity seed can be stored in.
// All implementations must be thread-safe.
//
// Values are opaque strings; callers only ever store the hex-encoded seed.
type ISeedChannel interface {
	// Get returns the value stored under key.
	// Returns ("", false, nil) if the key doesn't exist or has expired, error only on storage failure.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	// Channels configured with an expiry restart it on every Set.
	Set(ctx context.Context, key string, value string) error

	// Delete removes key.
	// Idempotent - returns nil if the key doesn't exist.
	Delete(ctx context.Context, key string) error

	// HealthCheck verifies the channel is operational.
	HealthCheck() error

	// Close cleanly shuts down the channel.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations return ErrClosed.
	Close() error

	// Name identifies the channel in logs and errors
	Name() string
}

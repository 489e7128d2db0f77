// Package identity holds the signing identity currently loaded by a client: the
// seed, the keypair derived from it and the public strings shown to the user.
//
// An Identity is owned by one goroutine and is not safe for concurrent use.
package identity

import (
	"context"
	"errors"

	"github.com/Layr-Labs/tweetproof-go/pkg/codec"
	"github.com/Layr-Labs/tweetproof-go/pkg/keys"
	"github.com/Layr-Labs/tweetproof-go/pkg/signer"
	"github.com/Layr-Labs/tweetproof-go/pkg/types"
	"go.uber.org/zap"
)

// SeedStore is the part of identityStore.Store an Identity needs
type SeedStore interface {
	Load(ctx context.Context) (string, bool)
	Save(ctx context.Context, seed keys.Seed) error
	Clear(ctx context.Context) error
}

// Display is the user facing view of an identity. Every field is empty when no
// valid seed is loaded.
type Display struct {
	SeedHex      string `json:"seedHex"`
	PublicKeyHex string `json:"publicKeyHex"`
	IdentityLine string `json:"identityLine"`
}

type Identity struct {
	store      SeedStore
	keyManager keys.IKeyManager
	logger     *zap.Logger

	// seedText is what the user typed or what was loaded, even when invalid
	seedText string
	seed     keys.Seed
	keyPair  *keys.KeyPair

	PublicKeyHex string
	IdentityLine string
}

func NewIdentity(store SeedStore, keyManager keys.IKeyManager, logger *zap.Logger) *Identity {
	return &Identity{
		store:      store,
		keyManager: keyManager,
		logger:     logger,
	}
}

// state is the whole derived state for one seed text, computed before it is applied
type state struct {
	seedText string
	seed     keys.Seed
	keyPair  *keys.KeyPair
}

func (id *Identity) compute(text string) (state, error) {
	st := state{seedText: text}

	seed, err := keys.ParseSeed(text)
	if err != nil {
		return st, err
	}
	if seed == nil {
		return st, nil
	}

	kp := id.keyManager.Derive(seed)
	if kp == nil {
		return st, types.ErrInvalidSeedLength
	}
	st.seed = seed
	st.keyPair = kp
	return st, nil
}

func (id *Identity) apply(st state) {
	id.seedText = st.seedText
	id.seed = st.seed
	id.keyPair = st.keyPair
	id.PublicKeyHex = keys.PublicKeyHex(st.keyPair)
	id.IdentityLine = keys.PublicProfileLine(st.keyPair)
}

// Init loads the stored seed. A missing or unusable stored value leaves the
// identity blank; it is never reported as an error.
func (id *Identity) Init(ctx context.Context) {
	text, found := id.store.Load(ctx)
	if !found {
		id.apply(state{})
		return
	}

	st, err := id.compute(text)
	if err != nil {
		id.logger.Sugar().Warnw("Stored seed is unusable, starting blank", "error", err)
	}
	id.apply(st)

	if id.keyPair != nil {
		id.logger.Sugar().Infow("Loaded identity", "publicKey", id.PublicKeyHex)
	}
}

// Replace swaps in the seed typed by the user. Invalid text still replaces the
// current seed but leaves the public strings blank; the classification error is
// returned for display.
func (id *Identity) Replace(text string) error {
	st, err := id.compute(text)
	id.apply(st)
	return err
}

// Generate replaces the identity with a freshly generated seed
func (id *Identity) Generate() error {
	seed, kp, err := id.keyManager.Generate()
	if err != nil {
		return err
	}
	id.apply(state{seedText: seed.Hex(), seed: seed, keyPair: kp})
	return nil
}

// ImportMnemonic replaces the identity with the seed recovered from a BIP-39 mnemonic.
// On failure the current identity is left untouched.
func (id *Identity) ImportMnemonic(words string) error {
	seed, err := keys.SeedFromMnemonic(words)
	if err != nil {
		return err
	}
	st, err := id.compute(seed.Hex())
	if err != nil {
		return err
	}
	id.apply(st)
	return nil
}

// Persist writes the current seed to both storage channels
func (id *Identity) Persist(ctx context.Context) error {
	if id.keyPair == nil || !id.seed.Valid() {
		return types.ErrNoKey
	}
	return id.store.Save(ctx, id.seed)
}

// Clear removes the seed from storage and wipes the in-memory state. Calling it
// again on a cleared identity is a no-op.
func (id *Identity) Clear(ctx context.Context) error {
	for i := range id.seed {
		id.seed[i] = 0
	}
	id.apply(state{})
	return id.store.Clear(ctx)
}

// Sign signs message with the loaded keypair
func (id *Identity) Sign(message string) (*signer.SignedArtifact, error) {
	return signer.Sign(message, id.keyPair)
}

// KeyPair returns the derived keypair, nil when none is loaded
func (id *Identity) KeyPair() *keys.KeyPair {
	return id.keyPair
}

// Seed returns a copy of the loaded seed, nil when none is loaded
func (id *Identity) Seed() keys.Seed {
	if id.seed == nil {
		return nil
	}
	return append(keys.Seed(nil), id.seed...)
}

// Loaded reports whether a valid seed is loaded
func (id *Identity) Loaded() bool {
	return id.keyPair != nil
}

// Display returns a snapshot of the user facing strings
func (id *Identity) Display() Display {
	d := Display{
		PublicKeyHex: id.PublicKeyHex,
		IdentityLine: id.IdentityLine,
	}
	if id.keyPair != nil {
		d.SeedHex = id.seed.Hex()
	}
	return d
}

// SeedText returns the raw seed text last loaded or entered
func (id *Identity) SeedText() string {
	return id.seedText
}

// IsMalformed reports whether err came from unreadable seed text rather than a wrong length
func IsMalformed(err error) bool {
	return errors.Is(err, types.ErrMalformedEncoding)
}

// Classify returns a short user facing description of a seed problem
func Classify(text string, err error) string {
	switch {
	case err == nil && codec.IsAbsent(text):
		return "No seed entered."
	case err == nil:
		return ""
	case IsMalformed(err):
		return "Seed is not valid hex."
	case errors.Is(err, types.ErrInvalidSeedLength):
		return "Seed must be 32 bytes (64 hex characters)."
	default:
		return "Seed could not be used."
	}
}

package keys

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"github.com/Layr-Labs/tweetproof-go/pkg/codec"
	"github.com/Layr-Labs/tweetproof-go/pkg/types"
	"golang.org/x/crypto/ed25519"
)

const (
	SeedSize      = ed25519.SeedSize
	PublicKeySize = ed25519.PublicKeySize
)

// Seed is the 32 byte secret every identity is derived from
type Seed []byte

// Hex renders the seed the way it is persisted
func (s Seed) Hex() string {
	return codec.EncodeHex(s)
}

// Valid reports whether the seed has exactly SeedSize bytes
func (s Seed) Valid() bool {
	return len(s) == SeedSize
}

// KeyPair is derived from a Seed on demand and is never persisted itself
type KeyPair struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// Generate draws a fresh seed from r (crypto/rand when nil) and derives its keypair
func Generate(r io.Reader) (Seed, *KeyPair, error) {
	if r == nil {
		r = rand.Reader
	}

	seed := make(Seed, SeedSize)
	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, nil, fmt.Errorf("failed to read seed entropy: %w", err)
	}

	kp := Derive(seed)
	if kp == nil {
		return nil, nil, fmt.Errorf("failed to derive keypair from generated seed")
	}
	return seed, kp, nil
}

// Derive expands a 32 byte seed into an Ed25519 keypair following RFC 8032.
// It returns nil, never an error or a panic, when the seed cannot be used.
func Derive(seed []byte) (kp *KeyPair) {
	if len(seed) != SeedSize {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			kp = nil
		}
	}()

	priv := ed25519.NewKeyFromSeed(append([]byte(nil), seed...))
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil
	}
	return &KeyPair{PublicKey: pub, PrivateKey: priv}
}

// ParseSeed decodes user supplied hex into a Seed.
// Blank text is absence and returns (nil, nil).
func ParseSeed(text string) (Seed, error) {
	if codec.IsAbsent(text) {
		return nil, nil
	}

	b, err := codec.DecodeHex(text)
	if err != nil {
		return nil, err
	}
	if len(b) != SeedSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", types.ErrInvalidSeedLength, SeedSize, len(b))
	}
	return Seed(b), nil
}

// Seed returns a copy of the seed the keypair was derived from
func (kp *KeyPair) Seed() Seed {
	return Seed(kp.PrivateKey.Seed())
}

// PublicKeyHex returns the lowercase hex public key, or "" when kp is nil
func PublicKeyHex(kp *KeyPair) string {
	if kp == nil {
		return ""
	}
	return codec.EncodeHex(kp.PublicKey)
}

// PublicProfileLine returns the shareable identity line "ed25519: <base64 public key>",
// or "" when kp is nil
func PublicProfileLine(kp *KeyPair) string {
	if kp == nil {
		return ""
	}
	form, _ := codec.Encode(codec.KindIdentityLine, kp.PublicKey)
	return form.Text
}

// ParsePublicKey accepts an identity line, bare base64 or hex and returns the key bytes
func ParsePublicKey(text string) (ed25519.PublicKey, error) {
	var (
		b   []byte
		err error
	)
	stripped := codec.StripIdentityPrefix(text)
	if len(stripped) == 2*PublicKeySize || strings.HasPrefix(stripped, "0x") {
		b, err = codec.DecodeHex(stripped)
	} else {
		b, err = codec.DecodeBase64(stripped)
	}
	if err != nil {
		return nil, err
	}
	if len(b) != PublicKeySize {
		return nil, fmt.Errorf("%w: public key must be %d bytes, got %d", types.ErrMalformedEncoding, PublicKeySize, len(b))
	}
	return ed25519.PublicKey(b), nil
}

package keys

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Layr-Labs/tweetproof-go/pkg/codec"
	"github.com/Layr-Labs/tweetproof-go/pkg/types"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/ed25519"
)

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// PublicKeyBase58 renders the public key in base58, or "" when kp is nil
func PublicKeyBase58(kp *KeyPair) string {
	if kp == nil {
		return ""
	}
	form, _ := codec.Encode(codec.KindBase58, kp.PublicKey)
	return form.Text
}

// PublicKeyJWK renders the public key as an OKP JSON Web Key
func PublicKeyJWK(kp *KeyPair) ([]byte, error) {
	if kp == nil {
		return nil, types.ErrNoKey
	}

	key, err := jwk.Import(kp.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to import public key into jwk: %w", err)
	}
	data, err := json.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal jwk: %w", err)
	}
	return data, nil
}

// ParsePublicKeyJWK extracts an Ed25519 public key from a JSON Web Key
func ParsePublicKeyJWK(data []byte) (ed25519.PublicKey, error) {
	key, err := jwk.ParseKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: jwk: %v", types.ErrMalformedEncoding, err)
	}

	var pub ed25519.PublicKey
	if err := jwk.Export(key, &pub); err != nil {
		return nil, fmt.Errorf("%w: jwk is not an ed25519 public key: %v", types.ErrMalformedEncoding, err)
	}
	if len(pub) != PublicKeySize {
		return nil, fmt.Errorf("%w: public key must be %d bytes, got %d", types.ErrMalformedEncoding, PublicKeySize, len(pub))
	}
	return pub, nil
}

// ParseAnyPublicKey reads a public key in any shared form: a JSON Web Key, an
// identity line, bare base64 or hex
func ParseAnyPublicKey(text string) (ed25519.PublicKey, error) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") {
		return ParsePublicKeyJWK([]byte(trimmed))
	}
	return ParsePublicKey(trimmed)
}

// SeedToMnemonic encodes the seed as a 24 word BIP-39 mnemonic. The seed is used
// directly as entropy, so SeedFromMnemonic recovers it exactly.
func SeedToMnemonic(seed Seed) (string, error) {
	if !seed.Valid() {
		return "", fmt.Errorf("%w: expected %d bytes, got %d", types.ErrInvalidSeedLength, SeedSize, len(seed))
	}
	return bip39.NewMnemonic(seed)
}

// SeedFromMnemonic recovers a seed from a 24 word BIP-39 mnemonic
func SeedFromMnemonic(words string) (Seed, error) {
	normalized := strings.ToLower(strings.Join(strings.Fields(words), " "))
	if normalized == "" || !bip39.IsMnemonicValid(normalized) {
		return nil, ErrInvalidMnemonic
	}

	entropy, err := bip39.EntropyFromMnemonic(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	if len(entropy) != SeedSize {
		return nil, fmt.Errorf("%w: mnemonic carries %d bytes, expected %d", types.ErrInvalidSeedLength, len(entropy), SeedSize)
	}
	return Seed(entropy), nil
}

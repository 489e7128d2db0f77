// Package signer produces detached Ed25519 signatures over trimmed post text and
// renders them in the shareable "message\n//sig:<base64>" artifact form.
package signer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Layr-Labs/tweetproof-go/pkg/codec"
	"github.com/Layr-Labs/tweetproof-go/pkg/keys"
	"github.com/Layr-Labs/tweetproof-go/pkg/types"
	"golang.org/x/crypto/ed25519"
)

const artifactSeparator = "\n" + codec.SignatureTag

// SignedArtifact is a message together with its detached signature
type SignedArtifact struct {
	Message   string `json:"message"`
	Signature []byte `json:"signature"`
}

type ISigner interface {
	// Sign signs the trimmed message and returns the artifact
	Sign(message string) (*SignedArtifact, error)

	// PublicKey returns the key signatures can be checked against, nil when none is loaded
	PublicKey() ed25519.PublicKey
}

// Sign produces a detached signature over the UTF-8 bytes of the trimmed message.
// A missing keypair is reported before an empty message.
func Sign(message string, kp *keys.KeyPair) (*SignedArtifact, error) {
	if kp == nil || len(kp.PrivateKey) != ed25519.PrivateKeySize {
		return nil, types.ErrNoKey
	}

	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return nil, types.ErrEmptyMessage
	}

	return &SignedArtifact{
		Message:   trimmed,
		Signature: ed25519.Sign(kp.PrivateKey, []byte(trimmed)),
	}, nil
}

// SignatureLine returns "//sig:<base64 signature>"
func (a *SignedArtifact) SignatureLine() string {
	form, _ := codec.Encode(codec.KindSignatureTag, a.Signature)
	return form.Text
}

// SignatureBase64 returns the bare base64 signature
func (a *SignedArtifact) SignatureBase64() string {
	return codec.EncodeBase64(a.Signature)
}

func (a *SignedArtifact) String() string {
	return a.Message + "\n" + a.SignatureLine()
}

// ParseSignedArtifact splits pasted artifact text on the last signature marker
func ParseSignedArtifact(text string) (*SignedArtifact, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")

	idx := strings.LastIndex(normalized, artifactSeparator)
	if idx < 0 {
		return nil, fmt.Errorf("%w: artifact has no %q line", types.ErrMalformedEncoding, codec.SignatureTag)
	}

	sig, err := codec.DecodeBase64(normalized[idx+1:])
	if err != nil {
		return nil, err
	}
	if len(sig) != ed25519.SignatureSize {
		return nil, fmt.Errorf("%w: signature must be %d bytes, got %d", types.ErrMalformedEncoding, ed25519.SignatureSize, len(sig))
	}

	return &SignedArtifact{
		Message:   strings.TrimSpace(normalized[:idx]),
		Signature: sig,
	}, nil
}

// RejectionMessage maps a signing failure onto the plain text shown to the user
func RejectionMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, types.ErrNoKey):
		return "No private key loaded."
	case errors.Is(err, types.ErrEmptyMessage):
		return "Empty message."
	default:
		return "Failed to sign. Check key format."
	}
}

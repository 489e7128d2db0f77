package inMemorySigner

import (
	"fmt"

	"github.com/Layr-Labs/tweetproof-go/pkg/keys"
	"github.com/Layr-Labs/tweetproof-go/pkg/signer"
	"go.uber.org/zap"
	"golang.org/x/crypto/ed25519"
)

type InMemorySigner struct {
	logger  *zap.Logger
	keyPair *keys.KeyPair
}

// Compile-time check to ensure InMemorySigner implements ISigner
var _ signer.ISigner = (*InMemorySigner)(nil)

// NewInMemorySignerFromSeed derives the keypair from a 32 byte seed
func NewInMemorySignerFromSeed(
	seed []byte,
	logger *zap.Logger,
) (*InMemorySigner, error) {
	kp := keys.Derive(seed)
	if kp == nil {
		return nil, fmt.Errorf("error loading private key: seed must be %d bytes, got %d", keys.SeedSize, len(seed))
	}
	return NewInMemorySigner(kp, logger), nil
}

func NewInMemorySigner(
	kp *keys.KeyPair,
	logger *zap.Logger,
) *InMemorySigner {
	return &InMemorySigner{
		logger:  logger,
		keyPair: kp,
	}
}

func (s *InMemorySigner) Sign(message string) (*signer.SignedArtifact, error) {
	artifact, err := signer.Sign(message, s.keyPair)
	if err != nil {
		s.logger.Sugar().Debugw("Rejected signing request", "reason", signer.RejectionMessage(err))
		return nil, err
	}
	s.logger.Sugar().Debugw("Signed message",
		"publicKey", keys.PublicKeyHex(s.keyPair),
		"messageLength", len(artifact.Message),
	)
	return artifact, nil
}

func (s *InMemorySigner) PublicKey() ed25519.PublicKey {
	if s.keyPair == nil {
		return nil
	}
	return s.keyPair.PublicKey
}

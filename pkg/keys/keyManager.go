package keys

import (
	"crypto/rand"
	"io"

	"go.uber.org/zap"
)

// IKeyManager generates seeds and derives keypairs from them
type IKeyManager interface {
	// Generate draws a fresh seed and derives its keypair
	Generate() (Seed, *KeyPair, error)

	// Derive expands a seed into a keypair, returning nil for unusable seeds
	Derive(seed []byte) *KeyPair
}

// LocalKeyManager derives keys in process using an injectable entropy source
type LocalKeyManager struct {
	logger *zap.Logger
	rand   io.Reader
}

// Compile-time check to ensure LocalKeyManager implements IKeyManager
var _ IKeyManager = (*LocalKeyManager)(nil)

// NewLocalKeyManager creates a key manager reading entropy from r (crypto/rand when nil)
func NewLocalKeyManager(logger *zap.Logger, r io.Reader) *LocalKeyManager {
	if r == nil {
		r = rand.Reader
	}
	return &LocalKeyManager{
		logger: logger,
		rand:   r,
	}
}

func (l *LocalKeyManager) Generate() (Seed, *KeyPair, error) {
	seed, kp, err := Generate(l.rand)
	if err != nil {
		l.logger.Sugar().Errorw("Failed to generate seed", "error", err)
		return nil, nil, err
	}

	l.logger.Info("Generated new identity",
		zap.String("publicKey", PublicKeyHex(kp)),
	)
	return seed, kp, nil
}

func (l *LocalKeyManager) Derive(seed []byte) *KeyPair {
	kp := Derive(seed)
	if kp == nil {
		l.logger.Debug("Seed did not yield a keypair", zap.Int("seedLength", len(seed)))
		return nil
	}
	return kp
}

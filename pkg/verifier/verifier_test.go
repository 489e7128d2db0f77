package verifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Layr-Labs/tweetproof-go/pkg/codec"
	"github.com/Layr-Labs/tweetproof-go/pkg/keys"
	"github.com/Layr-Labs/tweetproof-go/pkg/signer"
	"github.com/Layr-Labs/tweetproof-go/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	mu      sync.Mutex
	valid   bool
	err     error
	lastReq *types.VerifyRequest
}

func (f *fakeRemote) Verify(_ context.Context, req *types.VerifyRequest) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReq = req
	return f.valid, f.err
}

func signedFixture(t *testing.T, message string) (*keys.KeyPair, *signer.SignedArtifact) {
	t.Helper()
	kp := keys.Derive(make([]byte, keys.SeedSize))
	require.NotNil(t, kp)
	artifact, err := signer.Sign(message, kp)
	require.NoError(t, err)
	return kp, artifact
}

func TestVerifyLocal_HelloWorld(t *testing.T) {
	kp, artifact := signedFixture(t, "hello world")

	// signature portion of the artifact, exactly as pasted
	sigLine := strings.SplitN(artifact.String(), "\n", 2)[1]
	assert.True(t, VerifyLocal("hello world", sigLine, keys.PublicProfileLine(kp)))
	assert.True(t, VerifyLocal("  hello world\n", artifact.SignatureBase64(), codec.EncodeBase64(kp.PublicKey)))
}

func TestVerifyLocal_PrefixTolerance(t *testing.T) {
	kp, artifact := signedFixture(t, "prefixes")
	b64 := codec.EncodeBase64(kp.PublicKey)

	for _, pub := range []string{
		"ed25519: " + b64,
		"ED25519:" + b64,
		"ed25519:\t  " + b64,
		"  " + b64 + "  ",
	} {
		assert.True(t, VerifyLocal("prefixes", artifact.SignatureLine(), pub), pub)
	}
}

func TestVerifyLocal_Rejects(t *testing.T) {
	kp, artifact := signedFixture(t, "original")
	pub := keys.PublicProfileLine(kp)
	sig := artifact.SignatureLine()

	other := keys.Derive([]byte(strings.Repeat("k", keys.SeedSize)))
	require.NotNil(t, other)

	tests := []struct {
		name      string
		message   string
		signature string
		publicKey string
	}{
		{"different message", "original!", sig, pub},
		{"different key", "original", sig, keys.PublicProfileLine(other)},
		{"empty everything", "", "", ""},
		{"blank signature", "original", "   ", pub},
		{"malformed signature", "original", "//sig:***", pub},
		{"short signature", "original", "//sig:AAAA", pub},
		{"malformed key", "original", sig, "ed25519: !!!"},
		{"short key", "original", sig, "ed25519: AAAA"},
		{"hex key", "original", sig, keys.PublicKeyHex(kp)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifyLocal(tt.message, tt.signature, tt.publicKey))
		})
	}
	assert.False(t, VerifyTriple(nil))
}

func TestNormalize(t *testing.T) {
	triple := Normalize("  msg \n", "//sig:c2ln", "Ed25519:   a2V5")
	assert.Equal(t, &Triple{Message: "msg", Signature: "c2ln", PublicKeyB64: "a2V5"}, triple)

	req := triple.Request()
	assert.Equal(t, "msg", req.Message)
	assert.Equal(t, "c2ln", req.Signature)
	assert.Equal(t, "a2V5", req.PublicKeyB64)
}

func TestVerifyRemote(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		remote := &fakeRemote{valid: true}
		assert.Equal(t, StatusValid, VerifyRemote(ctx, remote, " m ", "//sig:c2ln", "ed25519: a2V5"))
		assert.Equal(t, &types.VerifyRequest{Message: "m", Signature: "c2ln", PublicKeyB64: "a2V5"}, remote.lastReq)
	})

	t.Run("invalid", func(t *testing.T) {
		assert.Equal(t, StatusInvalid, VerifyRemote(ctx, &fakeRemote{valid: false}, "m", "s", "k"))
	})

	t.Run("failure is unavailable, not invalid", func(t *testing.T) {
		remote := &fakeRemote{err: types.ErrVerificationUnavailable}
		assert.Equal(t, StatusUnavailable, VerifyRemote(ctx, remote, "m", "s", "k"))
	})

	t.Run("nil remote", func(t *testing.T) {
		assert.Equal(t, StatusUnavailable, VerifyRemote(ctx, nil, "m", "s", "k"))
	})
}

func TestCheck_KeepsAnswersSeparate(t *testing.T) {
	kp, artifact := signedFixture(t, "both")
	ctx := context.Background()

	report := Check(ctx, nil, "both", artifact.SignatureLine(), keys.PublicProfileLine(kp))
	assert.Equal(t, Report{Local: StatusValid, Remote: StatusNotVerified}, report)

	report = Check(ctx, &fakeRemote{err: errors.New("down")}, "both", artifact.SignatureLine(), keys.PublicProfileLine(kp))
	assert.Equal(t, Report{Local: StatusValid, Remote: StatusUnavailable}, report)

	report = Check(ctx, &fakeRemote{valid: false}, "both", artifact.SignatureLine(), keys.PublicProfileLine(kp))
	assert.Equal(t, Report{Local: StatusValid, Remote: StatusInvalid}, report)
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "not verified", StatusNotVerified.String())
	assert.Equal(t, "unavailable", StatusUnavailable.String())
	assert.Equal(t, "unknown", Status(99).String())

	assert.False(t, StatusNotVerified.Settled())
	assert.False(t, StatusPending.Settled())
	assert.True(t, StatusUnavailable.Settled())
	assert.NotEqual(t, StatusNotVerified, StatusInvalid)
}

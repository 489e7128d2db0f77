package signer

import (
	"errors"
	"strings"
	"testing"

	"github.com/Layr-Labs/tweetproof-go/pkg/codec"
	"github.com/Layr-Labs/tweetproof-go/pkg/keys"
	"github.com/Layr-Labs/tweetproof-go/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ed25519"
)

func testKeyPair(t *testing.T, fill byte) *keys.KeyPair {
	t.Helper()
	seed := make([]byte, keys.SeedSize)
	for i := range seed {
		seed[i] = fill
	}
	kp := keys.Derive(seed)
	require.NotNil(t, kp)
	return kp
}

func TestSign_HelloWorld(t *testing.T) {
	kp := testKeyPair(t, 0x01)

	artifact, err := Sign("hello world", kp)
	require.NoError(t, err)

	assert.Equal(t, "hello world", artifact.Message)
	assert.Len(t, artifact.Signature, ed25519.SignatureSize)
	assert.True(t, ed25519.Verify(kp.PublicKey, []byte("hello world"), artifact.Signature))

	text := artifact.String()
	assert.True(t, strings.HasPrefix(text, "hello world\n//sig:"))

	sig, err := codec.DecodeBase64(strings.SplitN(text, "\n", 2)[1])
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(kp.PublicKey, []byte("hello world"), sig))
}

func TestSign_TrimsMessage(t *testing.T) {
	kp := testKeyPair(t, 0x02)

	padded, err := Sign("  gm frens \n\t", kp)
	require.NoError(t, err)
	plain, err := Sign("gm frens", kp)
	require.NoError(t, err)

	assert.Equal(t, "gm frens", padded.Message)
	assert.Equal(t, plain.Signature, padded.Signature)
}

func TestSign_Deterministic(t *testing.T) {
	kp := testKeyPair(t, 0x03)

	a, err := Sign("same text", kp)
	require.NoError(t, err)
	b, err := Sign("same text", kp)
	require.NoError(t, err)

	assert.Equal(t, a.Signature, b.Signature)
	assert.Equal(t, ed25519.Sign(kp.PrivateKey, []byte("same text")), []byte(a.Signature))
}

func TestSign_Errors(t *testing.T) {
	kp := testKeyPair(t, 0x04)

	tests := []struct {
		name    string
		message string
		kp      *keys.KeyPair
		wantErr error
		text    string
	}{
		{"no key", "hello", nil, types.ErrNoKey, "No private key loaded."},
		{"no key is reported before empty message", "   ", nil, types.ErrNoKey, "No private key loaded."},
		{"empty message", "", kp, types.ErrEmptyMessage, "Empty message."},
		{"whitespace message", " \n\t ", kp, types.ErrEmptyMessage, "Empty message."},
		{"truncated key", "hello", &keys.KeyPair{PrivateKey: kp.PrivateKey[:10]}, types.ErrNoKey, "No private key loaded."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifact, err := Sign(tt.message, tt.kp)
			require.Error(t, err)
			assert.Nil(t, artifact)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.Equal(t, tt.text, RejectionMessage(err))
		})
	}
}

func TestRejectionMessage(t *testing.T) {
	assert.Equal(t, "", RejectionMessage(nil))
	assert.Equal(t, "Failed to sign. Check key format.", RejectionMessage(types.ErrMalformedEncoding))
	assert.Equal(t, "Failed to sign. Check key format.", RejectionMessage(errors.New("boom")))
}

func TestParseSignedArtifact(t *testing.T) {
	kp := testKeyPair(t, 0x05)

	t.Run("round trip", func(t *testing.T) {
		artifact, err := Sign("line one\nline two", kp)
		require.NoError(t, err)

		parsed, err := ParseSignedArtifact(artifact.String())
		require.NoError(t, err)
		assert.Equal(t, artifact.Message, parsed.Message)
		assert.Equal(t, artifact.Signature, parsed.Signature)
	})

	t.Run("splits on last marker", func(t *testing.T) {
		inner, err := Sign("quoted", kp)
		require.NoError(t, err)
		outer, err := Sign(inner.String()+"\nand a reply", kp)
		require.NoError(t, err)

		parsed, err := ParseSignedArtifact(outer.String())
		require.NoError(t, err)
		assert.Equal(t, outer.Message, parsed.Message)
		assert.Equal(t, outer.Signature, parsed.Signature)
	})

	t.Run("windows line endings", func(t *testing.T) {
		artifact, err := Sign("crlf", kp)
		require.NoError(t, err)

		parsed, err := ParseSignedArtifact(strings.ReplaceAll(artifact.String(), "\n", "\r\n") + "\r\n")
		require.NoError(t, err)
		assert.Equal(t, "crlf", parsed.Message)
	})

	for name, text := range map[string]string{
		"no marker":     "just a message",
		"bad base64":    "message\n//sig:not*base64",
		"short sig":     "message\n//sig:AAAA",
		"marker inline": "message //sig:AAAA",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSignedArtifact(text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrMalformedEncoding))
		})
	}
}

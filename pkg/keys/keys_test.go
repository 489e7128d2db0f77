package keys

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"strings"
	"testing"

	"github.com/Layr-Labs/tweetproof-go/pkg/codec"
	"github.com/Layr-Labs/tweetproof-go/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/ed25519"
)

// RFC 8032 section 7.1, TEST 1
const (
	rfcSeedHex      = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"
	rfcPublicKeyHex = "d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a"

	zeroSeedPublicKeyHex = "3b6a27bcceb6a42d62a3a8d02a6f0d73653215771de243a63ac048a18b59da29"
)

type deterministicReader struct{ b byte }

func (r *deterministicReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.b
		r.b++
	}
	return len(p), nil
}

func TestDerive_ZeroSeedGoldenVector(t *testing.T) {
	kp := Derive(make([]byte, SeedSize))
	require.NotNil(t, kp)

	assert.Equal(t, zeroSeedPublicKeyHex, PublicKeyHex(kp))
	assert.Equal(t, "ed25519: "+codec.EncodeBase64(kp.PublicKey), PublicProfileLine(kp))
}

func TestDerive_RFC8032Vector(t *testing.T) {
	seed, err := ParseSeed(rfcSeedHex)
	require.NoError(t, err)

	kp := Derive(seed)
	require.NotNil(t, kp)
	assert.Equal(t, rfcPublicKeyHex, PublicKeyHex(kp))
}

func TestDerive_Deterministic(t *testing.T) {
	for i := 0; i < 16; i++ {
		seed := sha256.Sum256([]byte{byte(i)})

		a := Derive(seed[:])
		b := Derive(seed[:])
		require.NotNil(t, a)
		require.NotNil(t, b)

		assert.Equal(t, a.PublicKey, b.PublicKey)
		assert.Equal(t, a.PrivateKey, b.PrivateKey)

		msg := []byte("same message")
		assert.Equal(t, ed25519.Sign(a.PrivateKey, msg), ed25519.Sign(b.PrivateKey, msg))
	}
}

func TestDerive_WrongLength(t *testing.T) {
	for _, n := range []int{0, 1, 16, 31, 33, 64} {
		assert.Nil(t, Derive(make([]byte, n)), "length %d", n)
	}
	assert.Nil(t, Derive(nil))

	assert.Equal(t, "", PublicKeyHex(nil))
	assert.Equal(t, "", PublicProfileLine(nil))
	assert.Equal(t, "", PublicKeyBase58(nil))
}

func TestDerive_DoesNotAliasSeed(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, SeedSize)
	kp := Derive(seed)
	require.NotNil(t, kp)

	before := PublicKeyHex(kp)
	seed[0] ^= 0xff
	assert.Equal(t, before, PublicKeyHex(kp))
	assert.Equal(t, byte(0x42), kp.Seed()[0])
}

func TestGenerate(t *testing.T) {
	t.Run("deterministic source", func(t *testing.T) {
		seedA, kpA, err := Generate(&deterministicReader{})
		require.NoError(t, err)
		seedB, kpB, err := Generate(&deterministicReader{})
		require.NoError(t, err)

		assert.Len(t, seedA, SeedSize)
		assert.Equal(t, seedA, seedB)
		assert.Equal(t, kpA.PublicKey, kpB.PublicKey)
		assert.Equal(t, Derive(seedA).PublicKey, kpA.PublicKey)
	})

	t.Run("crypto source", func(t *testing.T) {
		seedA, _, err := Generate(nil)
		require.NoError(t, err)
		seedB, _, err := Generate(nil)
		require.NoError(t, err)
		assert.NotEqual(t, seedA, seedB)
	})

	t.Run("short source", func(t *testing.T) {
		_, _, err := Generate(strings.NewReader("too short"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read seed entropy")
	})
}

func TestParseSeed(t *testing.T) {
	t.Run("blank is absent", func(t *testing.T) {
		seed, err := ParseSeed("   ")
		require.NoError(t, err)
		assert.Nil(t, seed)
	})

	t.Run("prefixed hex", func(t *testing.T) {
		seed, err := ParseSeed("0x" + rfcSeedHex + "\n")
		require.NoError(t, err)
		assert.Equal(t, rfcSeedHex, seed.Hex())
	})

	t.Run("odd length", func(t *testing.T) {
		_, err := ParseSeed("abc")
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrMalformedEncoding))
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := ParseSeed("abcd")
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrInvalidSeedLength))
	})
}

func TestParsePublicKey(t *testing.T) {
	kp := Derive(make([]byte, SeedSize))
	require.NotNil(t, kp)

	for _, text := range []string{
		PublicProfileLine(kp),
		codec.EncodeBase64(kp.PublicKey),
		PublicKeyHex(kp),
		"0x" + PublicKeyHex(kp),
	} {
		pub, err := ParsePublicKey(text)
		require.NoError(t, err, text)
		assert.Equal(t, kp.PublicKey, pub)
	}

	_, err := ParsePublicKey("ed25519: AAAA")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMalformedEncoding))
}

func TestLocalKeyManager(t *testing.T) {
	km := NewLocalKeyManager(zaptest.NewLogger(t), &deterministicReader{b: 7})

	seed, kp, err := km.Generate()
	require.NoError(t, err)
	require.NotNil(t, kp)
	assert.Equal(t, kp.PublicKey, km.Derive(seed).PublicKey)
	assert.Nil(t, km.Derive(seed[:31]))
}

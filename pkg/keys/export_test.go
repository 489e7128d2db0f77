package keys

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Layr-Labs/tweetproof-go/pkg/codec"
	"github.com/Layr-Labs/tweetproof-go/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicKeyJWK_RoundTrip(t *testing.T) {
	kp := Derive(make([]byte, SeedSize))
	require.NotNil(t, kp)

	data, err := PublicKeyJWK(kp)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "OKP", fields["kty"])
	assert.Equal(t, "Ed25519", fields["crv"])
	assert.NotContains(t, fields, "d", "private material must never be exported")

	pub, err := ParsePublicKeyJWK(data)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey, pub)
}

func TestPublicKeyJWK_Errors(t *testing.T) {
	_, err := PublicKeyJWK(nil)
	assert.True(t, errors.Is(err, types.ErrNoKey))

	_, err = ParsePublicKeyJWK([]byte(`{"kty":"nope"}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMalformedEncoding))
}

func TestParseAnyPublicKey(t *testing.T) {
	kp := Derive(make([]byte, SeedSize))
	require.NotNil(t, kp)

	jwkData, err := PublicKeyJWK(kp)
	require.NoError(t, err)

	inputs := map[string]string{
		"jwk":           "  " + string(jwkData) + "\n",
		"identity line": PublicProfileLine(kp),
		"base64":        codec.EncodeBase64(kp.PublicKey),
		"hex":           PublicKeyHex(kp),
	}
	for name, text := range inputs {
		t.Run(name, func(t *testing.T) {
			pub, err := ParseAnyPublicKey(text)
			require.NoError(t, err)
			assert.Equal(t, kp.PublicKey, pub)
		})
	}

	_, err = ParseAnyPublicKey(`{"kty":"OKP"}`)
	assert.True(t, errors.Is(err, types.ErrMalformedEncoding))

	_, err = ParseAnyPublicKey("ed25519: AAAA")
	assert.True(t, errors.Is(err, types.ErrMalformedEncoding))
}

func TestPublicKeyBase58(t *testing.T) {
	kp := Derive(make([]byte, SeedSize))
	require.NotNil(t, kp)

	text := PublicKeyBase58(kp)
	require.NotEmpty(t, text)

	decoded, err := codec.Decode(codec.EncodedForm{Kind: codec.KindBase58, Text: text})
	require.NoError(t, err)
	assert.Equal(t, []byte(kp.PublicKey), decoded)
}

func TestMnemonic_RoundTrip(t *testing.T) {
	seed, err := ParseSeed(rfcSeedHex)
	require.NoError(t, err)

	words, err := SeedToMnemonic(seed)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(words), 24)

	recovered, err := SeedFromMnemonic(words)
	require.NoError(t, err)
	assert.Equal(t, seed, recovered)

	// extra whitespace and capitalisation are tolerated
	messy := "  " + strings.ToUpper(strings.ReplaceAll(words, " ", "   ")) + "\n"
	recovered, err = SeedFromMnemonic(messy)
	require.NoError(t, err)
	assert.Equal(t, seed, recovered)
}

func TestMnemonic_Errors(t *testing.T) {
	_, err := SeedToMnemonic(Seed{1, 2, 3})
	assert.True(t, errors.Is(err, types.ErrInvalidSeedLength))

	_, err = SeedFromMnemonic("")
	assert.True(t, errors.Is(err, ErrInvalidMnemonic))

	_, err = SeedFromMnemonic("hello world not a mnemonic")
	assert.True(t, errors.Is(err, ErrInvalidMnemonic))

	// a valid 12 word mnemonic carries only 16 bytes of entropy
	_, err = SeedFromMnemonic("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about")
	assert.True(t, errors.Is(err, types.ErrInvalidSeedLength))
}

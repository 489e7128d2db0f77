// Package codec converts between raw bytes and the textual forms used to share keys
// and signatures: lowercase hex, standard base64, and two annotated base64 variants
// ("ed25519: " identity lines and "//sig:" signature tags).
//
// Bytes are always the canonical representation; every form here is for display or
// transport only.
package codec

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/Layr-Labs/tweetproof-go/pkg/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mr-tron/base58/base58"
)

const (
	// IdentityPrefix starts the canonical identity line "ed25519: <base64 public key>"
	IdentityPrefix = "ed25519: "

	// SignatureTag marks the signature portion of a signed artifact
	SignatureTag = "//sig:"

	hexPrefix = "0x"
)

// case-insensitive "ed25519:" followed by any amount of whitespace
var identityPrefixPattern = regexp.MustCompile(`(?i)^ed25519:\s*`)

type Kind string

func (k Kind) String() string {
	return string(k)
}

const (
	KindHex          Kind = "hex"
	KindBase64       Kind = "base64"
	KindIdentityLine Kind = "identity-line"
	KindSignatureTag Kind = "signature-tag"
	KindBase58       Kind = "base58"
)

// EncodedForm is a textual rendering of bytes tagged with how it was produced
type EncodedForm struct {
	Kind Kind
	Text string
}

func (e EncodedForm) String() string {
	return e.Text
}

// EncodeHex renders b as lowercase hex with no prefix or separators
func EncodeHex(b []byte) string {
	return strings.TrimPrefix(hexutil.Encode(b), hexPrefix)
}

// DecodeHex parses hex text. Surrounding whitespace and an optional 0x prefix are
// ignored. Blank input decodes to an empty slice.
func DecodeHex(text string) ([]byte, error) {
	s := strings.TrimPrefix(strings.TrimSpace(text), hexPrefix)
	if s == "" {
		return []byte{}, nil
	}

	b, err := hexutil.Decode(hexPrefix + s)
	if err != nil {
		return nil, fmt.Errorf("%w: hex: %v", types.ErrMalformedEncoding, err)
	}
	return b, nil
}

// EncodeBase64 renders b with the standard padded base64 alphabet
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeBase64 parses standard base64, first removing surrounding whitespace, a
// case-insensitive "ed25519:" prefix and a "//sig:" tag when present.
func DecodeBase64(text string) ([]byte, error) {
	s := StripAnnotations(text)

	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", types.ErrMalformedEncoding, err)
	}
	return b, nil
}

// StripIdentityPrefix trims text and removes a leading "ed25519:" (any case) together
// with the whitespace that follows it
func StripIdentityPrefix(text string) string {
	return identityPrefixPattern.ReplaceAllString(strings.TrimSpace(text), "")
}

// StripSignatureTag trims text and removes a leading "//sig:" tag
func StripSignatureTag(text string) string {
	return strings.TrimPrefix(strings.TrimSpace(text), SignatureTag)
}

// StripAnnotations removes both kinds of prefix, identity prefix first
func StripAnnotations(text string) string {
	return strings.TrimSpace(StripSignatureTag(StripIdentityPrefix(text)))
}

// IsAbsent reports whether text carries no input at all, as opposed to malformed input
func IsAbsent(text string) bool {
	return strings.TrimSpace(text) == ""
}

// Encode renders b in the requested form
func Encode(kind Kind, b []byte) (EncodedForm, error) {
	switch kind {
	case KindHex:
		return EncodedForm{Kind: kind, Text: EncodeHex(b)}, nil
	case KindBase64:
		return EncodedForm{Kind: kind, Text: EncodeBase64(b)}, nil
	case KindIdentityLine:
		return EncodedForm{Kind: kind, Text: IdentityPrefix + EncodeBase64(b)}, nil
	case KindSignatureTag:
		return EncodedForm{Kind: kind, Text: SignatureTag + EncodeBase64(b)}, nil
	case KindBase58:
		return EncodedForm{Kind: kind, Text: base58.Encode(b)}, nil
	default:
		return EncodedForm{}, fmt.Errorf("unsupported encoding kind: %s", kind)
	}
}

// Decode reverses Encode
func Decode(form EncodedForm) ([]byte, error) {
	switch form.Kind {
	case KindHex:
		return DecodeHex(form.Text)
	case KindBase64, KindIdentityLine, KindSignatureTag:
		return DecodeBase64(form.Text)
	case KindBase58:
		s := strings.TrimSpace(form.Text)
		if s == "" {
			return []byte{}, nil
		}
		b, err := base58.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("%w: base58: %v", types.ErrMalformedEncoding, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported encoding kind: %s", form.Kind)
	}
}

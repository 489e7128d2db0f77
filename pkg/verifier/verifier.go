// Package verifier checks detached Ed25519 signatures locally and against a remote
// verification authority. Local and remote answers are reported side by side and
// never merged.
package verifier

import (
	"context"
	"strings"

	"github.com/Layr-Labs/tweetproof-go/pkg/codec"
	"github.com/Layr-Labs/tweetproof-go/pkg/types"
	"golang.org/x/crypto/ed25519"
)

type Status int

const (
	// StatusNotVerified means no check has been attempted for the current input
	StatusNotVerified Status = iota
	StatusPending
	StatusValid
	StatusInvalid
	// StatusUnavailable means the check could not be completed; it says nothing about validity
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusNotVerified:
		return "not verified"
	case StatusPending:
		return "pending"
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Settled reports whether the status is a final answer of a check
func (s Status) Settled() bool {
	return s == StatusValid || s == StatusInvalid || s == StatusUnavailable
}

// StatusFromBool maps a definite answer onto Valid or Invalid
func StatusFromBool(valid bool) Status {
	if valid {
		return StatusValid
	}
	return StatusInvalid
}

// Triple is the normalized input of one verification
type Triple struct {
	Message      string
	Signature    string
	PublicKeyB64 string
}

// Normalize trims the message and removes the "//sig:" tag and "ed25519:" prefix.
// Signature and key stay base64 encoded.
func Normalize(message, signature, publicKey string) *Triple {
	return &Triple{
		Message:      strings.TrimSpace(message),
		Signature:    codec.StripAnnotations(signature),
		PublicKeyB64: codec.StripAnnotations(publicKey),
	}
}

// Request builds the wire request for the remote authority
func (t *Triple) Request() *types.VerifyRequest {
	return &types.VerifyRequest{
		Message:      t.Message,
		Signature:    t.Signature,
		PublicKeyB64: t.PublicKeyB64,
	}
}

// VerifyLocal checks the signature in process. Any decoding problem or wrong length
// yields false.
func VerifyLocal(message, signature, publicKey string) bool {
	t := Normalize(message, signature, publicKey)
	return t.verify()
}

// VerifyTriple is VerifyLocal for an already normalized triple
func VerifyTriple(t *Triple) bool {
	if t == nil {
		return false
	}
	return t.verify()
}

func (t *Triple) verify() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	pub, err := codec.DecodeBase64(t.PublicKeyB64)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	sig, err := codec.DecodeBase64(t.Signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), []byte(t.Message), sig)
}

// RemoteVerifier is the remote verification authority. Implementations return an
// error for any transport or protocol failure so it can be told apart from "invalid".
type RemoteVerifier interface {
	Verify(ctx context.Context, req *types.VerifyRequest) (bool, error)
}

// VerifyRemote asks the authority about the normalized triple
func VerifyRemote(ctx context.Context, remote RemoteVerifier, message, signature, publicKey string) Status {
	return verifyRemoteTriple(ctx, remote, Normalize(message, signature, publicKey))
}

func verifyRemoteTriple(ctx context.Context, remote RemoteVerifier, t *Triple) Status {
	if remote == nil {
		return StatusUnavailable
	}
	valid, err := remote.Verify(ctx, t.Request())
	if err != nil {
		return StatusUnavailable
	}
	return StatusFromBool(valid)
}

// Report carries the local and the remote answer separately
type Report struct {
	Local  Status
	Remote Status
}

// Check runs the local check and, when remote is non-nil, the remote one
func Check(ctx context.Context, remote RemoteVerifier, message, signature, publicKey string) Report {
	t := Normalize(message, signature, publicKey)

	report := Report{
		Local:  StatusFromBool(t.verify()),
		Remote: StatusNotVerified,
	}
	if remote != nil {
		report.Remote = verifyRemoteTriple(ctx, remote, t)
	}
	return report
}

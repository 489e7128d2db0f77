package types

import "errors"

// Error taxonomy shared by every component. All of these are recoverable: callers
// degrade the affected field to a blank or "cannot verify" state instead of failing.
var (
	// ErrMalformedEncoding is returned when hex or base64 input cannot be decoded
	ErrMalformedEncoding = errors.New("malformed encoding")

	// ErrInvalidSeedLength is returned when a seed decodes but is not exactly 32 bytes
	ErrInvalidSeedLength = errors.New("invalid seed length")

	// ErrNoKey is returned when signing is attempted without a derivable keypair
	ErrNoKey = errors.New("no private key loaded")

	// ErrEmptyMessage is returned when signing is attempted on blank text
	ErrEmptyMessage = errors.New("empty message")

	// ErrVerificationUnavailable is returned when the remote verifier cannot be reached
	// or answers outside of the wire contract
	ErrVerificationUnavailable = errors.New("verification unavailable")
)

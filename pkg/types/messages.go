package types

// VerifyRequest is the body of POST /api/verify.
//
// Message is already trimmed, Signature has any "//sig:" tag removed and
// PublicKeyB64 has any "ed25519: " prefix removed. Both remain base64 encoded.
type VerifyRequest struct {
	Message      string `json:"message"`
	Signature    string `json:"signature"`
	PublicKeyB64 string `json:"public_key_b64"`
}

// VerifyResponse is the body returned by POST /api/verify.
// Valid is a pointer so a client can tell a missing field apart from false.
type VerifyResponse struct {
	Valid *bool  `json:"valid"`
	Error string `json:"error,omitempty"` // set by servers that cannot run the check
}

// NewVerifyResponse builds a response carrying a definite answer
func NewVerifyResponse(valid bool) *VerifyResponse {
	return &VerifyResponse{Valid: &valid}
}

// HealthResponse is returned by GET /healthz
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

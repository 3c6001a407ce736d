package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"ledger/internal/domain"
)

// SignatureVerifier validates that a webhook payload was produced by the
// billing provider sharing the secret. Verification runs over the raw request
// body bytes, before any JSON decoding: re-serialization is not guaranteed to
// be byte-identical to what the provider signed.
type SignatureVerifier struct {
	secret string
}

// NewSignatureVerifier creates a verifier for the given shared secret. An
// empty secret is allowed at construction; Verify reports it as
// domain.ErrNotConfigured so the transport layer can answer with a server
// error instead of rejecting the payload as untrusted.
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: secret}
}

// Configured reports whether a shared secret is present.
func (v *SignatureVerifier) Configured() bool {
	return v.secret != ""
}

// Verify checks the provided hex-encoded HMAC-SHA256 signature against the
// raw body. The comparison is constant-time.
func (v *SignatureVerifier) Verify(body []byte, signature string) error {
	if v.secret == "" {
		return domain.ErrNotConfigured
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return domain.ErrSignatureMismatch
	}
	return nil
}

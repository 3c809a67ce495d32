package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// 32 bytes gives 256 bits of entropy. Verification tokens are the only
// credential a verifier presents, so guessability is an authorization
// bypass, not just an inconvenience.
const verificationTokenSize = 32

// NewVerificationToken returns a URL-safe opaque bearer token.
func NewVerificationToken() (string, error) {
	b := make([]byte, verificationTokenSize)

	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token, %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

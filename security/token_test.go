package security

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVerificationTokenEntropy(t *testing.T) {
	token, err := NewVerificationToken()
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, raw, verificationTokenSize)
}

func TestNewVerificationTokenUniqueness(t *testing.T) {
	const n = 10000

	seen := make(map[string]struct{}, n)
	for range n {
		token, err := NewVerificationToken()
		require.NoError(t, err)

		_, dup := seen[token]
		require.False(t, dup, "token collision after %d tokens", len(seen))
		seen[token] = struct{}{}
	}
}

func TestNewVerificationTokenIsURLSafe(t *testing.T) {
	for range 100 {
		token, err := NewVerificationToken()
		require.NoError(t, err)
		assert.NotContains(t, token, "/")
		assert.NotContains(t, token, "+")
		assert.NotContains(t, token, "=")
	}
}

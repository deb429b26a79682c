package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(7, "secret", 1)
	require.NoError(t, err)

	userID, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(7), userID)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(7, "secret", 1)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	token, err := GenerateToken(7, "secret", -1)
	require.NoError(t, err)

	_, err = ValidateToken(token, "secret")
	assert.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	_, err := ValidateToken("not-a-token", "secret")
	assert.Error(t, err)
}

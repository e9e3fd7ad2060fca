package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Valid123!Pass")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, VerifyPassword("Valid123!Pass", hash))
	assert.False(t, VerifyPassword("Wrong123!Pass", hash))
}

func TestHashIsSalted(t *testing.T) {
	first, err := HashPassword("Valid123!Pass")
	require.NoError(t, err)
	second, err := HashPassword("Valid123!Pass")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyPasswordGarbageHash(t *testing.T) {
	assert.False(t, VerifyPassword("anything", []byte("not-a-bcrypt-hash")))
	assert.False(t, VerifyPassword("anything", nil))
}

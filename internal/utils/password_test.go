package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := HashPassword("s3cret-seed", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-seed", hash)

	assert.True(t, VerifyPassword(hash, "s3cret-seed"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("not-a-hash", "s3cret-seed"))
}

func TestHashPasswordCostFallback(t *testing.T) {
	hash, err := HashPassword("fertilizer", 99)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultBcryptCost, cost)
}

func TestHashPasswordEmpty(t *testing.T) {
	_, err := HashPassword("", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestHashPasswordTooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", 80), bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	hash, err := HashPassword(strings.Repeat("x", MaxPasswordBytes), bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, strings.Repeat("x", MaxPasswordBytes)))
}

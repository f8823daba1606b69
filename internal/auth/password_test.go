package auth_test

import (
	"strings"
	"testing"

	"github.com/noit/research-api/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
	}{
		{name: "short password", password: "pw1"},
		{name: "unicode password", password: "pässwörd-日本"},
		{name: "exactly 72 bytes", password: strings.Repeat("a", 72)},
		{name: "longer than bcrypt window", password: strings.Repeat("b", 500)},
		{name: "at maximum length", password: strings.Repeat("c", auth.MaxPasswordBytes)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hasher.Hash(tt.password)
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)
			assert.True(t, hasher.Verify(tt.password, hash))
			assert.False(t, hasher.Verify(tt.password+"x", hash))
		})
	}
}

func TestPasswordHasher_DistinctPasswords(t *testing.T) {
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("pw2")
	require.NoError(t, err)

	assert.False(t, hasher.Verify("pw1", hash))
	assert.False(t, hasher.Verify("", hash))
}

func TestPasswordHasher_LongPasswordsDifferAfter72Bytes(t *testing.T) {
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	prefix := strings.Repeat("p", 80)

	hash, err := hasher.Hash(prefix + "one")
	require.NoError(t, err)

	assert.False(t, hasher.Verify(prefix+"two", hash))
}

func TestPasswordHasher_SaltedHashes(t *testing.T) {
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)

	first, err := hasher.Hash("same-password")
	require.NoError(t, err)
	second, err := hasher.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestPasswordHasher_TooLong(t *testing.T) {
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tooLong := strings.Repeat("x", auth.MaxPasswordBytes+1)

	_, err := hasher.Hash(tooLong)
	assert.ErrorIs(t, err, auth.ErrPasswordTooLong)

	hash, err := hasher.Hash("short")
	require.NoError(t, err)
	assert.False(t, hasher.Verify(tooLong, hash))
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)

	tests := []struct {
		name string
		hash string
	}{
		{name: "empty", hash: ""},
		{name: "plaintext", hash: "pw1"},
		{name: "unknown version", hash: "$9z$10$abcdefghijklmnopqrstuuABCDEFGHIJKLMNOPQRSTUVWXYZ01234"},
		{name: "truncated bcrypt", hash: "$2a$10$abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, hasher.Verify("pw1", tt.hash))
			})
		})
	}
}

func TestNewPasswordHasher_InvalidCostFallsBack(t *testing.T) {
	hasher := auth.NewPasswordHasher(0)

	hash, err := hasher.Hash("pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

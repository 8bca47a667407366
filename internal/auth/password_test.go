package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashers(t *testing.T) {
	hashers := map[string]PasswordHasher{
		"bcrypt":   BcryptHasher{Cost: bcrypt.MinCost},
		"argon2id": Argon2idHasher{},
	}

	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			first, err := h.Hash("secret123")
			require.NoError(t, err)
			second, err := h.Hash("secret123")
			require.NoError(t, err)

			assert.NotEqual(t, first, second, "hashes must be salted")
			assert.NotContains(t, first, "secret123")
			assert.True(t, h.Verify(first, "secret123"))
			assert.False(t, h.Verify(first, "secret124"))
		})
	}
}

func TestVerifyAcrossAlgorithms(t *testing.T) {
	argonHash, err := Argon2idHasher{}.Hash("secret123")
	require.NoError(t, err)
	bcryptHash, err := BcryptHasher{Cost: bcrypt.MinCost}.Hash("secret123")
	require.NoError(t, err)

	assert.True(t, BcryptHasher{Cost: bcrypt.MinCost}.Verify(argonHash, "secret123"))
	assert.True(t, Argon2idHasher{}.Verify(bcryptHash, "secret123"))
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	h := Argon2idHasher{}

	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=3,p=4$bad",
		"$argon2id$v=18$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=0,p=0$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=4$***$aGFzaA",
	} {
		assert.False(t, h.Verify(encoded, "secret123"), "hash %q", encoded)
	}
}

func TestNewPasswordHasher(t *testing.T) {
	h, err := NewPasswordHasher("bcrypt", 12)
	require.NoError(t, err)
	assert.Equal(t, BcryptHasher{Cost: 12}, h)

	h, err = NewPasswordHasher("argon2id", 0)
	require.NoError(t, err)
	encoded, err := h.Hash("secret123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, argon2Prefix))

	_, err = NewPasswordHasher("bcrypt", 2)
	assert.Error(t, err)
	_, err = NewPasswordHasher("md5", 0)
	assert.Error(t, err)
}

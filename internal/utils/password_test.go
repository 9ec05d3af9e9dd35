package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Password1!", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "Password1!"))
	assert.False(t, VerifyPassword(hash, "password1!"))
	assert.False(t, VerifyPassword("not-a-hash", "Password1!"))
}

func TestPasswordProblem(t *testing.T) {
	assert.Empty(t, PasswordProblem("Password1!"))
	assert.NotEmpty(t, PasswordProblem("Pa1!"))
	assert.NotEmpty(t, PasswordProblem("password1!"))
	assert.NotEmpty(t, PasswordProblem("PASSWORD1!"))
	assert.NotEmpty(t, PasswordProblem("Password!!"))
	assert.NotEmpty(t, PasswordProblem("Password12"))
}

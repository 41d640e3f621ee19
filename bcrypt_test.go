package accounts_test

import (
	"strings"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "valid password",
			password: "securePassword123!",
		},
		{
			name:     "empty password rejected",
			password: "",
			wantErr:  true,
		},
		{
			name:     "long passphrase",
			password: strings.Repeat("a", 70),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := accounts.HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NoError(t, accounts.ComparePasswordAndHash(tt.password, hash))
		})
	}
}

func TestHashPasswordFreshSalt(t *testing.T) {
	first, err := accounts.HashPassword("same input")
	require.NoError(t, err)

	second, err := accounts.HashPassword("same input")
	require.NoError(t, err)

	// each hash carries its own salt
	assert.NotEqual(t, first, second)
	assert.True(t, accounts.PasswordMatches("same input", first))
	assert.True(t, accounts.PasswordMatches("same input", second))
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := accounts.HashPassword("testPassword123!")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  error
	}{
		{
			name:     "matching password",
			password: "testPassword123!",
			hash:     hash,
		},
		{
			name:     "wrong password",
			password: "wrongPassword",
			hash:     hash,
			wantErr:  accounts.ErrInvalidCredentials,
		},
		{
			name:     "malformed hash does not panic",
			password: "testPassword123!",
			hash:     "not-a-bcrypt-hash",
			wantErr:  accounts.ErrInvalidCredentials,
		},
		{
			name:     "empty hash",
			password: "testPassword123!",
			hash:     "",
			wantErr:  accounts.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := accounts.ComparePasswordAndHash(tt.password, tt.hash)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}

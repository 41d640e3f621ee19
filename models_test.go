package accounts_test

import (
	"encoding/json"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Person@Example.COM", "person@example.com"},
		{"  padded@example.com  ", "padded@example.com"},
		{"already@example.com", "already@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, accounts.NormalizeEmail(tt.in))
	}
}

func TestAccountCredentialPredicates(t *testing.T) {
	account := &accounts.Account{}
	assert.False(t, account.HasPassword())
	assert.False(t, account.HasExternalIdentity())
	assert.False(t, account.HasPendingReset())

	account.PasswordHash = "$2a$10$something"
	assert.True(t, account.HasPassword())

	account.ExternalID = "google-oauth2|12345"
	assert.True(t, account.HasExternalIdentity())

	expiry := time.Now().Add(time.Hour)
	account.ResetTokenHash = "digest"
	account.ResetTokenExpiresAt = &expiry
	assert.True(t, account.HasPendingReset())
}

func TestAccountEnsureStatus(t *testing.T) {
	account := &accounts.Account{}
	account.EnsureStatus()
	assert.Equal(t, accounts.StatusActive, account.Status)

	account.Status = accounts.StatusSuspended
	account.EnsureStatus()
	assert.Equal(t, accounts.StatusSuspended, account.Status)
}

func TestPublicProjectionOmitsSecrets(t *testing.T) {
	account := activeAccount("person@example.com")
	expiry := time.Now().Add(time.Hour)
	account.ResetTokenHash = "digest"
	account.ResetTokenExpiresAt = &expiry
	account.ExternalID = "google-oauth2|12345"

	public := account.Public()
	assert.Equal(t, account.ID, public.ID)
	assert.Equal(t, account.Email, public.Email)
	assert.Equal(t, account.Role, public.Role)

	raw, err := json.Marshal(public)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), account.PasswordHash)
	assert.NotContains(t, string(raw), "digest")
	assert.NotContains(t, string(raw), "google-oauth2")
}

func TestAccountJSONOmitsSecrets(t *testing.T) {
	account := activeAccount("person@example.com")
	account.ResetTokenHash = "digest"

	raw, err := json.Marshal(account)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), account.PasswordHash)
	assert.NotContains(t, string(raw), "digest")
}

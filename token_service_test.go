package accounts_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() accounts.TokenService {
	return accounts.NewTokenService(
		[]byte("test-signing-key"),
		1,
		"test-issuer",
		jwt.ClaimStrings{"test-audience"},
		testLogger{},
	)
}

func TestTokenServiceGenerateAndValidate(t *testing.T) {
	service := newTestTokenService()
	account := activeAccount("person@example.com")

	token, err := service.Generate(accounts.NewIdentityFromAccount(account))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, account.ID.String(), claims.Subject())
	assert.Equal(t, account.Email, claims.Email())
	assert.Equal(t, string(account.Role), claims.Role())
	assert.True(t, claims.Expires().After(time.Now()))
}

func TestTokenServiceValidateRejectsGarbage(t *testing.T) {
	service := newTestTokenService()

	_, err := service.Validate("not.a.token")
	require.Error(t, err)
	assert.True(t, accounts.IsMalformedError(err))
}

func TestTokenServiceValidateRejectsWrongKey(t *testing.T) {
	account := activeAccount("person@example.com")

	other := accounts.NewTokenService(
		[]byte("different-key"),
		1,
		"test-issuer",
		jwt.ClaimStrings{"test-audience"},
		testLogger{},
	)

	token, err := other.Generate(accounts.NewIdentityFromAccount(account))
	require.NoError(t, err)

	_, err = newTestTokenService().Validate(token)
	assert.Error(t, err)
}

func TestTokenServiceValidateRejectsExpired(t *testing.T) {
	service := newTestTokenService()

	now := time.Now()
	claims := &accounts.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Subject:   "account-123",
			Audience:  jwt.ClaimStrings{"test-audience"},
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
		UserRole: "user",
	}

	token, err := service.SignClaims(claims)
	require.NoError(t, err)

	_, err = service.Validate(token)
	assert.ErrorIs(t, err, accounts.ErrTokenExpired)
}

func TestTokenServiceValidateRejectsWrongIssuer(t *testing.T) {
	account := activeAccount("person@example.com")

	other := accounts.NewTokenService(
		[]byte("test-signing-key"),
		1,
		"another-issuer",
		jwt.ClaimStrings{"test-audience"},
		testLogger{},
	)

	token, err := other.Generate(accounts.NewIdentityFromAccount(account))
	require.NoError(t, err)

	_, err = newTestTokenService().Validate(token)
	assert.Error(t, err)
}

func TestTokenServiceSignClaimsNil(t *testing.T) {
	service := newTestTokenService()

	_, err := service.SignClaims(nil)
	assert.Error(t, err)
}

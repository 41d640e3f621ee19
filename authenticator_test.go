package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAutherLoginSuccess(t *testing.T) {
	ctx := context.Background()
	repo := &MockAccounts{}
	account := activeAccount("person@example.com")

	repo.On("GetByEmail", mock.Anything, account.Email, mock.Anything).
		Return(account, nil).Once()
	repo.On("TrackSuccessfulLogin", mock.Anything, account).
		Return(nil).Once()

	auther := newTestAuther(repo)

	token, err := auther.Login(ctx, account.Email, "correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := auther.TokenService().Validate(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID.String(), claims.UserID())
	assert.Equal(t, "user", claims.Role())
}

func TestAutherLoginInvalidCredentials(t *testing.T) {
	repo := &MockAccounts{}
	account := activeAccount("person@example.com")

	repo.On("GetByEmail", mock.Anything, account.Email, mock.Anything).
		Return(account, nil).Once()

	auther := newTestAuther(repo)

	_, err := auther.Login(context.Background(), account.Email, "bad password")
	assert.ErrorIs(t, err, accounts.ErrInvalidCredentials)
}

func TestAutherLoginStatusPolicy(t *testing.T) {
	tests := []struct {
		name    string
		status  accounts.AccountStatus
		wantErr error
	}{
		{name: "suspended accounts are refused", status: accounts.StatusSuspended, wantErr: accounts.ErrAccountSuspended},
		{name: "inactive accounts are refused", status: accounts.StatusInactive, wantErr: accounts.ErrAccountInactive},
		{name: "active accounts pass", status: accounts.StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockAccounts{}
			account := activeAccount("person@example.com")
			account.Status = tt.status

			repo.On("GetByEmail", mock.Anything, account.Email, mock.Anything).
				Return(account, nil).Once()
			repo.On("TrackSuccessfulLogin", mock.Anything, account).
				Return(nil).Maybe()

			auther := newTestAuther(repo)

			token, err := auther.Login(context.Background(), account.Email, "correct horse battery")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, token)
		})
	}
}

func TestAutherLoginEmitsActivity(t *testing.T) {
	repo := &MockAccounts{}
	sink := &MockActivitySink{}
	account := activeAccount("person@example.com")

	repo.On("GetByEmail", mock.Anything, account.Email, mock.Anything).
		Return(account, nil).Once()
	repo.On("TrackSuccessfulLogin", mock.Anything, account).
		Return(nil).Once()

	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt accounts.ActivityEvent) bool {
		return evt.EventType == accounts.ActivityEventLoginSuccess &&
			evt.AccountID == account.ID.String()
	})).Return(nil).Once()

	auther := newTestAuther(repo).WithActivitySink(sink)

	_, err := auther.Login(context.Background(), account.Email, "correct horse battery")
	require.NoError(t, err)

	sink.AssertExpectations(t)
}

func TestAutherLoginFailureEmitsActivity(t *testing.T) {
	repo := &MockAccounts{}
	sink := &MockActivitySink{}
	account := activeAccount("person@example.com")

	repo.On("GetByEmail", mock.Anything, account.Email, mock.Anything).
		Return(account, nil).Once()

	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt accounts.ActivityEvent) bool {
		return evt.EventType == accounts.ActivityEventLoginFailure
	})).Return(nil).Once()

	auther := newTestAuther(repo).WithActivitySink(sink)

	_, err := auther.Login(context.Background(), account.Email, "bad password")
	require.Error(t, err)

	sink.AssertExpectations(t)
}

func TestTokenForIdentity(t *testing.T) {
	auther := newTestAuther(&MockAccounts{})
	account := activeAccount("person@example.com")

	token, err := auther.TokenForIdentity(context.Background(), accounts.NewIdentityFromAccount(account))
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestTokenForIdentityNil(t *testing.T) {
	auther := newTestAuther(&MockAccounts{})

	_, err := auther.TokenForIdentity(context.Background(), nil)
	assert.ErrorIs(t, err, accounts.ErrInvalidCredentials)
}

func TestTokenForIdentitySuspended(t *testing.T) {
	auther := newTestAuther(&MockAccounts{})
	account := activeAccount("person@example.com")
	account.Status = accounts.StatusSuspended

	_, err := auther.TokenForIdentity(context.Background(), accounts.NewIdentityFromAccount(account))
	assert.ErrorIs(t, err, accounts.ErrAccountSuspended)
}

func TestSessionFromToken(t *testing.T) {
	repo := &MockAccounts{}
	account := activeAccount("person@example.com")
	auther := newTestAuther(repo)

	token, err := auther.TokenForIdentity(context.Background(), accounts.NewIdentityFromAccount(account))
	require.NoError(t, err)

	session, err := auther.SessionFromToken(token)
	require.NoError(t, err)

	assert.Equal(t, account.ID.String(), session.GetUserID())
	assert.Equal(t, "test-issuer", session.GetIssuer())
	assert.Equal(t, "user", session.GetData()["role"])
	assert.Equal(t, account.Email, session.GetData()["email"])
}

func TestSessionFromTokenInvalid(t *testing.T) {
	auther := newTestAuther(&MockAccounts{})

	_, err := auther.SessionFromToken("garbage")
	assert.Error(t, err)
}

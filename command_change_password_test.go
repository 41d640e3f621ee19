package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestChangePasswordHandlerSuccess(t *testing.T) {
	repo := &MockAccounts{}
	mailer := &MockMailer{}
	sink := &MockActivitySink{}
	account := activeAccount("person@example.com")

	repo.On("GetByIDTx", mock.Anything, mock.Anything, account.ID.String(), mock.Anything).
		Return(account, nil).Once()
	repo.On("SetPasswordTx", mock.Anything, mock.Anything, account.ID, mock.MatchedBy(func(hash string) bool {
		return accounts.PasswordMatches("replacement password", hash)
	})).Return(nil).Once()

	mailer.On("SendPasswordChanged", mock.Anything, account.Email, account.Name).
		Return(nil).Once()

	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt accounts.ActivityEvent) bool {
		return evt.EventType == accounts.ActivityEventPasswordChanged &&
			evt.AccountID == account.ID.String()
	})).Return(nil).Once()

	handler := accounts.NewChangePasswordHandler(newTestRepoManager(repo)).
		WithMailer(mailer).
		WithActivitySink(sink).
		WithLogger(testLogger{})

	responded := false
	err := handler.Execute(context.Background(), accounts.ChangePasswordMessage{
		AccountID:   account.ID.String(),
		OldPassword: "correct horse battery",
		NewPassword: "replacement password",
		OnResponse:  func() { responded = true },
	})
	require.NoError(t, err)
	assert.True(t, responded)

	repo.AssertExpectations(t)
	mailer.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestChangePasswordHandlerNoNotificationByDefault(t *testing.T) {
	repo := &MockAccounts{}
	account := activeAccount("person@example.com")

	repo.On("GetByIDTx", mock.Anything, mock.Anything, account.ID.String(), mock.Anything).
		Return(account, nil).Once()
	repo.On("SetPasswordTx", mock.Anything, mock.Anything, account.ID, mock.Anything).
		Return(nil).Once()

	// without a mailer the change completes silently
	handler := accounts.NewChangePasswordHandler(newTestRepoManager(repo)).
		WithLogger(testLogger{})

	err := handler.Execute(context.Background(), accounts.ChangePasswordMessage{
		AccountID:   account.ID.String(),
		OldPassword: "correct horse battery",
		NewPassword: "replacement password",
	})
	require.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestChangePasswordHandlerWrongOldPassword(t *testing.T) {
	repo := &MockAccounts{}
	account := activeAccount("person@example.com")

	repo.On("GetByIDTx", mock.Anything, mock.Anything, account.ID.String(), mock.Anything).
		Return(account, nil).Once()

	handler := accounts.NewChangePasswordHandler(newTestRepoManager(repo)).
		WithLogger(testLogger{})

	err := handler.Execute(context.Background(), accounts.ChangePasswordMessage{
		AccountID:   account.ID.String(),
		OldPassword: "not the password",
		NewPassword: "replacement password",
	})
	assert.ErrorIs(t, err, accounts.ErrPasswordMismatch)

	repo.AssertNotCalled(t, "SetPasswordTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePasswordHandlerExternalOnlyAccount(t *testing.T) {
	repo := &MockAccounts{}
	account := activeAccount("person@example.com")
	account.PasswordHash = ""
	account.ExternalID = "google-oauth2|12345"

	repo.On("GetByIDTx", mock.Anything, mock.Anything, account.ID.String(), mock.Anything).
		Return(account, nil).Once()

	handler := accounts.NewChangePasswordHandler(newTestRepoManager(repo)).
		WithLogger(testLogger{})

	err := handler.Execute(context.Background(), accounts.ChangePasswordMessage{
		AccountID:   account.ID.String(),
		OldPassword: "anything",
		NewPassword: "replacement password",
	})
	assert.ErrorIs(t, err, accounts.ErrPasswordUnset)
}

func TestChangePasswordHandlerUnknownAccount(t *testing.T) {
	repo := &MockAccounts{}
	account := activeAccount("person@example.com")

	repo.On("GetByIDTx", mock.Anything, mock.Anything, account.ID.String(), mock.Anything).
		Return(nil, repository.NewRecordNotFound()).Once()

	handler := accounts.NewChangePasswordHandler(newTestRepoManager(repo)).
		WithLogger(testLogger{})

	err := handler.Execute(context.Background(), accounts.ChangePasswordMessage{
		AccountID:   account.ID.String(),
		OldPassword: "correct horse battery",
		NewPassword: "replacement password",
	})
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
}

func TestChangePasswordHandlerInvalidPayload(t *testing.T) {
	handler := accounts.NewChangePasswordHandler(newTestRepoManager(&MockAccounts{})).
		WithLogger(testLogger{})

	tests := []struct {
		name  string
		event accounts.ChangePasswordMessage
	}{
		{
			name: "missing account id",
			event: accounts.ChangePasswordMessage{
				OldPassword: "old password",
				NewPassword: "replacement password",
			},
		},
		{
			name: "account id is not a uuid",
			event: accounts.ChangePasswordMessage{
				AccountID:   "42",
				OldPassword: "old password",
				NewPassword: "replacement password",
			},
		},
		{
			name: "short new password",
			event: accounts.ChangePasswordMessage{
				AccountID:   "0b870d85-f3c7-4f0e-9622-72dbd09b8c52",
				OldPassword: "old password",
				NewPassword: "short",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handler.Execute(context.Background(), tt.event)
			assert.Error(t, err)
		})
	}
}

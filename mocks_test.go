package accounts_test

import (
	"context"
	"database/sql"
	"time"

	accounts "github.com/goliatone/go-accounts"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// testConfig implements accounts.Config with static values
type testConfig struct{}

func (testConfig) GetSigningKey() string    { return "test-signing-key" }
func (testConfig) GetSigningMethod() string { return "HS256" }
func (testConfig) GetContextKey() string    { return "user" }
func (testConfig) GetTokenExpiration() int  { return 1 }
func (testConfig) GetTokenLookup() string   { return "header:Authorization" }
func (testConfig) GetAuthScheme() string    { return "Bearer" }
func (testConfig) GetIssuer() string        { return "test-issuer" }
func (testConfig) GetAudience() []string    { return []string{"test-audience"} }

// testRepoManager satisfies RepositoryManager over a mocked Accounts repo.
// RunInTx executes the body against a zero transaction so the flow under
// test drives the mock directly and transaction errors propagate.
type testRepoManager struct {
	accounts accounts.Accounts
}

func newTestRepoManager(repo accounts.Accounts) *testRepoManager {
	return &testRepoManager{accounts: repo}
}

func (m *testRepoManager) Validate() error { return nil }

func (m *testRepoManager) MustValidate() {}

func (m *testRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *testRepoManager) Accounts() accounts.Accounts { return m.accounts }

// MockAccounts mocks the account repository methods the flows exercise.
// The embedded interface covers the rest of the repository surface; an
// unexpected call panics, which is what we want in a test.
type MockAccounts struct {
	accounts.Accounts
	mock.Mock
}

func accountReturn(args mock.Arguments) (*accounts.Account, error) {
	record, _ := args.Get(0).(*accounts.Account)
	return record, args.Error(1)
}

func (m *MockAccounts) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*accounts.Account, error) {
	return accountReturn(m.Called(ctx, id, criteria))
}

func (m *MockAccounts) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (*accounts.Account, error) {
	return accountReturn(m.Called(ctx, tx, id, criteria))
}

func (m *MockAccounts) GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*accounts.Account, error) {
	return accountReturn(m.Called(ctx, email, criteria))
}

func (m *MockAccounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*accounts.Account, error) {
	return accountReturn(m.Called(ctx, tx, email, criteria))
}

func (m *MockAccounts) GetByExternalID(ctx context.Context, externalID string) (*accounts.Account, error) {
	return accountReturn(m.Called(ctx, externalID))
}

func (m *MockAccounts) GetByExternalIDTx(ctx context.Context, tx bun.IDB, externalID string) (*accounts.Account, error) {
	return accountReturn(m.Called(ctx, tx, externalID))
}

func (m *MockAccounts) GetByResetTokenHash(ctx context.Context, tokenHash string) (*accounts.Account, error) {
	return accountReturn(m.Called(ctx, tokenHash))
}

func (m *MockAccounts) GetByResetTokenHashTx(ctx context.Context, tx bun.IDB, tokenHash string) (*accounts.Account, error) {
	return accountReturn(m.Called(ctx, tx, tokenHash))
}

func (m *MockAccounts) Create(ctx context.Context, record *accounts.Account, criteria ...repository.InsertCriteria) (*accounts.Account, error) {
	return accountReturn(m.Called(ctx, record, criteria))
}

func (m *MockAccounts) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.Account, criteria ...repository.InsertCriteria) (*accounts.Account, error) {
	return accountReturn(m.Called(ctx, tx, record, criteria))
}

func (m *MockAccounts) Update(ctx context.Context, record *accounts.Account, criteria ...repository.UpdateCriteria) (*accounts.Account, error) {
	return accountReturn(m.Called(ctx, record, criteria))
}

func (m *MockAccounts) UpdateTx(ctx context.Context, tx bun.IDB, record *accounts.Account, criteria ...repository.UpdateCriteria) (*accounts.Account, error) {
	return accountReturn(m.Called(ctx, tx, record, criteria))
}

func (m *MockAccounts) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]*accounts.Account, int, error) {
	args := m.Called(ctx, criteria)
	records, _ := args.Get(0).([]*accounts.Account)
	return records, args.Int(1), args.Error(2)
}

func (m *MockAccounts) TrackSuccessfulLogin(ctx context.Context, account *accounts.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccounts) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, account *accounts.Account) error {
	return m.Called(ctx, tx, account).Error(0)
}

func (m *MockAccounts) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	return m.Called(ctx, id, tokenHash, expiresAt).Error(0)
}

func (m *MockAccounts) SetResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	return m.Called(ctx, tx, id, tokenHash, expiresAt).Error(0)
}

func (m *MockAccounts) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string) error {
	return m.Called(ctx, tokenHash, passwordHash).Error(0)
}

func (m *MockAccounts) ConsumeResetTokenTx(ctx context.Context, tx bun.IDB, tokenHash, passwordHash string) error {
	return m.Called(ctx, tx, tokenHash, passwordHash).Error(0)
}

func (m *MockAccounts) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *MockAccounts) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	return m.Called(ctx, tx, id, passwordHash).Error(0)
}

func (m *MockAccounts) VerifyEmail(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAccounts) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockMailer implements accounts.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendWelcome(ctx context.Context, to, name string) error {
	return m.Called(ctx, to, name).Error(0)
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, to, name, token string) error {
	return m.Called(ctx, to, name, token).Error(0)
}

func (m *MockMailer) SendPasswordChanged(ctx context.Context, to, name string) error {
	return m.Called(ctx, to, name).Error(0)
}

// MockActivitySink implements accounts.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event accounts.ActivityEvent) error {
	return m.Called(ctx, event).Error(0)
}

// MockIdentityProvider implements accounts.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, email, password string) (accounts.Identity, error) {
	args := m.Called(ctx, email, password)
	identity, _ := args.Get(0).(accounts.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByEmail(ctx context.Context, email string) (accounts.Identity, error) {
	args := m.Called(ctx, email)
	identity, _ := args.Get(0).(accounts.Identity)
	return identity, args.Error(1)
}

func newTestAuther(repo accounts.Accounts) *accounts.Auther {
	provider := accounts.NewAccountProvider(repo)
	return accounts.NewAuthenticator(provider, testConfig{}).WithLogger(testLogger{})
}

func activeAccount(email string) *accounts.Account {
	hash, err := accounts.HashPassword("correct horse battery")
	if err != nil {
		panic(err)
	}

	return &accounts.Account{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Test Person",
		PasswordHash: hash,
		Role:         accounts.RoleUser,
		Status:       accounts.StatusActive,
	}
}

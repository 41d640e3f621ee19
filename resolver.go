package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// IdentityResolver is the read-only lookup surface over the account store.
// It locates accounts by normalized email, external identity, or pending
// reset-token hash and has no side effects. Callers on trust boundaries are
// responsible for converting its not-found result into a generic response.
type IdentityResolver struct {
	accounts Accounts
}

// NewIdentityResolver creates a resolver over the given repository
func NewIdentityResolver(accounts Accounts) *IdentityResolver {
	return &IdentityResolver{accounts: accounts}
}

// ByEmail finds an account by its case-normalized email
func (r *IdentityResolver) ByEmail(ctx context.Context, email string) (*Account, error) {
	account, err := r.accounts.GetByEmail(ctx, email)
	return mapResolverResult(account, err)
}

// ByExternalID finds an account by its external-provider identity
func (r *IdentityResolver) ByExternalID(ctx context.Context, externalID string) (*Account, error) {
	account, err := r.accounts.GetByExternalID(ctx, externalID)
	return mapResolverResult(account, err)
}

// ByResetTokenHash finds an account by the digest of a presented reset token
func (r *IdentityResolver) ByResetTokenHash(ctx context.Context, tokenHash string) (*Account, error) {
	account, err := r.accounts.GetByResetTokenHash(ctx, tokenHash)
	return mapResolverResult(account, err)
}

// ByID finds an account by its identifier
func (r *IdentityResolver) ByID(ctx context.Context, id string) (*Account, error) {
	account, err := r.accounts.GetByID(ctx, id)
	return mapResolverResult(account, err)
}

func mapResolverResult(account *Account, err error) (*Account, error) {
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account lookup failed")
	}
	return account, nil
}

// IsNotFound reports whether an error is the resolver's not-found result
func IsNotFound(err error) bool {
	return goerrors.Is(err, ErrAccountNotFound) || repository.IsRecordNotFound(err)
}

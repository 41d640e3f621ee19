package accounts

import (
	goerrors "github.com/goliatone/go-errors"
)

// Operation names the flow-level contracts that require authorization
type Operation string

const (
	OpGetProfile     Operation = "accounts:profile:get"
	OpUpdateProfile  Operation = "accounts:profile:update"
	OpChangePassword Operation = "accounts:password:change"
	OpListAccounts   Operation = "accounts:admin:list"
	OpGetAccount     Operation = "accounts:admin:get"
	OpUpdateAccount  Operation = "accounts:admin:update"
	OpDeleteAccount  Operation = "accounts:admin:delete"
)

// adminOnly operations always require the admin role regardless of subject
var adminOnly = map[Operation]bool{
	OpListAccounts:  true,
	OpGetAccount:    true,
	OpUpdateAccount: true,
	OpDeleteAccount: true,
}

// ErrMissingClaims is returned when an operation runs without a caller
var ErrMissingClaims = goerrors.New("missing caller claims", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden is returned when the caller's role does not allow the
// operation
var ErrForbidden = goerrors.New("insufficient permissions", goerrors.CategoryAuth).
	WithCode(goerrors.CodeForbidden)

// Authorize is the explicit authorization predicate evaluated before each
// operation: (caller, operation, subject) -> allow|deny. Admin operations
// require the admin role; self-scoped operations allow the subject itself or
// an admin. It replaces transport-level guards so it can be tested without
// any HTTP machinery.
func Authorize(caller AuthClaims, op Operation, subjectID string) error {
	if caller == nil {
		return ErrMissingClaims
	}

	role, valid := ParseRole(caller.Role())
	if !valid {
		return goerrors.New("caller has an unknown or invalid role", goerrors.CategoryAuth).
			WithCode(goerrors.CodeForbidden).
			WithMetadata(map[string]any{"role": caller.Role()})
	}

	if role == RoleAdmin {
		return nil
	}

	if adminOnly[op] {
		return forbidden(caller, op)
	}

	if subjectID != "" && caller.UserID() == subjectID {
		return nil
	}

	return forbidden(caller, op)
}

func forbidden(caller AuthClaims, op Operation) error {
	return ErrForbidden.WithMetadata(map[string]any{
		"caller_id": caller.UserID(),
		"operation": string(op),
	})
}

package accounts

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeExternalLogin      = "EXTERNAL_LOGIN_REQUIRED"
	TextCodeEmailTaken         = "EMAIL_TAKEN"
	TextCodeResetTokenInvalid  = "RESET_TOKEN_INVALID"
	TextCodePasswordUnset      = "PASSWORD_UNSET"
	TextCodePasswordMismatch   = "PASSWORD_MISMATCH"
	TextCodeAccountSuspended   = "ACCOUNT_SUSPENDED"
	TextCodeAccountInactive    = "ACCOUNT_INACTIVE"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeMailDelivery       = "MAIL_DELIVERY_FAILED"
)

// ErrInvalidCredentials is the single error every generic login failure maps
// to: unknown email, wrong password, and password-less accounts without an
// external identity all return this exact value so response shape cannot be
// used to enumerate registered emails.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrUseExternalLogin is returned when a password login targets an account
// that only has an external identity. Deliberately distinguishable from
// ErrInvalidCredentials: the account owner proved email ownership through
// the provider already.
var ErrUseExternalLogin = goerrors.New("account uses external login", goerrors.CategoryValidation).
	WithTextCode(TextCodeExternalLogin).
	WithCode(goerrors.CodeBadRequest)

// ErrEmailTaken is returned on registration with an email already in use
var ErrEmailTaken = goerrors.New("email already in use", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(goerrors.CodeConflict)

// ErrResetTokenInvalid covers unknown, expired, and already consumed reset
// tokens alike
var ErrResetTokenInvalid = goerrors.New("invalid or expired reset token", goerrors.CategoryValidation).
	WithTextCode(TextCodeResetTokenInvalid).
	WithCode(goerrors.CodeBadRequest)

// ErrPasswordUnset is returned when change-password targets an account
// without a password hash
var ErrPasswordUnset = goerrors.New("account has no password", goerrors.CategoryValidation).
	WithTextCode(TextCodePasswordUnset).
	WithCode(goerrors.CodeBadRequest)

// ErrPasswordMismatch is returned when the presented current password does
// not verify
var ErrPasswordMismatch = goerrors.New("current password does not match", goerrors.CategoryValidation).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(goerrors.CodeBadRequest)

// ErrAccountSuspended blocks token issuance for suspended accounts
var ErrAccountSuspended = goerrors.New("account is suspended", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountSuspended).
	WithCode(goerrors.CodeForbidden)

// ErrAccountInactive blocks token issuance for inactive accounts
var ErrAccountInactive = goerrors.New("account is inactive", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountInactive).
	WithCode(goerrors.CodeForbidden)

// ErrAccountNotFound is internal-only; unauthenticated flows convert it to
// ErrInvalidCredentials or a generic acknowledgement before it surfaces
var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrTokenExpired is returned when an access token is past its expiry
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens with bad signatures or payloads
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrMailDelivery is returned when the reset email cannot be dispatched.
// Unlike the welcome and confirmation mails this one is fatal to its request:
// the token was persisted but never usably communicated.
var ErrMailDelivery = goerrors.New("could not send email, try again later", goerrors.CategoryOperation).
	WithTextCode(TextCodeMailDelivery).
	WithCode(goerrors.CodeInternal)

// ErrExternalEmailUnverified refuses merging an external identity into an
// existing password account when the provider did not verify email
// ownership. The provider is the trust anchor for the merge; without its
// email_verified claim the merge would be an account-takeover vector.
var ErrExternalEmailUnverified = goerrors.New("external identity email not verified", goerrors.CategoryAuth).
	WithTextCode("EXTERNAL_EMAIL_UNVERIFIED").
	WithCode(goerrors.CodeForbidden)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrUnableToDecodePayload is returned when a request body cannot be bound
var ErrUnableToDecodePayload = goerrors.New("unable to decode request payload", goerrors.CategoryBadInput).
	WithTextCode("MALFORMED_PAYLOAD").
	WithCode(goerrors.CodeBadRequest)

// statusAuthError maps a non-active status to its auth error; active
// accounts return nil.
func statusAuthError(status AccountStatus) error {
	switch status {
	case StatusSuspended:
		return ErrAccountSuspended
	case StatusInactive:
		return ErrAccountInactive
	default:
		return nil
	}
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

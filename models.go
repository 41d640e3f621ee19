package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the account's role
type UserRole string

const (
	// RoleViewer is a read-only role
	RoleViewer UserRole = "viewer"
	// RoleUser is a regular account (i.e. view, edit own profile)
	RoleUser UserRole = "user"
	// RoleAdmin can manage every account
	RoleAdmin UserRole = "admin"
)

// AccountStatus is the account's lifecycle status
type AccountStatus string

const (
	// StatusActive accounts can authenticate
	StatusActive AccountStatus = "active"
	// StatusInactive accounts are looked up but refused session tokens
	StatusInactive AccountStatus = "inactive"
	// StatusSuspended accounts are looked up but refused session tokens
	StatusSuspended AccountStatus = "suspended"
)

// Account is the persisted user record. PasswordHash is empty when the
// account was created through an external identity only; ExternalID is
// empty for password-only accounts. At least one of the two is present.
type Account struct {
	bun.BaseModel         `bun:"table:accounts,alias:acc"`
	ID                    uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email                 string        `bun:"email,notnull,unique" json:"email,omitempty"`
	Name                  string        `bun:"full_name,notnull" json:"full_name,omitempty"`
	PasswordHash          string        `bun:"password_hash" json:"-"`
	Avatar                string        `bun:"avatar" json:"avatar,omitempty"`
	Phone                 string        `bun:"phone_number" json:"phone_number,omitempty"`
	Role                  UserRole      `bun:"user_role,notnull" json:"user_role,omitempty"`
	Status                AccountStatus `bun:"status,notnull" json:"status,omitempty"`
	EmailVerified         bool          `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	ExternalID            string        `bun:"external_id,nullzero" json:"-"`
	ResetTokenHash        string        `bun:"reset_token_hash,nullzero" json:"-"`
	ResetTokenExpiresAt   *time.Time    `bun:"reset_token_expires_at,nullzero" json:"-"`
	VerificationTokenHash string        `bun:"verification_token_hash,nullzero" json:"-"`
	LastLoginAt           *time.Time    `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	CreatedAt             *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt             *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt             *time.Time    `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus will default the status to active
func (a *Account) EnsureStatus() {
	if a.Status == "" {
		a.Status = StatusActive
	}
}

// HasPassword reports whether the account can authenticate with a password
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// HasExternalIdentity reports whether the account is linked to an external
// identity provider
func (a *Account) HasExternalIdentity() bool {
	return a.ExternalID != ""
}

// HasPendingReset reports whether the account carries an unconsumed reset
// token. Hash and expiry are set and cleared together.
func (a *Account) HasPendingReset() bool {
	return a.ResetTokenHash != "" && a.ResetTokenExpiresAt != nil
}

// Public is the caller-safe projection of an account. Password hashes and
// pending tokens never leave the package through it.
type PublicAccount struct {
	ID          uuid.UUID     `json:"id"`
	Email       string        `json:"email"`
	Name        string        `json:"full_name"`
	Avatar      string        `json:"avatar,omitempty"`
	Role        UserRole      `json:"user_role"`
	Status      AccountStatus `json:"status"`
	LastLoginAt *time.Time    `json:"last_login_at,omitempty"`
}

// Public returns the caller-safe projection
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:          a.ID,
		Email:       a.Email,
		Name:        a.Name,
		Avatar:      a.Avatar,
		Role:        a.Role,
		Status:      a.Status,
		LastLoginAt: a.LastLoginAt,
	}
}

// NormalizeEmail lowercases and trims an email address. Uniqueness and every
// lookup go through the normalized form, so storage never sees mixed case.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

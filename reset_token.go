package accounts

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ResetTokenBytes is the entropy of a reset token; hex encoded it yields a
// 64 character secret.
const ResetTokenBytes = 32

// ResetTokenTTL is how long a reset token stays valid after issuance
var ResetTokenTTL = time.Hour

// GenerateResetToken returns the plaintext token handed to the account owner
// exactly once, together with the SHA-256 hex digest that gets persisted.
// The only failure mode is an unavailable entropy source, which is fatal and
// not retried.
func GenerateResetToken() (plain, digest string, err error) {
	buf := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", goerrors.Wrap(err, goerrors.CategoryInternal, "entropy source unavailable")
	}

	plain = hex.EncodeToString(buf)
	return plain, HashResetToken(plain), nil
}

// HashResetToken computes the storage form of a presented token
func HashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// ResetTokenExpiry returns the expiry timestamp for a token issued now
func ResetTokenExpiry(now time.Time) time.Time {
	return now.Add(ResetTokenTTL)
}

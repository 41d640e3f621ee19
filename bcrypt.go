package accounts

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when hashing passwords. Cost 10
// keeps hashing under ~100ms on commodity hardware while staying above the
// bcrypt minimum; raise it per deployment through HashPasswordWithCost.
const DefaultBcryptCost = 10

// HashPassword will generate a password hash using the default cost
func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, DefaultBcryptCost)
}

// HashPasswordWithCost will generate a password hash with an explicit cost
// factor. The salt is fresh on every call, so two hashes of the same
// plaintext never compare equal as strings.
func HashPasswordWithCost(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	if cost < bcrypt.MinCost {
		cost = DefaultBcryptCost
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext password matches
// the hashed password. Malformed hashes report a mismatch, they never panic.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return ErrInvalidCredentials
	}
	return nil
}

// PasswordMatches is the boolean form of ComparePasswordAndHash
func PasswordMatches(password, hash string) bool {
	return ComparePasswordAndHash(password, hash) == nil
}

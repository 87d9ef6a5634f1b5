// Package security contains everything related to the security of user data
package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost used for new password hashes
const DefaultCost = 10

type Hasher struct {
	Cost int
}

func NewHasher() *Hasher {
	return &Hasher{Cost: DefaultCost}
}

func (h *Hasher) GenerateFromPassword(p string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p), h.Cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password, %w", err)
	}

	return string(hash), nil
}

// VerifyPasswd compares a password p with the stored hash e. A mismatch is
// reported as ok == false, not as an error.
func (h *Hasher) VerifyPasswd(p, e string) (ok bool, err error) {
	err = bcrypt.CompareHashAndPassword([]byte(e), []byte(p))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	return false, fmt.Errorf("failed to compare password hash, %w", err)
}

package bcryptpw

// Package bcryptpw implements the PasswordHasher port with bcrypt.

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch is returned by Compare when the password does not match.
var ErrMismatch = errors.New("password mismatch")

// Hasher hashes passwords with bcrypt at a configurable cost.
type Hasher struct {
	cost int
}

// NewHasher constructs a Hasher. A cost of 0 selects bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare returns nil when password matches hash, ErrMismatch when it does
// not, and the underlying error for corrupt hashes.
func (h *Hasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return fmt.Errorf("compare password: %w", err)
}

//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	domainauth "github.com/beranamag/berana/internal/domain/auth"
)

const (
	maxEmailLen = 254
	maxNameLen  = 120

	// MinPasswordLength is enforced at registration, password change, and reset.
	MinPasswordLength = 8
)

// User represents an account. PasswordHash and the reset-token pair are
// never serialized into responses.
type User struct {
	ID                  string          `json:"id"          db:"id"`
	Email               string          `json:"email"       db:"email"`
	Name                string          `json:"name"        db:"name"`
	PasswordHash        string          `json:"-"           db:"password_hash"`
	Role                domainauth.Role `json:"role"        db:"role"`
	Active              bool            `json:"active"      db:"active"`
	Verified            bool            `json:"verified"    db:"verified"`
	ResetToken          *string         `json:"-"           db:"reset_token"`
	ResetTokenExpiresAt *time.Time      `json:"-"           db:"reset_token_expires_at"`
	CreatedAt           time.Time       `json:"created_at"  db:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"  db:"updated_at"`
}

// Identity projects the user into the verified-principal shape carried in
// request contexts and token claims.
func (u *User) Identity() domainauth.Identity {
	return domainauth.Identity{
		ID:     u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
		Active: u.Active,
	}
}

// RegisterRequest represents parameters to create a User.
// Role is always reader at registration; promotion is an admin operation.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Validate validates RegisterRequest and normalizes the email in place.
func (r *RegisterRequest) Validate() error {
	email, err := NormalizeEmail(r.Email)
	if err != nil {
		return err
	}
	r.Email = email

	name := strings.TrimSpace(r.Name)
	if name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return errors.New("name cannot exceed 120 characters")
	}
	r.Name = name

	if utf8.RuneCountInString(r.Password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// UpdateUserRequest represents administrative updates to a User.
// Only the listed fields are mutable; unknown JSON fields are rejected
// at the decoding boundary.
type UpdateUserRequest struct {
	Name   *string          `json:"name,omitempty"`
	Role   *domainauth.Role `json:"role,omitempty"`
	Active *bool            `json:"active,omitempty"`
}

// Validate validates UpdateUserRequest.
func (r *UpdateUserRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return errors.New("name cannot be empty")
		}
		if utf8.RuneCountInString(name) > maxNameLen {
			return errors.New("name cannot exceed 120 characters")
		}
		*r.Name = name
	}
	if r.Role != nil && !r.Role.Valid() {
		return errors.New("role must be one of: reader, contributor, editor, admin")
	}
	return nil
}

// UsersListOptions controls paging and filtering for listing users.
type UsersListOptions struct {
	Limit  int
	Offset int
	Q      *string          // substring match on email or name (ILIKE)
	Role   *domainauth.Role // exact match
	Active *bool            // exact match
}

// NormalizeEmail validates and lowercases an email address.
// Comparison throughout the system is case-insensitive by construction:
// addresses are stored and looked up in lowercased form.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", errors.New("email is required")
	}
	if len(email) > maxEmailLen {
		return "", errors.New("email cannot exceed 254 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", errors.New("email is not a valid address")
	}
	return email, nil
}

package auth

// Package auth contains domain-level types for authentication and
// authorization. It is pure and free of framework/adapter concerns.

import "time"

// Role represents an application authorization role.
// Keep string form for easy persistence and token claims.
// The set is closed and ordered from least to most privileged.
type Role string

const (
	RoleReader      Role = "reader"
	RoleContributor Role = "contributor"
	RoleEditor      Role = "editor"
	RoleAdmin       Role = "admin"
)

// roleRank orders the closed taxonomy. Unknown roles rank below reader.
var roleRank = map[Role]int{
	RoleReader:      1,
	RoleContributor: 2,
	RoleEditor:      3,
	RoleAdmin:       4,
}

// Valid reports whether r is one of the closed role values.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r is the same as or more privileged than other.
func (r Role) AtLeast(other Role) bool {
	ur, uok := roleRank[r]
	or, ook := roleRank[other]
	if !uok || !ook {
		return false
	}
	return ur >= or
}

// Roles returns the closed taxonomy in ascending privilege order.
func Roles() []Role {
	return []Role{RoleReader, RoleContributor, RoleEditor, RoleAdmin}
}

// Claims are the identity-describing fields embedded and signed inside a
// session token. Tokens are stateless bearer credentials: holders are
// trusted up to expiry, subject to the middleware's live-identity recheck.
type Claims struct {
	UserID   string    `json:"user_id"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
	IssuedAt time.Time `json:"issued_at"`
	Expiry   time.Time `json:"expiry"`
}

// Identity is the verified principal attached to a request after the
// middleware confirms both the token and the live user record.
type Identity struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Active bool   `json:"active"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a coarse authorization role attached to a user.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// User is the verified principal behind every call. Token verification
// happens outside this service; here a user is just an identity with
// roles.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Roles     []Role    `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the user carries the ADMIN role.
func (u User) IsAdmin() bool {
	for _, r := range u.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

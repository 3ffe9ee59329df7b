// Package domain defines the persisted EchoVerse entities.
package domain

import "time"

// Role represents the user's permission level.
type Role string

const (
	// RoleAdmin is granted to the first registered user.
	RoleAdmin Role = "admin"
	// RoleMember is the default role.
	RoleMember Role = "member"
)

// User represents an account that owns narrations.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// IsAdmin reports whether the user has administrative privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DisplayName returns the name, falling back to the email address.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

package models

import "github.com/google/uuid"

// User roles as stored in the users table. A banned user keeps their row
// (and any in-progress session data) but loses connectivity.
const (
	RoleNormal = "normal"
	RoleAdmin  = "admin"
	RoleBanned = "banned"
)

type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Password string    `json:"password,omitempty"`
	Role     string    `json:"role"`

	// TeamID is nil while the user is unassigned.
	TeamID *uuid.UUID `json:"teamId,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsBanned reports whether the user has been banned.
func (u *User) IsBanned() bool {
	return u.Role == RoleBanned
}

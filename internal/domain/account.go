package domain

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
	RoleUser  Role = "user"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleAgent, RoleUser}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleUser:
		return true
	default:
		return false
	}
}

// IsStaff reports whether the role works tickets rather than raising them.
func (r Role) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleAgent:
		return true
	case RoleUser:
		return false
	default:
		return false
	}
}

// Account is a registered identity. PasswordHash never leaves the service layer.
type Account struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName joins first and last name.
func (a *Account) FullName() string {
	if a == nil {
		return ""
	}
	return a.FirstName + " " + a.LastName
}

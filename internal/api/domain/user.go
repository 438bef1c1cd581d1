package domain

import "time"

// Role names known to the system. Seeded by migration; the set is fixed.
const (
	RolePatient = "PATIENT"
	RoleDoctor  = "DOCTOR"
	RoleAdmin   = "ADMIN"
)

type User struct {
	ID                string
	Email             string
	Name              string
	PasswordHash      string   // bcrypt encoded
	Roles             []string // role names resolved via user_roles
	Active            bool     // account-level enable flag
	CredentialsActive bool     // cleared to force a password change
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasRole reports whether the user carries the named role.
func (u User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// Enabled reports whether the user may authenticate at all.
func (u User) Enabled() bool {
	return u.Active && u.CredentialsActive
}

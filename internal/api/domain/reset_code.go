package domain

import "time"

// PasswordResetCode is a single-use credential mailed to a user who
// forgot their password. Only the SHA-256 fingerprint of the code is
// stored; the raw code lives solely in the emailed link. At most one
// live code exists per user, and consumption (or detection of expiry)
// deletes the row.
type PasswordResetCode struct {
	ID        string
	UserID    string
	CodeHash  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the code is past its expiry at the given time.
func (c PasswordResetCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

package domain

import "time"

// Doctor is the professional profile attached to a DOCTOR user. The
// directory endpoints expose these without authentication.
type Doctor struct {
	ID             string
	UserID         string
	FirstName      string
	LastName       string
	LicenseNumber  string
	Specialization string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

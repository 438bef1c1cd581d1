package store

import (
	"context"
	"errors"

	"github.com/dathealth/medsched/internal/api/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. Sub-repositories keep concerns tidy and let
// callers see at a glance which tables an operation touches.
type Store interface {
	Users() Users
	Roles() Roles
	Doctors() Doctors
	Patients() Patients
	ResetCodes() ResetCodes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g. reset
	// code consumption). The caller MUST call Commit() or Rollback().
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error,
	// the transaction is rolled back; otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Same repos plus Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user with roles populated.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is the login and password-reset lookup.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user and its role links (id is a ULID
	// provided by the service layer). Returns ErrAlreadyExists when the
	// email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// UpdateName mutates the display name and bumps updated_at.
	UpdateName(ctx context.Context, userID string, name string) error

	// SetActive flips the account-level enable flag.
	SetActive(ctx context.Context, userID string, active bool) error
}

type Roles interface {
	// GetRoleByName fetches a role by its name (PATIENT, DOCTOR, ADMIN).
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)

	// ListAll returns all roles in the system.
	ListAll(ctx context.Context) ([]domain.Role, error)
}

type Doctors interface {
	// CreateDoctor inserts the professional profile for a doctor user.
	CreateDoctor(ctx context.Context, d domain.Doctor) error

	// GetDoctorByID fetches a doctor profile by its own id.
	GetDoctorByID(ctx context.Context, id string) (domain.Doctor, error)

	// GetDoctorByUserID fetches the profile attached to a user account.
	GetDoctorByUserID(ctx context.Context, userID string) (domain.Doctor, error)

	// ListDoctors returns profiles ordered by last name. A non-empty
	// specialization filters the listing.
	ListDoctors(ctx context.Context, specialization string) ([]domain.Doctor, error)

	// UpdateDoctor mutates the mutable profile fields and bumps updated_at.
	UpdateDoctor(ctx context.Context, d domain.Doctor) error
}

type Patients interface {
	// CreatePatient inserts the patient profile for a user.
	CreatePatient(ctx context.Context, p domain.Patient) error

	// GetPatientByUserID fetches the profile attached to a user account.
	GetPatientByUserID(ctx context.Context, userID string) (domain.Patient, error)

	// UpdatePatient mutates the mutable profile fields and bumps updated_at.
	UpdatePatient(ctx context.Context, p domain.Patient) error
}

type ResetCodes interface {
	// CreateResetCode writes a new reset code row (code_hash is the
	// SHA-256 fingerprint of the raw code).
	CreateResetCode(ctx context.Context, c domain.PasswordResetCode) error

	// GetResetCodeByHash returns the row matching a fingerprint,
	// regardless of expiry; the service layer decides what expiry means.
	GetResetCodeByHash(ctx context.Context, hash string) (domain.PasswordResetCode, error)

	// DeleteResetCode removes one row by id. Returns ErrNotFound when
	// the row is already gone, which is how a lost consumption race
	// surfaces.
	DeleteResetCode(ctx context.Context, id string) error

	// DeleteResetCodesForUser removes every code for a user. Issuing a
	// new code calls this first so at most one code is ever live.
	DeleteResetCodesForUser(ctx context.Context, userID string) error

	// DeleteExpiredResetCodes is housekeeping.
	DeleteExpiredResetCodes(ctx context.Context) error
}

package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dathealth/medsched/internal/api/domain"
	"github.com/dathealth/medsched/internal/api/store"
	"github.com/dathealth/medsched/internal/api/store/drivers/sqlite"
	"github.com/dathealth/medsched/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newUser(email string, roles ...string) domain.User {
	return domain.User{
		ID:                idx.New().String(),
		Email:             email,
		Name:              "Test User",
		PasswordHash:      "$2a$10$fakefakefakefakefakefake",
		Roles:             roles,
		Active:            true,
		CredentialsActive: true,
	}
}

func TestMigrationsSeedRoles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	roles, err := s.Roles().ListAll(ctx)
	require.NoError(t, err)

	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.Name
	}
	require.ElementsMatch(t, []string{"PATIENT", "DOCTOR", "ADMIN"}, names)
}

func TestUsersRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("create and fetch with roles", func(t *testing.T) {
		u := newUser("pat@example.com", domain.RolePatient)
		require.NoError(t, s.Users().CreateUser(ctx, u))

		got, err := s.Users().GetUserByEmail(ctx, "pat@example.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
		require.Equal(t, []string{"PATIENT"}, got.Roles)
		require.True(t, got.Active)
		require.True(t, got.CredentialsActive)

		byID, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, got.Email, byID.Email)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		u := newUser("dup@example.com", domain.RolePatient)
		require.NoError(t, s.Users().CreateUser(ctx, u))

		again := newUser("dup@example.com", domain.RolePatient)
		err := s.Users().CreateUser(ctx, again)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		u := newUser("norole@example.com", "SUPERUSER")
		err := s.Users().CreateUser(ctx, u)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("missing user is ErrNotFound", func(t *testing.T) {
		_, err := s.Users().GetUserByEmail(ctx, "ghost@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update password hash", func(t *testing.T) {
		u := newUser("rotate@example.com", domain.RolePatient)
		require.NoError(t, s.Users().CreateUser(ctx, u))

		require.NoError(t, s.Users().UpdatePasswordHash(ctx, u.ID, "$2a$10$newhash"))
		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "$2a$10$newhash", got.PasswordHash)

		require.ErrorIs(t, s.Users().UpdatePasswordHash(ctx, "missing", "x"), store.ErrNotFound)
	})
}

func TestDoctorsRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed := func(t *testing.T, email, first, last, license, spec string) domain.Doctor {
		t.Helper()
		u := newUser(email, domain.RoleDoctor)
		require.NoError(t, s.Users().CreateUser(ctx, u))

		d := domain.Doctor{
			ID:             idx.New().String(),
			UserID:         u.ID,
			FirstName:      first,
			LastName:       last,
			LicenseNumber:  license,
			Specialization: spec,
		}
		require.NoError(t, s.Doctors().CreateDoctor(ctx, d))
		return d
	}

	cardio := seed(t, "c@example.com", "Ada", "Hart", "LIC-001", "cardiology")
	seed(t, "d@example.com", "Ben", "Woo", "LIC-002", "dermatology")

	t.Run("list all", func(t *testing.T) {
		all, err := s.Doctors().ListDoctors(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 2)
	})

	t.Run("filter by specialization", func(t *testing.T) {
		got, err := s.Doctors().ListDoctors(ctx, "cardiology")
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, cardio.ID, got[0].ID)
	})

	t.Run("fetch by user id", func(t *testing.T) {
		got, err := s.Doctors().GetDoctorByUserID(ctx, cardio.UserID)
		require.NoError(t, err)
		require.Equal(t, "LIC-001", got.LicenseNumber)
	})

	t.Run("duplicate license rejected", func(t *testing.T) {
		u := newUser("e@example.com", domain.RoleDoctor)
		require.NoError(t, s.Users().CreateUser(ctx, u))
		err := s.Doctors().CreateDoctor(ctx, domain.Doctor{
			ID:            idx.New().String(),
			UserID:        u.ID,
			FirstName:     "Eve",
			LastName:      "Dup",
			LicenseNumber: "LIC-001",
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("update profile", func(t *testing.T) {
		cardio.Specialization = "general"
		require.NoError(t, s.Doctors().UpdateDoctor(ctx, cardio))
		got, err := s.Doctors().GetDoctorByID(ctx, cardio.ID)
		require.NoError(t, err)
		require.Equal(t, "general", got.Specialization)
	})
}

func TestResetCodesRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newUser("reset@example.com", domain.RolePatient)
	require.NoError(t, s.Users().CreateUser(ctx, u))

	mint := func(t *testing.T, hash string, expires time.Time) domain.PasswordResetCode {
		t.Helper()
		c := domain.PasswordResetCode{
			ID:        idx.New().String(),
			UserID:    u.ID,
			CodeHash:  hash,
			ExpiresAt: expires,
		}
		require.NoError(t, s.ResetCodes().CreateResetCode(ctx, c))
		return c
	}

	t.Run("round trip by hash", func(t *testing.T) {
		c := mint(t, "hash-a", time.Now().Add(5*time.Hour))
		got, err := s.ResetCodes().GetResetCodeByHash(ctx, "hash-a")
		require.NoError(t, err)
		require.Equal(t, c.ID, got.ID)
		require.Equal(t, u.ID, got.UserID)

		require.NoError(t, s.ResetCodes().DeleteResetCodesForUser(ctx, u.ID))
	})

	t.Run("delete reports whether a row was taken", func(t *testing.T) {
		c := mint(t, "hash-b", time.Now().Add(5*time.Hour))

		require.NoError(t, s.ResetCodes().DeleteResetCode(ctx, c.ID))
		require.ErrorIs(t, s.ResetCodes().DeleteResetCode(ctx, c.ID), store.ErrNotFound)
	})

	t.Run("one live code per user", func(t *testing.T) {
		mint(t, "hash-c", time.Now().Add(5*time.Hour))

		err := s.ResetCodes().CreateResetCode(ctx, domain.PasswordResetCode{
			ID:        idx.New().String(),
			UserID:    u.ID,
			CodeHash:  "hash-d",
			ExpiresAt: time.Now().Add(5 * time.Hour),
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		require.NoError(t, s.ResetCodes().DeleteResetCodesForUser(ctx, u.ID))
	})

	t.Run("expired codes swept", func(t *testing.T) {
		mint(t, "hash-e", time.Now().Add(-time.Minute))

		require.NoError(t, s.ResetCodes().DeleteExpiredResetCodes(ctx))
		_, err := s.ResetCodes().GetResetCodeByHash(ctx, "hash-e")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	boom := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, newUser("tx@example.com", domain.RolePatient)); err != nil {
			return err
		}
		return context.Canceled // any error rolls back
	})
	require.Error(t, boom)

	_, err := s.Users().GetUserByEmail(ctx, "tx@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

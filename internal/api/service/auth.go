package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dathealth/medsched/internal/api/domain"
	"github.com/dathealth/medsched/internal/api/metrics"
	"github.com/dathealth/medsched/internal/api/notify"
	"github.com/dathealth/medsched/internal/api/store"
	"github.com/dathealth/medsched/pkg/cryptox"
	"github.com/dathealth/medsched/pkg/idx"
	"github.com/dathealth/medsched/pkg/slogx"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountDisabled     = errors.New("account is disabled")
	ErrEmailAlreadyTaken   = errors.New("email already registered")
	ErrEmailNotFound       = errors.New("no account for that email")
	ErrInvalidRegistration = errors.New("invalid registration request")
	ErrLicenseAlreadyTaken = errors.New("license number already registered")
	ErrInvalidResetCode    = errors.New("reset code is invalid or already used")
	ErrResetCodeExpired    = errors.New("reset code has expired")
)

// DefaultResetTTL is how long a password reset code stays valid.
const DefaultResetTTL = 5 * time.Hour

// TokenIssuer mints a signed access token for a subject. Satisfied by
// *jwtx.Codec.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// AuthService implements registration, login and the password reset
// lifecycle.
type AuthService struct {
	Store    store.Store
	Tokens   TokenIssuer
	Notifier notify.Dispatcher

	// ResetTTL is the reset code lifetime; zero means DefaultResetTTL.
	ResetTTL time.Duration

	// ResetLinkBase is the frontend URL the reset code is appended to,
	// e.g. "https://app.example.com/reset-password?code=".
	ResetLinkBase string
}

// RegisterPatient creates a patient account with its profile.
func (s *AuthService) RegisterPatient(
	ctx context.Context,
	email, name, password, phone string,
) (domain.User, error) {
	log := slogx.FromContext(ctx)

	if email == "" || name == "" || password == "" {
		return domain.User{}, ErrInvalidRegistration
	}

	user, err := s.createUser(ctx, email, name, password, domain.RolePatient)
	if err != nil {
		return domain.User{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.Patients().CreatePatient(ctx, domain.Patient{
			ID:     idx.New().String(),
			UserID: user.ID,
			Phone:  phone,
		})
	})
	if err != nil {
		return domain.User{}, mapRegistrationError(ctx, err)
	}

	log.Info("patient registered",
		slog.String("user_id", user.ID),
	)
	metrics.Registrations.WithLabelValues(domain.RolePatient).Inc()
	s.Notifier.Welcome(ctx, user)

	return user, nil
}

// RegisterDoctor creates a doctor account with its professional
// profile. A license number is mandatory.
func (s *AuthService) RegisterDoctor(
	ctx context.Context,
	email, password string,
	profile domain.Doctor,
) (domain.User, error) {
	log := slogx.FromContext(ctx)

	if email == "" || password == "" ||
		profile.FirstName == "" || profile.LastName == "" || profile.LicenseNumber == "" {
		return domain.User{}, ErrInvalidRegistration
	}

	name := profile.FirstName + " " + profile.LastName
	user, err := s.createUser(ctx, email, name, password, domain.RoleDoctor)
	if err != nil {
		return domain.User{}, err
	}

	var userCreated bool
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		userCreated = true
		profile.ID = idx.New().String()
		profile.UserID = user.ID
		return tx.Doctors().CreateDoctor(ctx, profile)
	})
	if err != nil {
		// A conflict after the user row went in can only be the license.
		if userCreated && errors.Is(err, store.ErrAlreadyExists) {
			log.Warn("doctor registration with taken license number")
			return domain.User{}, ErrLicenseAlreadyTaken
		}
		return domain.User{}, mapRegistrationError(ctx, err)
	}

	log.Info("doctor registered",
		slog.String("user_id", user.ID),
		slog.String("specialization", profile.Specialization),
	)
	metrics.Registrations.WithLabelValues(domain.RoleDoctor).Inc()
	s.Notifier.Welcome(ctx, user)

	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, email, name, password, role string) (domain.User, error) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	return domain.User{
		ID:                idx.New().String(),
		Email:             email,
		Name:              name,
		PasswordHash:      hash,
		Roles:             []string{role},
		Active:            true,
		CredentialsActive: true,
	}, nil
}

func mapRegistrationError(ctx context.Context, err error) error {
	if errors.Is(err, store.ErrAlreadyExists) {
		slogx.FromContext(ctx).Warn("registration with taken identifier")
		return ErrEmailAlreadyTaken
	}
	return err
}

// Login verifies credentials and mints an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	log := slogx.FromContext(ctx)

	// 1. Look up the account. Unknown email and wrong password produce
	// the same error so login never confirms which one it was.
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.LoginAttempts.WithLabelValues("bad_credentials").Inc()
			return "", domain.User{}, ErrInvalidCredentials
		}
		log.Error("failed to fetch user for login", slog.Any("error", err))
		return "", domain.User{}, err
	}

	// 2. Verify the password.
	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		log.Warn("login with wrong password", slog.String("user_id", user.ID))
		metrics.LoginAttempts.WithLabelValues("bad_credentials").Inc()
		return "", domain.User{}, ErrInvalidCredentials
	}

	// 3. Refuse disabled accounts even with a correct password.
	if !user.Enabled() {
		log.Warn("login on disabled account", slog.String("user_id", user.ID))
		metrics.LoginAttempts.WithLabelValues("disabled").Inc()
		return "", domain.User{}, ErrAccountDisabled
	}

	// 4. Mint the access token. The subject is the account email, which
	// is what the request gate resolves back into a principal.
	token, err := s.Tokens.Issue(user.Email)
	if err != nil {
		log.Error("failed to issue token", slog.Any("error", err))
		return "", domain.User{}, err
	}

	log.Info("login succeeded", slog.String("user_id", user.ID))
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return token, user, nil
}

// ForgotPassword mints a single-use reset code for the account and
// mails a link carrying the raw code. Reissuing supersedes any earlier
// code: at most one code is live per user.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("password reset requested for unknown email")
			return ErrEmailNotFound
		}
		log.Error("failed to fetch user for reset", slog.Any("error", err))
		return err
	}

	// Generate the raw code and store only its fingerprint. The raw
	// code exists solely in the emailed link.
	code, err := cryptox.GenerateCode(cryptox.CodeSize256)
	if err != nil {
		log.Error("failed to generate reset code", slog.Any("error", err))
		return err
	}

	resetCode := domain.PasswordResetCode{
		ID:        idx.New().String(),
		UserID:    user.ID,
		CodeHash:  cryptox.FingerprintCode(code),
		ExpiresAt: time.Now().Add(s.resetTTL()),
	}

	// Delete-then-insert in one transaction keeps the one-live-code
	// invariant even when two requests race.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.ResetCodes().DeleteResetCodesForUser(ctx, user.ID); err != nil {
			return err
		}
		return tx.ResetCodes().CreateResetCode(ctx, resetCode)
	})
	if err != nil {
		log.Error("failed to store reset code", slog.Any("error", err))
		return err
	}

	log.Info("reset code issued",
		slog.String("user_id", user.ID),
		slog.Time("expires_at", resetCode.ExpiresAt),
	)
	metrics.ResetCodesIssued.Inc()
	s.Notifier.PasswordReset(ctx, user, s.ResetLinkBase+code)

	return nil
}

// ResetPassword consumes a reset code and installs the new password.
// A code works exactly once: under concurrent submissions one caller
// wins and every other gets ErrInvalidResetCode. Detecting an expired
// code deletes it, so a later retry reports invalid rather than
// expired.
func (s *AuthService) ResetPassword(ctx context.Context, code, newPassword string) error {
	log := slogx.FromContext(ctx)

	if code == "" || newPassword == "" {
		return ErrInvalidResetCode
	}

	// 1. Look up by fingerprint.
	resetCode, err := s.Store.ResetCodes().GetResetCodeByHash(ctx, cryptox.FingerprintCode(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.ResetCodesConsumed.WithLabelValues("invalid").Inc()
			return ErrInvalidResetCode
		}
		log.Error("failed to fetch reset code", slog.Any("error", err))
		return err
	}

	// 2. Expired codes are deleted on detection and reported as such.
	if resetCode.Expired(time.Now()) {
		if err := s.Store.ResetCodes().DeleteResetCode(ctx, resetCode.ID); err != nil &&
			!errors.Is(err, store.ErrNotFound) {
			log.Error("failed to delete expired reset code", slog.Any("error", err))
		}
		log.Warn("expired reset code presented", slog.String("user_id", resetCode.UserID))
		metrics.ResetCodesConsumed.WithLabelValues("expired").Inc()
		return ErrResetCodeExpired
	}

	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		log.Error("failed to hash new password", slog.Any("error", err))
		return err
	}

	// 3. Consume atomically: the delete takes the row, and whichever
	// concurrent caller fails to take it loses the race.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.ResetCodes().DeleteResetCode(ctx, resetCode.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("code already consumed: %w", ErrInvalidResetCode)
			}
			return err
		}
		return tx.Users().UpdatePasswordHash(ctx, resetCode.UserID, newHash)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidResetCode) {
			metrics.ResetCodesConsumed.WithLabelValues("invalid").Inc()
			return err
		}
		log.Error("failed to consume reset code", slog.Any("error", err))
		return err
	}

	log.Info("password reset completed", slog.String("user_id", resetCode.UserID))
	metrics.ResetCodesConsumed.WithLabelValues("success").Inc()

	if user, err := s.Store.Users().GetUserByID(ctx, resetCode.UserID); err == nil {
		s.Notifier.PasswordUpdated(ctx, user)
	}

	return nil
}

func (s *AuthService) resetTTL() time.Duration {
	if s.ResetTTL > 0 {
		return s.ResetTTL
	}
	return DefaultResetTTL
}

package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dathealth/medsched/internal/api/domain"
	"github.com/dathealth/medsched/internal/api/store"
	"github.com/dathealth/medsched/pkg/slogx"
)

var ErrUserNotFound = errors.New("user not found")

// UserService serves the authenticated account endpoints (/me and the
// patient profile).
type UserService struct {
	Store store.Store
}

// GetByEmail returns the account behind a token subject.
func (s *UserService) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// UpdateName changes the display name on the account.
func (s *UserService) UpdateName(ctx context.Context, email, name string) (domain.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return domain.User{}, err
	}

	if err := s.Store.Users().UpdateName(ctx, user.ID, name); err != nil {
		slogx.FromContext(ctx).Error("failed to update name",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return domain.User{}, err
	}

	user.Name = name
	return user, nil
}

// ListRoles returns every role defined in the system. Admin-only at
// the route level.
func (s *UserService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.Store.Roles().ListAll(ctx)
}

// GetPatientProfile returns the patient profile for an account.
func (s *UserService) GetPatientProfile(ctx context.Context, email string) (domain.Patient, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return domain.Patient{}, err
	}

	patient, err := s.Store.Patients().GetPatientByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Patient{}, ErrUserNotFound
		}
		return domain.Patient{}, err
	}
	return patient, nil
}

// UpdatePatientProfile mutates the patient profile for an account.
func (s *UserService) UpdatePatientProfile(ctx context.Context, email, phone string) (domain.Patient, error) {
	patient, err := s.GetPatientProfile(ctx, email)
	if err != nil {
		return domain.Patient{}, err
	}

	patient.Phone = phone
	if err := s.Store.Patients().UpdatePatient(ctx, patient); err != nil {
		return domain.Patient{}, err
	}
	return patient, nil
}

package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dathealth/medsched/internal/api/domain"
	"github.com/dathealth/medsched/internal/api/store"
	"github.com/dathealth/medsched/pkg/slogx"
)

var ErrDoctorNotFound = errors.New("doctor not found")

// DoctorService serves the public doctor directory and the doctor's own
// profile management.
type DoctorService struct {
	Store store.Store
}

// ListDoctors returns the directory, optionally filtered by
// specialization. This backs an unauthenticated endpoint.
func (s *DoctorService) ListDoctors(ctx context.Context, specialization string) ([]domain.Doctor, error) {
	return s.Store.Doctors().ListDoctors(ctx, specialization)
}

// GetDoctor returns one directory entry.
func (s *DoctorService) GetDoctor(ctx context.Context, id string) (domain.Doctor, error) {
	doctor, err := s.Store.Doctors().GetDoctorByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Doctor{}, ErrDoctorNotFound
		}
		return domain.Doctor{}, err
	}
	return doctor, nil
}

// GetProfile returns the professional profile behind an account email.
func (s *DoctorService) GetProfile(ctx context.Context, email string) (domain.Doctor, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Doctor{}, ErrDoctorNotFound
		}
		return domain.Doctor{}, err
	}

	doctor, err := s.Store.Doctors().GetDoctorByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Doctor{}, ErrDoctorNotFound
		}
		return domain.Doctor{}, err
	}
	return doctor, nil
}

// UpdateProfile mutates the mutable profile fields for the doctor
// behind an account email. The license number never changes here.
func (s *DoctorService) UpdateProfile(
	ctx context.Context,
	email, firstName, lastName, specialization string,
) (domain.Doctor, error) {
	doctor, err := s.GetProfile(ctx, email)
	if err != nil {
		return domain.Doctor{}, err
	}

	if firstName != "" {
		doctor.FirstName = firstName
	}
	if lastName != "" {
		doctor.LastName = lastName
	}
	if specialization != "" {
		doctor.Specialization = specialization
	}

	if err := s.Store.Doctors().UpdateDoctor(ctx, doctor); err != nil {
		slogx.FromContext(ctx).Error("failed to update doctor profile",
			slog.String("doctor_id", doctor.ID),
			slog.Any("error", err),
		)
		return domain.Doctor{}, err
	}
	return doctor, nil
}

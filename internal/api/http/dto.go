package http

import (
	"github.com/dathealth/medsched/internal/api/domain"
)

// UserResponse is the account representation returned to clients. The
// password hash never leaves the service.
type UserResponse struct {
	ID     string   `json:"id"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Roles  []string `json:"roles"`
	Active bool     `json:"active"`
}

func toUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:     u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Roles:  u.Roles,
		Active: u.Active,
	}
}

// TokenResponse carries a freshly minted access token.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

// DoctorResponse is a public directory entry.
type DoctorResponse struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Specialization string `json:"specialization,omitempty"`
}

func toDoctorResponse(d domain.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:             d.ID,
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		Specialization: d.Specialization,
	}
}

// DoctorProfileResponse is the doctor's own view, including the license
// number the public directory omits.
type DoctorProfileResponse struct {
	DoctorResponse
	LicenseNumber string `json:"license_number"`
}

// PatientProfileResponse is the patient's own profile.
type PatientProfileResponse struct {
	ID    string `json:"id"`
	Phone string `json:"phone,omitempty"`
}

// RoleResponse is a role definition as seen by administrators.
type RoleResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dathealth/medsched/internal/api/service"
	"github.com/dathealth/medsched/pkg/httpx"
	"github.com/dathealth/medsched/pkg/slogx"
	"github.com/dathealth/medsched/pkg/webapi"
)

// UsersHandler serves the authenticated account and profile endpoints.
// The policy middleware guarantees a principal is present before any of
// these run.
type UsersHandler struct {
	UserService   *service.UserService
	DoctorService *service.DoctorService
}

// HandleMe returns the authenticated account.
//
//	@Summary	Get the authenticated account
//	@Tags		Users
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	webapi.Response{data=UserResponse}
//	@Failure	401	{object}	webapi.APIError
//	@Router		/api/users/me [get].
func (h *UsersHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpx.PrincipalFromContext(r.Context())
	if !ok {
		webapi.ErrUnauthenticated.WriteError(w)
		return
	}

	user, err := h.UserService.GetByEmail(r.Context(), principal.Subject)
	if err != nil {
		writeUserError(w, r, err)
		return
	}

	webapi.WriteResponse(w, http.StatusOK, "account", toUserResponse(user))
}

type updateMeRequest struct {
	Name string `json:"name"`
}

// HandleUpdateMe changes the display name.
//
//	@Summary	Update the authenticated account
//	@Tags		Users
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		updateMeRequest	true	"New display name"
//	@Success	200		{object}	webapi.Response{data=UserResponse}
//	@Failure	401		{object}	webapi.APIError
//	@Router		/api/users/me [put].
func (h *UsersHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := httpx.PrincipalFromContext(r.Context())
	if !ok {
		webapi.ErrUnauthenticated.WriteError(w)
		return
	}

	var req updateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		webapi.New(http.StatusBadRequest, webapi.CodeBadRequest, "a non-empty name is required").WriteError(w)
		return
	}

	user, err := h.UserService.UpdateName(r.Context(), principal.Subject, req.Name)
	if err != nil {
		writeUserError(w, r, err)
		return
	}

	webapi.WriteResponse(w, http.StatusOK, "account updated", toUserResponse(user))
}

// HandlePatientProfile returns the patient profile.
//
//	@Summary	Get the patient profile
//	@Tags		Users
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	webapi.Response{data=PatientProfileResponse}
//	@Failure	403	{object}	webapi.APIError	"Authenticated but not a patient"
//	@Router		/api/users/me/patient [get].
func (h *UsersHandler) HandlePatientProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := httpx.PrincipalFromContext(r.Context())

	patient, err := h.UserService.GetPatientProfile(r.Context(), principal.Subject)
	if err != nil {
		writeUserError(w, r, err)
		return
	}

	webapi.WriteResponse(w, http.StatusOK, "patient profile", PatientProfileResponse{
		ID:    patient.ID,
		Phone: patient.Phone,
	})
}

type updatePatientRequest struct {
	Phone string `json:"phone"`
}

// HandleUpdatePatientProfile mutates the patient profile.
//
//	@Summary	Update the patient profile
//	@Tags		Users
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		updatePatientRequest	true	"Profile fields"
//	@Success	200		{object}	webapi.Response{data=PatientProfileResponse}
//	@Failure	403		{object}	webapi.APIError	"Authenticated but not a patient"
//	@Router		/api/users/me/patient [put].
func (h *UsersHandler) HandleUpdatePatientProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := httpx.PrincipalFromContext(r.Context())

	var req updatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webapi.New(http.StatusBadRequest, webapi.CodeBadRequest, "invalid JSON body").WriteError(w)
		return
	}

	patient, err := h.UserService.UpdatePatientProfile(r.Context(), principal.Subject, req.Phone)
	if err != nil {
		writeUserError(w, r, err)
		return
	}

	webapi.WriteResponse(w, http.StatusOK, "profile updated", PatientProfileResponse{
		ID:    patient.ID,
		Phone: patient.Phone,
	})
}

// HandleDoctorProfile returns the doctor's own professional profile.
//
//	@Summary	Get the doctor profile
//	@Tags		Users
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	webapi.Response{data=DoctorProfileResponse}
//	@Failure	403	{object}	webapi.APIError	"Authenticated but not a doctor"
//	@Router		/api/users/me/doctor [get].
func (h *UsersHandler) HandleDoctorProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := httpx.PrincipalFromContext(r.Context())

	doctor, err := h.DoctorService.GetProfile(r.Context(), principal.Subject)
	if err != nil {
		writeUserError(w, r, err)
		return
	}

	webapi.WriteResponse(w, http.StatusOK, "doctor profile", DoctorProfileResponse{
		DoctorResponse: toDoctorResponse(doctor),
		LicenseNumber:  doctor.LicenseNumber,
	})
}

type updateDoctorRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Specialization string `json:"specialization"`
}

// HandleUpdateDoctorProfile mutates the doctor's own profile. The
// license number is immutable.
//
//	@Summary	Update the doctor profile
//	@Tags		Users
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		updateDoctorRequest	true	"Profile fields (empty fields keep their value)"
//	@Success	200		{object}	webapi.Response{data=DoctorProfileResponse}
//	@Failure	403		{object}	webapi.APIError	"Authenticated but not a doctor"
//	@Router		/api/users/me/doctor [put].
func (h *UsersHandler) HandleUpdateDoctorProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := httpx.PrincipalFromContext(r.Context())

	var req updateDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webapi.New(http.StatusBadRequest, webapi.CodeBadRequest, "invalid JSON body").WriteError(w)
		return
	}

	doctor, err := h.DoctorService.UpdateProfile(
		r.Context(), principal.Subject, req.FirstName, req.LastName, req.Specialization,
	)
	if err != nil {
		writeUserError(w, r, err)
		return
	}

	webapi.WriteResponse(w, http.StatusOK, "profile updated", DoctorProfileResponse{
		DoctorResponse: toDoctorResponse(doctor),
		LicenseNumber:  doctor.LicenseNumber,
	})
}

// HandleListRoles lists the role definitions.
//
//	@Summary	List roles
//	@Tags		Users
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	webapi.Response{data=[]RoleResponse}
//	@Failure	403	{object}	webapi.APIError	"Authenticated but not an administrator"
//	@Router		/api/roles [get].
func (h *UsersHandler) HandleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.UserService.ListRoles(r.Context())
	if err != nil {
		writeUserError(w, r, err)
		return
	}

	out := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, RoleResponse{ID: role.ID, Name: role.Name})
	}

	webapi.WriteResponse(w, http.StatusOK, "roles", out)
}

func writeUserError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrDoctorNotFound):
		webapi.New(http.StatusNotFound, webapi.CodeNotFound, "profile not found").WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("user operation failed", "error", err)
		webapi.ErrServerError.WriteError(w)
	}
}

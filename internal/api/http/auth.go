package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dathealth/medsched/internal/api/domain"
	"github.com/dathealth/medsched/internal/api/service"
	"github.com/dathealth/medsched/pkg/slogx"
	"github.com/dathealth/medsched/pkg/webapi"
)

type AuthHandler struct {
	AuthService *service.AuthService
}

type registerPatientRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// HandleRegisterPatient creates a patient account.
//
//	@Summary		Register a patient account
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		registerPatientRequest	true	"Registration details"
//	@Success		201		{object}	webapi.Response{data=UserResponse}
//	@Failure		400		{object}	webapi.APIError	"Missing required fields"
//	@Failure		409		{object}	webapi.APIError	"Email already registered"
//	@Router			/api/auth/register/patient [post].
func (h *AuthHandler) HandleRegisterPatient(w http.ResponseWriter, r *http.Request) {
	var req registerPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webapi.New(http.StatusBadRequest, webapi.CodeBadRequest, "invalid JSON body").WriteError(w)
		return
	}

	user, err := h.AuthService.RegisterPatient(r.Context(), req.Email, req.Name, req.Password, req.Phone)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	webapi.WriteResponse(w, http.StatusCreated, "account created", toUserResponse(user))
}

type registerDoctorRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	LicenseNumber  string `json:"license_number"`
	Specialization string `json:"specialization"`
}

// HandleRegisterDoctor creates a doctor account with its professional
// profile.
//
//	@Summary		Register a doctor account
//	@Description	Creates a doctor account. A license number is mandatory.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		registerDoctorRequest	true	"Registration details"
//	@Success		201		{object}	webapi.Response{data=UserResponse}
//	@Failure		400		{object}	webapi.APIError	"Missing required fields or license number"
//	@Failure		409		{object}	webapi.APIError	"Email or license number already registered"
//	@Router			/api/auth/register/doctor [post].
func (h *AuthHandler) HandleRegisterDoctor(w http.ResponseWriter, r *http.Request) {
	var req registerDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webapi.New(http.StatusBadRequest, webapi.CodeBadRequest, "invalid JSON body").WriteError(w)
		return
	}

	user, err := h.AuthService.RegisterDoctor(r.Context(), req.Email, req.Password, domain.Doctor{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		LicenseNumber:  req.LicenseNumber,
		Specialization: req.Specialization,
	})
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	webapi.WriteResponse(w, http.StatusCreated, "account created", toUserResponse(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and returns an access token.
//
//	@Summary		Log in
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		loginRequest	true	"Credentials"
//	@Success		200		{object}	webapi.Response{data=TokenResponse}
//	@Failure		401		{object}	webapi.APIError	"Invalid credentials or disabled account"
//	@Router			/api/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webapi.New(http.StatusBadRequest, webapi.CodeBadRequest, "invalid JSON body").WriteError(w)
		return
	}

	token, user, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	webapi.WriteResponse(w, http.StatusOK, "login successful", TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User:        toUserResponse(user),
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword mints a single-use reset code and emails a link
// carrying it. Reissuing invalidates any earlier code.
//
//	@Summary		Request a password reset
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		forgotPasswordRequest	true	"Account email"
//	@Success		200		{object}	webapi.Response
//	@Failure		404		{object}	webapi.APIError	"No account for that email"
//	@Router			/api/auth/forgot-password [post].
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webapi.New(http.StatusBadRequest, webapi.CodeBadRequest, "invalid JSON body").WriteError(w)
		return
	}

	if err := h.AuthService.ForgotPassword(r.Context(), req.Email); err != nil {
		writeAuthError(w, r, err)
		return
	}

	webapi.WriteResponse(w, http.StatusOK, "reset link sent", nil)
}

type resetPasswordRequest struct {
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// HandleResetPassword consumes a reset code and installs a new
// password. The code works exactly once.
//
//	@Summary		Reset the password with an emailed code
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		resetPasswordRequest	true	"Reset code and new password"
//	@Success		200		{object}	webapi.Response
//	@Failure		400		{object}	webapi.APIError	"Code invalid, already used, or expired"
//	@Router			/api/auth/reset-password [post].
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		webapi.New(http.StatusBadRequest, webapi.CodeBadRequest, "invalid JSON body").WriteError(w)
		return
	}

	if err := h.AuthService.ResetPassword(r.Context(), req.Code, req.NewPassword); err != nil {
		writeAuthError(w, r, err)
		return
	}

	webapi.WriteResponse(w, http.StatusOK, "password updated", nil)
}

// writeAuthError maps AuthService errors onto the wire format.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRegistration):
		webapi.New(http.StatusBadRequest, webapi.CodeBadRequest, err.Error()).WriteError(w)
	case errors.Is(err, service.ErrEmailAlreadyTaken),
		errors.Is(err, service.ErrLicenseAlreadyTaken):
		webapi.New(http.StatusConflict, webapi.CodeConflict, err.Error()).WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrAccountDisabled):
		webapi.New(http.StatusUnauthorized, webapi.CodeUnauthenticated, err.Error()).WriteError(w)
	case errors.Is(err, service.ErrEmailNotFound):
		webapi.New(http.StatusNotFound, webapi.CodeNotFound, err.Error()).WriteError(w)
	case errors.Is(err, service.ErrInvalidResetCode),
		errors.Is(err, service.ErrResetCodeExpired):
		webapi.New(http.StatusBadRequest, webapi.CodeBadRequest, err.Error()).WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("auth operation failed", "error", err)
		webapi.ErrServerError.WriteError(w)
	}
}

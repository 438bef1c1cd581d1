package http

import (
	"errors"
	"net/http"

	"github.com/dathealth/medsched/internal/api/service"
	"github.com/dathealth/medsched/pkg/slogx"
	"github.com/dathealth/medsched/pkg/webapi"
)

// DoctorsHandler serves the public doctor directory.
type DoctorsHandler struct {
	DoctorService *service.DoctorService
}

// HandleList returns the directory, optionally filtered.
//
//	@Summary	List doctors
//	@Tags		Doctors
//	@Produce	json
//	@Param		specialization	query		string	false	"Filter by specialization"
//	@Success	200				{object}	webapi.Response{data=[]DoctorResponse}
//	@Router		/api/doctors [get].
func (h *DoctorsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.DoctorService.ListDoctors(r.Context(), r.URL.Query().Get("specialization"))
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to list doctors", "error", err)
		webapi.ErrServerError.WriteError(w)
		return
	}

	out := make([]DoctorResponse, len(doctors))
	for i, d := range doctors {
		out[i] = toDoctorResponse(d)
	}
	webapi.WriteResponse(w, http.StatusOK, "doctors", out)
}

// HandleGet returns one directory entry.
//
//	@Summary	Get a doctor
//	@Tags		Doctors
//	@Produce	json
//	@Param		id	path		string	true	"Doctor ID"
//	@Success	200	{object}	webapi.Response{data=DoctorResponse}
//	@Failure	404	{object}	webapi.APIError
//	@Router		/api/doctors/{id} [get].
func (h *DoctorsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	doctor, err := h.DoctorService.GetDoctor(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrDoctorNotFound) {
			webapi.New(http.StatusNotFound, webapi.CodeNotFound, "doctor not found").WriteError(w)
			return
		}
		slogx.FromContext(r.Context()).Error("failed to fetch doctor", "error", err)
		webapi.ErrServerError.WriteError(w)
		return
	}

	webapi.WriteResponse(w, http.StatusOK, "doctor", toDoctorResponse(doctor))
}

package webapi

import (
	"encoding/json"
	"net/http"
)

// Response is the success envelope: {"status_code":200,"message":...,"data":...}.
type Response struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
}

// WriteResponse writes the standard success envelope.
func WriteResponse(w http.ResponseWriter, statusCode int, message string, data any) {
	WriteJSON(w, statusCode, Response{
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
	})
}

// WriteJSON writes v as a JSON body with the given status. Auth-adjacent
// responses must not be cached, so no-store is always set.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/platinummonkey/gatehouse/pkg/auth"
)

// CodeOK is the response code for successful requests
const CodeOK = "ok"

// Response is the envelope every endpoint returns: a stable code, an
// optional human-readable message and an optional data payload.
type Response struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, resp Response) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(resp)
}

// WriteData writes a successful response (200 OK) with a data payload
func WriteData(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, Response{Code: CodeOK, Data: data})
}

// WriteErrorMessage writes an error response with a custom code and message
func WriteErrorMessage(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, Response{Code: code, Message: message})
}

// WriteAuthFailure translates an authentication failure into the structured
// error response: the failure's reason is the stable code, the status comes
// from the reason's classification.
func WriteAuthFailure(w http.ResponseWriter, failure *auth.Failure) {
	WriteErrorMessage(w, failure.Reason.HTTPStatus(), string(failure.Reason), failure.Message)
}

// WriteInternalError writes a 500 response without leaking the error detail
func WriteInternalError(w http.ResponseWriter) {
	WriteErrorMessage(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

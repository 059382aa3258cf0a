package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with full technical detail server-side and returned to
// the client as a user-friendly message with an action and a support code
// taken from core.MapError. API routes answer in JSON, pages in plain text.

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/UserUpload/internal/core"
	"github.com/JonMunkholm/UserUpload/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code, Kind) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Kind    string `json:"kind,omitempty"`
}

func newErrorResponse(err error) ErrorResponse {
	msg := core.MapError(err)
	resp := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	if kind := core.KindOf(err); kind != core.KindUnknown {
		resp.Kind = kind.String()
	}
	return resp
}

// respondError logs err and writes a user-friendly response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	resp := newErrorResponse(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", resp.Code,
	)

	if wantsJSON(r) {
		respondErrorJSON(w, resp, statusCode)
	} else {
		respondErrorText(w, resp, statusCode)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, resp ErrorResponse, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}

// respondErrorText writes a plain text error response.
func respondErrorText(w http.ResponseWriter, resp ErrorResponse, statusCode int) {
	http.Error(w, resp.Message+" ("+resp.Code+"). "+resp.Action, statusCode)
}

// statusFor maps an ingestion outcome to an HTTP status.
func statusFor(res core.IngestResult) int {
	switch res.Outcome {
	case core.OutcomeSuccess:
		return http.StatusOK
	case core.OutcomeRejectedFile:
		return http.StatusBadRequest
	case core.OutcomeValidationFailed:
		return http.StatusUnprocessableEntity
	}
	if errors.Is(res.Err, core.ErrPoolExhausted) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}

	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}

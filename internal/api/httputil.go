package api

import (
	"encoding/json"
	"net/http"

	"social-support-intake/internal/common/errors"
	"social-support-intake/internal/common/logger"
)

type errorResponse struct {
	Code        errors.ErrorCode  `json:"code"`
	Message     string            `json:"message"`
	Details     string            `json:"details,omitempty"`
	Retryable   bool              `json:"retryable"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes it in the StandardError shape.
func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	stdErr, ok := errors.AsStandard(err)
	if !ok {
		log.Error("unhandled error", map[string]interface{}{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "internal server error",
		})
		return
	}

	resp := errorResponse{
		Code:      stdErr.Code,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
	}
	if fe, ok := stdErr.Metadata["fieldErrors"].(map[string]string); ok {
		resp.FieldErrors = fe
	}
	writeJSON(w, statusFor(stdErr.Code), resp)
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeValidationFailed:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeSessionNotFound, errors.ErrCodeUnknownField:
		return http.StatusNotFound
	case errors.ErrCodeInvalidStepTransition, errors.ErrCodeNoStagedSuggestion:
		return http.StatusConflict
	case errors.ErrCodeSubmissionFailed, errors.ErrCodeSubmissionTimeout:
		return http.StatusBadGateway
	case errBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

const errBadRequest errors.ErrorCode = "BAD_REQUEST"

func badRequest(details string) *errors.StandardError {
	return &errors.StandardError{Code: errBadRequest, Message: "Malformed request body", Details: details}
}

// decodeJSON decodes the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest(err.Error())
	}
	return nil
}

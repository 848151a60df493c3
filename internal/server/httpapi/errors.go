package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/skillbridge/auth/internal/common"
)

// APIError is the body of every non-2xx response.
type APIError struct {
	Code    string `json:"error_code"`
	Message string `json:"error_message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIError{Code: code, Message: message})
}

// writeServiceError maps a service error onto a status and error code.
// Unknown errors are reported as internal without their text.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "INVALID_ROLE", err.Error())
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "USER_EXISTS", "User with this email already exists")
	case errors.Is(err, common.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, common.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token expired")
	case errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenRevokedOrUnknown),
		errors.Is(err, common.ErrSubjectMismatch):
		writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or revoked token")
	case errors.Is(err, common.ErrIncorrectPassword):
		writeError(w, http.StatusBadRequest, "INCORRECT_PASSWORD", err.Error())
	case errors.Is(err, common.ErrPasswordMismatch):
		writeError(w, http.StatusBadRequest, "PASSWORD_MISMATCH", err.Error())
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

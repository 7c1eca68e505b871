package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flight-booking-system/internal/domain"
)

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Error codes, matching the error-kind table of the reservation contract.
const (
	ErrCodeInvalidPayload  = "INVALID_PAYLOAD"
	ErrCodeUnavailable     = "UNAVAILABLE"
	ErrCodeLockExpired     = "LOCK_EXPIRED_OR_STOLEN"
	ErrCodeAlreadySold     = "ALREADY_SOLD"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeUnauthenticated = "UNAUTHENTICATED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeAccountExists   = "ACCOUNT_EXISTS"
	ErrCodeInvalidOTP      = "INVALID_OTP"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// MapDomainError maps domain errors to HTTP status codes and error codes
func MapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrSeatNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "seat not found"
	case errors.Is(err, domain.ErrSeatUnavailable):
		return http.StatusConflict, ErrCodeUnavailable, "seat is not available"
	case errors.Is(err, domain.ErrLockExpiredOrStolen):
		return http.StatusConflict, ErrCodeLockExpired, "hold has expired or is held by another user"
	case errors.Is(err, domain.ErrAlreadySold):
		return http.StatusConflict, ErrCodeAlreadySold, "seat is already sold"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, ErrCodeRateLimited, "rate limit exceeded"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, ErrCodeUnauthenticated, "authentication required"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden, "not the holder of this seat"
	case errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadRequest, ErrCodeInvalidPayload, "invalid request payload"
	case errors.Is(err, domain.ErrAccountExists):
		return http.StatusConflict, ErrCodeAccountExists, "account already exists"
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrCodeUnauthenticated, "invalid credentials"
	case errors.Is(err, domain.ErrInvalidOTP):
		return http.StatusBadRequest, ErrCodeInvalidOTP, "invalid or expired verification code"
	default:
		return http.StatusInternalServerError, ErrCodeInternalError, "an internal error occurred"
	}
}

// HandleServiceError writes appropriate error response based on service error
func HandleServiceError(w http.ResponseWriter, err error) {
	statusCode, code, message := MapDomainError(err)
	WriteError(w, statusCode, code, message)
}

// handlePurchaseError maps errors from the purchase path. /api/pay's
// contract calls for 400 on a stolen/expired hold or an already-sold seat,
// unlike /api/lock's 409 for the same sentinels — purchase failures are
// framed as a bad request (the client's hold was no longer valid when it
// tried to spend it), not a conflict to retry against.
func handlePurchaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrLockExpiredOrStolen):
		WriteError(w, http.StatusBadRequest, ErrCodeLockExpired, "hold has expired or is held by another user")
	case errors.Is(err, domain.ErrAlreadySold):
		WriteError(w, http.StatusBadRequest, ErrCodeAlreadySold, "seat is already sold")
	default:
		HandleServiceError(w, err)
	}
}

package domain

import "errors"

var (
	// ErrSeatNotFound indicates the requested seat does not exist.
	ErrSeatNotFound = errors.New("seat not found")

	// ErrSeatUnavailable indicates a hold cannot be placed because the
	// seat is already LOCKED by someone else or already SOLD.
	ErrSeatUnavailable = errors.New("seat is not available")

	// ErrLockExpiredOrStolen indicates a release/purchase referenced a
	// hold that has expired or was never held by the caller.
	ErrLockExpiredOrStolen = errors.New("hold has expired or is held by another user")

	// ErrAlreadySold indicates the seat is already SOLD.
	ErrAlreadySold = errors.New("seat is already sold")

	// ErrRateLimited indicates the caller exceeded their token bucket.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUnauthenticated indicates a missing or invalid bearer token.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden indicates the caller is not the holder of the seat.
	ErrForbidden = errors.New("not the holder of this seat")

	// ErrInvalidPayload indicates a malformed or incomplete request body.
	ErrInvalidPayload = errors.New("invalid request payload")

	// ErrAccountExists indicates registration was attempted for an email
	// that already has an account.
	ErrAccountExists = errors.New("account already exists")

	// ErrAccountNotFound indicates login/verification referenced an
	// unknown account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidCredentials indicates a login attempt with a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidOTP indicates a verify-register call with a wrong or
	// expired one-time code.
	ErrInvalidOTP = errors.New("invalid or expired verification code")
)

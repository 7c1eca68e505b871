package temporal

import (
	"go.temporal.io/sdk/temporal"
)

// Non-retryable error types for the reconciliation activity's retry policy.
const (
	ErrTypeSeatNotFound = "SEAT_NOT_FOUND"
)

// NewSeatNotFoundError creates a non-retryable error for a seat ID the DRS
// no longer recognizes, so the reconciliation workflow does not burn retries
// on a row that will never reappear.
func NewSeatNotFoundError(seatID string) error {
	return temporal.NewNonRetryableApplicationError(
		"seat "+seatID+" not found in durable record store",
		ErrTypeSeatNotFound,
		nil,
	)
}

package domain

import "time"

// Hold represents an in-flight exclusive claim on a seat, held in the HSS.
type Hold struct {
	SeatID    string    `json:"seatId"`
	HolderID  string    `json:"holderId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Receipt is the durable record of a completed purchase, idempotent on
// IdempotencyKey so a retried /api/pay call returns the same receipt
// instead of attempting a second sale.
type Receipt struct {
	TxID           string    `json:"txId"`
	SeatID         string    `json:"seatId"`
	UserID         string    `json:"userId"`
	IdempotencyKey string    `json:"idempotencyKey"`
	IssuedAt       time.Time `json:"issuedAt"`
}

// Account is a registered user able to hold and purchase seats.
type Account struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/flight-booking-system/internal/auth"
	"github.com/flight-booking-system/internal/domain"
)

// ReservationCore is the surface the HTTP layer needs from the
// Reservation Core.
type ReservationCore interface {
	Hold(ctx context.Context, seatID, userID string) (time.Time, error)
	Release(ctx context.Context, seatID, userID string) error
	Purchase(ctx context.Context, seatID, userID, idempotencyKey string) (*domain.Receipt, error)
	Snapshot(ctx context.Context) ([]domain.SeatView, error)
	Reset(ctx context.Context) error
}

// AuthService is the surface the HTTP layer needs from the auth service.
type AuthService interface {
	Register(ctx context.Context, email, password, phone string) error
	VerifyRegister(ctx context.Context, email, code string) (*domain.Account, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// Handlers wires the reservation core and auth service to the HTTP surface.
type Handlers struct {
	reservations ReservationCore
	auth         AuthService
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(reservations ReservationCore, authService AuthService) *Handlers {
	return &Handlers{reservations: reservations, auth: authService}
}

// ListSeats handles GET /api/seats.
func (h *Handlers) ListSeats(w http.ResponseWriter, r *http.Request) {
	views, err := h.reservations.Snapshot(r.Context())
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	resp := SeatListResponse{Success: true, Seats: make([]SeatResponse, len(views))}
	for i, v := range views {
		seat := SeatResponse{
			ID:     v.ID,
			Row:    v.Row,
			Number: v.Number,
			Tier:   v.Tier,
			Price:  v.PriceCents,
			State:  seatState(v.State),
		}
		if v.State == domain.HotStateLocked {
			seat.LockedBy = v.HolderID
			if v.ExpiresAt != nil {
				ttl := int64(time.Until(*v.ExpiresAt).Seconds())
				if ttl < 0 {
					ttl = 0
				}
				seat.TTL = &ttl
			}
		}
		resp.Seats[i] = seat
	}

	WriteJSON(w, http.StatusOK, resp)
}

// seatState translates the internal HotState representation to the
// lowercase wire enum the contract documents.
func seatState(s domain.HotState) string {
	switch s {
	case domain.HotStateLocked:
		return "locked"
	case domain.HotStateSold:
		return "booked"
	default:
		return "available"
	}
}

// Lock handles POST /api/lock.
func (h *Handlers) Lock(w http.ResponseWriter, r *http.Request) {
	var req LockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SeatID == "" {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidPayload, "seatId is required")
		return
	}

	userID := auth.UserID(r.Context())
	expiresAt, err := h.reservations.Hold(r.Context(), req.SeatID, userID)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	ttl := int64(time.Until(expiresAt).Seconds())
	if ttl < 0 {
		ttl = 0
	}
	WriteJSON(w, http.StatusOK, LockResponse{Success: true, SeatID: req.SeatID, TTL: ttl})
}

// Release handles POST /api/release. Permissive: the caller identifies
// itself by userId in the body rather than a bearer token, so the caller
// need not be the seat's holder for this request to be authenticated —
// release of a seat held by someone else is simply a no-op, not an error.
func (h *Handlers) Release(w http.ResponseWriter, r *http.Request) {
	var req ReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SeatID == "" || req.UserID == "" {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidPayload, "seatId and userId are required")
		return
	}

	if err := h.reservations.Release(r.Context(), req.SeatID, req.UserID); err != nil {
		if errors.Is(err, domain.ErrLockExpiredOrStolen) {
			WriteJSON(w, http.StatusOK, ReleaseResponse{Success: true})
			return
		}
		HandleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, ReleaseResponse{Success: true})
}

// Pay handles POST /api/pay.
func (h *Handlers) Pay(w http.ResponseWriter, r *http.Request) {
	var req PayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SeatID == "" || req.IdempotencyKey == "" {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidPayload, "seatId and idempotencyKey are required")
		return
	}

	userID := auth.UserID(r.Context())
	receipt, err := h.reservations.Purchase(r.Context(), req.SeatID, userID, req.IdempotencyKey)
	if err != nil {
		handlePurchaseError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, ReceiptResponse{
		Success:  true,
		TxID:     receipt.TxID,
		SeatID:   receipt.SeatID,
		UserID:   receipt.UserID,
		IssuedAt: receipt.IssuedAt,
	})
}

// Reset handles POST /api/reset. Intentionally unauthenticated: it is an
// admin/dev control for wiping state between demo runs, not a user action.
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.reservations.Reset(r.Context()); err != nil {
		HandleServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ResetResponse{Success: true})
}

// Register handles POST /api/auth/register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidPayload, "email and password are required")
		return
	}

	if err := h.auth.Register(r.Context(), req.Email, req.Password, req.Phone); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, RegisterResponse{Success: true})
}

// VerifyRegister handles POST /api/auth/verify-register.
func (h *Handlers) VerifyRegister(w http.ResponseWriter, r *http.Request) {
	var req VerifyRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Code == "" {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidPayload, "email and code are required")
		return
	}

	acc, err := h.auth.VerifyRegister(r.Context(), req.Email, req.Code)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, AccountResponse{Success: true, UserID: acc.UserID, Email: acc.Email})
}

// Login handles POST /api/auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidPayload, "email and password are required")
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, AuthTokenResponse{Success: true, Token: token})
}

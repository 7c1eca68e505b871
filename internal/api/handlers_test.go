package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flight-booking-system/internal/api"
	"github.com/flight-booking-system/internal/domain"
)

type fakeCore struct {
	holdExpires time.Time
	holdErr     error
	releaseErr  error
	receipt     *domain.Receipt
	purchaseErr error
	snapshot    []domain.SeatView
	snapshotErr error
	resetErr    error
}

func (f *fakeCore) Hold(ctx context.Context, seatID, userID string) (time.Time, error) {
	return f.holdExpires, f.holdErr
}
func (f *fakeCore) Release(ctx context.Context, seatID, userID string) error { return f.releaseErr }
func (f *fakeCore) Purchase(ctx context.Context, seatID, userID, idempotencyKey string) (*domain.Receipt, error) {
	return f.receipt, f.purchaseErr
}
func (f *fakeCore) Snapshot(ctx context.Context) ([]domain.SeatView, error) {
	return f.snapshot, f.snapshotErr
}
func (f *fakeCore) Reset(ctx context.Context) error { return f.resetErr }

type fakeAuthService struct {
	registerErr       error
	verifyAccount     *domain.Account
	verifyErr         error
	loginToken        string
	loginErr          error
}

func (f *fakeAuthService) Register(ctx context.Context, email, password, phone string) error {
	return f.registerErr
}
func (f *fakeAuthService) VerifyRegister(ctx context.Context, email, code string) (*domain.Account, error) {
	return f.verifyAccount, f.verifyErr
}
func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, error) {
	return f.loginToken, f.loginErr
}

func TestListSeats_ReturnsSnapshot(t *testing.T) {
	core := &fakeCore{snapshot: []domain.SeatView{
		{Seat: domain.Seat{ID: "1-1", Row: 1, Number: 1, Tier: "standard", PriceCents: 1000}, State: domain.HotStateAvailable},
	}}
	h := api.NewHandlers(core, &fakeAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/api/seats", nil)
	rec := httptest.NewRecorder()
	h.ListSeats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.SeatListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Len(t, resp.Seats, 1)
	require.Equal(t, "1-1", resp.Seats[0].ID)
	require.Equal(t, "available", resp.Seats[0].State)
}

func TestLock_RejectsMissingSeatID(t *testing.T) {
	h := api.NewHandlers(&fakeCore{}, &fakeAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/api/lock", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	h.Lock(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLock_ReturnsAlreadySoldAsConflict(t *testing.T) {
	core := &fakeCore{holdErr: domain.ErrAlreadySold}
	h := api.NewHandlers(core, &fakeAuthService{})

	body, _ := json.Marshal(api.LockRequest{SeatID: "1-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/lock", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Lock(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	var errResp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, api.ErrCodeAlreadySold, errResp.Error)
}

func TestLock_Succeeds(t *testing.T) {
	expires := time.Now().Add(5 * time.Minute)
	core := &fakeCore{holdExpires: expires}
	h := api.NewHandlers(core, &fakeAuthService{})

	body, _ := json.Marshal(api.LockRequest{SeatID: "1-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/lock", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Lock(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.LockResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "1-1", resp.SeatID)
}

func TestRelease_RejectsMissingUserID(t *testing.T) {
	h := api.NewHandlers(&fakeCore{}, &fakeAuthService{})

	body, _ := json.Marshal(map[string]string{"seatId": "1-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/release", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Release(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// A caller who is not the current holder still gets a 200 success — release
// is permissive and a no-op in that case, not an error.
func TestRelease_NonHolderStillSucceeds(t *testing.T) {
	core := &fakeCore{releaseErr: domain.ErrLockExpiredOrStolen}
	h := api.NewHandlers(core, &fakeAuthService{})

	body, _ := json.Marshal(api.ReleaseRequest{SeatID: "1-1", UserID: "bob"})
	req := httptest.NewRequest(http.MethodPost, "/api/release", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Release(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.ReleaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
}

func TestRelease_Succeeds(t *testing.T) {
	h := api.NewHandlers(&fakeCore{}, &fakeAuthService{})

	body, _ := json.Marshal(api.ReleaseRequest{SeatID: "1-1", UserID: "alice"})
	req := httptest.NewRequest(http.MethodPost, "/api/release", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Release(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.ReleaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
}

func TestPay_RejectsMissingIdempotencyKey(t *testing.T) {
	h := api.NewHandlers(&fakeCore{}, &fakeAuthService{})

	body, _ := json.Marshal(map[string]string{"seatId": "1-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/pay", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Pay(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPay_Succeeds(t *testing.T) {
	receipt := &domain.Receipt{TxID: "tx-1", SeatID: "1-1", UserID: "alice", IssuedAt: time.Now()}
	core := &fakeCore{receipt: receipt}
	h := api.NewHandlers(core, &fakeAuthService{})

	body, _ := json.Marshal(api.PayRequest{SeatID: "1-1", IdempotencyKey: "key-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/pay", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Pay(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.ReceiptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "tx-1", resp.TxID)
}

func TestPay_ReturnsLockExpiredAsBadRequest(t *testing.T) {
	core := &fakeCore{purchaseErr: domain.ErrLockExpiredOrStolen}
	h := api.NewHandlers(core, &fakeAuthService{})

	body, _ := json.Marshal(api.PayRequest{SeatID: "1-1", IdempotencyKey: "key-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/pay", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Pay(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, api.ErrCodeLockExpired, errResp.Error)
}

func TestPay_ReturnsAlreadySoldAsBadRequest(t *testing.T) {
	core := &fakeCore{purchaseErr: domain.ErrAlreadySold}
	h := api.NewHandlers(core, &fakeAuthService{})

	body, _ := json.Marshal(api.PayRequest{SeatID: "1-1", IdempotencyKey: "key-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/pay", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Pay(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, api.ErrCodeAlreadySold, errResp.Error)
}

func TestReset_Succeeds(t *testing.T) {
	h := api.NewHandlers(&fakeCore{}, &fakeAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/api/reset", nil)
	rec := httptest.NewRecorder()
	h.Reset(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.ResetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
}

func TestRegister_RejectsMissingPassword(t *testing.T) {
	h := api.NewHandlers(&fakeCore{}, &fakeAuthService{})

	body, _ := json.Marshal(map[string]string{"email": "alice@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_Succeeds(t *testing.T) {
	h := api.NewHandlers(&fakeCore{}, &fakeAuthService{})

	body, _ := json.Marshal(api.RegisterRequest{Email: "alice@example.com", Password: "hunter22"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
}

func TestVerifyRegister_WrongCodeReturnsBadRequest(t *testing.T) {
	auth := &fakeAuthService{verifyErr: domain.ErrInvalidOTP}
	h := api.NewHandlers(&fakeCore{}, auth)

	body, _ := json.Marshal(api.VerifyRegisterRequest{Email: "alice@example.com", Code: "000000"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify-register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.VerifyRegister(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_InvalidCredentialsReturnsUnauthorized(t *testing.T) {
	auth := &fakeAuthService{loginErr: domain.ErrInvalidCredentials}
	h := api.NewHandlers(&fakeCore{}, auth)

	body, _ := json.Marshal(api.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_Succeeds(t *testing.T) {
	auth := &fakeAuthService{loginToken: "signed-token"}
	h := api.NewHandlers(&fakeCore{}, auth)

	body, _ := json.Marshal(api.LoginRequest{Email: "alice@example.com", Password: "hunter22"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp api.AuthTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "signed-token", resp.Token)
}

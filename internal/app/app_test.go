package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing/internal/config"
	"ticketing/internal/database"
	"ticketing/internal/domain"
	"ticketing/internal/gateway/khalti"
	"ticketing/internal/modules/checkin"
	jwtsvc "ticketing/internal/pkg/jwt"
	"ticketing/internal/pkg/mq"
	"ticketing/internal/repository"
)

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) PublishJSON(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

type E2ETestSuite struct {
	t      *testing.T
	router *gin.Engine
	pub    *recordingPublisher
	users  *repository.UserRepository
	jwt    *jwtsvc.Service
}

type TestResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// setupTestSuite wires the full router to in-memory SQLite and a Khalti stub that
// reports every payment as completed for the amount it was initiated with.
func setupTestSuite(t *testing.T) *E2ETestSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()

	db, err := database.Connect(":memory:", log)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, database.Migrate(db))

	var (
		mu      sync.Mutex
		amounts = map[string]int64{}
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/epayment/initiate/", func(w http.ResponseWriter, r *http.Request) {
		var req khalti.InitiateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		pidx := "PIDX-" + req.PurchaseOrderID
		mu.Lock()
		amounts[pidx] = req.Amount
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"pidx":        pidx,
			"payment_url": "https://test-pay.khalti.com/?pidx=" + pidx,
			"expires_at":  "2026-10-19T11:00:00+05:45",
			"expires_in":  1800,
		})
	})
	mux.HandleFunc("/epayment/lookup/", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		amount := amounts[req["pidx"]]
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"pidx":           req["pidx"],
			"status":         khalti.StatusCompleted,
			"total_amount":   amount,
			"transaction_id": "TXN-" + req["pidx"],
		})
	})
	khaltiStub := httptest.NewServer(mux)
	t.Cleanup(khaltiStub.Close)

	cfg := &config.Config{
		JWTSecret: "e2e-secret",
		JWTTTL:    time.Hour,
		Khalti:    config.KhaltiConfig{BaseURL: khaltiStub.URL, SecretKey: "test", Timeout: 5 * time.Second},
		Payment:   config.PaymentConfig{FrontendURL: "http://localhost:5173", OrderNamePrefix: "tickets"},
	}
	hub := checkin.NewHub()
	t.Cleanup(hub.Close)

	pub := &recordingPublisher{}
	router := NewRouter(Deps{
		Config:    cfg,
		DB:        db,
		Gateway:   khalti.NewClient(khalti.Config{BaseURL: cfg.Khalti.BaseURL, SecretKey: cfg.Khalti.SecretKey, Timeout: cfg.Khalti.Timeout}),
		Publisher: pub,
		Hub:       hub,
		Log:       log,
	})
	return &E2ETestSuite{
		t:      t,
		router: router,
		pub:    pub,
		users:  repository.NewUserRepository(db),
		jwt:    jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL),
	}
}

func (s *E2ETestSuite) request(method, path, token string, body any) (int, TestResponse) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp TestResponse
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func (s *E2ETestSuite) expect(method, path, token string, body any, status int, out any) {
	s.t.Helper()
	code, resp := s.request(method, path, token, body)
	require.Equal(s.t, status, code, "%s %s: %+v", method, path, resp.Error)
	if out != nil {
		require.NoError(s.t, json.Unmarshal(resp.Data, out))
	}
}

// register stores a user and signs a token for it the way the identity service would.
func (s *E2ETestSuite) register(name, email string, role domain.UserRole) (id, token string) {
	s.t.Helper()
	u := &domain.User{Name: name, Email: email, Role: role}
	require.NoError(s.t, s.users.Create(context.Background(), u))
	token, err := s.jwt.GenerateToken(u.ID, string(u.Role))
	require.NoError(s.t, err)
	return u.ID, token
}

type bookingView struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	Amount        float64 `json:"amount"`
	QRCode        *string `json:"qr_code"`
}

type verifyView struct {
	Success         bool        `json:"success"`
	AlreadyVerified bool        `json:"already_verified"`
	Booking         bookingView `json:"booking"`
}

func TestE2E_EventTicketPurchaseAndCheckIn(t *testing.T) {
	s := setupTestSuite(t)
	_, orgToken := s.register("Sita Events", "org@example.com", domain.RoleOrganizer)
	_, otherOrgToken := s.register("Other Events", "other@example.com", domain.RoleOrganizer)
	_, clientToken := s.register("Asha", "asha@example.com", domain.RoleClient)

	var ev struct {
		ID string `json:"id"`
	}
	s.expect(http.MethodPost, "/api/v1/events", orgToken, map[string]any{
		"title": "Jazz Night", "event_date": "2030-01-10T18:00:00Z", "ticket_price": 500, "capacity": 100,
	}, http.StatusCreated, &ev)

	// clients cannot create events
	code, _ := s.request(http.MethodPost, "/api/v1/events", clientToken, map[string]any{
		"title": "Nope", "event_date": "2030-01-10T18:00:00Z", "ticket_price": 1,
	})
	assert.Equal(t, http.StatusForbidden, code)

	var available struct {
		Events []struct {
			ID string `json:"id"`
		} `json:"events"`
	}
	s.expect(http.MethodGet, "/api/v1/events/available", clientToken, nil, http.StatusOK, &available)
	require.Len(t, available.Events, 1)
	assert.Equal(t, ev.ID, available.Events[0].ID)

	var bk bookingView
	s.expect(http.MethodPost, "/api/v1/events/"+ev.ID+"/bookings", clientToken, map[string]any{"quantity": 2}, http.StatusCreated, &bk)
	assert.Equal(t, 1000.0, bk.Amount)

	// unpaid tickets cannot be checked in
	code, resp := s.request(http.MethodPost, "/api/v1/events/bookings/"+bk.ID+"/checkin", orgToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "PAYMENT_INCOMPLETE", resp.Error.Code)

	var initiated struct {
		Pidx       string `json:"pidx"`
		PaymentURL string `json:"payment_url"`
		Kind       string `json:"kind"`
	}
	s.expect(http.MethodPost, "/api/v1/payments/khalti/initiate", clientToken, map[string]string{"booking_id": bk.ID}, http.StatusOK, &initiated)
	assert.Equal(t, "event_ticket", initiated.Kind)
	assert.NotEmpty(t, initiated.PaymentURL)

	var verified verifyView
	s.expect(http.MethodGet, "/api/v1/payments/khalti/callback?pidx="+initiated.Pidx, "", nil, http.StatusOK, &verified)
	assert.True(t, verified.Success)
	assert.Equal(t, "paid", verified.Booking.PaymentStatus)
	assert.Equal(t, "confirmed", verified.Booking.Status)

	var again verifyView
	s.expect(http.MethodPost, "/api/v1/payments/khalti/verify", clientToken, map[string]string{"pidx": initiated.Pidx}, http.StatusOK, &again)
	assert.True(t, again.AlreadyVerified)

	var qr struct {
		QRCode string `json:"qr_code"`
	}
	s.expect(http.MethodGet, "/api/v1/events/bookings/"+bk.ID+"/qr", clientToken, nil, http.StatusOK, &qr)
	require.NotEmpty(t, qr.QRCode)

	code, resp = s.request(http.MethodPatch, "/api/v1/events/bookings/"+bk.ID+"/cancel", clientToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "PAID_TICKET_NOT_CANCELLABLE", resp.Error.Code)

	code, resp = s.request(http.MethodPost, "/api/v1/events/bookings/"+qr.QRCode+"/checkin", otherOrgToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "BOOKING_NOT_FOUND", resp.Error.Code)

	var first, second struct {
		Outcome string      `json:"outcome"`
		Booking bookingView `json:"booking"`
	}
	s.expect(http.MethodPost, "/api/v1/events/bookings/"+qr.QRCode+"/checkin", orgToken, nil, http.StatusOK, &first)
	assert.Equal(t, "checked_in", first.Outcome)
	assert.Equal(t, "attended", first.Booking.Status)
	s.expect(http.MethodPost, "/api/v1/events/bookings/"+qr.QRCode+"/checkin", orgToken, nil, http.StatusOK, &second)
	assert.Equal(t, "already_checked_in", second.Outcome)

	var stats struct {
		TicketsBooked int64            `json:"tickets_booked"`
		ByStatus      map[string]int64 `json:"by_status"`
	}
	s.expect(http.MethodGet, "/api/v1/events/"+ev.ID+"/analytics", orgToken, nil, http.StatusOK, &stats)
	assert.Equal(t, int64(2), stats.TicketsBooked)
	assert.Equal(t, int64(1), stats.ByStatus["attended"])

	assert.Equal(t, []string{mq.KeyPaymentCompleted, mq.KeyTicketCheckedIn}, s.pub.published())
}

func TestE2E_ServiceBookingPayment(t *testing.T) {
	s := setupTestSuite(t)
	providerID, providerToken := s.register("Himal Photo", "provider@example.com", domain.RoleProvider)
	_, clientToken := s.register("Asha", "asha@example.com", domain.RoleClient)

	var bk bookingView
	s.expect(http.MethodPost, "/api/v1/bookings", clientToken, map[string]any{
		"provider_id": providerID, "service_type": "photography", "event_date": "2030-02-01T10:00:00Z", "amount": 2500,
	}, http.StatusCreated, &bk)
	assert.Equal(t, "pending_provider_confirmation", bk.Status)

	code, resp := s.request(http.MethodPost, "/api/v1/payments/khalti/initiate", clientToken, map[string]string{"booking_id": bk.ID})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "BOOKING_NOT_CONFIRMED", resp.Error.Code)

	// only providers confirm
	code, _ = s.request(http.MethodPatch, "/api/v1/bookings/"+bk.ID+"/confirm", clientToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	var confirmed bookingView
	s.expect(http.MethodPatch, "/api/v1/bookings/"+bk.ID+"/confirm", providerToken, nil, http.StatusOK, &confirmed)
	assert.Equal(t, "confirmed_awaiting_payment", confirmed.Status)

	var initiated struct {
		Pidx string `json:"pidx"`
		Kind string `json:"kind"`
	}
	s.expect(http.MethodPost, "/api/v1/payments/khalti/initiate", clientToken, map[string]string{"booking_id": bk.ID}, http.StatusOK, &initiated)
	assert.Equal(t, "service", initiated.Kind)

	var verified verifyView
	s.expect(http.MethodPost, "/api/v1/payments/khalti/verify", clientToken, map[string]string{"pidx": initiated.Pidx}, http.StatusOK, &verified)
	assert.Equal(t, "confirmed_paid", verified.Booking.Status)
	assert.Nil(t, verified.Booking.QRCode)

	var status struct {
		PaymentStatus string `json:"payment_status"`
		Status        string `json:"status"`
	}
	s.expect(http.MethodGet, "/api/v1/payments/bookings/"+bk.ID+"/status", clientToken, nil, http.StatusOK, &status)
	assert.Equal(t, "paid", status.PaymentStatus)

	code, resp = s.request(http.MethodPatch, "/api/v1/payments/bookings/"+bk.ID+"/status", clientToken, map[string]string{"status": "failed"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "TRANSACTION_FINALIZED", resp.Error.Code)

	var history []struct {
		BookingID    string            `json:"booking_id"`
		Transactions []json.RawMessage `json:"transactions"`
	}
	s.expect(http.MethodGet, "/api/v1/payments/history", providerToken, nil, http.StatusOK, &history)
	require.Len(t, history, 1)
	assert.Len(t, history[0].Transactions, 1)

	assert.Equal(t, []string{mq.KeyBookingRequested, mq.KeyBookingConfirmed, mq.KeyPaymentCompleted}, s.pub.published())
}

func TestE2E_AuthRequired(t *testing.T) {
	s := setupTestSuite(t)

	code, resp := s.request(http.MethodGet, "/api/v1/events/bookings/my", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "AUTH_HEADER_MISSING", resp.Error.Code)

	code, resp = s.request(http.MethodGet, "/api/v1/payments/history", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "INVALID_TOKEN", resp.Error.Code)

	_, token := s.register("Asha", "asha@example.com", domain.RoleClient)
	var mine struct {
		Bookings []json.RawMessage `json:"bookings"`
	}
	s.expect(http.MethodGet, "/api/v1/events/bookings/my", token, nil, http.StatusOK, &mine)
	assert.Empty(t, mine.Bookings)

	code, _ = s.request(http.MethodGet, "/api/v1/events/bookings/organizer", token, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

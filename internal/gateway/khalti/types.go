package khalti

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StatusCompleted is the only lookup status that means the customer paid.
const StatusCompleted = "Completed"

var (
	// ErrUnavailable covers transport failures: DNS, refused connections, timeouts, cancelled contexts.
	ErrUnavailable = errors.New("khalti: gateway unavailable")
	// ErrInvalidResponse is returned when a 2xx body cannot be decoded.
	ErrInvalidResponse = errors.New("khalti: invalid response")
)

// APIError is a non-2xx answer from Khalti.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("khalti: api error status=%d message=%s", e.StatusCode, e.Message)
}

type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type InitiateRequest struct {
	ReturnURL         string       `json:"return_url"`
	WebsiteURL        string       `json:"website_url"`
	Amount            int64        `json:"amount"`
	PurchaseOrderID   string       `json:"purchase_order_id"`
	PurchaseOrderName string       `json:"purchase_order_name"`
	CustomerInfo      CustomerInfo `json:"customer_info"`
}

type InitiateResponse struct {
	Pidx       string          `json:"pidx"`
	PaymentURL string          `json:"payment_url"`
	ExpiresAt  string          `json:"expires_at"`
	ExpiresIn  int             `json:"expires_in"`
	Raw        json.RawMessage `json:"-"`
}

type LookupResponse struct {
	Pidx          string          `json:"pidx"`
	TotalAmount   int64           `json:"total_amount"`
	Status        string          `json:"status"`
	TransactionID *string         `json:"transaction_id"`
	Fee           int64           `json:"fee"`
	Refunded      bool            `json:"refunded"`
	Message       string          `json:"message,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

func (r *LookupResponse) Completed() bool {
	return r.Status == StatusCompleted
}

type errorBody struct {
	Detail   string `json:"detail"`
	Message  string `json:"message"`
	ErrorKey string `json:"error_key"`
}

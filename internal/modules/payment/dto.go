package payment

import (
	"time"

	"ticketing/internal/domain"
)

type InitiatePaymentRequest struct {
	BookingID string `json:"booking_id" binding:"required" example:"2f1c7a4e-0f55-4a43-9a0e-6c1c1d0d7a11"`
}

type InitiateResult struct {
	PaymentURL    string             `json:"payment_url" example:"https://test-pay.khalti.com/?pidx=HT6o6PEZRWFJ5ygavzHWd5"`
	Pidx          string             `json:"pidx" example:"HT6o6PEZRWFJ5ygavzHWd5"`
	TransactionID string             `json:"transaction_id"`
	Kind          domain.BookingKind `json:"kind" example:"event_ticket"`
	ExpiresAt     string             `json:"expires_at,omitempty"`
}

type VerifyPaymentRequest struct {
	Pidx string `json:"pidx" binding:"required" example:"HT6o6PEZRWFJ5ygavzHWd5"`
}

type VerifyResult struct {
	Success         bool                       `json:"success"`
	AlreadyVerified bool                       `json:"already_verified"`
	Kind            domain.BookingKind         `json:"kind"`
	Transaction     *domain.PaymentTransaction `json:"transaction"`
	Booking         *domain.Booking            `json:"booking,omitempty"`
}

type UpdatePaymentStatusRequest struct {
	Status     domain.TransactionStatus `json:"status" binding:"required,oneof=pending completed failed" example:"completed"`
	Pidx       *string                  `json:"pidx,omitempty"`
	VerifiedAt *time.Time               `json:"verified_at,omitempty"`
}

type PaymentStatusResult struct {
	BookingID         string                     `json:"booking_id"`
	PaymentStatus     domain.PaymentStatus       `json:"payment_status"`
	Status            domain.BookingStatus       `json:"status"`
	Amount            float64                    `json:"amount"`
	LatestTransaction *domain.PaymentTransaction `json:"latest_transaction"`
}

type HistoryEntry struct {
	BookingID     string                      `json:"booking_id"`
	ServiceType   string                      `json:"service_type"`
	EventDate     *time.Time                  `json:"event_date,omitempty"`
	Amount        float64                     `json:"amount"`
	PaymentStatus domain.PaymentStatus        `json:"payment_status"`
	Transactions  []domain.PaymentTransaction `json:"transactions"`
}

type ErrorResponse struct {
	Success bool `json:"success" example:"false"`
	Error   struct {
		Code    string `json:"code" example:"BOOKING_NOT_FOUND"`
		Message string `json:"message" example:"booking not found or payment already processed"`
	} `json:"error"`
}

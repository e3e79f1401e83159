package mq

import "time"

const (
	KeyPaymentCompleted = "payment.completed"
	KeyPaymentFailed    = "payment.failed"
	KeyTicketCheckedIn  = "ticket.checked_in"
	KeyBookingRequested = "booking.requested"
	KeyBookingConfirmed = "booking.confirmed"
)

type PaymentEvent struct {
	BookingID     string    `json:"booking_id"`
	Kind          string    `json:"kind"`
	TransactionID string    `json:"transaction_id"`
	Pidx          string    `json:"pidx"`
	Amount        float64   `json:"amount"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type CheckInEvent struct {
	BookingID   string    `json:"booking_id"`
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	OrganizerID string    `json:"organizer_id"`
	Quantity    int       `json:"quantity"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

// BookingEvent tells providers and clients about service booking changes.
type BookingEvent struct {
	BookingID  string    `json:"booking_id"`
	ClientID   string    `json:"client_id"`
	ProviderID string    `json:"provider_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

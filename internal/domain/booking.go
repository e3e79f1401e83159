package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingKind tags which of the two payable booking variants a record belongs to.
type BookingKind string

const (
	BookingKindService     BookingKind = "service"
	BookingKindEventTicket BookingKind = "event_ticket"
)

func (k BookingKind) BookingTable() string {
	if k == BookingKindEventTicket {
		return "event_ticket_bookings"
	}
	return "service_bookings"
}

func (k BookingKind) TransactionTable() string {
	if k == BookingKindEventTicket {
		return "event_ticket_payment_transactions"
	}
	return "payment_transactions"
}

func (k BookingKind) Valid() bool {
	return k == BookingKindService || k == BookingKindEventTicket
}

type BookingStatus string

const (
	BookingPending                     BookingStatus = "pending"
	BookingPendingProviderConfirmation BookingStatus = "pending_provider_confirmation"
	BookingConfirmedAwaitingPayment    BookingStatus = "confirmed_awaiting_payment"
	BookingConfirmed                   BookingStatus = "confirmed"
	BookingConfirmedPaid               BookingStatus = "confirmed_paid"
	BookingAttended                    BookingStatus = "attended"
	BookingCancelled                   BookingStatus = "cancelled"
	BookingNoShow                      BookingStatus = "no_show"
	BookingRefunded                    BookingStatus = "refunded"
)

// IsConfirmedFamily reports whether a paid booking may carry this status.
func (s BookingStatus) IsConfirmedFamily() bool {
	switch s {
	case BookingConfirmed, BookingConfirmedPaid, BookingAttended:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

const PaymentMethodKhalti = "khalti"

// Booking is shared by both variants. Service bookings live in service_bookings,
// event tickets in event_ticket_bookings; Kind is set by the repository on load.
type Booking struct {
	ID            string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	Kind          BookingKind   `gorm:"-" json:"kind"`
	UserID        string        `gorm:"type:varchar(36);index;not null" json:"user_id" validate:"required"`
	Amount        float64       `gorm:"type:decimal(10,2);not null" json:"amount" validate:"gt=0"`
	Status        BookingStatus `gorm:"type:varchar(40);index;not null" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);index;not null;default:'pending'" json:"payment_status"`
	PaymentMethod *string       `gorm:"type:varchar(20)" json:"payment_method,omitempty"`
	PaymentDate   *time.Time    `json:"payment_date,omitempty"`
	QRCode        *string       `gorm:"type:varchar(64);uniqueIndex" json:"qr_code,omitempty"`

	// event tickets
	EventID    *string `gorm:"type:varchar(36);index" json:"event_id,omitempty"`
	TicketType string  `gorm:"type:varchar(40)" json:"ticket_type,omitempty"`
	Quantity   int     `json:"quantity,omitempty"`

	// service bookings
	ProviderID  *string    `gorm:"type:varchar(36);index" json:"provider_id,omitempty"`
	ServiceType string     `gorm:"type:varchar(60)" json:"service_type,omitempty"`
	EventDate   *time.Time `json:"event_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (b *Booking) IsPaid() bool {
	return b.PaymentStatus == PaymentPaid
}

func (b *Booking) HasTicketCode() bool {
	return b.QRCode != nil && *b.QRCode != ""
}

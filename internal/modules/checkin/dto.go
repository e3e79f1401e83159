package checkin

import (
	"time"

	"ticketing/internal/domain"
)

type Outcome string

const (
	OutcomeCheckedIn        Outcome = "checked_in"
	OutcomeAlreadyCheckedIn Outcome = "already_checked_in"
)

type Result struct {
	Booking          *domain.Booking `json:"booking"`
	Outcome          Outcome         `json:"outcome"`
	AlreadyCheckedIn bool            `json:"already_checked_in"`
}

const FeedCheckedIn = "checked_in"

// FeedEvent is pushed to organizers watching an event's check-in feed.
type FeedEvent struct {
	Type    string      `json:"type"`
	EventID string      `json:"event_id"`
	Payload interface{} `json:"payload,omitempty"`
}

type CheckedInPayload struct {
	BookingID   string    `json:"booking_id"`
	UserID      string    `json:"user_id"`
	TicketType  string    `json:"ticket_type"`
	Quantity    int       `json:"quantity"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

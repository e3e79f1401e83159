package ticket

import (
	"time"

	"ticketing/internal/domain"
)

type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Venue       string    `json:"venue"`
	EventDate   time.Time `json:"event_date" binding:"required"`
	TicketPrice float64   `json:"ticket_price" binding:"required"`
	Capacity    int       `json:"capacity"`
	// Status and Visibility default to published and public.
	Status     domain.EventStatus     `json:"status"`
	Visibility domain.EventVisibility `json:"visibility"`
}

type BookTicketsRequest struct {
	TicketType string `json:"ticket_type"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
}

type QRCodeResponse struct {
	BookingID string `json:"booking_id"`
	QRCode    string `json:"qr_code"`
}

type Attendee struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// EventBookingDetail is a booking as its event's organizer sees it.
type EventBookingDetail struct {
	domain.Booking
	Attendee *Attendee `json:"attendee,omitempty"`
}

type EventAnalytics struct {
	EventID       string                         `json:"event_id"`
	Capacity      int                            `json:"capacity"`
	TicketsBooked int64                          `json:"tickets_booked"`
	TotalBookings int64                          `json:"total_bookings"`
	ByStatus      map[domain.BookingStatus]int64 `json:"by_status"`
}

const defaultTicketType = "general"

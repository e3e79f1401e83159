package checkin

import (
	"context"

	"ticketing/internal/domain"
)

type bookingStore interface {
	GetByID(ctx context.Context, kind domain.BookingKind, id string) (*domain.Booking, error)
	GetByQRCode(ctx context.Context, kind domain.BookingKind, code string) (*domain.Booking, error)
	TransitionStatus(ctx context.Context, kind domain.BookingKind, id string, from []domain.BookingStatus, to domain.BookingStatus) (bool, error)
}

type eventReader interface {
	GetByID(ctx context.Context, id string) (*domain.Event, error)
}

type broadcaster interface {
	Broadcast(eventID string, ev *FeedEvent) int
}

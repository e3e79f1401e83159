package ticket

import (
	"context"

	"ticketing/internal/domain"
	"ticketing/internal/repository"
)

type bookingStore interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, kind domain.BookingKind, id string) (*domain.Booking, error)
	ListByUser(ctx context.Context, kind domain.BookingKind, userID string) ([]domain.Booking, error)
	ListByEvents(ctx context.Context, eventIDs []string) ([]domain.Booking, error)
	CountByStatus(ctx context.Context, eventID string) ([]repository.StatusCount, error)
	ReservedTickets(ctx context.Context, eventID string) (int64, error)
	CancelUnpaid(ctx context.Context, kind domain.BookingKind, id string, from []domain.BookingStatus) (bool, error)
}

type eventStore interface {
	Create(ctx context.Context, e *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]domain.Event, error)
	ListAvailable(ctx context.Context) ([]domain.Event, error)
}

type userStore interface {
	ListByIDs(ctx context.Context, ids []string) ([]domain.User, error)
}

type txRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

package booking

import (
	"context"

	"ticketing/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, kind domain.BookingKind, id string) (*domain.Booking, error)
	ListByUser(ctx context.Context, kind domain.BookingKind, userID string) ([]domain.Booking, error)
	ListByProvider(ctx context.Context, providerID string) ([]domain.Booking, error)
	TransitionStatus(ctx context.Context, kind domain.BookingKind, id string, from []domain.BookingStatus, to domain.BookingStatus) (bool, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

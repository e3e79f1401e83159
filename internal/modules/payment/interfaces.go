package payment

import (
	"context"

	"ticketing/internal/domain"
	"ticketing/internal/gateway/khalti"
	"ticketing/internal/repository"
)

type bookingStore interface {
	GetByID(ctx context.Context, kind domain.BookingKind, id string) (*domain.Booking, error)
	ListByUser(ctx context.Context, kind domain.BookingKind, userID string) ([]domain.Booking, error)
	ListByProvider(ctx context.Context, providerID string) ([]domain.Booking, error)
	ApplyPayment(ctx context.Context, b *domain.Booking) error
}

type transactionStore interface {
	Create(ctx context.Context, t *domain.PaymentTransaction) error
	GetByHandleForUpdate(ctx context.Context, kind domain.BookingKind, handle string) (*domain.PaymentTransaction, error)
	LatestForBooking(ctx context.Context, kind domain.BookingKind, bookingID string) (*domain.PaymentTransaction, error)
	ListForBookings(ctx context.Context, kind domain.BookingKind, bookingIDs []string) ([]domain.PaymentTransaction, error)
	AttachGateway(ctx context.Context, kind domain.BookingKind, id, handle, paymentURL string, raw []byte) error
	UpdateStatus(ctx context.Context, kind domain.BookingKind, id string, u repository.TransactionUpdate) error
}

type userReader interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Gateway is the payment provider the engine talks to.
type Gateway interface {
	Initiate(ctx context.Context, req khalti.InitiateRequest) (*khalti.InitiateResponse, error)
	Lookup(ctx context.Context, pidx string) (*khalti.LookupResponse, error)
}

type txRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

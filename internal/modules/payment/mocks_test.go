package payment

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ticketing/internal/domain"
	"ticketing/internal/gateway/khalti"
	"ticketing/internal/repository"
)

type mockBookings struct{ mock.Mock }

func (m *mockBookings) GetByID(ctx context.Context, kind domain.BookingKind, id string) (*domain.Booking, error) {
	args := m.Called(ctx, kind, id)
	if b, ok := args.Get(0).(*domain.Booking); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookings) ListByUser(ctx context.Context, kind domain.BookingKind, userID string) ([]domain.Booking, error) {
	args := m.Called(ctx, kind, userID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *mockBookings) ListByProvider(ctx context.Context, providerID string) ([]domain.Booking, error) {
	args := m.Called(ctx, providerID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *mockBookings) ApplyPayment(ctx context.Context, b *domain.Booking) error {
	return m.Called(ctx, b).Error(0)
}

type mockTransactions struct{ mock.Mock }

func (m *mockTransactions) Create(ctx context.Context, t *domain.PaymentTransaction) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTransactions) GetByHandleForUpdate(ctx context.Context, kind domain.BookingKind, handle string) (*domain.PaymentTransaction, error) {
	args := m.Called(ctx, kind, handle)
	if t, ok := args.Get(0).(*domain.PaymentTransaction); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransactions) LatestForBooking(ctx context.Context, kind domain.BookingKind, bookingID string) (*domain.PaymentTransaction, error) {
	args := m.Called(ctx, kind, bookingID)
	if t, ok := args.Get(0).(*domain.PaymentTransaction); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTransactions) ListForBookings(ctx context.Context, kind domain.BookingKind, bookingIDs []string) ([]domain.PaymentTransaction, error) {
	args := m.Called(ctx, kind, bookingIDs)
	return args.Get(0).([]domain.PaymentTransaction), args.Error(1)
}

func (m *mockTransactions) AttachGateway(ctx context.Context, kind domain.BookingKind, id, handle, paymentURL string, raw []byte) error {
	return m.Called(ctx, kind, id, handle, paymentURL, raw).Error(0)
}

func (m *mockTransactions) UpdateStatus(ctx context.Context, kind domain.BookingKind, id string, u repository.TransactionUpdate) error {
	return m.Called(ctx, kind, id, u).Error(0)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*domain.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockGateway struct{ mock.Mock }

func (m *mockGateway) Initiate(ctx context.Context, req khalti.InitiateRequest) (*khalti.InitiateResponse, error) {
	args := m.Called(ctx, req)
	if r, ok := args.Get(0).(*khalti.InitiateResponse); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) Lookup(ctx context.Context, pidx string) (*khalti.LookupResponse, error) {
	args := m.Called(ctx, pidx)
	if r, ok := args.Get(0).(*khalti.LookupResponse); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	return m.Called(ctx, key, v).Error(0)
}

func (m *mockPublisher) Close() error { return nil }

// inlineTx runs fn without a database transaction.
type inlineTx struct{}

func (inlineTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

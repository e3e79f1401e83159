package checkin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ticketing/internal/domain"
	"ticketing/internal/pkg/mq"
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

func (m *mockBookings) GetByQRCode(ctx context.Context, kind domain.BookingKind, code string) (*domain.Booking, error) {
	args := m.Called(ctx, kind, code)
	if b, ok := args.Get(0).(*domain.Booking); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBookings) TransitionStatus(ctx context.Context, kind domain.BookingKind, id string, from []domain.BookingStatus, to domain.BookingStatus) (bool, error) {
	args := m.Called(ctx, kind, id, from, to)
	return args.Bool(0), args.Error(1)
}

type mockEvents struct{ mock.Mock }

func (m *mockEvents) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if e, ok := args.Get(0).(*domain.Event); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockBroadcaster struct{ mock.Mock }

func (m *mockBroadcaster) Broadcast(eventID string, ev *FeedEvent) int {
	return m.Called(eventID, ev).Int(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	return m.Called(ctx, key, v).Error(0)
}

func (m *mockPublisher) Close() error { return nil }

type fixture struct {
	bookings *mockBookings
	events   *mockEvents
	hub      *mockBroadcaster
	pub      *mockPublisher
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		bookings: &mockBookings{},
		events:   &mockEvents{},
		hub:      &mockBroadcaster{},
		pub:      &mockPublisher{},
	}
	f.svc = NewService(f.bookings, f.events, f.hub, f.pub, nil)
	f.events.On("GetByID", mock.Anything, "E").Return(&domain.Event{ID: "E", OrganizerID: "O"}, nil)
	return f
}

func ticket(status domain.BookingStatus, ps domain.PaymentStatus) *domain.Booking {
	eventID := "E"
	code := "QR-B2"
	return &domain.Booking{
		ID:            "B2",
		Kind:          domain.BookingKindEventTicket,
		UserID:        "U",
		EventID:       &eventID,
		Status:        status,
		PaymentStatus: ps,
		QRCode:        &code,
		TicketType:    "vip",
		Quantity:      2,
	}
}

func (f *fixture) byID(b *domain.Booking) {
	f.bookings.On("GetByID", mock.Anything, domain.BookingKindEventTicket, b.ID).Return(b, nil)
}

func TestCheckIn_ByQRCodeThenRepeat(t *testing.T) {
	f := newFixture()
	b := ticket(domain.BookingConfirmed, domain.PaymentPaid)
	f.bookings.On("GetByID", mock.Anything, domain.BookingKindEventTicket, "QR-B2").Return(nil, repository.ErrNotFound)
	f.bookings.On("GetByQRCode", mock.Anything, domain.BookingKindEventTicket, "QR-B2").Return(b, nil)
	f.bookings.On("TransitionStatus", mock.Anything, domain.BookingKindEventTicket, "B2", checkInFrom, domain.BookingAttended).Return(true, nil).Once()
	f.hub.On("Broadcast", "E", mock.MatchedBy(func(ev *FeedEvent) bool {
		p, ok := ev.Payload.(CheckedInPayload)
		return ev.Type == FeedCheckedIn && ok && p.BookingID == "B2" && p.Quantity == 2
	})).Return(1)
	f.pub.On("PublishJSON", mock.Anything, mq.KeyTicketCheckedIn, mock.AnythingOfType("mq.CheckInEvent")).Return(nil)

	first, err := f.svc.CheckIn(context.Background(), "QR-B2", "O")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCheckedIn, first.Outcome)
	assert.Equal(t, domain.BookingAttended, first.Booking.Status)

	second, err := f.svc.CheckIn(context.Background(), "QR-B2", "O")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyCheckedIn, second.Outcome)
	assert.True(t, second.AlreadyCheckedIn)
	assert.Equal(t, domain.BookingAttended, second.Booking.Status)

	f.bookings.AssertNumberOfCalls(t, "TransitionStatus", 1)
	f.hub.AssertNumberOfCalls(t, "Broadcast", 1)
	f.pub.AssertNumberOfCalls(t, "PublishJSON", 1)
}

func TestCheckIn_OtherOrganizer(t *testing.T) {
	f := newFixture()
	f.byID(ticket(domain.BookingConfirmed, domain.PaymentPaid))

	_, err := f.svc.CheckIn(context.Background(), "B2", "someone-else")
	assert.ErrorIs(t, err, ErrNotFoundOrUnauthorized)
	f.bookings.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckIn_UnknownToken(t *testing.T) {
	f := newFixture()
	f.bookings.On("GetByID", mock.Anything, domain.BookingKindEventTicket, "junk").Return(nil, repository.ErrNotFound)
	f.bookings.On("GetByQRCode", mock.Anything, domain.BookingKindEventTicket, "junk").Return(nil, repository.ErrNotFound)

	_, err := f.svc.CheckIn(context.Background(), "junk", "O")
	assert.ErrorIs(t, err, ErrNotFoundOrUnauthorized)
}

func TestCheckIn_MissingEventLooksLikeUnauthorized(t *testing.T) {
	f := newFixture()
	b := ticket(domain.BookingConfirmed, domain.PaymentPaid)
	gone := "GONE"
	b.EventID = &gone
	f.byID(b)
	f.events.On("GetByID", mock.Anything, "GONE").Return(nil, repository.ErrNotFound)

	_, err := f.svc.CheckIn(context.Background(), "B2", "O")
	assert.ErrorIs(t, err, ErrNotFoundOrUnauthorized)
}

func TestCheckIn_UnpaidAlwaysPaymentIncomplete(t *testing.T) {
	statuses := []domain.BookingStatus{
		domain.BookingPending, domain.BookingConfirmed, domain.BookingAttended,
		domain.BookingCancelled, domain.BookingRefunded, domain.BookingNoShow,
	}
	for _, ps := range []domain.PaymentStatus{domain.PaymentPending, domain.PaymentFailed} {
		for _, status := range statuses {
			t.Run(string(ps)+"/"+string(status), func(t *testing.T) {
				f := newFixture()
				f.byID(ticket(status, ps))

				_, err := f.svc.CheckIn(context.Background(), "B2", "O")
				assert.ErrorIs(t, err, ErrPaymentIncomplete)
			})
		}
	}
}

func TestCheckIn_StatusChecks(t *testing.T) {
	cases := []struct {
		status domain.BookingStatus
		want   error
	}{
		{domain.BookingCancelled, ErrTicketVoided},
		{domain.BookingRefunded, ErrTicketVoided},
		{domain.BookingNoShow, ErrInvalidStatus},
		{domain.BookingConfirmedPaid, ErrInvalidStatus},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			f := newFixture()
			f.byID(ticket(tc.status, domain.PaymentPaid))

			_, err := f.svc.CheckIn(context.Background(), "B2", "O")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCheckIn_LostRace(t *testing.T) {
	t.Run("winner already checked in", func(t *testing.T) {
		f := newFixture()
		f.bookings.On("GetByID", mock.Anything, domain.BookingKindEventTicket, "B2").
			Return(ticket(domain.BookingConfirmed, domain.PaymentPaid), nil).Once()
		f.bookings.On("GetByID", mock.Anything, domain.BookingKindEventTicket, "B2").
			Return(ticket(domain.BookingAttended, domain.PaymentPaid), nil).Once()
		f.bookings.On("TransitionStatus", mock.Anything, mock.Anything, "B2", mock.Anything, mock.Anything).Return(false, nil)

		res, err := f.svc.CheckIn(context.Background(), "B2", "O")
		require.NoError(t, err)
		assert.Equal(t, OutcomeAlreadyCheckedIn, res.Outcome)
		f.hub.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything)
	})

	t.Run("ticket cancelled meanwhile", func(t *testing.T) {
		f := newFixture()
		f.bookings.On("GetByID", mock.Anything, domain.BookingKindEventTicket, "B2").
			Return(ticket(domain.BookingConfirmed, domain.PaymentPaid), nil).Once()
		f.bookings.On("GetByID", mock.Anything, domain.BookingKindEventTicket, "B2").
			Return(ticket(domain.BookingCancelled, domain.PaymentPaid), nil).Once()
		f.bookings.On("TransitionStatus", mock.Anything, mock.Anything, "B2", mock.Anything, mock.Anything).Return(false, nil)

		_, err := f.svc.CheckIn(context.Background(), "B2", "O")
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

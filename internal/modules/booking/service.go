package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"ticketing/internal/domain"
	"ticketing/internal/pkg/logging"
	"ticketing/internal/pkg/mq"
	"ticketing/internal/repository"
)

const kind = domain.BookingKindService

type Service struct {
	bookings BookingRepository
	users    UserRepository
	events   mq.Publisher
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewService(bookings BookingRepository, users UserRepository, events mq.Publisher, log logrus.FieldLogger) *Service {
	if events == nil {
		events = mq.NopPublisher{}
	}
	return &Service{
		bookings: bookings,
		users:    users,
		events:   events,
		log:      logging.OrDiscard(log),
		now:      time.Now,
	}
}

// CreateBooking requests a service from a provider. The booking waits for the
// provider before it can be paid.
func (s *Service) CreateBooking(ctx context.Context, clientID string, req CreateBookingRequest) (*domain.Booking, error) {
	serviceType := strings.TrimSpace(req.ServiceType)
	switch {
	case serviceType == "":
		return nil, ErrValidation.WithMessage("service_type is required")
	case req.Amount <= 0:
		return nil, ErrValidation.WithMessage("amount must be positive")
	case req.EventDate.Before(s.now()):
		return nil, ErrValidation.WithMessage("event_date must be in the future")
	case req.ProviderID == clientID:
		return nil, ErrValidation.WithMessage("cannot book your own service")
	}

	provider, err := s.users.GetByID(ctx, req.ProviderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get provider: %w", err)
	}
	if provider.Role != domain.RoleProvider {
		return nil, ErrProviderNotFound
	}

	providerID := provider.ID
	eventDate := req.EventDate.UTC()
	b := &domain.Booking{
		Kind:          kind,
		UserID:        clientID,
		ProviderID:    &providerID,
		ServiceType:   serviceType,
		EventDate:     &eventDate,
		Amount:        math.Round(req.Amount*100) / 100,
		Status:        domain.BookingPendingProviderConfirmation,
		PaymentStatus: domain.PaymentPending,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create service booking: %w", err)
	}

	s.notify(ctx, mq.KeyBookingRequested, b)
	return b, nil
}

// ConfirmByProvider accepts a requested booking, which makes it payable.
func (s *Service) ConfirmByProvider(ctx context.Context, bookingID, providerID string) (*domain.Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ProviderID == nil || *b.ProviderID != providerID {
		return nil, ErrBookingNotFound
	}
	if b.Status != domain.BookingPendingProviderConfirmation {
		return nil, ErrInvalidStatus
	}

	changed, err := s.bookings.TransitionStatus(ctx, kind, b.ID,
		[]domain.BookingStatus{domain.BookingPendingProviderConfirmation},
		domain.BookingConfirmedAwaitingPayment)
	if err != nil {
		return nil, fmt.Errorf("confirm service booking: %w", err)
	}
	if !changed {
		return nil, ErrInvalidStatus
	}
	b.Status = domain.BookingConfirmedAwaitingPayment

	s.notify(ctx, mq.KeyBookingConfirmed, b)
	return b, nil
}

// GetBooking is visible to the booking's client and its provider.
func (s *Service) GetBooking(ctx context.Context, bookingID, userID string) (*domain.Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID && (b.ProviderID == nil || *b.ProviderID != userID) {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

// ListMyBookings lists what a provider was booked for, or what anyone else booked.
func (s *Service) ListMyBookings(ctx context.Context, userID string, role domain.UserRole) ([]domain.Booking, error) {
	var (
		out []domain.Booking
		err error
	)
	if role == domain.RoleProvider {
		out, err = s.bookings.ListByProvider(ctx, userID)
	} else {
		out, err = s.bookings.ListByUser(ctx, kind, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list service bookings: %w", err)
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, bookingID string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, kind, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get service booking: %w", err)
	}
	return b, nil
}

func (s *Service) notify(ctx context.Context, key string, b *domain.Booking) {
	ev := mq.BookingEvent{
		BookingID:  b.ID,
		ClientID:   b.UserID,
		Status:     string(b.Status),
		OccurredAt: s.now().UTC(),
	}
	if b.ProviderID != nil {
		ev.ProviderID = *b.ProviderID
	}
	if err := s.events.PublishJSON(ctx, key, ev); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"booking_id": b.ID, "key": key}).Warn("publish booking event failed")
	}
}

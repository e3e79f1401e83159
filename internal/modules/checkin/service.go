// Package checkin records event attendance against paid tickets.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ticketing/internal/domain"
	"ticketing/internal/pkg/logging"
	"ticketing/internal/pkg/mq"
	"ticketing/internal/repository"
)

var checkInFrom = []domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed}

type Service struct {
	bookings bookingStore
	events   eventReader
	hub      broadcaster
	pub      mq.Publisher
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewService(bookings bookingStore, events eventReader, hub broadcaster, pub mq.Publisher, log logrus.FieldLogger) *Service {
	if pub == nil {
		pub = mq.NopPublisher{}
	}
	return &Service{
		bookings: bookings,
		events:   events,
		hub:      hub,
		pub:      pub,
		log:      logging.OrDiscard(log),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CheckIn marks the ticket behind scannedToken (a booking id or a QR code) as attended.
// A ticket that is already attended yields OutcomeAlreadyCheckedIn without error.
func (s *Service) CheckIn(ctx context.Context, scannedToken, organizerID string) (*Result, error) {
	b, err := s.resolve(ctx, scannedToken)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, b, organizerID); err != nil {
		return nil, err
	}

	if !b.IsPaid() {
		return nil, ErrPaymentIncomplete
	}
	if b.Status == domain.BookingAttended {
		return alreadyCheckedIn(b), nil
	}
	switch b.Status {
	case domain.BookingCancelled, domain.BookingRefunded:
		return nil, ErrTicketVoided
	case domain.BookingPending, domain.BookingConfirmed:
	default:
		return nil, ErrInvalidStatus
	}

	changed, err := s.bookings.TransitionStatus(ctx, domain.BookingKindEventTicket, b.ID, checkInFrom, domain.BookingAttended)
	if err != nil {
		return nil, fmt.Errorf("mark attended: %w", err)
	}
	if !changed {
		// Someone else moved the ticket between our read and the update.
		cur, err := s.bookings.GetByID(ctx, domain.BookingKindEventTicket, b.ID)
		if err != nil {
			return nil, fmt.Errorf("reload booking: %w", err)
		}
		if cur.Status == domain.BookingAttended {
			return alreadyCheckedIn(cur), nil
		}
		return nil, ErrInvalidStatus
	}

	now := s.now()
	b.Status = domain.BookingAttended
	b.UpdatedAt = now
	s.announce(ctx, b, organizerID, now)

	return &Result{Booking: b, Outcome: OutcomeCheckedIn}, nil
}

func (s *Service) resolve(ctx context.Context, token string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, domain.BookingKindEventTicket, token)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load booking: %w", err)
	}

	b, err = s.bookings.GetByQRCode(ctx, domain.BookingKindEventTicket, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFoundOrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("load booking by qr code: %w", err)
	}
	return b, nil
}

func (s *Service) authorize(ctx context.Context, b *domain.Booking, organizerID string) error {
	if b.EventID == nil {
		return ErrNotFoundOrUnauthorized
	}
	ev, err := s.events.GetByID(ctx, *b.EventID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFoundOrUnauthorized
	}
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	if ev.OrganizerID != organizerID {
		s.log.WithFields(logrus.Fields{
			"booking_id":   b.ID,
			"event_id":     ev.ID,
			"organizer_id": organizerID,
		}).Warn("check-in rejected: organizer mismatch")
		return ErrNotFoundOrUnauthorized
	}
	return nil
}

func (s *Service) announce(ctx context.Context, b *domain.Booking, organizerID string, at time.Time) {
	eventID := *b.EventID
	fields := logrus.Fields{"booking_id": b.ID, "event_id": eventID}
	s.log.WithFields(fields).Info("attendee checked in")

	if s.hub != nil {
		s.hub.Broadcast(eventID, &FeedEvent{
			Type:    FeedCheckedIn,
			EventID: eventID,
			Payload: CheckedInPayload{
				BookingID:   b.ID,
				UserID:      b.UserID,
				TicketType:  b.TicketType,
				Quantity:    b.Quantity,
				CheckedInAt: at,
			},
		})
	}

	err := s.pub.PublishJSON(ctx, mq.KeyTicketCheckedIn, mq.CheckInEvent{
		BookingID:   b.ID,
		EventID:     eventID,
		UserID:      b.UserID,
		OrganizerID: organizerID,
		Quantity:    b.Quantity,
		CheckedInAt: at,
	})
	if err != nil {
		s.log.WithError(err).WithFields(fields).Error("failed to publish check-in event")
	}
}

func alreadyCheckedIn(b *domain.Booking) *Result {
	return &Result{Booking: b, Outcome: OutcomeAlreadyCheckedIn, AlreadyCheckedIn: true}
}

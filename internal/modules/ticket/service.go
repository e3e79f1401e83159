package ticket

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"ticketing/internal/domain"
	"ticketing/internal/pkg/logging"
	"ticketing/internal/pkg/validator"
	"ticketing/internal/repository"
)

const kind = domain.BookingKindEventTicket

// cancellableFrom are the statuses an unpaid ticket can be cancelled from.
var cancellableFrom = []domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed, domain.BookingNoShow}

type Service struct {
	bookings bookingStore
	events   eventStore
	users    userStore
	tx       txRunner
	log      logrus.FieldLogger
}

func NewService(bookings bookingStore, events eventStore, users userStore, tx txRunner, log logrus.FieldLogger) *Service {
	return &Service{
		bookings: bookings,
		events:   events,
		users:    users,
		tx:       tx,
		log:      logging.OrDiscard(log),
	}
}

func (s *Service) CreateEvent(ctx context.Context, organizerID string, req CreateEventRequest) (*domain.Event, error) {
	ev := &domain.Event{
		OrganizerID: organizerID,
		Title:       strings.TrimSpace(req.Title),
		Venue:       strings.TrimSpace(req.Venue),
		EventDate:   req.EventDate.UTC(),
		TicketPrice: req.TicketPrice,
		Capacity:    req.Capacity,
		Status:      req.Status,
		Visibility:  req.Visibility,
	}
	if ev.Status == "" {
		ev.Status = domain.EventPublished
	}
	if ev.Visibility == "" {
		ev.Visibility = domain.EventPublic
	}
	if fields := validator.Validate(ev); fields != nil {
		return nil, ErrValidation.WithMessage(describeFields(fields))
	}
	if err := s.events.Create(ctx, ev); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.log.WithFields(logrus.Fields{"event_id": ev.ID, "organizer_id": organizerID}).Info("event created")
	return ev, nil
}

// ListEvents returns the events attendees can book.
func (s *Service) ListEvents(ctx context.Context) ([]domain.Event, error) {
	out, err := s.events.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list available events: %w", err)
	}
	return out, nil
}

// GetEvent hides unlisted events from everyone but their organizer.
func (s *Service) GetEvent(ctx context.Context, eventID, userID string) (*domain.Event, error) {
	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !ev.Listed() && ev.OrganizerID != userID {
		return nil, ErrEventNotFound
	}
	return ev, nil
}

// BookTickets reserves quantity tickets as a pending, unpaid booking priced at
// ticket price × quantity. Capacity 0 means unlimited.
func (s *Service) BookTickets(ctx context.Context, userID, eventID, ticketType string, quantity int) (*domain.Booking, error) {
	if quantity < 1 {
		return nil, ErrValidation.WithMessage("quantity must be at least 1")
	}
	if ticketType == "" {
		ticketType = defaultTicketType
	}

	var booking *domain.Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ev, err := s.loadEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if ev.Capacity > 0 {
			reserved, err := s.bookings.ReservedTickets(ctx, ev.ID)
			if err != nil {
				return fmt.Errorf("count reserved tickets: %w", err)
			}
			if reserved+int64(quantity) > int64(ev.Capacity) {
				return ErrSoldOut
			}
		}

		id := ev.ID
		booking = &domain.Booking{
			Kind:          kind,
			UserID:        userID,
			EventID:       &id,
			TicketType:    ticketType,
			Quantity:      quantity,
			Amount:        ev.TicketPrice * float64(quantity),
			Status:        domain.BookingPending,
			PaymentStatus: domain.PaymentPending,
		}
		if err := s.bookings.Create(ctx, booking); err != nil {
			return fmt.Errorf("create ticket booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"event_id":   eventID,
		"quantity":   quantity,
	}).Info("tickets booked")
	return booking, nil
}

// GetBooking returns the booking only to its owner.
func (s *Service) GetBooking(ctx context.Context, bookingID, userID string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, kind, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket booking: %w", err)
	}
	if b.UserID != userID {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func (s *Service) ListMyBookings(ctx context.Context, userID string) ([]domain.Booking, error) {
	out, err := s.bookings.ListByUser(ctx, kind, userID)
	if err != nil {
		return nil, fmt.Errorf("list ticket bookings: %w", err)
	}
	return out, nil
}

func (s *Service) GetQRCode(ctx context.Context, bookingID, userID string) (*QRCodeResponse, error) {
	b, err := s.GetBooking(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if !b.IsPaid() || !b.HasTicketCode() {
		return nil, ErrTicketNotIssued
	}
	return &QRCodeResponse{BookingID: b.ID, QRCode: *b.QRCode}, nil
}

// CancelBooking voids an unpaid ticket. Paid tickets stay confirmed; refunds are handled elsewhere.
func (s *Service) CancelBooking(ctx context.Context, bookingID, userID string) (*domain.Booking, error) {
	b, err := s.GetBooking(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if err := checkCancellable(b); err != nil {
		return nil, err
	}

	changed, err := s.bookings.CancelUnpaid(ctx, kind, b.ID, cancellableFrom)
	if err != nil {
		return nil, fmt.Errorf("cancel ticket booking: %w", err)
	}
	if !changed {
		// paid or cancelled since the read above
		cur, err := s.GetBooking(ctx, bookingID, userID)
		if err != nil {
			return nil, err
		}
		if err := checkCancellable(cur); err != nil {
			return nil, err
		}
		return nil, ErrNotCancellable
	}

	b.Status = domain.BookingCancelled
	s.log.WithField("booking_id", b.ID).Info("ticket booking cancelled")
	return b, nil
}

func checkCancellable(b *domain.Booking) error {
	switch {
	case b.Status == domain.BookingCancelled || b.Status == domain.BookingRefunded:
		return ErrAlreadyCancelled
	case b.IsPaid():
		return ErrPaidTicketNotCancellable
	}
	for _, st := range cancellableFrom {
		if b.Status == st {
			return nil
		}
	}
	return ErrNotCancellable
}

// ListEventBookings returns the event's bookings with each attendee's name and email.
func (s *Service) ListEventBookings(ctx context.Context, eventID, organizerID string) ([]EventBookingDetail, error) {
	if _, err := s.ownedEvent(ctx, eventID, organizerID); err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListByEvents(ctx, []string{eventID})
	if err != nil {
		return nil, fmt.Errorf("list event bookings: %w", err)
	}

	ids := make([]string, 0, len(bookings))
	seen := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		if !seen[b.UserID] {
			seen[b.UserID] = true
			ids = append(ids, b.UserID)
		}
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load attendees: %w", err)
	}
	attendees := make(map[string]*Attendee, len(users))
	for _, u := range users {
		attendees[u.ID] = &Attendee{ID: u.ID, Name: u.Name, Email: u.Email}
	}

	out := make([]EventBookingDetail, len(bookings))
	for i, b := range bookings {
		out[i] = EventBookingDetail{Booking: b, Attendee: attendees[b.UserID]}
	}
	return out, nil
}

func (s *Service) ListOrganizerBookings(ctx context.Context, organizerID string) ([]domain.Booking, error) {
	events, err := s.events.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list organizer events: %w", err)
	}
	if len(events) == 0 {
		return []domain.Booking{}, nil
	}
	ids := make([]string, len(events))
	for i := range events {
		ids[i] = events[i].ID
	}
	out, err := s.bookings.ListByEvents(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list organizer bookings: %w", err)
	}
	return out, nil
}

func (s *Service) EventAnalytics(ctx context.Context, eventID, organizerID string) (*EventAnalytics, error) {
	ev, err := s.ownedEvent(ctx, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	counts, err := s.bookings.CountByStatus(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("count bookings by status: %w", err)
	}
	reserved, err := s.bookings.ReservedTickets(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("count reserved tickets: %w", err)
	}

	out := &EventAnalytics{
		EventID:       ev.ID,
		Capacity:      ev.Capacity,
		TicketsBooked: reserved,
		ByStatus:      make(map[domain.BookingStatus]int64, len(counts)),
	}
	for _, c := range counts {
		out.ByStatus[c.Status] = c.Total
		out.TotalBookings += c.Total
	}
	return out, nil
}

func (s *Service) loadEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

// ownedEvent hides events of other organizers behind not found.
func (s *Service) ownedEvent(ctx context.Context, eventID, organizerID string) (*domain.Event, error) {
	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.OrganizerID != organizerID {
		return nil, ErrEventNotFound
	}
	return ev, nil
}

func describeFields(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for f, tag := range fields {
		parts = append(parts, strings.ToLower(f)+": "+tag)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

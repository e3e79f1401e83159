package main

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"ticketing/internal/config"
	"ticketing/internal/database"
	"ticketing/internal/domain"
	jwtsvc "ticketing/internal/pkg/jwt"
	"ticketing/internal/pkg/logging"
	"ticketing/internal/repository"
)

type seeder struct {
	users    *repository.UserRepository
	events   *repository.EventRepository
	bookings *repository.BookingRepository
	jwt      *jwtsvc.Service
	log      logrus.FieldLogger
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := logging.New(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("db migrate")
	}

	s := &seeder{
		users:    repository.NewUserRepository(db),
		events:   repository.NewEventRepository(db),
		bookings: repository.NewBookingRepository(db),
		jwt:      jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL),
		log:      log,
	}
	if err := s.run(context.Background()); err != nil {
		log.WithError(err).Fatal("seed")
	}
	log.Info("seed completed")
}

func (s *seeder) run(ctx context.Context) error {
	admin, err := s.user(ctx, "Admin", "admin@ticketing.local", domain.RoleAdmin)
	if err != nil {
		return err
	}
	organizer, err := s.user(ctx, "Sita Events", "organizer@ticketing.local", domain.RoleOrganizer)
	if err != nil {
		return err
	}
	provider, err := s.user(ctx, "Himal Photography", "provider@ticketing.local", domain.RoleProvider)
	if err != nil {
		return err
	}
	client, err := s.user(ctx, "Asha Client", "client@ticketing.local", domain.RoleClient)
	if err != nil {
		return err
	}
	s.log.WithField("admin_id", admin.ID).Debug("admin ready")

	ev := &domain.Event{
		OrganizerID: organizer.ID,
		Title:       "Kathmandu Jazz Night",
		Venue:       "Patan Durbar Square",
		EventDate:   time.Now().UTC().AddDate(0, 1, 0).Truncate(time.Hour),
		TicketPrice: 1500,
		Capacity:    200,
	}
	if err := s.events.Create(ctx, ev); err != nil {
		return err
	}

	eventID := ev.ID
	now := time.Now().UTC()
	method := domain.PaymentMethodKhalti
	code := uuid.NewString()
	tickets := []*domain.Booking{
		{
			Kind: domain.BookingKindEventTicket, UserID: client.ID, EventID: &eventID,
			TicketType: "general", Quantity: 2, Amount: 2 * ev.TicketPrice,
			Status: domain.BookingPending, PaymentStatus: domain.PaymentPending,
		},
		{
			Kind: domain.BookingKindEventTicket, UserID: client.ID, EventID: &eventID,
			TicketType: "vip", Quantity: 1, Amount: ev.TicketPrice,
			Status: domain.BookingConfirmed, PaymentStatus: domain.PaymentPaid,
			PaymentDate: &now, PaymentMethod: &method, QRCode: &code,
		},
	}

	providerID := provider.ID
	eventDate := now.AddDate(0, 0, 14)
	services := []*domain.Booking{
		{
			Kind: domain.BookingKindService, UserID: client.ID, ProviderID: &providerID,
			ServiceType: "photography", EventDate: &eventDate, Amount: 25000,
			Status: domain.BookingPendingProviderConfirmation, PaymentStatus: domain.PaymentPending,
		},
		{
			Kind: domain.BookingKindService, UserID: client.ID, ProviderID: &providerID,
			ServiceType: "videography", EventDate: &eventDate, Amount: 40000,
			Status: domain.BookingConfirmedAwaitingPayment, PaymentStatus: domain.PaymentPending,
		},
	}

	for _, b := range append(tickets, services...) {
		if err := s.bookings.Create(ctx, b); err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{"booking_id": b.ID, "kind": b.Kind, "status": b.Status}).Info("booking seeded")
	}
	return nil
}

// user creates the account or reuses the existing one, so the seed can be rerun,
// and logs a bearer token for it.
func (s *seeder) user(ctx context.Context, name, email string, role domain.UserRole) (*domain.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		u = &domain.User{Name: name, Email: email, Role: role}
		err = s.users.Create(ctx, u)
	}
	if err != nil {
		return nil, err
	}

	token, err := s.jwt.GenerateToken(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"email": email, "role": role, "token": token}).Info("user ready")
	return u, nil
}

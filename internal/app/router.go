// Package app assembles repositories, services and HTTP routes into one gin engine.
package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ticketing/internal/config"
	"ticketing/internal/domain"
	"ticketing/internal/middleware"
	"ticketing/internal/modules/booking"
	"ticketing/internal/modules/checkin"
	"ticketing/internal/modules/payment"
	"ticketing/internal/modules/ticket"
	jwtsvc "ticketing/internal/pkg/jwt"
	"ticketing/internal/pkg/logging"
	"ticketing/internal/pkg/mq"
	"ticketing/internal/repository"
)

type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Gateway   payment.Gateway
	Publisher mq.Publisher
	Hub       *checkin.Hub
	Log       logrus.FieldLogger
}

func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	log := logging.OrDiscard(d.Log)
	pub := d.Publisher
	if pub == nil {
		pub = mq.NopPublisher{}
	}

	userRepo := repository.NewUserRepository(d.DB)
	eventRepo := repository.NewEventRepository(d.DB)
	bookingRepo := repository.NewBookingRepository(d.DB)
	txnRepo := repository.NewPaymentTransactionRepository(d.DB)
	txManager := repository.NewTxManager(d.DB)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	bookingHandler := booking.NewHandler(booking.NewService(bookingRepo, userRepo, pub, log.WithField("module", "booking")))
	ticketHandler := ticket.NewHandler(ticket.NewService(bookingRepo, eventRepo, userRepo, txManager, log.WithField("module", "ticket")))
	paymentHandler := payment.NewHandler(payment.NewService(
		bookingRepo,
		txnRepo,
		userRepo,
		d.Gateway,
		txManager,
		pub,
		payment.Config{
			FrontendURL:            cfg.Payment.FrontendURL,
			OrderNamePrefix:        cfg.Payment.OrderNamePrefix,
			LegacyEventEligibility: cfg.Payment.LegacyEventEligibility,
			LookupTimeout:          cfg.Payment.LookupTimeout,
		},
		log.WithField("module", "payment"),
	))
	checkinHandler := checkin.NewHandler(checkin.NewService(bookingRepo, eventRepo, d.Hub, pub, log.WithField("module", "checkin")))
	feedHandler := checkin.NewWSHandler(d.Hub, j, eventRepo, cfg.CORSAllowedOrigins, log.WithField("module", "feed"))

	r := gin.New()
	r.Use(middleware.ErrorLogger(log))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		public := v1.Group("")
		public.Use(middleware.RateLimit(cfg.PublicRateRPS, cfg.PublicRateBurst))
		paymentHandler.RegisterPublicRoutes(public)
		feedHandler.RegisterRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(j))
		{
			paymentHandler.RegisterProtectedRoutes(protected)
			ticketHandler.RegisterAttendeeRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
		}

		organizer := protected.Group("")
		organizer.Use(middleware.RequireRole(domain.RoleOrganizer, domain.RoleAdmin))
		{
			ticketHandler.RegisterOrganizerRoutes(organizer)
			checkinHandler.RegisterOrganizerRoutes(organizer)
		}

		provider := protected.Group("")
		provider.Use(middleware.RequireRole(domain.RoleProvider, domain.RoleAdmin))
		{
			bookingHandler.RegisterProviderRoutes(provider)
		}
	}
	return r
}

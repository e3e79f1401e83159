package checkin

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"ticketing/internal/pkg/jwt"
	"ticketing/internal/pkg/logging"
	"ticketing/internal/pkg/response"
	"ticketing/internal/repository"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterOrganizerRoutes expects rg to be restricted to organizers.
func (h *Handler) RegisterOrganizerRoutes(rg *gin.RouterGroup) {
	rg.POST("/events/bookings/:id/checkin", h.CheckIn)
}

// CheckIn godoc
// @Summary      Check in an attendee
// @Description  Resolves the scanned value as a booking id or QR code and marks the ticket attended. Repeat scans report already_checked_in.
// @Tags         Check-in
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Scanned booking id or QR code"
// @Success      200 {object} Result
// @Failure      400 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /events/bookings/{id}/checkin [post]
func (h *Handler) CheckIn(c *gin.Context) {
	res, err := h.service.CheckIn(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// WSHandler serves the live check-in feed of one event.
type WSHandler struct {
	hub      *Hub
	jwt      *jwt.Service
	events   eventReader
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

// NewWSHandler accepts any origin when allowedOrigins is empty.
func NewWSHandler(hub *Hub, jwtService *jwt.Service, events eventReader, allowedOrigins []string, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		jwt:    jwtService,
		events: events,
		log:    logging.OrDiscard(log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowedOrigins) == 0 || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

func (h *WSHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws/events/:id/checkins", h.Serve)
}

// Serve upgrades to a websocket after checking ?token= belongs to the event's organizer.
// Browsers cannot set headers on websocket requests, hence the query parameter.
func (h *WSHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Token is required. Use ?token=YOUR_JWT_TOKEN")
		return
	}
	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	eventID := c.Param("id")
	ev, err := h.events.GetByID(c.Request.Context(), eventID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		response.FromError(c, err)
		return
	}
	if ev == nil || ev.OrganizerID != claims.UserID {
		response.FromError(c, ErrNotFoundOrUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).WithField("event_id", eventID).Warn("websocket upgrade failed")
		return
	}

	fields := logrus.Fields{"event_id": eventID, "user_id": claims.UserID}
	h.log.WithFields(fields).Info("check-in feed connected")
	h.hub.ServeWS(conn, eventID, claims.UserID)
	h.log.WithFields(fields).Info("check-in feed disconnected")
}

package ticket

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ticketing/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterAttendeeRoutes expects rg to require authentication.
func (h *Handler) RegisterAttendeeRoutes(rg *gin.RouterGroup) {
	rg.GET("/events/available", h.ListEvents)
	rg.GET("/events/:id", h.GetEvent)
	rg.POST("/events/:id/bookings", h.BookTickets)
	rg.GET("/events/bookings/my", h.ListMyBookings)
	rg.GET("/events/bookings/:id", h.GetBooking)
	rg.PATCH("/events/bookings/:id/cancel", h.CancelBooking)
	rg.GET("/events/bookings/:id/qr", h.GetQRCode)
}

// RegisterOrganizerRoutes expects rg to be restricted to organizers.
func (h *Handler) RegisterOrganizerRoutes(rg *gin.RouterGroup) {
	rg.POST("/events", h.CreateEvent)
	rg.GET("/events/bookings/organizer", h.ListOrganizerBookings)
	rg.GET("/events/:id/bookings", h.ListEventBookings)
	rg.GET("/events/:id/analytics", h.EventAnalytics)
}

// CreateEvent godoc
// @Summary      Create event
// @Tags         Events
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body CreateEventRequest true "Event"
// @Success      201 {object} domain.Event
// @Failure      400 {object} map[string]interface{}
// @Router       /events [post]
func (h *Handler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "title, event_date and ticket_price are required", err)
		return
	}
	ev, err := h.service.CreateEvent(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, ev)
}

// ListEvents godoc
// @Summary      Available events
// @Tags         Events
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} domain.Event
// @Router       /events/available [get]
func (h *Handler) ListEvents(c *gin.Context) {
	out, err := h.service.ListEvents(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"events": out})
}

// GetEvent godoc
// @Summary      Get event
// @Tags         Events
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Event ID"
// @Success      200 {object} domain.Event
// @Failure      404 {object} map[string]interface{}
// @Router       /events/{id} [get]
func (h *Handler) GetEvent(c *gin.Context) {
	ev, err := h.service.GetEvent(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ev)
}

// BookTickets godoc
// @Summary      Book event tickets
// @Description  Creates a pending, unpaid ticket booking. Pay for it with /payments/khalti/initiate.
// @Tags         Tickets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id   path string true "Event ID"
// @Param        body body BookTicketsRequest true "Tickets"
// @Success      201 {object} domain.Booking
// @Failure      400 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /events/{id}/bookings [post]
func (h *Handler) BookTickets(c *gin.Context) {
	var req BookTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "quantity must be at least 1", err)
		return
	}
	b, err := h.service.BookTickets(c.Request.Context(), c.GetString("user_id"), c.Param("id"), req.TicketType, req.Quantity)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, b)
}

// ListMyBookings godoc
// @Summary      My ticket bookings
// @Tags         Tickets
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} domain.Booking
// @Router       /events/bookings/my [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	out, err := h.service.ListMyBookings(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": out})
}

// GetBooking godoc
// @Summary      Get ticket booking
// @Tags         Tickets
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Booking ID"
// @Success      200 {object} domain.Booking
// @Failure      404 {object} map[string]interface{}
// @Router       /events/bookings/{id} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// CancelBooking godoc
// @Summary      Cancel ticket booking
// @Tags         Tickets
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Booking ID"
// @Success      200 {object} domain.Booking
// @Failure      400 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /events/bookings/{id}/cancel [patch]
func (h *Handler) CancelBooking(c *gin.Context) {
	b, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// GetQRCode godoc
// @Summary      Get ticket QR code
// @Tags         Tickets
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Booking ID"
// @Success      200 {object} QRCodeResponse
// @Failure      400 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /events/bookings/{id}/qr [get]
func (h *Handler) GetQRCode(c *gin.Context) {
	res, err := h.service.GetQRCode(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// ListOrganizerBookings godoc
// @Summary      Bookings across my events
// @Tags         Events
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} domain.Booking
// @Router       /events/bookings/organizer [get]
func (h *Handler) ListOrganizerBookings(c *gin.Context) {
	out, err := h.service.ListOrganizerBookings(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": out})
}

// ListEventBookings godoc
// @Summary      Bookings for one event
// @Tags         Events
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Event ID"
// @Success      200 {array} EventBookingDetail
// @Failure      404 {object} map[string]interface{}
// @Router       /events/{id}/bookings [get]
func (h *Handler) ListEventBookings(c *gin.Context) {
	out, err := h.service.ListEventBookings(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": out})
}

// EventAnalytics godoc
// @Summary      Booking counts for one event
// @Tags         Events
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Event ID"
// @Success      200 {object} EventAnalytics
// @Failure      404 {object} map[string]interface{}
// @Router       /events/{id}/analytics [get]
func (h *Handler) EventAnalytics(c *gin.Context) {
	out, err := h.service.EventAnalytics(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

package booking

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ticketing/internal/domain"
	"ticketing/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.CreateBooking)
	rg.GET("/bookings/my", h.ListMyBookings)
	rg.GET("/bookings/:id", h.GetBooking)
}

// RegisterProviderRoutes expects rg to be restricted to providers.
func (h *Handler) RegisterProviderRoutes(rg *gin.RouterGroup) {
	rg.PATCH("/bookings/:id/confirm", h.ConfirmBooking)
}

// CreateBooking godoc
// @Summary      Request a service booking
// @Description  Creates a booking awaiting provider confirmation
// @Tags         Bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body CreateBookingRequest true "Booking"
// @Success      201 {object} domain.Booking
// @Failure      400 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "Invalid request body", err)
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, b)
}

// ConfirmBooking godoc
// @Summary      Confirm a service booking
// @Tags         Bookings
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Booking ID"
// @Success      200 {object} domain.Booking
// @Failure      400 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /bookings/{id}/confirm [patch]
func (h *Handler) ConfirmBooking(c *gin.Context) {
	b, err := h.service.ConfirmByProvider(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// GetBooking godoc
// @Summary      Get a service booking
// @Tags         Bookings
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Booking ID"
// @Success      200 {object} domain.Booking
// @Failure      404 {object} map[string]interface{}
// @Router       /bookings/{id} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b)
}

// ListMyBookings godoc
// @Summary      My service bookings
// @Tags         Bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} domain.Booking
// @Router       /bookings/my [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	out, err := h.service.ListMyBookings(c.Request.Context(), c.GetString("user_id"), domain.UserRole(c.GetString("role")))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": out})
}

package payment

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

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/khalti/initiate", h.InitiatePayment)
	rg.POST("/payments/khalti/verify", h.VerifyPayment)
	rg.GET("/payments/bookings/:id/status", h.GetPaymentStatus)
	rg.PATCH("/payments/bookings/:id/status", h.UpdatePaymentStatus)
	rg.GET("/payments/history", h.GetPaymentHistory)
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/payments/khalti/callback", h.Callback)
}

// InitiatePayment godoc
// @Summary      Initialize Khalti payment
// @Description  Creates a pending transaction for a service or event ticket booking and returns the Khalti payment URL
// @Tags         Payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body InitiatePaymentRequest true "Booking to pay for"
// @Success      200 {object} InitiateResult
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /payments/khalti/initiate [post]
func (h *Handler) InitiatePayment(c *gin.Context) {
	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "booking_id is required", err)
		return
	}

	res, err := h.service.InitiatePayment(c.Request.Context(), req.BookingID, c.GetString("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// VerifyPayment godoc
// @Summary      Verify Khalti payment
// @Description  Looks up the pidx at Khalti and applies the outcome. Repeated calls after success are no-ops.
// @Tags         Payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body VerifyPaymentRequest true "Khalti pidx"
// @Success      200 {object} VerifyResult
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /payments/khalti/verify [post]
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "pidx is required", err)
		return
	}
	h.verify(c, req.Pidx)
}

// Callback godoc
// @Summary      Khalti return callback
// @Description  Public endpoint for the Khalti redirect; verifies the pidx from the query string
// @Tags         Payments
// @Produce      json
// @Param        pidx query string true "Khalti pidx"
// @Success      200 {object} VerifyResult
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /payments/khalti/callback [get]
func (h *Handler) Callback(c *gin.Context) {
	pidx := c.Query("pidx")
	if pidx == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "pidx is required")
		return
	}
	h.verify(c, pidx)
}

func (h *Handler) verify(c *gin.Context, pidx string) {
	res, err := h.service.VerifyPayment(c.Request.Context(), pidx)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// GetPaymentStatus godoc
// @Summary      Payment status of a service booking
// @Tags         Payments
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Booking ID"
// @Success      200 {object} PaymentStatusResult
// @Failure      404 {object} ErrorResponse
// @Router       /payments/bookings/{id}/status [get]
func (h *Handler) GetPaymentStatus(c *gin.Context) {
	res, err := h.service.GetPaymentStatus(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// UpdatePaymentStatus godoc
// @Summary      Manually set payment status
// @Description  Applies a status to the latest transaction of a service booking and derives the booking status from it
// @Tags         Payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id path string true "Booking ID"
// @Param        body body UpdatePaymentStatusRequest true "New status"
// @Success      200 {object} PaymentStatusResult
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /payments/bookings/{id}/status [patch]
func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "status must be one of pending, completed, failed", err)
		return
	}

	res, err := h.service.UpdatePaymentStatus(c.Request.Context(), c.Param("id"), c.GetString("user_id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// GetPaymentHistory godoc
// @Summary      Payment history
// @Description  Service bookings with their transactions; providers see bookings made with them
// @Tags         Payments
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} HistoryEntry
// @Router       /payments/history [get]
func (h *Handler) GetPaymentHistory(c *gin.Context) {
	role := domain.UserRole(c.GetString("role"))
	res, err := h.service.GetPaymentHistory(c.Request.Context(), c.GetString("user_id"), role)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

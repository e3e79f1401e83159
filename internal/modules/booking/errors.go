package booking

import "ticketing/internal/pkg/apperr"

var (
	ErrValidation       = apperr.New(apperr.KindInvalidState, "VALIDATION_ERROR", "Invalid booking request")
	ErrProviderNotFound = apperr.New(apperr.KindNotFound, "PROVIDER_NOT_FOUND", "Service provider not found")
	ErrBookingNotFound  = apperr.New(apperr.KindNotFound, "BOOKING_NOT_FOUND", "Booking not found")
	ErrInvalidStatus    = apperr.New(apperr.KindInvalidState, "INVALID_BOOKING_STATUS", "Booking is not awaiting provider confirmation")
)

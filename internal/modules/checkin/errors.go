package checkin

import "ticketing/internal/pkg/apperr"

var (
	// ErrNotFoundOrUnauthorized deliberately covers a missing booking, a missing event and a
	// foreign organizer alike.
	ErrNotFoundOrUnauthorized = apperr.New(apperr.KindNotFound, "BOOKING_NOT_FOUND", "Booking or event not found or not authorized")
	ErrPaymentIncomplete      = apperr.New(apperr.KindInvalidState, "PAYMENT_INCOMPLETE", "Payment not completed for this ticket")
	ErrTicketVoided           = apperr.New(apperr.KindInvalidState, "TICKET_VOIDED", "Ticket has been cancelled or refunded")
	ErrInvalidStatus          = apperr.New(apperr.KindInvalidState, "INVALID_STATUS_FOR_CHECKIN", "Ticket status does not allow check-in")
)

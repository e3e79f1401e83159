package ticket

import "ticketing/internal/pkg/apperr"

var (
	ErrValidation               = apperr.New(apperr.KindInvalidState, "VALIDATION_ERROR", "Invalid input")
	ErrEventNotFound            = apperr.New(apperr.KindNotFound, "EVENT_NOT_FOUND", "Event not found")
	ErrBookingNotFound          = apperr.New(apperr.KindNotFound, "BOOKING_NOT_FOUND", "Booking not found")
	ErrSoldOut                  = apperr.New(apperr.KindInvalidState, "TICKETS_SOLD_OUT", "Not enough tickets left for this event")
	ErrAlreadyCancelled         = apperr.New(apperr.KindInvalidState, "ALREADY_CANCELLED", "Booking is already cancelled")
	ErrPaidTicketNotCancellable = apperr.New(apperr.KindInvalidState, "PAID_TICKET_NOT_CANCELLABLE", "Paid tickets cannot be cancelled")
	ErrNotCancellable           = apperr.New(apperr.KindInvalidState, "INVALID_STATUS_FOR_CANCEL", "Booking status does not allow cancellation")
	ErrTicketNotIssued          = apperr.New(apperr.KindInvalidState, "TICKET_NOT_ISSUED", "Ticket code is issued after payment")
)

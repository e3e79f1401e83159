package payment

import (
	"errors"

	"ticketing/internal/pkg/apperr"
)

var (
	ErrBookingNotFound     = apperr.New(apperr.KindNotFound, "BOOKING_NOT_FOUND", "booking not found or payment already processed")
	ErrBookingNotConfirmed = apperr.New(apperr.KindInvalidState, "BOOKING_NOT_CONFIRMED", "booking must be confirmed by provider before payment can be processed")
	ErrTransactionNotFound = apperr.New(apperr.KindNotFound, "TRANSACTION_NOT_FOUND", "payment transaction not found")
	ErrGatewayInitFailed   = apperr.New(apperr.KindGateway, "GATEWAY_INIT_FAILED", "failed to initialize khalti payment")
	ErrVerification        = apperr.New(apperr.KindGateway, "VERIFICATION_ERROR", "failed to verify payment with khalti")
	ErrTransactionFinal    = apperr.New(apperr.KindInvalidState, "TRANSACTION_FINALIZED", "payment transaction already reached a terminal status")
	ErrInvalidStatus       = apperr.New(apperr.KindInvalidState, "INVALID_TRANSACTION_STATUS", "status must be one of pending, completed, failed")
)

var errIncompleteInitResponse = errors.New("khalti initiate response is missing pidx or payment_url")

var ErrBookingAlreadyPaid = apperr.New(apperr.KindInvalidState, "BOOKING_ALREADY_PAID", "booking is already paid")

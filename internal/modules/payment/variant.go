package payment

import (
	"fmt"
	"net/url"
	"slices"

	"ticketing/internal/domain"
)

// Variant is the per-kind policy the reconciliation engine applies to a booking.
type Variant struct {
	Kind domain.BookingKind
	// Eligible are the statuses under which a booking is found for initiation at all.
	Eligible []domain.BookingStatus
	// AwaitingProvider is the subset of Eligible that still needs provider confirmation.
	AwaitingProvider []domain.BookingStatus
	// Confirmed is the status a booking moves to when its payment completes.
	Confirmed        domain.BookingStatus
	IssuesTicketCode bool

	returnPath func(b *domain.Booking) string
	orderName  func(prefix string, b *domain.Booking) string
}

func ServiceVariant() Variant {
	return Variant{
		Kind: domain.BookingKindService,
		Eligible: []domain.BookingStatus{
			domain.BookingPending,
			domain.BookingPendingProviderConfirmation,
			domain.BookingConfirmedAwaitingPayment,
			domain.BookingConfirmedPaid,
		},
		AwaitingProvider: []domain.BookingStatus{
			domain.BookingPending,
			domain.BookingPendingProviderConfirmation,
		},
		Confirmed: domain.BookingConfirmedPaid,
		returnPath: func(*domain.Booking) string {
			return "/dashboard"
		},
		orderName: func(prefix string, b *domain.Booking) string {
			serviceType := b.ServiceType
			if serviceType == "" {
				serviceType = "service"
			}
			return fmt.Sprintf("%s-%s-booking", prefix, serviceType)
		},
	}
}

// EventTicketVariant builds the ticket policy. legacy re-enables the historical eligibility
// set that also accepts cancelled, attended, no_show and refunded tickets.
func EventTicketVariant(legacy bool) Variant {
	eligible := []domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed}
	if legacy {
		eligible = append(eligible,
			domain.BookingCancelled,
			domain.BookingAttended,
			domain.BookingNoShow,
			domain.BookingRefunded,
		)
	}
	return Variant{
		Kind:             domain.BookingKindEventTicket,
		Eligible:         eligible,
		Confirmed:        domain.BookingConfirmed,
		IssuesTicketCode: true,
		returnPath: func(b *domain.Booking) string {
			return "/events/ticket/payment-success?bookingId=" + url.QueryEscape(b.ID)
		},
		orderName: func(prefix string, _ *domain.Booking) string {
			return prefix + "-event-ticket-booking"
		},
	}
}

// Variants returns the policies in lookup order: service bookings first.
func Variants(legacyEventEligibility bool) []Variant {
	return []Variant{ServiceVariant(), EventTicketVariant(legacyEventEligibility)}
}

func (v Variant) eligible(s domain.BookingStatus) bool {
	return slices.Contains(v.Eligible, s)
}

func (v Variant) awaitingProvider(s domain.BookingStatus) bool {
	return slices.Contains(v.AwaitingProvider, s)
}

func (v Variant) ReturnURL(frontendURL string, b *domain.Booking) string {
	return frontendURL + v.returnPath(b)
}

func (v Variant) OrderName(prefix string, b *domain.Booking) string {
	return v.orderName(prefix, b)
}

// Package payment reconciles Khalti payment outcomes with booking state.
package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ticketing/internal/domain"
	"ticketing/internal/gateway/khalti"
	"ticketing/internal/pkg/logging"
	"ticketing/internal/pkg/mq"
	"ticketing/internal/repository"
)

const defaultFailureReason = "Payment failed"

type Config struct {
	FrontendURL            string
	OrderNamePrefix        string
	LegacyEventEligibility bool
	// LookupTimeout bounds the gateway lookup made while the transaction row is locked.
	// Zero leaves it to the gateway client's own timeout.
	LookupTimeout time.Duration
}

type Service struct {
	bookings     bookingStore
	transactions transactionStore
	users        userReader
	gateway      Gateway
	tx           txRunner
	events       mq.Publisher
	variants     []Variant
	cfg          Config
	log          logrus.FieldLogger

	now           func() time.Time
	newTicketCode func() string
}

func NewService(
	bookings bookingStore,
	transactions transactionStore,
	users userReader,
	gateway Gateway,
	tx txRunner,
	events mq.Publisher,
	cfg Config,
	log logrus.FieldLogger,
) *Service {
	if events == nil {
		events = mq.NopPublisher{}
	}
	return &Service{
		bookings:      bookings,
		transactions:  transactions,
		users:         users,
		gateway:       gateway,
		tx:            tx,
		events:        events,
		variants:      Variants(cfg.LegacyEventEligibility),
		cfg:           cfg,
		log:           logging.OrDiscard(log),
		now:           func() time.Time { return time.Now().UTC() },
		newTicketCode: uuid.NewString,
	}
}

// InitiatePayment opens a Khalti payment for a booking owned by userID.
func (s *Service) InitiatePayment(ctx context.Context, bookingID, userID string) (*InitiateResult, error) {
	b, v, err := s.findPayable(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}

	txn := &domain.PaymentTransaction{
		Kind:          v.Kind,
		BookingID:     b.ID,
		Amount:        b.Amount,
		Status:        domain.TransactionPending,
		PaymentMethod: domain.PaymentMethodKhalti,
	}
	if err := s.transactions.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("create payment transaction: %w", err)
	}

	req := khalti.InitiateRequest{
		ReturnURL:         v.ReturnURL(s.cfg.FrontendURL, b),
		WebsiteURL:        s.cfg.FrontendURL,
		Amount:            toPaisa(b.Amount),
		PurchaseOrderID:   b.ID,
		PurchaseOrderName: v.OrderName(s.cfg.OrderNamePrefix, b),
		CustomerInfo:      s.customerInfo(ctx, b.UserID),
	}
	res, err := s.gateway.Initiate(ctx, req)
	if err == nil && (res == nil || res.Pidx == "" || res.PaymentURL == "") {
		err = errIncompleteInitResponse
	}
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"booking_id":     b.ID,
			"kind":           v.Kind,
			"transaction_id": txn.ID,
		}).Error("khalti initiate failed")
		var raw []byte
		if res != nil {
			raw = res.Raw
		}
		s.markInitFailed(ctx, txn, err, raw)
		return nil, ErrGatewayInitFailed.Wrap(err)
	}

	if err := s.transactions.AttachGateway(ctx, v.Kind, txn.ID, res.Pidx, res.PaymentURL, res.Raw); err != nil {
		return nil, fmt.Errorf("attach gateway handle: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"booking_id":     b.ID,
		"kind":           v.Kind,
		"transaction_id": txn.ID,
		"pidx":           res.Pidx,
		"amount":         req.Amount,
	}).Info("khalti payment initiated")

	return &InitiateResult{
		PaymentURL:    res.PaymentURL,
		Pidx:          res.Pidx,
		TransactionID: txn.ID,
		Kind:          v.Kind,
		ExpiresAt:     res.ExpiresAt,
	}, nil
}

func (s *Service) findPayable(ctx context.Context, bookingID, userID string) (*domain.Booking, Variant, error) {
	for _, v := range s.variants {
		b, err := s.bookings.GetByID(ctx, v.Kind, bookingID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, Variant{}, fmt.Errorf("load booking: %w", err)
		}
		if b.UserID != userID || !v.eligible(b.Status) || !payable(b.PaymentStatus) {
			s.log.WithFields(logrus.Fields{
				"booking_id":     bookingID,
				"kind":           v.Kind,
				"status":         b.Status,
				"payment_status": b.PaymentStatus,
			}).Debug("booking not payable")
			continue
		}
		if v.awaitingProvider(b.Status) {
			return nil, v, ErrBookingNotConfirmed
		}
		return b, v, nil
	}
	return nil, Variant{}, ErrBookingNotFound
}

func (s *Service) customerInfo(ctx context.Context, userID string) khalti.CustomerInfo {
	info := khalti.CustomerInfo{Name: "Customer"}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("customer info unavailable, using defaults")
		return info
	}
	if u.Name != "" {
		info.Name = u.Name
	}
	info.Email = u.Email
	info.Phone = u.Phone
	return info
}

func (s *Service) markInitFailed(ctx context.Context, txn *domain.PaymentTransaction, cause error, raw []byte) {
	err := s.transactions.UpdateStatus(ctx, txn.Kind, txn.ID, repository.TransactionUpdate{
		Status:          domain.TransactionFailed,
		FailureReason:   cause.Error(),
		GatewayResponse: raw,
	})
	if err != nil {
		s.log.WithError(err).WithField("transaction_id", txn.ID).Error("failed to mark transaction failed after initiate error")
	}
}

// VerifyPayment looks up the outcome of pidx at Khalti and applies it. The transaction row
// stays locked from the completed check until the outcome is written.
func (s *Service) VerifyPayment(ctx context.Context, pidx string) (*VerifyResult, error) {
	var (
		result VerifyResult
		event  *mq.PaymentEvent
		key    string
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		txn, v, err := s.lockTransaction(ctx, pidx)
		if err != nil {
			return err
		}
		result.Kind = v.Kind
		result.Transaction = txn

		if txn.Status == domain.TransactionCompleted {
			result.Success = true
			result.AlreadyVerified = true
			return nil
		}

		res, err := s.lookup(ctx, pidx)
		if err != nil {
			return ErrVerification.Wrap(err)
		}

		now := s.now()
		reason := failureReason(res, txn)
		if reason == "" {
			b, err := s.confirm(ctx, v, txn, res, now)
			if err != nil {
				return err
			}
			result.Success = true
			result.Booking = b
			key = mq.KeyPaymentCompleted
		} else {
			if err := s.transactions.UpdateStatus(ctx, v.Kind, txn.ID, repository.TransactionUpdate{
				Status:          domain.TransactionFailed,
				FailureReason:   reason,
				GatewayResponse: res.Raw,
			}); err != nil {
				return fmt.Errorf("mark transaction failed: %w", err)
			}
			txn.Status = domain.TransactionFailed
			txn.FailureReason = reason
			key = mq.KeyPaymentFailed
		}

		event = &mq.PaymentEvent{
			BookingID:     txn.BookingID,
			Kind:          string(v.Kind),
			TransactionID: txn.ID,
			Pidx:          pidx,
			Amount:        txn.Amount,
			Reason:        txn.FailureReason,
			OccurredAt:    now,
		}
		return nil
	})
	if err != nil {
		s.log.WithError(err).WithField("pidx", pidx).Warn("payment verification failed")
		return nil, err
	}

	fields := logrus.Fields{
		"pidx":             pidx,
		"kind":             result.Kind,
		"transaction_id":   result.Transaction.ID,
		"success":          result.Success,
		"already_verified": result.AlreadyVerified,
	}
	s.log.WithFields(fields).Info("payment verified")

	if event != nil {
		if err := s.events.PublishJSON(ctx, key, event); err != nil {
			s.log.WithError(err).WithFields(fields).Error("failed to publish payment event")
		}
	}
	return &result, nil
}

// lockTransaction searches service transactions first and event ticket transactions second.
func (s *Service) lockTransaction(ctx context.Context, pidx string) (*domain.PaymentTransaction, Variant, error) {
	for _, v := range s.variants {
		txn, err := s.transactions.GetByHandleForUpdate(ctx, v.Kind, pidx)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, Variant{}, fmt.Errorf("load transaction: %w", err)
		}
		return txn, v, nil
	}
	return nil, Variant{}, ErrTransactionNotFound
}

func (s *Service) lookup(ctx context.Context, pidx string) (*khalti.LookupResponse, error) {
	if s.cfg.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.LookupTimeout)
		defer cancel()
	}
	return s.gateway.Lookup(ctx, pidx)
}

// failureReason is empty when the lookup proves the transaction was paid in full.
func failureReason(res *khalti.LookupResponse, txn *domain.PaymentTransaction) string {
	if !res.Completed() {
		if res.Message != "" {
			return res.Message
		}
		return defaultFailureReason
	}
	if expected := toPaisa(txn.Amount); res.TotalAmount > 0 && res.TotalAmount != expected {
		return fmt.Sprintf("amount mismatch lookup=%d expected=%d", res.TotalAmount, expected)
	}
	return ""
}

func (s *Service) confirm(ctx context.Context, v Variant, txn *domain.PaymentTransaction, res *khalti.LookupResponse, now time.Time) (*domain.Booking, error) {
	if err := s.transactions.UpdateStatus(ctx, v.Kind, txn.ID, repository.TransactionUpdate{
		Status:          domain.TransactionCompleted,
		GatewayResponse: res.Raw,
		CompletedAt:     &now,
	}); err != nil {
		return nil, fmt.Errorf("mark transaction completed: %w", err)
	}
	txn.Status = domain.TransactionCompleted
	txn.CompletedAt = &now
	txn.FailureReason = ""

	b, err := s.bookings.GetByID(ctx, v.Kind, txn.BookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound.Wrap(err)
		}
		return nil, fmt.Errorf("load booking: %w", err)
	}

	method := domain.PaymentMethodKhalti
	b.PaymentStatus = domain.PaymentPaid
	if b.Status != domain.BookingAttended {
		b.Status = v.Confirmed
	}
	b.PaymentDate = &now
	b.PaymentMethod = &method
	if v.IssuesTicketCode && !b.HasTicketCode() {
		code := s.newTicketCode()
		b.QRCode = &code
	}
	if err := s.bookings.ApplyPayment(ctx, b); err != nil {
		return nil, fmt.Errorf("apply payment to booking: %w", err)
	}
	return b, nil
}

// UpdatePaymentStatus is the manual override for service bookings. It applies the same
// derivation as verification to the booking's latest transaction.
func (s *Service) UpdatePaymentStatus(ctx context.Context, bookingID, userID string, req UpdatePaymentStatusRequest) (*PaymentStatusResult, error) {
	switch req.Status {
	case domain.TransactionPending, domain.TransactionCompleted, domain.TransactionFailed:
	default:
		return nil, ErrInvalidStatus
	}

	var out *PaymentStatusResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.ownedServiceBooking(ctx, bookingID, userID)
		if err != nil {
			return err
		}
		txn, err := s.transactions.LatestForBooking(ctx, domain.BookingKindService, b.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTransactionNotFound
		}
		if err != nil {
			return fmt.Errorf("load latest transaction: %w", err)
		}

		if txn.IsTerminal() {
			if txn.Status != req.Status {
				return ErrTransactionFinal
			}
			out = statusResult(b, txn)
			return nil
		}
		if b.IsPaid() && req.Status != domain.TransactionCompleted {
			return ErrBookingAlreadyPaid
		}

		now := s.now()
		update := repository.TransactionUpdate{
			Status:               req.Status,
			VerifiedAt:           req.VerifiedAt,
			GatewayTransactionID: req.Pidx,
		}
		switch req.Status {
		case domain.TransactionCompleted:
			update.CompletedAt = &now
			method := domain.PaymentMethodKhalti
			b.PaymentStatus = domain.PaymentPaid
			b.Status = domain.BookingConfirmedPaid
			b.PaymentDate = &now
			b.PaymentMethod = &method
		case domain.TransactionFailed:
			b.PaymentStatus = domain.PaymentFailed
		case domain.TransactionPending:
			b.PaymentStatus = domain.PaymentPending
		}

		if err := s.transactions.UpdateStatus(ctx, domain.BookingKindService, txn.ID, update); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if err := s.bookings.ApplyPayment(ctx, b); err != nil {
			return fmt.Errorf("apply payment to booking: %w", err)
		}

		txn.Status = req.Status
		txn.CompletedAt = update.CompletedAt
		if req.VerifiedAt != nil {
			txn.VerifiedAt = req.VerifiedAt
		}
		if req.Pidx != nil {
			txn.GatewayTransactionID = req.Pidx
		}
		out = statusResult(b, txn)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id":     bookingID,
		"status":         req.Status,
		"payment_status": out.PaymentStatus,
	}).Info("payment status updated manually")
	return out, nil
}

func (s *Service) GetPaymentStatus(ctx context.Context, bookingID, userID string) (*PaymentStatusResult, error) {
	b, err := s.ownedServiceBooking(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	txn, err := s.transactions.LatestForBooking(ctx, domain.BookingKindService, b.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load latest transaction: %w", err)
	}
	return statusResult(b, txn), nil
}

// GetPaymentHistory lists service bookings with their transactions, as client or as provider.
func (s *Service) GetPaymentHistory(ctx context.Context, userID string, role domain.UserRole) ([]HistoryEntry, error) {
	var (
		bookings []domain.Booking
		err      error
	)
	if role == domain.RoleProvider {
		bookings, err = s.bookings.ListByProvider(ctx, userID)
	} else {
		bookings, err = s.bookings.ListByUser(ctx, domain.BookingKindService, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
	}
	txns, err := s.transactions.ListForBookings(ctx, domain.BookingKindService, ids)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	byBooking := make(map[string][]domain.PaymentTransaction, len(bookings))
	for _, t := range txns {
		byBooking[t.BookingID] = append(byBooking[t.BookingID], t)
	}

	out := make([]HistoryEntry, 0, len(bookings))
	for _, b := range bookings {
		entry := HistoryEntry{
			BookingID:     b.ID,
			ServiceType:   b.ServiceType,
			EventDate:     b.EventDate,
			Amount:        b.Amount,
			PaymentStatus: b.PaymentStatus,
			Transactions:  byBooking[b.ID],
		}
		if entry.Transactions == nil {
			entry.Transactions = []domain.PaymentTransaction{}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *Service) ownedServiceBooking(ctx context.Context, bookingID, userID string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, domain.BookingKindService, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if b.UserID != userID {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func statusResult(b *domain.Booking, txn *domain.PaymentTransaction) *PaymentStatusResult {
	return &PaymentStatusResult{
		BookingID:         b.ID,
		PaymentStatus:     b.PaymentStatus,
		Status:            b.Status,
		Amount:            b.Amount,
		LatestTransaction: txn,
	}
}

func payable(ps domain.PaymentStatus) bool {
	return ps == domain.PaymentPending || ps == domain.PaymentFailed
}

// toPaisa converts rupees to the minor unit Khalti expects.
func toPaisa(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ticketing/internal/domain"
)

type PaymentTransactionRepository struct {
	db *gorm.DB
}

func NewPaymentTransactionRepository(db *gorm.DB) *PaymentTransactionRepository {
	return &PaymentTransactionRepository{db: db}
}

// TransactionUpdate describes one status change. Optional fields are left untouched when nil.
type TransactionUpdate struct {
	Status               domain.TransactionStatus
	FailureReason        string
	GatewayResponse      []byte
	CompletedAt          *time.Time
	VerifiedAt           *time.Time
	GatewayTransactionID *string
}

func (r *PaymentTransactionRepository) table(ctx context.Context, kind domain.BookingKind) *gorm.DB {
	return conn(ctx, r.db).Table(kind.TransactionTable())
}

func (r *PaymentTransactionRepository) Create(ctx context.Context, t *domain.PaymentTransaction) error {
	if !t.Kind.Valid() {
		return fmt.Errorf("unknown booking kind %q", t.Kind)
	}
	return mapError(r.table(ctx, t.Kind).Create(t).Error)
}

func (r *PaymentTransactionRepository) GetByID(ctx context.Context, kind domain.BookingKind, id string) (*domain.PaymentTransaction, error) {
	return r.first(ctx, kind, r.table(ctx, kind).Where("id = ?", id))
}

// GetByHandleForUpdate locks the row until the surrounding transaction ends.
func (r *PaymentTransactionRepository) GetByHandleForUpdate(ctx context.Context, kind domain.BookingKind, handle string) (*domain.PaymentTransaction, error) {
	q := r.table(ctx, kind).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("gateway_transaction_id = ?", handle)
	return r.first(ctx, kind, q)
}

func (r *PaymentTransactionRepository) LatestForBooking(ctx context.Context, kind domain.BookingKind, bookingID string) (*domain.PaymentTransaction, error) {
	return r.first(ctx, kind, r.table(ctx, kind).Where("booking_id = ?", bookingID).Order("created_at DESC"))
}

func (r *PaymentTransactionRepository) ListForBookings(ctx context.Context, kind domain.BookingKind, bookingIDs []string) ([]domain.PaymentTransaction, error) {
	if len(bookingIDs) == 0 {
		return []domain.PaymentTransaction{}, nil
	}
	var out []domain.PaymentTransaction
	err := r.table(ctx, kind).
		Where("booking_id IN ?", bookingIDs).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, mapError(err)
	}
	for i := range out {
		out[i].Kind = kind
	}
	return out, nil
}

func (r *PaymentTransactionRepository) first(ctx context.Context, kind domain.BookingKind, q *gorm.DB) (*domain.PaymentTransaction, error) {
	var t domain.PaymentTransaction
	if err := q.First(&t).Error; err != nil {
		return nil, mapError(err)
	}
	t.Kind = kind
	return &t, nil
}

func (r *PaymentTransactionRepository) AttachGateway(ctx context.Context, kind domain.BookingKind, id, handle, paymentURL string, raw []byte) error {
	updates := map[string]interface{}{
		"gateway_transaction_id": handle,
		"gateway_payment_url":    paymentURL,
		"gateway_response":       datatypes.JSON(raw),
		"updated_at":             time.Now().UTC(),
	}
	return r.update(ctx, kind, id, updates)
}

func (r *PaymentTransactionRepository) UpdateStatus(ctx context.Context, kind domain.BookingKind, id string, u TransactionUpdate) error {
	updates := map[string]interface{}{
		"status":         u.Status,
		"failure_reason": u.FailureReason,
		"completed_at":   u.CompletedAt,
		"updated_at":     time.Now().UTC(),
	}
	if u.GatewayResponse != nil {
		updates["gateway_response"] = datatypes.JSON(u.GatewayResponse)
	}
	if u.VerifiedAt != nil {
		updates["verified_at"] = *u.VerifiedAt
	}
	if u.GatewayTransactionID != nil {
		updates["gateway_transaction_id"] = *u.GatewayTransactionID
	}
	return r.update(ctx, kind, id, updates)
}

func (r *PaymentTransactionRepository) update(ctx context.Context, kind domain.BookingKind, id string, updates map[string]interface{}) error {
	res := r.table(ctx, kind).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

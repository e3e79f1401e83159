package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ticketing/internal/domain"
)

// BookingRepository stores both booking variants; every call names the variant and
// the repository routes it to that variant's table.
type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type StatusCount struct {
	Status domain.BookingStatus
	Total  int64
}

func (r *BookingRepository) table(ctx context.Context, kind domain.BookingKind) *gorm.DB {
	return conn(ctx, r.db).Table(kind.BookingTable())
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	if !b.Kind.Valid() {
		return fmt.Errorf("unknown booking kind %q", b.Kind)
	}
	return mapError(r.table(ctx, b.Kind).Create(b).Error)
}

func (r *BookingRepository) GetByID(ctx context.Context, kind domain.BookingKind, id string) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.table(ctx, kind).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, mapError(err)
	}
	b.Kind = kind
	return &b, nil
}

func (r *BookingRepository) GetByQRCode(ctx context.Context, kind domain.BookingKind, code string) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.table(ctx, kind).Where("qr_code = ?", code).First(&b).Error; err != nil {
		return nil, mapError(err)
	}
	b.Kind = kind
	return &b, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, kind domain.BookingKind, userID string) ([]domain.Booking, error) {
	return r.list(ctx, kind, r.table(ctx, kind).Where("user_id = ?", userID))
}

func (r *BookingRepository) ListByProvider(ctx context.Context, providerID string) ([]domain.Booking, error) {
	kind := domain.BookingKindService
	return r.list(ctx, kind, r.table(ctx, kind).Where("provider_id = ?", providerID))
}

func (r *BookingRepository) ListByEvents(ctx context.Context, eventIDs []string) ([]domain.Booking, error) {
	if len(eventIDs) == 0 {
		return []domain.Booking{}, nil
	}
	kind := domain.BookingKindEventTicket
	return r.list(ctx, kind, r.table(ctx, kind).Where("event_id IN ?", eventIDs))
}

func (r *BookingRepository) list(ctx context.Context, kind domain.BookingKind, q *gorm.DB) ([]domain.Booking, error) {
	var out []domain.Booking
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, mapError(err)
	}
	for i := range out {
		out[i].Kind = kind
	}
	return out, nil
}

func (r *BookingRepository) CountByStatus(ctx context.Context, eventID string) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.table(ctx, domain.BookingKindEventTicket).
		Select("status, COUNT(*) AS total").
		Where("event_id = ?", eventID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

// ReservedTickets sums ticket quantities for an event, ignoring voided bookings.
func (r *BookingRepository) ReservedTickets(ctx context.Context, eventID string) (int64, error) {
	var total int64
	err := r.table(ctx, domain.BookingKindEventTicket).
		Select("COALESCE(SUM(quantity), 0)").
		Where("event_id = ? AND status NOT IN ?", eventID, []domain.BookingStatus{domain.BookingCancelled, domain.BookingRefunded}).
		Scan(&total).Error
	if err != nil {
		return 0, mapError(err)
	}
	return total, nil
}

// ApplyPayment persists the payment-derived fields of b. qr_code is written with
// COALESCE so an issued code is never replaced.
func (r *BookingRepository) ApplyPayment(ctx context.Context, b *domain.Booking) error {
	updates := map[string]interface{}{
		"status":         b.Status,
		"payment_status": b.PaymentStatus,
		"payment_date":   b.PaymentDate,
		"payment_method": b.PaymentMethod,
		"updated_at":     time.Now().UTC(),
	}
	if b.QRCode != nil {
		updates["qr_code"] = gorm.Expr("COALESCE(qr_code, ?)", *b.QRCode)
	}
	res := r.table(ctx, b.Kind).Where("id = ?", b.ID).Updates(updates)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TransitionStatus moves a booking to `to` only while its status is one of `from`.
// It reports whether the row changed.
func (r *BookingRepository) TransitionStatus(ctx context.Context, kind domain.BookingKind, id string, from []domain.BookingStatus, to domain.BookingStatus) (bool, error) {
	res := r.table(ctx, kind).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, mapError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// CancelUnpaid cancels a booking while its status is one of from and it is not paid.
// A payment committed after the caller's read makes it report false.
func (r *BookingRepository) CancelUnpaid(ctx context.Context, kind domain.BookingKind, id string, from []domain.BookingStatus) (bool, error) {
	res := r.table(ctx, kind).
		Where("id = ? AND status IN ? AND payment_status <> ?", id, from, domain.PaymentPaid).
		Updates(map[string]interface{}{"status": domain.BookingCancelled, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, mapError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"ticketing/internal/domain"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, e *domain.Event) error {
	return mapError(conn(ctx, r.db).Create(e).Error)
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	var e domain.Event
	if err := conn(ctx, r.db).Where("id = ?", id).First(&e).Error; err != nil {
		return nil, mapError(err)
	}
	return &e, nil
}

func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID string) ([]domain.Event, error) {
	var events []domain.Event
	err := conn(ctx, r.db).
		Where("organizer_id = ?", organizerID).
		Order("event_date ASC").
		Find(&events).Error
	if err != nil {
		return nil, mapError(err)
	}
	return events, nil
}

// ListAvailable returns published public events, soonest first.
func (r *EventRepository) ListAvailable(ctx context.Context) ([]domain.Event, error) {
	var events []domain.Event
	err := conn(ctx, r.db).
		Where("status = ? AND visibility = ?", domain.EventPublished, domain.EventPublic).
		Order("event_date ASC").
		Find(&events).Error
	if err != nil {
		return nil, mapError(err)
	}
	return events, nil
}

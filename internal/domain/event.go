package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
)

type EventVisibility string

const (
	EventPublic  EventVisibility = "public"
	EventPrivate EventVisibility = "private"
)

type Event struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrganizerID string    `gorm:"type:varchar(36);index;not null" json:"organizer_id"`
	Title       string    `gorm:"type:varchar(200);not null" json:"title" validate:"required"`
	Venue       string    `gorm:"type:varchar(255)" json:"venue"`
	EventDate   time.Time `json:"event_date"`
	TicketPrice float64   `gorm:"type:decimal(10,2);not null" json:"ticket_price" validate:"gt=0"`
	Capacity    int       `json:"capacity" validate:"gte=0"`

	Status     EventStatus     `gorm:"type:varchar(20);not null;default:'published';index" json:"status" validate:"oneof=draft published"`
	Visibility EventVisibility `gorm:"type:varchar(20);not null;default:'public'" json:"visibility" validate:"oneof=public private"`

	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// Listed reports whether attendees can discover the event.
func (e *Event) Listed() bool {
	return e.Status == EventPublished && e.Visibility == EventPublic
}

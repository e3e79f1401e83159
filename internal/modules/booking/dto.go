package booking

import "time"

type CreateBookingRequest struct {
	ProviderID  string    `json:"provider_id" binding:"required"`
	ServiceType string    `json:"service_type" binding:"required"`
	EventDate   time.Time `json:"event_date" binding:"required"`
	Amount      float64   `json:"amount" binding:"required,gt=0"`
}

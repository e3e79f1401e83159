package database

import (
	"fmt"

	"gorm.io/gorm"

	"ticketing/internal/domain"
)

// Both booking variants share domain.Booking; these wrappers give each table its own
// name so gorm derives distinct index names.
type serviceBooking struct{ domain.Booking }

func (serviceBooking) TableName() string { return domain.BookingKindService.BookingTable() }

type eventTicketBooking struct{ domain.Booking }

func (eventTicketBooking) TableName() string { return domain.BookingKindEventTicket.BookingTable() }

type serviceTransaction struct{ domain.PaymentTransaction }

func (serviceTransaction) TableName() string { return domain.BookingKindService.TransactionTable() }

type eventTicketTransaction struct{ domain.PaymentTransaction }

func (eventTicketTransaction) TableName() string {
	return domain.BookingKindEventTicket.TransactionTable()
}

func Migrate(db *gorm.DB) error {
	models := []interface{}{
		&domain.User{},
		&domain.Event{},
		&serviceBooking{},
		&eventTicketBooking{},
		&serviceTransaction{},
		&eventTicketTransaction{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %T: %w", m, err)
		}
	}
	return nil
}

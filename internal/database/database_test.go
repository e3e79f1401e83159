package database

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ticketing/internal/domain"
)

func TestMigrate_CreatesVariantTables(t *testing.T) {
	log, _ := test.NewNullLogger()
	db, err := Connect(":memory:", log)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	m := db.Migrator()
	for _, table := range []string{
		"users",
		"events",
		domain.BookingKindService.BookingTable(),
		domain.BookingKindEventTicket.BookingTable(),
		domain.BookingKindService.TransactionTable(),
		domain.BookingKindEventTicket.TransactionTable(),
	} {
		assert.True(t, m.HasTable(table), table)
	}
	assert.True(t, m.HasIndex(&eventTicketBooking{}, "QRCode"))
	assert.True(t, m.HasIndex(&serviceTransaction{}, "GatewayTransactionID"))
}

func TestConnect_RecordNotFoundIsNotLogged(t *testing.T) {
	log, hook := test.NewNullLogger()
	db, err := Connect(":memory:", log)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	hook.Reset()

	var u domain.User
	err = db.Where("id = ?", "missing").First(&u).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, hook.AllEntries())

	err = db.Exec("SELECT * FROM no_such_table").Error
	require.Error(t, err)
	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, "gorm", hook.LastEntry().Data["component"])
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// PaymentTransaction is an append-only audit record of one gateway payment attempt.
type PaymentTransaction struct {
	ID                   string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	Kind                 BookingKind       `gorm:"-" json:"kind"`
	BookingID            string            `gorm:"type:varchar(36);index;not null" json:"booking_id"`
	Amount               float64           `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status               TransactionStatus `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`
	PaymentMethod        string            `gorm:"type:varchar(20)" json:"payment_method"`
	GatewayTransactionID *string           `gorm:"type:varchar(64);uniqueIndex" json:"gateway_transaction_id,omitempty"`
	GatewayPaymentURL    string            `gorm:"type:text" json:"gateway_payment_url,omitempty"`
	GatewayResponse      datatypes.JSON    `json:"gateway_response,omitempty"`
	CompletedAt          *time.Time        `json:"completed_at,omitempty"`
	VerifiedAt           *time.Time        `json:"verified_at,omitempty"`
	FailureReason        string            `gorm:"type:text" json:"failure_reason,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

func (t *PaymentTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (t *PaymentTransaction) IsTerminal() bool {
	return t.Status == TransactionCompleted || t.Status == TransactionFailed
}

func (t *PaymentTransaction) Handle() string {
	if t.GatewayTransactionID == nil {
		return ""
	}
	return *t.GatewayTransactionID
}

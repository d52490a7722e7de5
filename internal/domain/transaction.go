package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionDebit  TransactionType = "DEBIT"
	TransactionCredit TransactionType = "CREDIT"
)

// TransactionStatus tracks the lifecycle of a ledger entry.
type TransactionStatus string

const (
	TransactionPending TransactionStatus = "PENDING"
	TransactionSuccess TransactionStatus = "SUCCESS"
	TransactionFailed  TransactionStatus = "FAILED"
)

// Transaction Model
//
// Reference is globally unique and is the idempotency key for gateway-funded
// credits. DonationID is nil for gateway-funding entries.
type Transaction struct {
	ID         string            `gorm:"type:char(36);primaryKey" json:"id"`
	WalletID   string            `gorm:"type:char(36);index;not null" json:"wallet_id"`
	Type       TransactionType   `gorm:"type:varchar(10);not null" json:"type"`
	Amount     decimal.Decimal   `gorm:"type:decimal(20,2);not null" json:"amount"`
	Reference  string            `gorm:"uniqueIndex;not null" json:"reference"`
	Status     TransactionStatus `gorm:"type:varchar(10);not null" json:"status"`
	DonationID *string           `gorm:"type:char(36);index" json:"donation_id,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// BeforeCreate assigns a fresh id when none was provided.
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

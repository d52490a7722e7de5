package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Donation Model
//
// A donation is the immutable record of one peer-to-peer transfer event.
// Every completed donation owns exactly two SUCCESS transactions: a DEBIT on
// the donor wallet and a CREDIT on the beneficiary wallet.
type Donation struct {
	ID            string          `gorm:"type:char(36);primaryKey" json:"id"`
	DonorID       string          `gorm:"type:char(36);index;not null" json:"donor_id"`
	BeneficiaryID string          `gorm:"type:char(36);index;not null" json:"beneficiary_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

// BeforeCreate assigns a fresh id when none was provided.
func (d *Donation) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

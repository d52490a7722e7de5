package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet Model
//
// Balance is a fixed-point decimal and never goes negative. It is mutated
// only inside the transfer engine's atomic unit or the webhook
// reconciliation, never directly by a handler.
type Wallet struct {
	ID        string          `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    string          `gorm:"type:char(36);uniqueIndex;not null" json:"user_id"` // One wallet per user
	Balance   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BeforeCreate assigns a fresh id when none was provided.
func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Beneficiary Model
//
// A saved donor-to-recipient relationship. Nickname is optional but must be
// unique per donor when set.
type Beneficiary struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID      string    `gorm:"type:char(36);not null;uniqueIndex:idx_beneficiary_nickname" json:"user_id"` // The donor who saved the entry
	RecipientID string    `gorm:"type:char(36);not null" json:"recipient_id"`                                 // The user money is sent to
	Nickname    *string   `gorm:"uniqueIndex:idx_beneficiary_nickname" json:"nickname,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns a fresh id when none was provided.
func (b *Beneficiary) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

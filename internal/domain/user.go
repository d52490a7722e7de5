package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User Model
type User struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`         // Unique login identity
	FirstName string    `gorm:"not null" json:"first_name"`                // Given name
	LastName  string    `gorm:"not null" json:"last_name"`                 // Family name
	Password  string    `gorm:"not null" json:"-"`                         // bcrypt hash
	Pin       string    `gorm:"not null" json:"-"`                         // bcrypt hash of the transaction PIN
	Wallet    Wallet    `gorm:"constraint:OnDelete:CASCADE" json:"wallet"` // One wallet per user
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName is the name used in notifications.
func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// BeforeCreate assigns a fresh id when none was provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

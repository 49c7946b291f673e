package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenType discriminates verification tokens from reset tokens sharing
// one table.
type TokenType string

const (
	TokenTypeEmailVerification TokenType = "email_verification"
	TokenTypePasswordReset     TokenType = "password_reset"
)

// AuthToken is a single-use opaque token mailed to a user for email
// verification or password reset. Invalid once used or past expiry.
type AuthToken struct {
	ID        uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Token     string     `json:"-" gorm:"uniqueIndex;size:128;not null"`
	UserID    uuid.UUID  `json:"user_id" gorm:"type:char(36);not null;index"`
	Type      TokenType  `json:"type" gorm:"type:varchar(32);not null;index"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	Used      bool       `json:"used" gorm:"default:false"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	// Relations
	User *User `json:"-" gorm:"foreignKey:UserID"`
}

// BeforeCreate sets UUID before creating the record.
func (t *AuthToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

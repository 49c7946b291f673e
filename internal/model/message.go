package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a note between a course leader and participants in the context
// of a course. A nil RecipientID marks a broadcast to all active participants.
type Message struct {
	ID          uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	CourseID    uuid.UUID  `json:"course_id" gorm:"type:char(36);not null;index"`
	SenderID    uuid.UUID  `json:"sender_id" gorm:"type:char(36);not null;index"`
	RecipientID *uuid.UUID `json:"recipient_id,omitempty" gorm:"type:char(36);index"`
	Content     string     `json:"content" gorm:"type:text;not null"`
	IsBroadcast bool       `json:"is_broadcast" gorm:"default:false"`
	// Read only applies to direct messages. A broadcast is a single row
	// shared by all participants, so it carries no per-recipient read state
	// and cannot be marked read.
	Read bool `json:"read" gorm:"default:false"`
	CreatedAt   time.Time  `json:"created_at"`

	// Relations
	Course    *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	Sender    *User   `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
	Recipient *User   `json:"recipient,omitempty" gorm:"foreignKey:RecipientID"`
}

// BeforeCreate sets UUID before creating the record.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

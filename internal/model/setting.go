package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Well-known global setting keys.
const (
	SettingCancellationDeadlineHours = "cancellation_deadline_hours"
	SettingDefaultMaxParticipants    = "default_max_participants"
	SettingForgotPasswordEnabled     = "forgot_password_enabled"
	SettingRegistrationEmailEnabled  = "registration_email_enabled"
)

// GlobalSetting is a singleton-per-key studio-wide setting, upserted by admins.
type GlobalSetting struct {
	ID        uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	Key       string         `json:"key" gorm:"uniqueIndex;size:128;not null"`
	Value     datatypes.JSON `json:"value" gorm:"not null"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (s *GlobalSetting) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

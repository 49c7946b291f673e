package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegistrationStatus represents the enrollment state of a registration.
type RegistrationStatus string

const (
	RegistrationStatusRegistered RegistrationStatus = "registered"
	RegistrationStatusWaitlist   RegistrationStatus = "waitlist"
)

// Registration links a user to a course. Cancellation is a soft state
// (CancelledAt set) so the booking history survives; at most one active
// registration may exist per (user, course).
type Registration struct {
	ID               uuid.UUID          `json:"id" gorm:"type:char(36);primaryKey"`
	CourseID         uuid.UUID          `json:"course_id" gorm:"type:char(36);not null;index:idx_course_user"`
	UserID           uuid.UUID          `json:"user_id" gorm:"type:char(36);not null;index:idx_course_user"`
	Status           RegistrationStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	IsWaitlist       bool               `json:"is_waitlist" gorm:"default:false"`
	WaitlistPosition *int               `json:"waitlist_position,omitempty"`
	SignupAt         time.Time          `json:"signup_timestamp"`
	CancelledAt      *time.Time         `json:"cancellation_timestamp,omitempty" gorm:"index"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`

	// Relations
	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	User   *User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// BeforeCreate sets UUID and signup timestamp before creating the record.
func (r *Registration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.SignupAt.IsZero() {
		r.SignupAt = time.Now()
	}
	return nil
}

// Active reports whether the registration has not been cancelled.
func (r *Registration) Active() bool {
	return r.CancelledAt == nil
}

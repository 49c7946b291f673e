package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CourseStatus represents the lifecycle state of a course instance.
type CourseStatus string

const (
	CourseStatusActive     CourseStatus = "active"
	CourseStatusCanceled   CourseStatus = "canceled"
	CourseStatusNotPlanned CourseStatus = "not_planned"
)

// CourseFrequency distinguishes one-off courses from weekly series.
type CourseFrequency string

const (
	FrequencyOneTime CourseFrequency = "one_time"
	FrequencyWeekly  CourseFrequency = "weekly"
)

// Course represents a single scheduled class. Recurring courses are plain
// instances sharing a SeriesID; there is no recurrence rule engine.
type Course struct {
	ID              uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	Title           string          `json:"title" gorm:"size:255;not null;index"`
	Description     string          `json:"description" gorm:"type:text"`
	Date            time.Time       `json:"date" gorm:"not null;index"`
	StartTime       string          `json:"start_time" gorm:"size:5;not null"` // HH:MM
	EndTime         string          `json:"end_time" gorm:"size:5"`
	DurationMinutes int             `json:"duration" gorm:"default:0"`
	Location        string          `json:"location" gorm:"size:255"`
	Room            string          `json:"room" gorm:"size:255"`
	MaxParticipants int             `json:"max_participants" gorm:"not null"`
	Price           decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null;default:0"`
	Prerequisites   string          `json:"prerequisites" gorm:"type:text"`
	TeacherID       uuid.UUID       `json:"teacher_id" gorm:"type:char(36);not null;index"`
	SeriesID        *uuid.UUID      `json:"series_id,omitempty" gorm:"type:char(36);index"`
	Frequency       CourseFrequency `json:"frequency" gorm:"type:varchar(20);not null;default:'one_time'"`
	Status          CourseStatus    `json:"status" gorm:"type:varchar(20);not null;default:'active';index"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `json:"-" gorm:"index"`

	// Relations
	Teacher       *User          `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Registrations []Registration `json:"registrations,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// StartsAt combines the course date and start time into one timestamp.
// A malformed start time falls back to midnight of the course date.
func (c *Course) StartsAt() time.Time {
	t, err := time.Parse("15:04", c.StartTime)
	if err != nil {
		return c.Date
	}
	return time.Date(c.Date.Year(), c.Date.Month(), c.Date.Day(),
		t.Hour(), t.Minute(), 0, 0, c.Date.Location())
}

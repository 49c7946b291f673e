package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role is a capability granted to a user. Users hold a set of roles rather
// than a single one: a course leader may also attend courses as a participant.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleCourseLeader Role = "course_leader"
	RoleParticipant  Role = "participant"
)

// User represents a studio member: participant, course leader, or admin.
type User struct {
	ID              uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	Email           string         `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash    string         `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	FirstName       string         `json:"first_name" gorm:"size:255;not null"`
	LastName        string         `json:"last_name" gorm:"size:255;not null"`
	Street          string         `json:"street" gorm:"size:255"`
	HouseNumber     string         `json:"house_number" gorm:"size:32"`
	PostalCode      string         `json:"postal_code" gorm:"size:16"`
	City            string         `json:"city" gorm:"size:255"`
	Phone           string         `json:"phone" gorm:"size:64"`
	Roles           datatypes.JSON `json:"roles" gorm:"not null"`
	GDPRConsent     bool           `json:"gdpr_consent" gorm:"default:false"`
	GDPRConsentAt   *time.Time     `json:"gdpr_consent_date,omitempty"`
	EmailVerified   bool           `json:"email_verified" gorm:"default:false;index"`
	EmailVerifiedAt *time.Time     `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Registrations []Registration `json:"registrations,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID and a default role set before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if len(u.Roles) == 0 {
		u.Roles = MarshalRoles([]Role{RoleParticipant})
	}
	return nil
}

// RoleSet decodes the stored roles column into a slice.
func (u *User) RoleSet() []Role {
	var roles []Role
	if err := json.Unmarshal(u.Roles, &roles); err != nil {
		return nil
	}
	return roles
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(role Role) bool {
	for _, r := range u.RoleSet() {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.HasRole(RoleAdmin) }

// IsCourseLeader reports whether the user holds the course_leader role.
func (u *User) IsCourseLeader() bool { return u.HasRole(RoleCourseLeader) }

// FullName joins first and last name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// MarshalRoles encodes a role set for the JSON column.
func MarshalRoles(roles []Role) datatypes.JSON {
	data, err := json.Marshal(roles)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return data
}

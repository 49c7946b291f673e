package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursebook/internal/errors"
	"coursebook/internal/model"
	"coursebook/internal/repository"
)

// RegistrationResult is the structured outcome of a register or unregister
// call. Expected business conditions (already registered, deadline passed,
// nothing to cancel) come back as Success=false with a user-facing message
// rather than an error.
type RegistrationResult struct {
	Success          bool                     `json:"success"`
	Status           model.RegistrationStatus `json:"status,omitempty"`
	WaitlistPosition *int                     `json:"waitlist_position,omitempty"`
	Promoted         *model.Registration      `json:"promoted,omitempty"`
	Message          string                   `json:"message"`
}

// RegistrationService implements capacity-bounded enrollment with automatic
// waitlist promotion.
type RegistrationService interface {
	Register(ctx context.Context, courseID, userID uuid.UUID) (*RegistrationResult, error)
	Unregister(ctx context.Context, courseID, userID uuid.UUID) (*RegistrationResult, error)
	ListByCourse(ctx context.Context, actor *model.User, courseID uuid.UUID) ([]model.Registration, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]model.Registration, error)
}

type registrationService struct {
	regRepo    repository.RegistrationRepository
	courseRepo repository.CourseRepository
	settings   SettingsService
}

// NewRegistrationService creates a new registration service.
func NewRegistrationService(regRepo repository.RegistrationRepository, courseRepo repository.CourseRepository, settings SettingsService) RegistrationService {
	return &registrationService{regRepo: regRepo, courseRepo: courseRepo, settings: settings}
}

// Register enrolls a user in a course, or appends them to the waitlist when
// the course is full. The whole check-and-insert runs inside a transaction
// holding the course row lock, so at most MaxParticipants rows can ever hold
// registered status no matter how many attempts race.
func (s *registrationService) Register(ctx context.Context, courseID, userID uuid.UUID) (*RegistrationResult, error) {
	var result *RegistrationResult

	err := s.regRepo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.RegistrationRepository) error {
		course, err := txRepo.LockCourse(ctx, courseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrCourseNotFound
			}
			return fmt.Errorf("lock course: %w", err)
		}

		if course.Status != model.CourseStatusActive {
			result = &RegistrationResult{
				Success: false,
				Message: "This course is not open for registration",
			}
			return nil
		}

		if _, err := txRepo.FindActive(ctx, courseID, userID); err == nil {
			result = &RegistrationResult{
				Success: false,
				Message: "You are already registered for this course",
			}
			return nil
		} else if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("check existing registration: %w", err)
		}

		registered, err := txRepo.CountActiveRegistered(ctx, courseID)
		if err != nil {
			return fmt.Errorf("count registered: %w", err)
		}

		reg := &model.Registration{
			CourseID: courseID,
			UserID:   userID,
			SignupAt: time.Now(),
		}

		if registered < int64(course.MaxParticipants) {
			reg.Status = model.RegistrationStatusRegistered
			reg.IsWaitlist = false
		} else {
			maxPos, err := txRepo.MaxWaitlistPosition(ctx, courseID)
			if err != nil {
				return fmt.Errorf("max waitlist position: %w", err)
			}
			pos := maxPos + 1
			reg.Status = model.RegistrationStatusWaitlist
			reg.IsWaitlist = true
			reg.WaitlistPosition = &pos
		}

		if err := txRepo.Create(ctx, reg); err != nil {
			return fmt.Errorf("create registration: %w", err)
		}

		if reg.IsWaitlist {
			result = &RegistrationResult{
				Success:          true,
				Status:           reg.Status,
				WaitlistPosition: reg.WaitlistPosition,
				Message:          fmt.Sprintf("Course is full, you are on the waitlist at position %d", *reg.WaitlistPosition),
			}
		} else {
			result = &RegistrationResult{
				Success: true,
				Status:  reg.Status,
				Message: "Successfully registered",
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return result, nil
}

// Unregister cancels the caller's active registration. Cancelling a held
// seat promotes the earliest-positioned active waitlist row; later rows keep
// their positions, so the next signup takes position 1 when the waitlist
// emptied out.
func (s *registrationService) Unregister(ctx context.Context, courseID, userID uuid.UUID) (*RegistrationResult, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	var result *RegistrationResult

	err = s.regRepo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.RegistrationRepository) error {
		course, err := txRepo.LockCourse(ctx, courseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrCourseNotFound
			}
			return fmt.Errorf("lock course: %w", err)
		}

		reg, err := txRepo.FindActive(ctx, courseID, userID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				result = &RegistrationResult{
					Success: false,
					Message: "No active registration found for this course",
				}
				return nil
			}
			return fmt.Errorf("find registration: %w", err)
		}

		if settings.CancellationDeadlineHours > 0 {
			deadline := course.StartsAt().Add(-time.Duration(settings.CancellationDeadlineHours) * time.Hour)
			if time.Now().After(deadline) {
				result = &RegistrationResult{
					Success: false,
					Message: fmt.Sprintf("Cancellation is no longer possible within %d hours of the course start", settings.CancellationDeadlineHours),
				}
				return nil
			}
		}

		now := time.Now()
		hadSeat := reg.Status == model.RegistrationStatusRegistered
		reg.CancelledAt = &now
		if err := txRepo.Update(ctx, reg); err != nil {
			return fmt.Errorf("cancel registration: %w", err)
		}

		result = &RegistrationResult{
			Success: true,
			Message: "Registration cancelled",
		}

		if !hadSeat {
			return nil
		}

		// The freed seat goes to the head of the waitlist, if any.
		next, err := txRepo.FirstActiveWaitlisted(ctx, courseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return fmt.Errorf("find waitlist head: %w", err)
		}

		next.Status = model.RegistrationStatusRegistered
		next.IsWaitlist = false
		next.WaitlistPosition = nil
		if err := txRepo.Update(ctx, next); err != nil {
			return fmt.Errorf("promote waitlist head: %w", err)
		}
		result.Promoted = next
		return nil
	})

	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListByCourse returns the active registrations of a course. The participant
// list carries personal data, so it is restricted to the course's own leader
// and to admins.
func (s *registrationService) ListByCourse(ctx context.Context, actor *model.User, courseID uuid.UUID) ([]model.Registration, error) {
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	if !actor.IsAdmin() && course.TeacherID != actor.ID {
		return nil, errors.ErrForbidden
	}
	return s.regRepo.ListActiveByCourse(ctx, courseID)
}

func (s *registrationService) ListMine(ctx context.Context, userID uuid.UUID) ([]model.Registration, error) {
	return s.regRepo.ListActiveByUser(ctx, userID)
}

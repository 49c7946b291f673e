package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursebook/internal/model"
)

// RegistrationRepository defines registration persistence operations.
// LockCourse acquires the per-course row lock that serializes concurrent
// enrollment attempts; it only has the intended effect inside WithTransaction.
type RegistrationRepository interface {
	Create(ctx context.Context, reg *model.Registration) error
	Update(ctx context.Context, reg *model.Registration) error
	FindActive(ctx context.Context, courseID, userID uuid.UUID) (*model.Registration, error)
	CountActiveRegistered(ctx context.Context, courseID uuid.UUID) (int64, error)
	CountActiveWaitlisted(ctx context.Context, courseID uuid.UUID) (int64, error)
	MaxWaitlistPosition(ctx context.Context, courseID uuid.UUID) (int, error)
	FirstActiveWaitlisted(ctx context.Context, courseID uuid.UUID) (*model.Registration, error)
	ListActiveByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Registration, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.Registration, error)
	CountActive(ctx context.Context) (int64, error)
	LockCourse(ctx context.Context, courseID uuid.UUID) (*model.Course, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo RegistrationRepository) error) error
}

type registrationRepository struct {
	db *gorm.DB
}

// NewRegistrationRepository creates a new registration repository.
func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

func (r *registrationRepository) Create(ctx context.Context, reg *model.Registration) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *registrationRepository) Update(ctx context.Context, reg *model.Registration) error {
	return r.db.WithContext(ctx).Save(reg).Error
}

// FindActive finds the non-cancelled registration for a (course, user) pair.
func (r *registrationRepository) FindActive(ctx context.Context, courseID, userID uuid.UUID) (*model.Registration, error) {
	var reg model.Registration
	if err := r.db.WithContext(ctx).
		Where("course_id = ? AND user_id = ? AND cancelled_at IS NULL", courseID, userID).
		First(&reg).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

// CountActiveRegistered counts registrations holding a real seat.
func (r *registrationRepository) CountActiveRegistered(ctx context.Context, courseID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Registration{}).
		Where("course_id = ? AND status = ? AND cancelled_at IS NULL",
			courseID, model.RegistrationStatusRegistered).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountActiveWaitlisted counts active waitlist rows. Distinct from the max
// position: positions keep their values after head promotions.
func (r *registrationRepository) CountActiveWaitlisted(ctx context.Context, courseID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Registration{}).
		Where("course_id = ? AND status = ? AND cancelled_at IS NULL",
			courseID, model.RegistrationStatusWaitlist).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// MaxWaitlistPosition returns the highest position among active waitlist
// rows, or 0 when the waitlist is empty.
func (r *registrationRepository) MaxWaitlistPosition(ctx context.Context, courseID uuid.UUID) (int, error) {
	var max *int
	if err := r.db.WithContext(ctx).Model(&model.Registration{}).
		Where("course_id = ? AND status = ? AND cancelled_at IS NULL",
			courseID, model.RegistrationStatusWaitlist).
		Select("MAX(waitlist_position)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// FirstActiveWaitlisted returns the minimum-position active waitlist row,
// which defines promotion order.
func (r *registrationRepository) FirstActiveWaitlisted(ctx context.Context, courseID uuid.UUID) (*model.Registration, error) {
	var reg model.Registration
	if err := r.db.WithContext(ctx).
		Where("course_id = ? AND status = ? AND cancelled_at IS NULL",
			courseID, model.RegistrationStatusWaitlist).
		Order("waitlist_position").
		First(&reg).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepository) ListActiveByCourse(ctx context.Context, courseID uuid.UUID) ([]model.Registration, error) {
	var regs []model.Registration
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("course_id = ? AND cancelled_at IS NULL", courseID).
		Order("is_waitlist, waitlist_position, signup_at").
		Find(&regs).Error; err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *registrationRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.Registration, error) {
	var regs []model.Registration
	if err := r.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ? AND cancelled_at IS NULL", userID).
		Order("signup_at DESC").
		Find(&regs).Error; err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *registrationRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Registration{}).
		Where("cancelled_at IS NULL").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// LockCourse fetches the course row with a row-level lock for update.
func (r *registrationRepository) LockCourse(ctx context.Context, courseID uuid.UUID) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).Set("gorm:query_option", "FOR UPDATE").
		Where("id = ?", courseID).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// WithTransaction executes a function within a database transaction.
func (r *registrationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo RegistrationRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &registrationRepository{db: tx}
		return fn(ctx, txRepo)
	})
}

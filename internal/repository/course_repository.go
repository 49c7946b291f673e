package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursebook/internal/model"
)

// CourseRepository defines course persistence operations.
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	CreateBatch(ctx context.Context, courses []model.Course) error
	Update(ctx context.Context, course *model.Course) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	UpdateSeriesFields(ctx context.Context, seriesID uuid.UUID, fields map[string]interface{}) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Course, error)
	FindByIDWithRegistrations(ctx context.Context, id uuid.UUID) (*model.Course, error)
	ListUpcoming(ctx context.Context, from time.Time) ([]model.Course, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]model.Course, error)
	ListBySeries(ctx context.Context, seriesID uuid.UUID) ([]model.Course, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteBySeries(ctx context.Context, seriesID uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	CountUpcoming(ctx context.Context, from time.Time) (int64, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

// CreateBatch inserts all instances of a series in one transaction.
func (r *courseRepository) CreateBatch(ctx context.Context, courses []model.Course) error {
	if len(courses) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(courses, 52).Error
}

func (r *courseRepository) Update(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

func (r *courseRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Course{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// UpdateSeriesFields applies the same change to every instance of a series.
func (r *courseRepository) UpdateSeriesFields(ctx context.Context, seriesID uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Course{}).
		Where("series_id = ?", seriesID).
		Updates(fields).Error
}

func (r *courseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByIDWithRegistrations loads a course together with its active
// registrations and their users, waitlist last.
func (r *courseRepository) FindByIDWithRegistrations(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).
		Preload("Registrations", func(db *gorm.DB) *gorm.DB {
			return db.Where("cancelled_at IS NULL").Order("is_waitlist, waitlist_position")
		}).
		Preload("Registrations.User").
		Where("id = ?", id).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) ListUpcoming(ctx context.Context, from time.Time) ([]model.Course, error) {
	var courses []model.Course
	if err := r.db.WithContext(ctx).
		Where("status = ? AND date >= ?", model.CourseStatusActive, from).
		Order("date, start_time").
		Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]model.Course, error) {
	var courses []model.Course
	if err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("date, start_time").
		Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) ListBySeries(ctx context.Context, seriesID uuid.UUID) ([]model.Course, error) {
	var courses []model.Course
	if err := r.db.WithContext(ctx).
		Where("series_id = ?", seriesID).
		Order("date").
		Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

// Delete removes a course and its registrations.
func (r *courseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", id).Delete(&model.Registration{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Course{}).Error
	})
}

// DeleteBySeries removes every instance of a series and their registrations.
func (r *courseRepository) DeleteBySeries(ctx context.Context, seriesID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&model.Course{}).
			Where("series_id = ?", seriesID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("course_id IN ?", ids).Delete(&model.Registration{}).Error; err != nil {
			return err
		}
		return tx.Where("series_id = ?", seriesID).Delete(&model.Course{}).Error
	})
}

func (r *courseRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Course{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *courseRepository) CountUpcoming(ctx context.Context, from time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Course{}).
		Where("status = ? AND date >= ?", model.CourseStatusActive, from).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

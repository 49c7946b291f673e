package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"coursebook/internal/errors"
	"coursebook/internal/model"
	"coursebook/internal/repository"
)

// UpdateScope selects whether a mutation touches one instance or the whole
// series sharing its SeriesID.
type UpdateScope string

const (
	ScopeSingle UpdateScope = "single"
	ScopeSeries UpdateScope = "series"
)

// CourseInput carries the course form fields.
type CourseInput struct {
	Title           string
	Description     string
	Date            time.Time
	StartTime       string
	EndTime         string
	DurationMinutes int
	Location        string
	Room            string
	MaxParticipants int
	Price           decimal.Decimal
	Prerequisites   string
	Frequency       model.CourseFrequency
	// Occurrences is the number of weekly instances to create; ignored for
	// one-time courses.
	Occurrences int
}

// CourseWithAvailability decorates a course with live seat counts.
type CourseWithAvailability struct {
	model.Course
	RegisteredCount int `json:"registered_count"`
	AvailableSpots  int `json:"available_spots"`
	WaitlistCount   int `json:"waitlist_count"`
}

// CourseService handles course management for leaders and admins.
type CourseService interface {
	Create(ctx context.Context, actor *model.User, input CourseInput) ([]model.Course, error)
	Update(ctx context.Context, actor *model.User, courseID uuid.UUID, input CourseInput, scope UpdateScope) error
	SetStatus(ctx context.Context, actor *model.User, courseID uuid.UUID, status model.CourseStatus, scope UpdateScope) error
	Delete(ctx context.Context, actor *model.User, courseID uuid.UUID, scope UpdateScope) error
	Get(ctx context.Context, courseID uuid.UUID) (*CourseWithAvailability, error)
	ListCatalog(ctx context.Context) ([]CourseWithAvailability, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]model.Course, error)
}

type courseService struct {
	courseRepo repository.CourseRepository
	regRepo    repository.RegistrationRepository
	settings   SettingsService
}

// NewCourseService creates a new course service.
func NewCourseService(
	courseRepo repository.CourseRepository,
	regRepo repository.RegistrationRepository,
	settings SettingsService,
) CourseService {
	return &courseService{
		courseRepo: courseRepo,
		regRepo:    regRepo,
		settings:   settings,
	}
}

// canManage reports whether the actor may create courses at all.
func canManage(actor *model.User) bool {
	return actor.IsAdmin() || actor.IsCourseLeader()
}

// canMutate reports whether the actor may change the given course.
func canMutate(actor *model.User, course *model.Course) bool {
	return actor.IsAdmin() || course.TeacherID == actor.ID
}

// Create inserts a course, or a batch of weekly instances sharing one
// SeriesID. A zero capacity falls back to the studio default.
func (s *courseService) Create(ctx context.Context, actor *model.User, input CourseInput) ([]model.Course, error) {
	if !canManage(actor) {
		return nil, errors.ErrForbidden
	}

	if input.MaxParticipants <= 0 {
		settings, err := s.settings.Load(ctx)
		if err != nil {
			return nil, err
		}
		input.MaxParticipants = settings.DefaultMaxParticipants
	}

	base := model.Course{
		Title:           input.Title,
		Description:     input.Description,
		Date:            input.Date,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
		DurationMinutes: input.DurationMinutes,
		Location:        input.Location,
		Room:            input.Room,
		MaxParticipants: input.MaxParticipants,
		Price:           input.Price,
		Prerequisites:   input.Prerequisites,
		TeacherID:       actor.ID,
		Frequency:       input.Frequency,
		Status:          model.CourseStatusActive,
	}

	if input.Frequency != model.FrequencyWeekly || input.Occurrences <= 1 {
		base.Frequency = model.FrequencyOneTime
		if err := s.courseRepo.Create(ctx, &base); err != nil {
			return nil, fmt.Errorf("create course: %w", err)
		}
		return []model.Course{base}, nil
	}

	seriesID := uuid.New()
	courses := make([]model.Course, 0, input.Occurrences)
	for i := 0; i < input.Occurrences; i++ {
		instance := base
		instance.ID = uuid.New()
		instance.SeriesID = &seriesID
		instance.Date = input.Date.AddDate(0, 0, 7*i)
		courses = append(courses, instance)
	}

	if err := s.courseRepo.CreateBatch(ctx, courses); err != nil {
		return nil, fmt.Errorf("create course series: %w", err)
	}
	return courses, nil
}

// Update applies the form fields to one instance or the whole series.
func (s *courseService) Update(ctx context.Context, actor *model.User, courseID uuid.UUID, input CourseInput, scope UpdateScope) error {
	course, err := s.findForMutation(ctx, actor, courseID)
	if err != nil {
		return err
	}

	fields := map[string]interface{}{
		"title":            input.Title,
		"description":      input.Description,
		"start_time":       input.StartTime,
		"end_time":         input.EndTime,
		"duration_minutes": input.DurationMinutes,
		"location":         input.Location,
		"room":             input.Room,
		"max_participants": input.MaxParticipants,
		"price":            input.Price,
		"prerequisites":    input.Prerequisites,
	}

	if scope == ScopeSeries && course.SeriesID != nil {
		// The date stays per-instance; everything else applies series-wide.
		return s.courseRepo.UpdateSeriesFields(ctx, *course.SeriesID, fields)
	}

	fields["date"] = input.Date
	return s.courseRepo.UpdateFields(ctx, courseID, fields)
}

// SetStatus changes course status (e.g. cancels a class) for one instance
// or the whole series.
func (s *courseService) SetStatus(ctx context.Context, actor *model.User, courseID uuid.UUID, status model.CourseStatus, scope UpdateScope) error {
	course, err := s.findForMutation(ctx, actor, courseID)
	if err != nil {
		return err
	}

	fields := map[string]interface{}{"status": status}
	if scope == ScopeSeries && course.SeriesID != nil {
		return s.courseRepo.UpdateSeriesFields(ctx, *course.SeriesID, fields)
	}
	return s.courseRepo.UpdateFields(ctx, courseID, fields)
}

// Delete removes one instance or the whole series, registrations included.
func (s *courseService) Delete(ctx context.Context, actor *model.User, courseID uuid.UUID, scope UpdateScope) error {
	course, err := s.findForMutation(ctx, actor, courseID)
	if err != nil {
		return err
	}

	if scope == ScopeSeries && course.SeriesID != nil {
		return s.courseRepo.DeleteBySeries(ctx, *course.SeriesID)
	}
	return s.courseRepo.Delete(ctx, courseID)
}

func (s *courseService) findForMutation(ctx context.Context, actor *model.User, courseID uuid.UUID) (*model.Course, error) {
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	if !canMutate(actor, course) {
		return nil, errors.ErrNotCourseOwner
	}
	return course, nil
}

// Get loads a course with its live seat counts.
func (s *courseService) Get(ctx context.Context, courseID uuid.UUID) (*CourseWithAvailability, error) {
	course, err := s.courseRepo.FindByIDWithRegistrations(ctx, courseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return decorate(course), nil
}

// ListCatalog lists upcoming active courses with availability.
func (s *courseService) ListCatalog(ctx context.Context) ([]CourseWithAvailability, error) {
	today := time.Now().Truncate(24 * time.Hour)
	courses, err := s.courseRepo.ListUpcoming(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	out := make([]CourseWithAvailability, 0, len(courses))
	for i := range courses {
		registered, err := s.regRepo.CountActiveRegistered(ctx, courses[i].ID)
		if err != nil {
			return nil, fmt.Errorf("count registered: %w", err)
		}
		waitlisted, err := s.regRepo.CountActiveWaitlisted(ctx, courses[i].ID)
		if err != nil {
			return nil, fmt.Errorf("count waitlist: %w", err)
		}
		available := courses[i].MaxParticipants - int(registered)
		if available < 0 {
			available = 0
		}
		out = append(out, CourseWithAvailability{
			Course:          courses[i],
			RegisteredCount: int(registered),
			AvailableSpots:  available,
			WaitlistCount:   int(waitlisted),
		})
	}
	return out, nil
}

func (s *courseService) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]model.Course, error) {
	return s.courseRepo.ListByTeacher(ctx, teacherID)
}

func decorate(course *model.Course) *CourseWithAvailability {
	registered := 0
	waitlisted := 0
	for _, reg := range course.Registrations {
		if !reg.Active() {
			continue
		}
		if reg.Status == model.RegistrationStatusRegistered {
			registered++
		} else {
			waitlisted++
		}
	}
	available := course.MaxParticipants - registered
	if available < 0 {
		available = 0
	}
	return &CourseWithAvailability{
		Course:          *course,
		RegisteredCount: registered,
		AvailableSpots:  available,
		WaitlistCount:   waitlisted,
	}
}

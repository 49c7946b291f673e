package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"coursebook/internal/errors"
	"coursebook/internal/model"
)

func activeCourse(capacity int, startsIn time.Duration) *model.Course {
	start := time.Now().Add(startsIn)
	return &model.Course{
		ID:              uuid.New(),
		Title:           "Vinyasa Flow",
		Date:            time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location()),
		StartTime:       start.Format("15:04"),
		MaxParticipants: capacity,
		Status:          model.CourseStatusActive,
	}
}

func TestRegistrationService_Register(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name             string
		setupMock        func(*MockRegistrationRepository, *model.Course)
		expectedError    error
		expectSuccess    bool
		expectedStatus   model.RegistrationStatus
		expectedPosition *int
	}{
		{
			name: "seat available",
			setupMock: func(m *MockRegistrationRepository, course *model.Course) {
				m.On("LockCourse", mock.Anything, course.ID).Return(course, nil)
				m.On("FindActive", mock.Anything, course.ID, userID).Return(nil, gorm.ErrRecordNotFound)
				m.On("CountActiveRegistered", mock.Anything, course.ID).Return(int64(2), nil)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.Registration")).Return(nil)
			},
			expectSuccess:  true,
			expectedStatus: model.RegistrationStatusRegistered,
		},
		{
			name: "course full goes to waitlist",
			setupMock: func(m *MockRegistrationRepository, course *model.Course) {
				m.On("LockCourse", mock.Anything, course.ID).Return(course, nil)
				m.On("FindActive", mock.Anything, course.ID, userID).Return(nil, gorm.ErrRecordNotFound)
				m.On("CountActiveRegistered", mock.Anything, course.ID).Return(int64(3), nil)
				m.On("MaxWaitlistPosition", mock.Anything, course.ID).Return(2, nil)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.Registration")).Return(nil)
			},
			expectSuccess:    true,
			expectedStatus:   model.RegistrationStatusWaitlist,
			expectedPosition: intPtr(3),
		},
		{
			name: "empty waitlist starts at position one",
			setupMock: func(m *MockRegistrationRepository, course *model.Course) {
				m.On("LockCourse", mock.Anything, course.ID).Return(course, nil)
				m.On("FindActive", mock.Anything, course.ID, userID).Return(nil, gorm.ErrRecordNotFound)
				m.On("CountActiveRegistered", mock.Anything, course.ID).Return(int64(3), nil)
				m.On("MaxWaitlistPosition", mock.Anything, course.ID).Return(0, nil)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.Registration")).Return(nil)
			},
			expectSuccess:    true,
			expectedStatus:   model.RegistrationStatusWaitlist,
			expectedPosition: intPtr(1),
		},
		{
			name: "already registered",
			setupMock: func(m *MockRegistrationRepository, course *model.Course) {
				m.On("LockCourse", mock.Anything, course.ID).Return(course, nil)
				m.On("FindActive", mock.Anything, course.ID, userID).Return(&model.Registration{
					CourseID: course.ID,
					UserID:   userID,
					Status:   model.RegistrationStatusRegistered,
				}, nil)
			},
			expectSuccess: false,
		},
		{
			name: "course not active",
			setupMock: func(m *MockRegistrationRepository, course *model.Course) {
				course.Status = model.CourseStatusCanceled
				m.On("LockCourse", mock.Anything, course.ID).Return(course, nil)
			},
			expectSuccess: false,
		},
		{
			name: "course not found",
			setupMock: func(m *MockRegistrationRepository, course *model.Course) {
				m.On("LockCourse", mock.Anything, course.ID).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: errors.ErrCourseNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			course := activeCourse(3, 72*time.Hour)
			mockRepo := new(MockRegistrationRepository)
			tt.setupMock(mockRepo, course)

			mockSettings := new(MockSettingsService)
			service := NewRegistrationService(mockRepo, new(MockCourseRepository), mockSettings)

			result, err := service.Register(context.Background(), course.ID, userID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, result)
				assert.Equal(t, tt.expectSuccess, result.Success)
				if tt.expectSuccess {
					assert.Equal(t, tt.expectedStatus, result.Status)
				}
				if tt.expectedPosition != nil {
					assert.NotNil(t, result.WaitlistPosition)
					assert.Equal(t, *tt.expectedPosition, *result.WaitlistPosition)
				}
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestRegistrationService_RegisterNeverExceedsCapacity(t *testing.T) {
	// With the course row locked, the registered count seen inside the
	// transaction is authoritative. At capacity the new row must be a
	// waitlist row, never a seat.
	course := activeCourse(1, 72*time.Hour)
	userID := uuid.New()

	mockRepo := new(MockRegistrationRepository)
	mockRepo.On("LockCourse", mock.Anything, course.ID).Return(course, nil)
	mockRepo.On("FindActive", mock.Anything, course.ID, userID).Return(nil, gorm.ErrRecordNotFound)
	mockRepo.On("CountActiveRegistered", mock.Anything, course.ID).Return(int64(1), nil)
	mockRepo.On("MaxWaitlistPosition", mock.Anything, course.ID).Return(0, nil)

	var created *model.Registration
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Registration")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*model.Registration)
		}).Return(nil)

	service := NewRegistrationService(mockRepo, new(MockCourseRepository), new(MockSettingsService))
	result, err := service.Register(context.Background(), course.ID, userID)

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotNil(t, created)
	assert.Equal(t, model.RegistrationStatusWaitlist, created.Status)
	assert.True(t, created.IsWaitlist)
	assert.Equal(t, 1, *created.WaitlistPosition)
	mockRepo.AssertExpectations(t)
}

func TestRegistrationService_Unregister(t *testing.T) {
	userID := uuid.New()
	settings := Settings{CancellationDeadlineHours: 24, DefaultMaxParticipants: 10}

	t.Run("cancelling a seat promotes the waitlist head", func(t *testing.T) {
		course := activeCourse(1, 72*time.Hour)
		pos := 1
		head := &model.Registration{
			ID:               uuid.New(),
			CourseID:         course.ID,
			UserID:           uuid.New(),
			Status:           model.RegistrationStatusWaitlist,
			IsWaitlist:       true,
			WaitlistPosition: &pos,
		}

		mockRepo := new(MockRegistrationRepository)
		mockRepo.On("LockCourse", mock.Anything, course.ID).Return(course, nil)
		mockRepo.On("FindActive", mock.Anything, course.ID, userID).Return(&model.Registration{
			ID:       uuid.New(),
			CourseID: course.ID,
			UserID:   userID,
			Status:   model.RegistrationStatusRegistered,
		}, nil)
		mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.Registration")).Return(nil)
		mockRepo.On("FirstActiveWaitlisted", mock.Anything, course.ID).Return(head, nil)

		mockSettings := new(MockSettingsService)
		mockSettings.On("Load", mock.Anything).Return(settings, nil)

		service := NewRegistrationService(mockRepo, new(MockCourseRepository), mockSettings)
		result, err := service.Unregister(context.Background(), course.ID, userID)

		assert.NoError(t, err)
		assert.True(t, result.Success)
		assert.NotNil(t, result.Promoted)
		assert.Equal(t, model.RegistrationStatusRegistered, result.Promoted.Status)
		assert.False(t, result.Promoted.IsWaitlist)
		assert.Nil(t, result.Promoted.WaitlistPosition)
		mockRepo.AssertExpectations(t)
	})

	t.Run("cancelling a waitlist spot promotes nobody", func(t *testing.T) {
		course := activeCourse(1, 72*time.Hour)
		pos := 2

		mockRepo := new(MockRegistrationRepository)
		mockRepo.On("LockCourse", mock.Anything, course.ID).Return(course, nil)
		mockRepo.On("FindActive", mock.Anything, course.ID, userID).Return(&model.Registration{
			ID:               uuid.New(),
			CourseID:         course.ID,
			UserID:           userID,
			Status:           model.RegistrationStatusWaitlist,
			IsWaitlist:       true,
			WaitlistPosition: &pos,
		}, nil)
		mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.Registration")).Return(nil)

		mockSettings := new(MockSettingsService)
		mockSettings.On("Load", mock.Anything).Return(settings, nil)

		service := NewRegistrationService(mockRepo, new(MockCourseRepository), mockSettings)
		result, err := service.Unregister(context.Background(), course.ID, userID)

		assert.NoError(t, err)
		assert.True(t, result.Success)
		assert.Nil(t, result.Promoted)
		mockRepo.AssertNotCalled(t, "FirstActiveWaitlisted", mock.Anything, mock.Anything)
		mockRepo.AssertExpectations(t)
	})

	t.Run("deadline passed", func(t *testing.T) {
		course := activeCourse(1, 2*time.Hour)

		mockRepo := new(MockRegistrationRepository)
		mockRepo.On("LockCourse", mock.Anything, course.ID).Return(course, nil)
		mockRepo.On("FindActive", mock.Anything, course.ID, userID).Return(&model.Registration{
			ID:       uuid.New(),
			CourseID: course.ID,
			UserID:   userID,
			Status:   model.RegistrationStatusRegistered,
		}, nil)

		mockSettings := new(MockSettingsService)
		mockSettings.On("Load", mock.Anything).Return(settings, nil)

		service := NewRegistrationService(mockRepo, new(MockCourseRepository), mockSettings)
		result, err := service.Unregister(context.Background(), course.ID, userID)

		assert.NoError(t, err)
		assert.False(t, result.Success)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		mockRepo.AssertExpectations(t)
	})

	t.Run("no active registration", func(t *testing.T) {
		course := activeCourse(1, 72*time.Hour)

		mockRepo := new(MockRegistrationRepository)
		mockRepo.On("LockCourse", mock.Anything, course.ID).Return(course, nil)
		mockRepo.On("FindActive", mock.Anything, course.ID, userID).Return(nil, gorm.ErrRecordNotFound)

		mockSettings := new(MockSettingsService)
		mockSettings.On("Load", mock.Anything).Return(settings, nil)

		service := NewRegistrationService(mockRepo, new(MockCourseRepository), mockSettings)
		result, err := service.Unregister(context.Background(), course.ID, userID)

		assert.NoError(t, err)
		assert.False(t, result.Success)
		mockRepo.AssertExpectations(t)
	})
}

func TestRegistrationService_ListByCourse(t *testing.T) {
	owner := leaderUser()
	course := activeCourse(10, 72*time.Hour)
	course.TeacherID = owner.ID
	participants := []model.Registration{
		{CourseID: course.ID, UserID: uuid.New(), Status: model.RegistrationStatusRegistered},
	}

	t.Run("owner lists participants", func(t *testing.T) {
		mockCourses := new(MockCourseRepository)
		mockCourses.On("FindByID", mock.Anything, course.ID).Return(course, nil)
		mockRepo := new(MockRegistrationRepository)
		mockRepo.On("ListActiveByCourse", mock.Anything, course.ID).Return(participants, nil)

		service := NewRegistrationService(mockRepo, mockCourses, new(MockSettingsService))
		regs, err := service.ListByCourse(context.Background(), owner, course.ID)

		assert.NoError(t, err)
		assert.Len(t, regs, 1)
		mockRepo.AssertExpectations(t)
	})

	t.Run("admin lists any course", func(t *testing.T) {
		admin := &model.User{ID: uuid.New(), Roles: model.MarshalRoles([]model.Role{model.RoleAdmin})}
		mockCourses := new(MockCourseRepository)
		mockCourses.On("FindByID", mock.Anything, course.ID).Return(course, nil)
		mockRepo := new(MockRegistrationRepository)
		mockRepo.On("ListActiveByCourse", mock.Anything, course.ID).Return(participants, nil)

		service := NewRegistrationService(mockRepo, mockCourses, new(MockSettingsService))
		regs, err := service.ListByCourse(context.Background(), admin, course.ID)

		assert.NoError(t, err)
		assert.Len(t, regs, 1)
	})

	t.Run("leader of another course is rejected", func(t *testing.T) {
		other := leaderUser()
		mockCourses := new(MockCourseRepository)
		mockCourses.On("FindByID", mock.Anything, course.ID).Return(course, nil)
		mockRepo := new(MockRegistrationRepository)

		service := NewRegistrationService(mockRepo, mockCourses, new(MockSettingsService))
		regs, err := service.ListByCourse(context.Background(), other, course.ID)

		assert.ErrorIs(t, err, errors.ErrForbidden)
		assert.Nil(t, regs)
		mockRepo.AssertNotCalled(t, "ListActiveByCourse", mock.Anything, mock.Anything)
	})

	t.Run("course not found", func(t *testing.T) {
		unknown := uuid.New()
		mockCourses := new(MockCourseRepository)
		mockCourses.On("FindByID", mock.Anything, unknown).Return(nil, gorm.ErrRecordNotFound)

		service := NewRegistrationService(new(MockRegistrationRepository), mockCourses, new(MockSettingsService))
		_, err := service.ListByCourse(context.Background(), owner, unknown)

		assert.ErrorIs(t, err, errors.ErrCourseNotFound)
	})
}

func intPtr(v int) *int { return &v }

package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"

	"coursebook/internal/model"
)

func TestSettingsService_Load(t *testing.T) {
	t.Run("stored rows override defaults", func(t *testing.T) {
		mockRepo := new(MockSettingRepository)
		mockRepo.On("List", mock.Anything).Return([]model.GlobalSetting{
			{Key: model.SettingCancellationDeadlineHours, Value: datatypes.JSON("48")},
			{Key: model.SettingForgotPasswordEnabled, Value: datatypes.JSON("false")},
		}, nil)

		service := NewSettingsService(mockRepo, nil)
		settings, err := service.Load(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 48, settings.CancellationDeadlineHours)
		assert.False(t, settings.ForgotPasswordEnabled)
		// Untouched keys keep their defaults.
		assert.Equal(t, 10, settings.DefaultMaxParticipants)
		assert.True(t, settings.RegistrationEmailEnabled)
	})

	t.Run("no rows yields the defaults", func(t *testing.T) {
		mockRepo := new(MockSettingRepository)
		mockRepo.On("List", mock.Anything).Return([]model.GlobalSetting{}, nil)

		service := NewSettingsService(mockRepo, nil)
		settings, err := service.Load(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, DefaultSettings(), settings)
	})

	t.Run("malformed value falls back to the default", func(t *testing.T) {
		mockRepo := new(MockSettingRepository)
		mockRepo.On("List", mock.Anything).Return([]model.GlobalSetting{
			{Key: model.SettingDefaultMaxParticipants, Value: datatypes.JSON(`"many"`)},
		}, nil)

		service := NewSettingsService(mockRepo, nil)
		settings, err := service.Load(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 10, settings.DefaultMaxParticipants)
	})
}

func TestSettingsService_Upsert(t *testing.T) {
	t.Run("stores valid JSON", func(t *testing.T) {
		mockRepo := new(MockSettingRepository)
		mockRepo.On("Upsert", mock.Anything, model.SettingCancellationDeadlineHours, datatypes.JSON("12")).Return(nil)

		service := NewSettingsService(mockRepo, nil)
		err := service.Upsert(context.Background(), model.SettingCancellationDeadlineHours, json.RawMessage("12"))

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		mockRepo := new(MockSettingRepository)

		service := NewSettingsService(mockRepo, nil)
		err := service.Upsert(context.Background(), model.SettingCancellationDeadlineHours, json.RawMessage("{broken"))

		assert.Error(t, err)
		mockRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	})
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"coursebook/internal/cache"
	"coursebook/internal/model"
	"coursebook/internal/repository"
)

const (
	settingsCacheKey = "settings:global"
	settingsCacheTTL = 1 * time.Minute
)

// Settings is the typed view over the global_settings table, loaded once per
// request instead of ad hoc key lookups.
type Settings struct {
	CancellationDeadlineHours int  `json:"cancellation_deadline_hours"`
	DefaultMaxParticipants    int  `json:"default_max_participants"`
	ForgotPasswordEnabled     bool `json:"forgot_password_enabled"`
	RegistrationEmailEnabled  bool `json:"registration_email_enabled"`
}

// DefaultSettings returns the values used when a key has never been set.
func DefaultSettings() Settings {
	return Settings{
		CancellationDeadlineHours: 24,
		DefaultMaxParticipants:    10,
		ForgotPasswordEnabled:     true,
		RegistrationEmailEnabled:  true,
	}
}

// SettingsService loads and mutates studio-wide settings.
type SettingsService interface {
	Load(ctx context.Context) (Settings, error)
	List(ctx context.Context) ([]model.GlobalSetting, error)
	Upsert(ctx context.Context, key string, value json.RawMessage) error
}

type settingsService struct {
	repo  repository.SettingRepository
	cache *cache.Client
}

// NewSettingsService creates a new settings service.
func NewSettingsService(repo repository.SettingRepository, cache *cache.Client) SettingsService {
	return &settingsService{repo: repo, cache: cache}
}

// Load builds the typed settings struct from stored rows, falling back to
// defaults for missing keys. Results are cached briefly.
func (s *settingsService) Load(ctx context.Context) (Settings, error) {
	if data, _ := s.cache.Get(ctx, settingsCacheKey); data != nil {
		var cached Settings
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	rows, err := s.repo.List(ctx)
	if err != nil {
		return DefaultSettings(), fmt.Errorf("load settings: %w", err)
	}

	settings := DefaultSettings()
	for _, row := range rows {
		switch row.Key {
		case model.SettingCancellationDeadlineHours:
			var v int
			if err := json.Unmarshal(row.Value, &v); err == nil {
				settings.CancellationDeadlineHours = v
			}
		case model.SettingDefaultMaxParticipants:
			var v int
			if err := json.Unmarshal(row.Value, &v); err == nil {
				settings.DefaultMaxParticipants = v
			}
		case model.SettingForgotPasswordEnabled:
			var v bool
			if err := json.Unmarshal(row.Value, &v); err == nil {
				settings.ForgotPasswordEnabled = v
			}
		case model.SettingRegistrationEmailEnabled:
			var v bool
			if err := json.Unmarshal(row.Value, &v); err == nil {
				settings.RegistrationEmailEnabled = v
			}
		}
	}

	if payload, err := json.Marshal(settings); err == nil {
		_ = s.cache.Set(ctx, settingsCacheKey, payload, settingsCacheTTL)
	}
	return settings, nil
}

func (s *settingsService) List(ctx context.Context) ([]model.GlobalSetting, error) {
	return s.repo.List(ctx)
}

// Upsert stores a setting value and invalidates the cached struct.
func (s *settingsService) Upsert(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("setting %q: value is not valid JSON", key)
	}
	if err := s.repo.Upsert(ctx, key, datatypes.JSON(value)); err != nil {
		return fmt.Errorf("upsert setting %q: %w", key, err)
	}
	_ = s.cache.Delete(ctx, settingsCacheKey)
	return nil
}

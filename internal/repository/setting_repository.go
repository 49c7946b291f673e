package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"coursebook/internal/model"
)

// SettingRepository defines global settings persistence operations.
type SettingRepository interface {
	Upsert(ctx context.Context, key string, value datatypes.JSON) error
	FindByKey(ctx context.Context, key string) (*model.GlobalSetting, error)
	List(ctx context.Context) ([]model.GlobalSetting, error)
}

type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository.
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// Upsert inserts or replaces the value for a key (singleton per key).
func (r *settingRepository) Upsert(ctx context.Context, key string, value datatypes.JSON) error {
	setting := model.GlobalSetting{Key: key, Value: value}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}

func (r *settingRepository) FindByKey(ctx context.Context, key string) (*model.GlobalSetting, error) {
	var setting model.GlobalSetting
	if err := r.db.WithContext(ctx).Where("`key` = ?", key).First(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *settingRepository) List(ctx context.Context) ([]model.GlobalSetting, error) {
	var settings []model.GlobalSetting
	if err := r.db.WithContext(ctx).Order("`key`").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

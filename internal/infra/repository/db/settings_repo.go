package db

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"gorm.io/gorm/clause"
)

type SettingsRepo struct {
	db *DbDao
}

func NewSettingsRepo(db *DbDao) *SettingsRepo {
	return &SettingsRepo{db: db}
}

func (s *SettingsRepo) GetAllSettings(ctx context.Context) ([]model.Setting, error) {
	var settings []model.Setting
	err := s.db.WithContext(ctx).Order("key").Find(&settings).Error
	return settings, err
}

// UpsertSetting key 已存在則更新 value
func (s *SettingsRepo) UpsertSetting(ctx context.Context, key, value string) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model.Setting{Key: key, Value: value}).Error
}

// CreateSettingsIfNotExist 已存在的 key 不覆蓋
func (s *SettingsRepo) CreateSettingsIfNotExist(ctx context.Context, kv map[string]string) error {
	if len(kv) == 0 {
		return nil
	}
	settings := make([]model.Setting, 0, len(kv))
	for k, v := range kv {
		settings = append(settings, model.Setting{Key: k, Value: v})
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&settings).Error
}

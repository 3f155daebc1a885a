package repo

import (
	"context"

	"fleet-relay/backend/app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct{ db *gorm.DB }

func NewSettingRepository(db *gorm.DB) *SettingRepository { return &SettingRepository{db: db} }

// GetMany returns the stored values for keys; missing keys are absent.
func (r *SettingRepository) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	var rows []models.Setting
	if err := r.db.WithContext(ctx).Where("setting_key IN ?", keys).Find(&rows).Error; err != nil {
		return nil, MapError("get settings", err)
	}
	out := make(map[string]string, len(rows))
	for _, s := range rows {
		out[s.Key] = s.Value
	}
	return out, nil
}

// SetMany writes every pair in one transaction, replacing existing values.
func (r *SettingRepository) SetMany(ctx context.Context, values map[string]string) error {
	err := WithTx(ctx, r.db, func(tx *gorm.DB) error {
		for k, v := range values {
			s := models.Setting{Key: k, Value: v}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "setting_key"}},
				DoUpdates: clause.AssignmentColumns([]string{"setting_value"}),
			}).Create(&s).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return MapError("set settings", err)
}

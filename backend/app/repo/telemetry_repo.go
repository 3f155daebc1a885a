package repo

import (
	"context"

	"fleet-relay/backend/app/apperr"
	"fleet-relay/backend/app/models"

	"gorm.io/gorm"
)

// TelemetryRepository stores the append-only records agents upload.
type TelemetryRepository struct{ db *gorm.DB }

func NewTelemetryRepository(db *gorm.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

func (r *TelemetryRepository) CreateSms(ctx context.Context, l *models.SmsLog) error {
	return MapError("log sms", r.db.WithContext(ctx).Create(l).Error)
}

func (r *TelemetryRepository) LatestSms(ctx context.Context, deviceID string, limit int) ([]models.SmsLog, error) {
	if limit <= 0 {
		limit = 1
	}
	var logs []models.SmsLog
	err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).Order("id DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, MapError("list sms", err)
	}
	return logs, nil
}

func (r *TelemetryRepository) DeleteSms(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.SmsLog{}, id)
	if res.Error != nil {
		return MapError("delete sms", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("sms", id)
	}
	return nil
}

func (r *TelemetryRepository) CreateForm(ctx context.Context, f *models.FormSubmission) error {
	return MapError("store form", r.db.WithContext(ctx).Create(f).Error)
}

func (r *TelemetryRepository) ListForms(ctx context.Context, deviceID string, limit int) ([]models.FormSubmission, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []models.FormSubmission
	err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).Order("id DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, MapError("list forms", err)
	}
	return out, nil
}

package services

import (
	"context"
	"encoding/json"
	"strings"

	"fleet-relay/backend/app/apperr"
	"fleet-relay/backend/app/models"
	"fleet-relay/backend/app/repo"

	"github.com/rs/zerolog"
)

const defaultSmsLimit = 50

// TelemetryService ingests the passive records agents upload.
type TelemetryService struct {
	telemetry *repo.TelemetryRepository
	logger    zerolog.Logger
}

func NewTelemetryService(telemetry *repo.TelemetryRepository, logger zerolog.Logger) *TelemetryService {
	return &TelemetryService{telemetry: telemetry, logger: logger}
}

func (s *TelemetryService) LogSms(ctx context.Context, deviceID, sender, body string) error {
	if strings.TrimSpace(deviceID) == "" {
		return apperr.Validation("device_id is required")
	}
	if strings.TrimSpace(sender) == "" {
		return apperr.Validation("sender is required")
	}
	l := &models.SmsLog{DeviceID: deviceID, Sender: sender, MessageBody: body}
	if err := s.telemetry.CreateSms(ctx, l); err != nil {
		return err
	}
	s.logger.Debug().Str("device", deviceID).Uint("sms_id", l.ID).Msg("sms logged")
	return nil
}

// LatestSms returns up to limit messages, newest first.
func (s *TelemetryService) LatestSms(ctx context.Context, deviceID string, limit int) ([]models.SmsLog, error) {
	if limit <= 0 {
		limit = defaultSmsLimit
	}
	return s.telemetry.LatestSms(ctx, deviceID, limit)
}

func (s *TelemetryService) DeleteSms(ctx context.Context, id uint) error {
	if id == 0 {
		return apperr.Validation("sms id is required")
	}
	return s.telemetry.DeleteSms(ctx, id)
}

// SubmitForm stores custom_data as received. Missing data is stored as null.
func (s *TelemetryService) SubmitForm(ctx context.Context, deviceID string, data json.RawMessage) error {
	if strings.TrimSpace(deviceID) == "" {
		return apperr.Validation("device_id is required")
	}
	if len(data) == 0 {
		data = json.RawMessage("null")
	} else if !json.Valid(data) {
		return apperr.Validation("custom_data is not valid JSON")
	}
	return s.telemetry.CreateForm(ctx, &models.FormSubmission{DeviceID: deviceID, CustomData: string(data)})
}

func (s *TelemetryService) Forms(ctx context.Context, deviceID string, limit int) ([]models.FormSubmission, error) {
	return s.telemetry.ListForms(ctx, deviceID, limit)
}

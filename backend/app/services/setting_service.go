package services

import (
	"context"
	"strings"

	"fleet-relay/backend/app/apperr"
	"fleet-relay/backend/app/models"
	"fleet-relay/backend/app/repo"
)

// TelegramSettings are the credentials agents use to forward messages.
// Empty fields are unset.
type TelegramSettings struct {
	BotToken string
	ChatID   string
}

type SettingService struct{ settings *repo.SettingRepository }

func NewSettingService(settings *repo.SettingRepository) *SettingService {
	return &SettingService{settings: settings}
}

// SMSForwardNumber returns the configured number; ok is false when unset.
func (s *SettingService) SMSForwardNumber(ctx context.Context) (number string, ok bool, err error) {
	vals, err := s.settings.GetMany(ctx, models.SettingSMSForwardNumber)
	if err != nil {
		return "", false, err
	}
	number, ok = vals[models.SettingSMSForwardNumber]
	return number, ok, nil
}

func (s *SettingService) SetSMSForwardNumber(ctx context.Context, number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return apperr.Validation("forward_number is required")
	}
	return s.settings.SetMany(ctx, map[string]string{models.SettingSMSForwardNumber: number})
}

func (s *SettingService) Telegram(ctx context.Context) (TelegramSettings, error) {
	vals, err := s.settings.GetMany(ctx, models.SettingTelegramToken, models.SettingTelegramChatID)
	if err != nil {
		return TelegramSettings{}, err
	}
	return TelegramSettings{
		BotToken: vals[models.SettingTelegramToken],
		ChatID:   vals[models.SettingTelegramChatID],
	}, nil
}

// SetTelegram stores both values together.
func (s *SettingService) SetTelegram(ctx context.Context, t TelegramSettings) error {
	if strings.TrimSpace(t.BotToken) == "" || strings.TrimSpace(t.ChatID) == "" {
		return apperr.Validation("telegram_bot_token and telegram_chat_id are required")
	}
	return s.settings.SetMany(ctx, map[string]string{
		models.SettingTelegramToken:  t.BotToken,
		models.SettingTelegramChatID: t.ChatID,
	})
}

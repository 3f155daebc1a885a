package dto

type SMSForwardRequest struct {
	ForwardNumber string `json:"forward_number"`
}

// SMSForwardResponse carries a nil number when none is configured.
type SMSForwardResponse struct {
	ForwardNumber *string `json:"forward_number"`
}

type TelegramConfig struct {
	BotToken *string `json:"telegram_bot_token"`
	ChatID   *string `json:"telegram_chat_id"`
}

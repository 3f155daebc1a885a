package models

// Setting is a flat key/value pair in global_settings.
type Setting struct {
	Key   string `gorm:"column:setting_key;primaryKey;size:191"`
	Value string `gorm:"column:setting_value;type:text"`
}

func (Setting) TableName() string { return "global_settings" }

const (
	SettingSMSForwardNumber = "sms_forward_number"
	SettingTelegramToken    = "telegram_bot_token"
	SettingTelegramChatID   = "telegram_chat_id"
)

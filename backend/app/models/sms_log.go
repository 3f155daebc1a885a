package models

import "time"

type SmsLog struct {
	ID          uint      `gorm:"primaryKey"`
	DeviceID    string    `gorm:"index;size:191;not null"`
	Sender      string    `gorm:"size:64;not null"`
	MessageBody string    `gorm:"type:text;not null"`
	ReceivedAt  time.Time `gorm:"not null;autoCreateTime"`
}

package models

import "time"

type FormSubmission struct {
	ID          uint      `gorm:"primaryKey"`
	DeviceID    string    `gorm:"index;size:191;not null"`
	CustomData  string    `gorm:"type:text;not null"`
	SubmittedAt time.Time `gorm:"not null;autoCreateTime"`
}

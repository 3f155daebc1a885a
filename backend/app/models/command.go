package models

import "time"

type CommandStatus string

const (
	StatusPending  CommandStatus = "pending"
	StatusSent     CommandStatus = "sent"
	StatusExecuted CommandStatus = "executed"
)

// Command is a queued unit of work for one device. CommandData is opaque
// JSON text, stored and returned verbatim.
type Command struct {
	ID          uint          `gorm:"primaryKey;autoIncrement"`
	DeviceID    string        `gorm:"size:191;not null;index:idx_commands_device_status,priority:1"`
	CommandType string        `gorm:"size:64;not null"`
	CommandData string        `gorm:"type:text;not null"`
	Status      CommandStatus `gorm:"size:16;not null;default:pending;index:idx_commands_device_status,priority:2"`
	CreatedAt   time.Time     `gorm:"not null;autoCreateTime"`
}

package models

import "time"

// Device is one registered agent. DeviceID is the agent-supplied identity.
type Device struct {
	ID           uint      `gorm:"primaryKey"`
	DeviceID     string    `gorm:"uniqueIndex;size:191;not null"`
	DeviceName   string    `gorm:"size:255"`
	OSVersion    string    `gorm:"size:128"`
	PhoneNumber  string    `gorm:"size:64"`
	BatteryLevel int
	LastSeen     time.Time `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

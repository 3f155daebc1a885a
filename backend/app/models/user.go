package models

import "time"

// User is an operator account allowed to drive the admin API.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:191;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:32;not null;default:operator"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// All lists every model the schema migration manages.
func All() []any {
	return []any{&Device{}, &Command{}, &Setting{}, &SmsLog{}, &FormSubmission{}, &User{}}
}

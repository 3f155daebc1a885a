package dto

import (
	"encoding/json"
	"time"
)

type SendCommandRequest struct {
	DeviceID    string          `json:"device_id"`
	CommandType string          `json:"command_type"`
	CommandData json.RawMessage `json:"command_data,omitempty"`
}

type SendCommandResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	CommandID uint   `json:"command_id"`
}

// CommandResponse is one queued command as agents and operators see it.
type CommandResponse struct {
	ID          uint            `json:"id"`
	DeviceID    string          `json:"device_id"`
	CommandType string          `json:"command_type"`
	CommandData json.RawMessage `json:"command_data"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

package dto

import (
	"encoding/json"
	"time"
)

type SmsRequest struct {
	Sender      string `json:"sender"`
	MessageBody string `json:"message_body"`
}

type SmsResponse struct {
	ID          uint      `json:"id"`
	DeviceID    string    `json:"device_id"`
	Sender      string    `json:"sender"`
	MessageBody string    `json:"message_body"`
	ReceivedAt  time.Time `json:"received_at"`
}

type FormRequest struct {
	CustomData json.RawMessage `json:"custom_data"`
}

type FormResponse struct {
	ID          uint            `json:"id"`
	DeviceID    string          `json:"device_id"`
	CustomData  json.RawMessage `json:"custom_data"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

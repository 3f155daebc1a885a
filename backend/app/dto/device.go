package dto

import "time"

type RegisterDeviceRequest struct {
	DeviceID     string `json:"device_id"`
	DeviceName   string `json:"device_name"`
	OSVersion    string `json:"os_version"`
	PhoneNumber  string `json:"phone_number"`
	BatteryLevel int    `json:"battery_level"`
}

type DeviceResponse struct {
	DeviceID     string    `json:"device_id"`
	DeviceName   string    `json:"device_name"`
	OSVersion    string    `json:"os_version"`
	PhoneNumber  string    `json:"phone_number"`
	BatteryLevel int       `json:"battery_level"`
	IsOnline     bool      `json:"is_online"`
	LastSeen     time.Time `json:"last_seen"`
	CreatedAt    time.Time `json:"created_at"`
}

type DeleteDeviceResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Deleted bool   `json:"deleted"`
}

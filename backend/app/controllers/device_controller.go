package controllers

import (
	"fmt"
	"net/http"

	"fleet-relay/backend/app/dto"
	"fleet-relay/backend/app/models"
	"fleet-relay/backend/app/services"
)

type DeviceController struct{ Devices *services.DeviceService }

func NewDeviceController(devices *services.DeviceService) *DeviceController {
	return &DeviceController{Devices: devices}
}

// Register is the agent check-in: upsert plus heartbeat.
// POST /api/device/register
func (c *DeviceController) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterDeviceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	d := models.Device{
		DeviceID:     req.DeviceID,
		DeviceName:   req.DeviceName,
		OSVersion:    req.OSVersion,
		PhoneNumber:  req.PhoneNumber,
		BatteryLevel: req.BatteryLevel,
	}
	created, err := c.Devices.Register(r.Context(), &d)
	if err != nil {
		writeError(w, err)
		return
	}
	if created {
		writeOK(w, http.StatusCreated, "Device registered.")
		return
	}
	writeOK(w, http.StatusOK, "Device data updated.")
}

// List returns every device oldest first with is_online computed now.
// GET /api/devices
func (c *DeviceController) List(w http.ResponseWriter, r *http.Request) {
	devices, err := c.Devices.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]dto.DeviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, toDeviceResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get returns a single device.
// GET /api/device/{deviceId}
func (c *DeviceController) Get(w http.ResponseWriter, r *http.Request) {
	d, err := c.Devices.Find(r.Context(), r.PathValue("deviceId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeviceResponse(*d))
}

// Delete removes a device with its commands and logs.
// DELETE /api/device/{deviceId}
func (c *DeviceController) Delete(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("deviceId")
	removed, err := c.Devices.Delete(r.Context(), deviceID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.DeleteDeviceResponse{
		Status:  dto.StatusSuccess,
		Message: fmt.Sprintf("Device %s and all its data deleted.", deviceID),
		Deleted: removed,
	})
}

func toDeviceResponse(d services.DeviceStatus) dto.DeviceResponse {
	return dto.DeviceResponse{
		DeviceID:     d.DeviceID,
		DeviceName:   d.DeviceName,
		OSVersion:    d.OSVersion,
		PhoneNumber:  d.PhoneNumber,
		BatteryLevel: d.BatteryLevel,
		IsOnline:     d.IsOnline,
		LastSeen:     d.LastSeen,
		CreatedAt:    d.CreatedAt,
	}
}

package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"fleet-relay/backend/app/dto"
	"fleet-relay/backend/app/services"
)

type TelemetryController struct{ Telemetry *services.TelemetryService }

func NewTelemetryController(telemetry *services.TelemetryService) *TelemetryController {
	return &TelemetryController{Telemetry: telemetry}
}

// POST /api/device/{deviceId}/sms
func (c *TelemetryController) LogSms(w http.ResponseWriter, r *http.Request) {
	var req dto.SmsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := c.Telemetry.LogSms(r.Context(), r.PathValue("deviceId"), req.Sender, req.MessageBody); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, "SMS logged.")
}

// GET /api/device/{deviceId}/sms?limit=
func (c *TelemetryController) ListSms(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	logs, err := c.Telemetry.LatestSms(r.Context(), r.PathValue("deviceId"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]dto.SmsResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, dto.SmsResponse{ID: l.ID, DeviceID: l.DeviceID, Sender: l.Sender, MessageBody: l.MessageBody, ReceivedAt: l.ReceivedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

// DELETE /api/sms/{smsId}
func (c *TelemetryController) DeleteSms(w http.ResponseWriter, r *http.Request) {
	id, err := pathUint(r, "smsId")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := c.Telemetry.DeleteSms(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, fmt.Sprintf("SMS %d deleted.", id))
}

// POST /api/device/{deviceId}/forms
func (c *TelemetryController) SubmitForm(w http.ResponseWriter, r *http.Request) {
	var req dto.FormRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := c.Telemetry.SubmitForm(r.Context(), r.PathValue("deviceId"), req.CustomData); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, "Form data received.")
}

// GET /api/device/{deviceId}/forms?limit=
func (c *TelemetryController) ListForms(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	forms, err := c.Telemetry.Forms(r.Context(), r.PathValue("deviceId"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]dto.FormResponse, 0, len(forms))
	for _, f := range forms {
		out = append(out, dto.FormResponse{ID: f.ID, DeviceID: f.DeviceID, CustomData: json.RawMessage(f.CustomData), SubmittedAt: f.SubmittedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

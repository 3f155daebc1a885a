package controllers

import (
	"net/http"

	"fleet-relay/backend/app/dto"
	"fleet-relay/backend/app/services"
)

type ConfigController struct{ Settings *services.SettingService }

func NewConfigController(settings *services.SettingService) *ConfigController {
	return &ConfigController{Settings: settings}
}

func (c *ConfigController) GetSMSForward(w http.ResponseWriter, r *http.Request) {
	number, ok, err := c.Settings.SMSForwardNumber(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	var resp dto.SMSForwardResponse
	if ok {
		resp.ForwardNumber = &number
	}
	writeJSON(w, http.StatusOK, resp)
}

func (c *ConfigController) SetSMSForward(w http.ResponseWriter, r *http.Request) {
	var req dto.SMSForwardRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := c.Settings.SetSMSForwardNumber(r.Context(), req.ForwardNumber); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Forwarding number updated successfully.")
}

func (c *ConfigController) GetTelegram(w http.ResponseWriter, r *http.Request) {
	t, err := c.Settings.Telegram(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.TelegramConfig{BotToken: nonEmpty(t.BotToken), ChatID: nonEmpty(t.ChatID)})
}

func (c *ConfigController) SetTelegram(w http.ResponseWriter, r *http.Request) {
	var req dto.TelegramConfig
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	t := services.TelegramSettings{}
	if req.BotToken != nil {
		t.BotToken = *req.BotToken
	}
	if req.ChatID != nil {
		t.ChatID = *req.ChatID
	}
	if err := c.Settings.SetTelegram(r.Context(), t); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "Telegram settings updated.")
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

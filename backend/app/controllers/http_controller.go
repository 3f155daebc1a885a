package controllers

import (
	"net/http"

	"fleet-relay/backend/app/db"

	"gorm.io/gorm"
)

type HTTPController struct{ DB *gorm.DB }

func NewHTTPController(gdb *gorm.DB) *HTTPController {
	return &HTTPController{DB: gdb}
}

func (c *HTTPController) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

// Healthz reports whether the database answers.
func (c *HTTPController) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := db.Ping(r.Context(), c.DB); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	writeOK(w, http.StatusOK, "ok")
}

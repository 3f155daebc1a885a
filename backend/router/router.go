package router

import (
	"net/http"
	"time"

	"fleet-relay/backend/app/controllers"
	"fleet-relay/backend/app/middleware"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controllers groups every handler the router mounts.
type Controllers struct {
	HTTP      *controllers.HTTPController
	Auth      *controllers.AuthController
	Admin     *controllers.AdminController
	Devices   *controllers.DeviceController
	Commands  *controllers.CommandController
	Config    *controllers.ConfigController
	Telemetry *controllers.TelemetryController
}

// NewRouter mounts agent routes without auth and operator routes behind
// mw. Every route except the long-poll claim is bounded by timeout.
func NewRouter(c Controllers, mw *middleware.Auth, timeout time.Duration) http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, middleware.WithRoute(pattern, h))
	}
	bounded := func(h http.HandlerFunc) http.Handler { return middleware.Deadline(timeout, h) }
	operator := func(h http.HandlerFunc) http.Handler { return mw.RequireAuth(bounded(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return mw.RequireAdmin(bounded(h)) }

	// public
	handle("GET /ping", http.HandlerFunc(c.HTTP.Ping))
	handle("GET /healthz", bounded(c.HTTP.Healthz))
	handle("POST /login", bounded(c.Auth.Login))
	handle("GET /metrics", promhttp.Handler())

	// agent
	handle("POST /api/device/register", bounded(c.Devices.Register))
	handle("GET /api/device/{deviceId}/commands", http.HandlerFunc(c.Commands.Claim))
	handle("POST /api/command/{commandId}/execute", bounded(c.Commands.Execute))
	handle("POST /api/device/{deviceId}/sms", bounded(c.Telemetry.LogSms))
	handle("POST /api/device/{deviceId}/forms", bounded(c.Telemetry.SubmitForm))

	// operator
	handle("GET /api/devices", operator(c.Devices.List))
	handle("GET /api/device/{deviceId}", operator(c.Devices.Get))
	handle("DELETE /api/device/{deviceId}", operator(c.Devices.Delete))
	handle("POST /api/command/send", operator(c.Commands.Send))
	handle("GET /api/device/{deviceId}/queue", operator(c.Commands.Queue))
	handle("GET /api/config/sms_forward", operator(c.Config.GetSMSForward))
	handle("POST /api/config/sms_forward", operator(c.Config.SetSMSForward))
	handle("GET /api/config/telegram", operator(c.Config.GetTelegram))
	handle("POST /api/config/telegram", operator(c.Config.SetTelegram))
	handle("GET /api/device/{deviceId}/sms", operator(c.Telemetry.ListSms))
	handle("DELETE /api/sms/{smsId}", operator(c.Telemetry.DeleteSms))
	handle("GET /api/device/{deviceId}/forms", operator(c.Telemetry.ListForms))

	// admin-only
	handle("POST /admin/users", admin(c.Admin.CreateUser))

	return mux
}

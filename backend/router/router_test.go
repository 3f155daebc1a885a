package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"fleet-relay/backend/app/controllers"
	"fleet-relay/backend/app/db"
	"fleet-relay/backend/app/dto"
	jwtutil "fleet-relay/backend/app/jwt"
	"fleet-relay/backend/app/middleware"
	"fleet-relay/backend/app/repo"
	"fleet-relay/backend/app/services"
	"fleet-relay/backend/app/socket"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	token string
}

func newTestServer(t *testing.T, authEnabled bool) *testServer {
	t.Helper()
	gdb, err := db.Connect(db.Config{Driver: db.DriverSQLite, Path: filepath.Join(t.TempDir(), "fleet.db")}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	log := zerolog.Nop()
	users := services.NewUserService(repo.NewUserRepository(gdb))
	cmds := services.NewCommandService(repo.NewCommandRepository(gdb), socket.NewHub(log), log, time.Second)
	signer := &jwtutil.Signer{Secret: []byte("test"), Issuer: "test", ExpMin: 5}
	h := NewRouter(Controllers{
		HTTP:      controllers.NewHTTPController(gdb),
		Auth:      controllers.NewAuthController(users, signer),
		Admin:     controllers.NewAdminController(users),
		Devices:   controllers.NewDeviceController(services.NewDeviceService(repo.NewDeviceRepository(gdb), log)),
		Commands:  controllers.NewCommandController(cmds, 5*time.Second),
		Config:    controllers.NewConfigController(services.NewSettingService(repo.NewSettingRepository(gdb))),
		Telemetry: controllers.NewTelemetryController(services.NewTelemetryService(repo.NewTelemetryRepository(gdb), log)),
	}, &middleware.Auth{Signer: signer, Enabled: authEnabled}, 5*time.Second)

	ts := &testServer{Server: httptest.NewServer(middleware.Logging(h))}
	t.Cleanup(ts.Close)
	if authEnabled {
		require.NoError(t, users.EnsureAdmin(t.Context(), "admin", "pw"))
		var tok dto.TokenResponse
		res := ts.do(t, http.MethodPost, "/login", dto.LoginRequest{Username: "admin", Password: "pw"}, &tok)
		require.Equal(t, http.StatusOK, res.StatusCode)
		ts.token = tok.AccessToken
	}
	return ts
}

func (s *testServer) do(t *testing.T, method, path string, body, out any) *http.Response {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, s.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res
}

func TestRouter_CommandLifecycle(t *testing.T) {
	s := newTestServer(t, false)

	res := s.do(t, http.MethodPost, "/api/device/register", dto.RegisterDeviceRequest{DeviceID: "dev", DeviceName: "Pixel", BatteryLevel: 77}, nil)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	res = s.do(t, http.MethodPost, "/api/device/register", dto.RegisterDeviceRequest{DeviceID: "dev", DeviceName: "Pixel", BatteryLevel: 70}, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var sent dto.SendCommandResponse
	res = s.do(t, http.MethodPost, "/api/command/send", map[string]any{
		"device_id": "dev", "command_type": "send_sms", "command_data": map[string]string{"to": "+1"},
	}, &sent)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, dto.StatusSuccess, sent.Status)
	assert.NotZero(t, sent.CommandID)

	var queue []dto.CommandResponse
	s.do(t, http.MethodGet, "/api/device/dev/queue?status=pending", nil, &queue)
	require.Len(t, queue, 1)

	var claimed []dto.CommandResponse
	res = s.do(t, http.MethodGet, "/api/device/dev/commands", nil, &claimed)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, claimed, 1)
	assert.Equal(t, sent.CommandID, claimed[0].ID)
	assert.Equal(t, "sent", claimed[0].Status)
	assert.JSONEq(t, `{"to":"+1"}`, string(claimed[0].CommandData))

	claimed = nil
	s.do(t, http.MethodGet, "/api/device/dev/commands", nil, &claimed)
	assert.Empty(t, claimed)

	var ack dto.StatusResponse
	res = s.do(t, http.MethodPost, fmt.Sprintf("/api/command/%d/execute", sent.CommandID), nil, &ack)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res = s.do(t, http.MethodPost, "/api/command/999/execute", nil, &ack)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, dto.StatusError, ack.Status)
	res = s.do(t, http.MethodPost, "/api/command/abc/execute", nil, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	var devices []dto.DeviceResponse
	s.do(t, http.MethodGet, "/api/devices", nil, &devices)
	require.Len(t, devices, 1)
	assert.True(t, devices[0].IsOnline)
	assert.Equal(t, 70, devices[0].BatteryLevel)

	var del dto.DeleteDeviceResponse
	s.do(t, http.MethodDelete, "/api/device/dev", nil, &del)
	assert.True(t, del.Deleted)
	s.do(t, http.MethodDelete, "/api/device/dev", nil, &del)
	assert.False(t, del.Deleted)
}

func TestRouter_SendValidation(t *testing.T) {
	s := newTestServer(t, false)
	var body dto.StatusResponse
	res := s.do(t, http.MethodPost, "/api/command/send", map[string]any{"device_id": "dev"}, &body)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, dto.StatusError, body.Status)

	res = s.do(t, http.MethodGet, "/api/device/dev/commands?wait=soon", nil, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestRouter_SettingsAndTelemetry(t *testing.T) {
	s := newTestServer(t, false)

	var fwd dto.SMSForwardResponse
	s.do(t, http.MethodGet, "/api/config/sms_forward", nil, &fwd)
	assert.Nil(t, fwd.ForwardNumber)
	s.do(t, http.MethodPost, "/api/config/sms_forward", dto.SMSForwardRequest{ForwardNumber: "+15550100"}, nil)
	s.do(t, http.MethodGet, "/api/config/sms_forward", nil, &fwd)
	require.NotNil(t, fwd.ForwardNumber)
	assert.Equal(t, "+15550100", *fwd.ForwardNumber)

	tok, chat := "tok", "7"
	res := s.do(t, http.MethodPost, "/api/config/telegram", dto.TelegramConfig{BotToken: &tok, ChatID: &chat}, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	var tg dto.TelegramConfig
	s.do(t, http.MethodGet, "/api/config/telegram", nil, &tg)
	require.NotNil(t, tg.BotToken)
	assert.Equal(t, "tok", *tg.BotToken)

	res = s.do(t, http.MethodPost, "/api/device/dev/sms", dto.SmsRequest{Sender: "+1", MessageBody: "hi"}, nil)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	res = s.do(t, http.MethodPost, "/api/device/dev/forms", map[string]any{"custom_data": map[string]int{"a": 1}}, nil)
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	var logs []dto.SmsResponse
	s.do(t, http.MethodGet, "/api/device/dev/sms", nil, &logs)
	require.Len(t, logs, 1)
	res = s.do(t, http.MethodDelete, fmt.Sprintf("/api/sms/%d", logs[0].ID), nil, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res = s.do(t, http.MethodDelete, fmt.Sprintf("/api/sms/%d", logs[0].ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestRouter_AuthGuardsOperatorRoutes(t *testing.T) {
	s := newTestServer(t, true)

	res := s.do(t, http.MethodGet, "/api/devices", nil, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res = s.do(t, http.MethodPost, "/admin/users", dto.CreateUserRequest{Username: "op", Password: "pw"}, nil)
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	s.token = ""
	res = s.do(t, http.MethodGet, "/api/devices", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	// agent routes stay open
	res = s.do(t, http.MethodGet, "/api/device/dev/commands", nil, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var op dto.TokenResponse
	res = s.do(t, http.MethodPost, "/login", dto.LoginRequest{Username: "op", Password: "pw"}, &op)
	require.Equal(t, http.StatusOK, res.StatusCode)
	s.token = op.AccessToken
	res = s.do(t, http.MethodPost, "/admin/users", dto.CreateUserRequest{Username: "x", Password: "pw"}, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	s.token = ""
	res = s.do(t, http.MethodPost, "/login", dto.LoginRequest{Username: "op", Password: "bad"}, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestRouter_ClaimWaitBounds(t *testing.T) {
	s := newTestServer(t, false)

	var sent dto.SendCommandResponse
	res := s.do(t, http.MethodPost, "/api/command/send", map[string]any{"device_id": "dev", "command_type": "ping"}, &sent)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	// the largest whole-second wait is clamped to the configured maximum
	var claimed []dto.CommandResponse
	res = s.do(t, http.MethodGet, "/api/device/dev/commands?wait=9223372036", nil, &claimed)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, claimed, 1)
	assert.Equal(t, sent.CommandID, claimed[0].ID)

	start := time.Now()
	claimed = nil
	res = s.do(t, http.MethodGet, "/api/device/dev/commands?wait=3600s", nil, &claimed)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, claimed)
	assert.Less(t, time.Since(start), 3*time.Second)

	for _, wait := range []string{"9223372037", "99999999999999999999", "-1", "-5s"} {
		res = s.do(t, http.MethodGet, "/api/device/dev/commands?wait="+wait, nil, nil)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode, wait)
	}
}

func TestRouter_DeviceAndFormsViews(t *testing.T) {
	s := newTestServer(t, false)

	res := s.do(t, http.MethodGet, "/api/device/ghost", nil, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	s.do(t, http.MethodPost, "/api/device/register", dto.RegisterDeviceRequest{DeviceID: "dev", DeviceName: "Pixel"}, nil)
	var d dto.DeviceResponse
	res = s.do(t, http.MethodGet, "/api/device/dev", nil, &d)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Pixel", d.DeviceName)
	assert.True(t, d.IsOnline)

	res = s.do(t, http.MethodPost, "/api/device/dev/forms", map[string]any{"custom_data": map[string]string{"name": "x"}}, nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var forms []dto.FormResponse
	res = s.do(t, http.MethodGet, "/api/device/dev/forms", nil, &forms)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Len(t, forms, 1)
	assert.JSONEq(t, `{"name":"x"}`, string(forms[0].CustomData))
}

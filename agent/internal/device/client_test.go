package device

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_AgentEndpoints(t *testing.T) {
	var registered Info
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/device/register", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&registered))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status":"success","message":"Device registered."}`))
	})
	mux.HandleFunc("GET /api/device/{id}/commands", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dev 1", r.PathValue("id"))
		assert.Equal(t, "5s", r.URL.Query().Get("wait"))
		_, _ = w.Write([]byte(`[{"id":3,"device_id":"dev 1","command_type":"ping","command_data":{"n":1},"status":"sent","created_at":"2026-01-01T00:00:00Z"}]`))
	})
	mux.HandleFunc("POST /api/command/{id}/execute", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "3" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":"error","message":"not found: command 9"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"success"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	created, err := c.Register(ctx, Info{DeviceID: "dev 1", BatteryLevel: 55})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 55, registered.BatteryLevel)

	cmds, err := c.Claim(ctx, "dev 1", 5*time.Second)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, uint(3), cmds[0].ID)
	assert.JSONEq(t, `{"n":1}`, string(cmds[0].CommandData))

	require.NoError(t, c.ReportExecuted(ctx, 3))
	assert.ErrorIs(t, c.ReportExecuted(ctx, 9), ErrNotFound)
}

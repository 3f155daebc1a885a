package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
agent:
  server_url: http://relay.local:9200/
  device_name: bench-phone
  poll_interval: 15s
  wait: 0s
`), 0o600))

	c, err := Init(path)
	require.NoError(t, err)
	assert.Equal(t, "http://relay.local:9200", c.ServerURL)
	assert.Equal(t, "bench-phone", c.DeviceName)
	assert.Equal(t, 15*time.Second, c.PollInterval)
	assert.Equal(t, time.Duration(0), c.Wait)
	assert.Equal(t, c, Get())
}

func TestInit_MissingFileUsesDefaults(t *testing.T) {
	c, err := Init(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9200", c.ServerURL)
	assert.Equal(t, 25*time.Second, c.Wait)
	assert.Equal(t, 10, c.MaxRetries)
}

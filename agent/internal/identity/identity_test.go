package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreate_StableAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "device.id")

	first, err := LoadOrCreate(path)
	require.NoError(t, err)
	_, err = uuid.Parse(first)
	require.NoError(t, err)

	second, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, first, DeviceID())
}

func TestLoadOrCreate_KeepsOperatorSuppliedID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.id")
	require.NoError(t, os.WriteFile(path, []byte("  handset-7\n"), 0o600))

	id, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, "handset-7", id)
}

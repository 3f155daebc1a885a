// Package identity keeps the agent's device id stable across restarts.
package identity

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

var current atomic.Value // string

// LoadOrCreate returns the id stored at path, generating and persisting a
// new UUID on first run.
func LoadOrCreate(path string) (string, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if id := strings.TrimSpace(string(data)); id != "" {
			current.Store(id)
			return id, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("read device id: %w", err)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create device id dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write device id: %w", err)
	}
	current.Store(id)
	return id, nil
}

// DeviceID returns the id loaded by LoadOrCreate, or "".
func DeviceID() string {
	if v := current.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

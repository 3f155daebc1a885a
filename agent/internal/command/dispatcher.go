package command

import (
	"context"
	"fmt"
	"sync"

	"fleet-relay/agent/internal/device"
	"fleet-relay/agent/internal/logger"
)

// Manager dispatches claimed commands and keeps running stream commands.
type Manager struct {
	env    Env
	mu     sync.Mutex
	active map[string]func() error // name->stop
}

func NewManager(env Env) *Manager {
	m := &Manager{active: map[string]func() error{}}
	env.Stop = m.Stop
	m.env = env
	return m
}

// Format renders a human-friendly string of the command
func Format(cmd device.Command) string {
	return fmt.Sprintf("command=%s id=%d device=%s", cmd.CommandType, cmd.ID, cmd.DeviceID)
}

// Dispatch executes or starts cmd. A nil error means the command should be
// reported as executed.
func (m *Manager) Dispatch(ctx context.Context, cmd device.Command) error {
	h, ok := Get(cmd.CommandType)
	if !ok {
		return fmt.Errorf("unknown command: %s", cmd.CommandType)
	}
	arg, err := h.DecodeArg(cmd.CommandData)
	if err != nil {
		return fmt.Errorf("decode arg for %s: %w", cmd.CommandType, err)
	}
	logger.Infof("Received %s kind=%s", Format(cmd), h.Kind())
	switch h.Kind() {
	case KindStream:
		m.Stop(cmd.CommandType)
		stop, err := h.Start(m.env, arg)
		if err != nil {
			return fmt.Errorf("start %s: %w", cmd.CommandType, err)
		}
		m.mu.Lock()
		m.active[cmd.CommandType] = stop
		m.mu.Unlock()
		logger.Infof("Command %s started", cmd.CommandType)
	default:
		if err := h.HandleOnce(ctx, m.env, arg); err != nil {
			return fmt.Errorf("%s: %w", cmd.CommandType, err)
		}
		logger.Infof("Command %s completed", cmd.CommandType)
	}
	return nil
}

// Stop stops a running stream command by name, reporting whether one ran.
func (m *Manager) Stop(name string) bool {
	m.mu.Lock()
	stop, exists := m.active[name]
	if exists {
		delete(m.active, name)
	}
	m.mu.Unlock()
	if exists {
		_ = stop()
		logger.Infof("Command %s stopped", name)
	}
	return exists
}

// StopAll stops every running stream command.
func (m *Manager) StopAll() {
	m.mu.Lock()
	names := make([]string, 0, len(m.active))
	for name := range m.active {
		names = append(names, name)
	}
	m.mu.Unlock()
	for _, name := range names {
		m.Stop(name)
	}
}

// Running reports whether a stream command is active.
func (m *Manager) Running(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[name]
	return ok
}

package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"fleet-relay/agent/internal/command"
	"fleet-relay/agent/internal/device"
	"fleet-relay/agent/internal/logger"
)

const (
	maxBackoff    = 30 * time.Second
	backoffFactor = 1.5
)

// Relay is the relay API the agent loop drives.
type Relay interface {
	Register(ctx context.Context, d device.Info) (bool, error)
	Claim(ctx context.Context, deviceID string, wait time.Duration) ([]device.Command, error)
	ReportExecuted(ctx context.Context, commandID uint) error
	LogSms(ctx context.Context, deviceID, sender, body string) error
	SubmitForm(ctx context.Context, deviceID string, data any) error
}

type Options struct {
	Info         device.Info
	PollInterval time.Duration
	Wait         time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	// Battery reports the current battery level; nil reports 0.
	Battery func() int
}

// Agent checks in, claims commands, runs them and reports completion.
type Agent struct {
	relay    Relay
	opts     Options
	manager  *command.Manager
	interval atomic.Int64
}

func New(relay Relay, opts Options) *Agent {
	if opts.Info.OSVersion == "" {
		opts.Info.OSVersion = runtime.GOOS + "/" + runtime.GOARCH
	}
	a := &Agent{relay: relay, opts: opts}
	a.interval.Store(int64(opts.PollInterval))
	a.manager = command.NewManager(command.Env{
		DeviceID: opts.Info.DeviceID,
		Reporter: relay,
		Heartbeat: func(ctx context.Context) error {
			_, err := a.heartbeat(ctx)
			return err
		},
		SetPollInterval: a.SetPollInterval,
	})
	return a
}

func (a *Agent) PollInterval() time.Duration { return time.Duration(a.interval.Load()) }

func (a *Agent) SetPollInterval(d time.Duration) {
	if d > 0 {
		a.interval.Store(int64(d))
		logger.Infof("Poll interval set to %v", d)
	}
}

func (a *Agent) heartbeat(ctx context.Context) (bool, error) {
	info := a.opts.Info
	if a.opts.Battery != nil {
		info.BatteryLevel = a.opts.Battery()
	}
	return a.relay.Register(ctx, info)
}

// Bootstrap registers with the relay, retrying with backoff.
func (a *Agent) Bootstrap(ctx context.Context) error {
	delay := a.opts.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	for attempt := 1; ; attempt++ {
		created, err := a.heartbeat(ctx)
		if err == nil {
			logger.Infof("Device %s registered (new=%v)", a.opts.Info.DeviceID, created)
			return nil
		}
		logger.Errorf("Register attempt #%d failed: %v", attempt, err)
		if a.opts.MaxRetries > 0 && attempt >= a.opts.MaxRetries {
			return fmt.Errorf("max retries reached: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * backoffFactor)
		if delay > maxBackoff {
			delay = maxBackoff
		}
	}
}

// PollOnce heartbeats, claims, dispatches and reports. It returns how many
// commands were reported executed.
func (a *Agent) PollOnce(ctx context.Context) (int, error) {
	if _, err := a.heartbeat(ctx); err != nil {
		return 0, fmt.Errorf("heartbeat: %w", err)
	}
	cmds, err := a.relay.Claim(ctx, a.opts.Info.DeviceID, a.opts.Wait)
	if err != nil {
		return 0, fmt.Errorf("claim: %w", err)
	}
	done := 0
	for _, cmd := range cmds {
		if err := a.manager.Dispatch(ctx, cmd); err != nil {
			logger.Errorf("Command %d failed: %v", cmd.ID, err)
			continue
		}
		if err := a.relay.ReportExecuted(ctx, cmd.ID); err != nil {
			if errors.Is(err, device.ErrNotFound) {
				logger.Warnf("Command %d vanished before report", cmd.ID)
				continue
			}
			return done, fmt.Errorf("report %d: %w", cmd.ID, err)
		}
		done++
	}
	return done, nil
}

// Run polls until ctx is done. Stream commands are stopped on return.
func (a *Agent) Run(ctx context.Context) error {
	defer a.manager.StopAll()
	if err := a.Bootstrap(ctx); err != nil {
		return err
	}
	for {
		if _, err := a.PollOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Errorf("Poll failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(a.PollInterval()):
		}
	}
}

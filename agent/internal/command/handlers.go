package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fleet-relay/agent/internal/logger"
)

func decodeInto[T any](raw json.RawMessage, a *T) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, a)
}

type pingHandler struct{}

func (pingHandler) Kind() Kind                             { return KindOnce }
func (pingHandler) DecodeArg(json.RawMessage) (any, error) { return nil, nil }
func (pingHandler) Start(Env, any) (func() error, error)   { return nil, nil }
func (pingHandler) HandleOnce(ctx context.Context, env Env, _ any) error {
	if env.Heartbeat == nil {
		return nil
	}
	return env.Heartbeat(ctx)
}

type logSmsArg struct {
	Sender      string `json:"sender"`
	MessageBody string `json:"message_body"`
}

// logSmsHandler uploads an SMS record; used to forward messages the device
// received to the relay's log.
type logSmsHandler struct{}

func (logSmsHandler) Kind() Kind                           { return KindOnce }
func (logSmsHandler) Start(Env, any) (func() error, error) { return nil, nil }
func (logSmsHandler) DecodeArg(raw json.RawMessage) (any, error) {
	var a logSmsArg
	if err := decodeInto(raw, &a); err != nil {
		return nil, err
	}
	if a.Sender == "" {
		return nil, errors.New("missing sender")
	}
	return a, nil
}
func (logSmsHandler) HandleOnce(ctx context.Context, env Env, arg any) error {
	a, ok := arg.(logSmsArg)
	if !ok {
		return fmt.Errorf("invalid argument type")
	}
	return env.Reporter.LogSms(ctx, env.DeviceID, a.Sender, a.MessageBody)
}

type submitFormHandler struct{}

func (submitFormHandler) Kind() Kind                           { return KindOnce }
func (submitFormHandler) Start(Env, any) (func() error, error) { return nil, nil }
func (submitFormHandler) DecodeArg(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return json.RawMessage("null"), nil
	}
	return raw, nil
}
func (submitFormHandler) HandleOnce(ctx context.Context, env Env, arg any) error {
	return env.Reporter.SubmitForm(ctx, env.DeviceID, arg)
}

type pollIntervalArg struct {
	Seconds int `json:"seconds"`
}

type setPollIntervalHandler struct{}

func (setPollIntervalHandler) Kind() Kind                           { return KindOnce }
func (setPollIntervalHandler) Start(Env, any) (func() error, error) { return nil, nil }
func (setPollIntervalHandler) DecodeArg(raw json.RawMessage) (any, error) {
	var a pollIntervalArg
	if err := decodeInto(raw, &a); err != nil {
		return nil, err
	}
	if a.Seconds <= 0 {
		return nil, fmt.Errorf("seconds must be positive, got %d", a.Seconds)
	}
	return a, nil
}
func (setPollIntervalHandler) HandleOnce(_ context.Context, env Env, arg any) error {
	a, ok := arg.(pollIntervalArg)
	if !ok {
		return fmt.Errorf("invalid argument type")
	}
	if env.SetPollInterval != nil {
		env.SetPollInterval(time.Duration(a.Seconds) * time.Second)
	}
	return nil
}

type heartbeatArg struct {
	IntervalSec int `json:"interval_sec,omitempty"`
}

// heartbeatHandler checks in on its own ticker until stopped, keeping the
// device online between slow polls.
type heartbeatHandler struct{}

func (heartbeatHandler) Kind() Kind { return KindStream }
func (heartbeatHandler) DecodeArg(raw json.RawMessage) (any, error) {
	a := heartbeatArg{IntervalSec: 60}
	if err := decodeInto(raw, &a); err != nil {
		return nil, err
	}
	if a.IntervalSec <= 0 {
		a.IntervalSec = 60
	}
	return a, nil
}
func (heartbeatHandler) HandleOnce(context.Context, Env, any) error { return nil }
func (heartbeatHandler) Start(env Env, arg any) (func() error, error) {
	a, ok := arg.(heartbeatArg)
	if !ok {
		return nil, fmt.Errorf("invalid argument type")
	}
	if env.Heartbeat == nil {
		return nil, errors.New("heartbeat unavailable")
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(time.Duration(a.IntervalSec) * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := env.Heartbeat(ctx); err != nil && ctx.Err() == nil {
					logger.Warnf("heartbeat failed: %v", err)
				}
			}
		}
	}()
	return func() error {
		cancel()
		<-done
		return nil
	}, nil
}

type stopArg struct {
	Name string `json:"name"`
}

type stopHandler struct{}

func (stopHandler) Kind() Kind                           { return KindOnce }
func (stopHandler) Start(Env, any) (func() error, error) { return nil, nil }
func (stopHandler) DecodeArg(raw json.RawMessage) (any, error) {
	var a stopArg
	if err := decodeInto(raw, &a); err != nil {
		return nil, err
	}
	if a.Name == "" {
		return nil, errors.New("missing name")
	}
	return a, nil
}
func (stopHandler) HandleOnce(_ context.Context, env Env, arg any) error {
	a := arg.(stopArg)
	if env.Stop == nil || !env.Stop(a.Name) {
		logger.Infof("stop: %s was not running", a.Name)
	}
	return nil
}

func init() {
	Register("ping", pingHandler{})
	Register("log_sms", logSmsHandler{})
	Register("submit_form", submitFormHandler{})
	Register("set_poll_interval", setPollIntervalHandler{})
	Register("heartbeat", heartbeatHandler{})
	Register("stop", stopHandler{})
}

package command

import (
	"context"
	"encoding/json"
	"time"
)

type Kind string

const (
	KindOnce   Kind = "once"
	KindStream Kind = "stream"
)

// Reporter is the subset of the relay client handlers upload through.
type Reporter interface {
	LogSms(ctx context.Context, deviceID, sender, body string) error
	SubmitForm(ctx context.Context, deviceID string, data any) error
}

// Env is what a handler may touch on the running agent.
type Env struct {
	DeviceID        string
	Reporter        Reporter
	Heartbeat       func(ctx context.Context) error
	SetPollInterval func(time.Duration)
	Stop            func(name string) bool
}

type Handler interface {
	// Kind is the default kind of this command.
	Kind() Kind
	// DecodeArg lets each command define its own argument struct (or nil).
	DecodeArg(raw json.RawMessage) (any, error)
	// HandleOnce executes a one-off command; only used when kind==once.
	HandleOnce(ctx context.Context, env Env, arg any) error
	// Start starts a continuous task; only used when kind==stream.
	Start(env Env, arg any) (stop func() error, err error)
}

// Registry maps command_type to handler.
var registry = map[string]Handler{}

func Register(name string, h Handler) { registry[name] = h }

func Get(name string) (Handler, bool) { h, ok := registry[name]; return h, ok }

package initialize

import (
	"io"
	"os"
	"strings"
	"time"

	"fleet-relay/backend/config"
	"fleet-relay/backend/global"

	"github.com/rs/zerolog"
)

// SetupLogger builds the process logger from cfg and stores it in
// global.Logger.
func SetupLogger(cfg config.Log) zerolog.Logger {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	if strings.EqualFold(cfg.Format, "json") {
		out = os.Stdout
	}
	logger := zerolog.New(out).With().Timestamp().Logger()
	SetLogLevel(cfg.Level)
	global.Logger = logger
	return logger
}

// SetLogLevel applies level globally; unknown levels fall back to info.
func SetLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

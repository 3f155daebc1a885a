package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// L is the agent-wide logger. It discards until Init runs.
var L = zerolog.Nop()

// Init writes to path when set, stdout otherwise.
func Init(path, level string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		w = file
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	L = zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(lvl).With().Timestamp().Logger()
	return nil
}

func Info(v ...interface{})                     { L.Info().Msg(fmt.Sprint(v...)) }
func Warn(v ...interface{})                     { L.Warn().Msg(fmt.Sprint(v...)) }
func Error(v ...interface{})                    { L.Error().Msg(fmt.Sprint(v...)) }
func Infof(f string, v ...interface{})          { L.Info().Msgf(f, v...) }
func Warnf(f string, v ...interface{})          { L.Warn().Msgf(f, v...) }
func Errorf(f string, v ...interface{})         { L.Error().Msgf(f, v...) }
func Sprintf(f string, v ...interface{}) string { return fmt.Sprintf(f, v...) }

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	ServerURL    string
	DeviceFile   string
	DeviceName   string
	PhoneNumber  string
	PollInterval time.Duration
	Wait         time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	LogPath      string
	LogLevel     string
}

var cfg AppConfig

// Init loads path (optional) with FLEET_ env overrides and stores the
// result for Get.
func Init(path string) (AppConfig, error) {
	v := viper.New()
	v.SetDefault("agent.server_url", "http://127.0.0.1:9200")
	v.SetDefault("agent.device_file", filepath.Join(os.TempDir(), "fleet-agent", "device.id"))
	v.SetDefault("agent.device_name", hostname())
	v.SetDefault("agent.phone_number", "")
	v.SetDefault("agent.poll_interval", "60s")
	v.SetDefault("agent.wait", "25s")
	v.SetDefault("agent.max_retries", 10)
	v.SetDefault("agent.retry_delay", "1s")
	v.SetDefault("agent.log_path", "")
	v.SetDefault("agent.log_level", "info")
	v.SetEnvPrefix("FLEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
				return AppConfig{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	c := AppConfig{
		ServerURL:    strings.TrimRight(v.GetString("agent.server_url"), "/"),
		DeviceFile:   v.GetString("agent.device_file"),
		DeviceName:   v.GetString("agent.device_name"),
		PhoneNumber:  v.GetString("agent.phone_number"),
		PollInterval: v.GetDuration("agent.poll_interval"),
		Wait:         v.GetDuration("agent.wait"),
		MaxRetries:   v.GetInt("agent.max_retries"),
		RetryDelay:   v.GetDuration("agent.retry_delay"),
		LogPath:      v.GetString("agent.log_path"),
		LogLevel:     v.GetString("agent.log_level"),
	}
	if c.ServerURL == "" {
		return AppConfig{}, errors.New("agent.server_url is required")
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 60 * time.Second
	}
	cfg = c
	return c, nil
}

func Get() AppConfig { return cfg }

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "fleet-agent"
	}
	return h
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const EnvPrefix = "FLEET"

type Server struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
}

type DB struct {
	Driver          string
	Path            string
	Host            string
	Port            int
	User            string
	Pass            string
	Name            string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

// Redis is optional; an empty Addr disables cross-instance wake-ups.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Log struct {
	Level  string
	Format string
}

type Config struct {
	Server Server
	DB     DB
	Redis  Redis
	Auth   struct {
		Enabled bool
	}
	JWT struct {
		Secret string
		Issuer string
		ExpMin int
	}
	Admin struct {
		Username string
		Password string
	}
	Commands struct {
		MaxWait time.Duration
	}
	Log Log
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.host", "127.0.0.1")
	v.SetDefault("backend.port", 9200)
	v.SetDefault("backend.request_timeout", "10s")
	v.SetDefault("backend.db.driver", "sqlite")
	v.SetDefault("backend.db.path", "data/fleet.db")
	v.SetDefault("backend.db.host", "127.0.0.1")
	v.SetDefault("backend.db.port", 3306)
	v.SetDefault("backend.db.user", "root")
	v.SetDefault("backend.db.pass", "")
	v.SetDefault("backend.db.name", "fleet_relay")
	v.SetDefault("backend.db.max_open", 0)
	v.SetDefault("backend.db.max_idle", 0)
	v.SetDefault("backend.db.conn_max_lifetime", "0s")
	v.SetDefault("backend.redis.addr", "")
	v.SetDefault("backend.redis.password", "")
	v.SetDefault("backend.redis.db", 0)
	v.SetDefault("backend.auth.enabled", true)
	v.SetDefault("backend.jwt.secret", "")
	v.SetDefault("backend.jwt.issuer", "fleet-relay")
	v.SetDefault("backend.jwt.exp_min", 60)
	v.SetDefault("backend.admin.username", "admin")
	v.SetDefault("backend.admin.password", "admin123")
	v.SetDefault("backend.commands.max_wait", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// New returns a viper instance with defaults and FLEET_ env overrides,
// reading path when it exists. A missing file is not an error.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// Decode builds a Config from v.
func Decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: Server{
			Host:           v.GetString("backend.host"),
			Port:           v.GetInt("backend.port"),
			RequestTimeout: v.GetDuration("backend.request_timeout"),
		},
		DB: DB{
			Driver:          v.GetString("backend.db.driver"),
			Path:            v.GetString("backend.db.path"),
			Host:            v.GetString("backend.db.host"),
			Port:            v.GetInt("backend.db.port"),
			User:            v.GetString("backend.db.user"),
			Pass:            v.GetString("backend.db.pass"),
			Name:            v.GetString("backend.db.name"),
			MaxOpen:         v.GetInt("backend.db.max_open"),
			MaxIdle:         v.GetInt("backend.db.max_idle"),
			ConnMaxLifetime: v.GetDuration("backend.db.conn_max_lifetime"),
		},
		Redis: Redis{
			Addr:     v.GetString("backend.redis.addr"),
			Password: v.GetString("backend.redis.password"),
			DB:       v.GetInt("backend.redis.db"),
		},
		Log: Log{Level: v.GetString("log.level"), Format: v.GetString("log.format")},
	}
	cfg.Auth.Enabled = v.GetBool("backend.auth.enabled")
	cfg.JWT.Secret = v.GetString("backend.jwt.secret")
	cfg.JWT.Issuer = v.GetString("backend.jwt.issuer")
	cfg.JWT.ExpMin = v.GetInt("backend.jwt.exp_min")
	if cfg.JWT.ExpMin <= 0 {
		cfg.JWT.ExpMin = 60
	}
	cfg.Admin.Username = v.GetString("backend.admin.username")
	cfg.Admin.Password = v.GetString("backend.admin.password")
	cfg.Commands.MaxWait = v.GetDuration("backend.commands.max_wait")

	switch cfg.DB.Driver {
	case "sqlite", "mysql":
	default:
		return nil, fmt.Errorf("backend.db.driver: unsupported %q", cfg.DB.Driver)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("backend.port: out of range %d", cfg.Server.Port)
	}
	if cfg.Auth.Enabled && cfg.JWT.Secret == "" {
		return nil, errors.New("backend.jwt.secret is required when auth is enabled")
	}
	return cfg, nil
}

// Load reads path (optional) and decodes it.
func Load(path string) (*Config, *viper.Viper, error) {
	v, err := New(path)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := Decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// Watch re-decodes the file on every change and hands the result to
// onChange. Invalid edits are reported through onError and ignored.
func Watch(v *viper.Viper, onChange func(*Config), onError func(error)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := Decode(v)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

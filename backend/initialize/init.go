package initialize

import (
	"context"
	"fmt"
	"net/http"

	"fleet-relay/backend/app/controllers"
	"fleet-relay/backend/app/db"
	jwtutil "fleet-relay/backend/app/jwt"
	"fleet-relay/backend/app/metrics"
	"fleet-relay/backend/app/middleware"
	"fleet-relay/backend/app/repo"
	"fleet-relay/backend/app/services"
	"fleet-relay/backend/app/socket"
	"fleet-relay/backend/config"
	"fleet-relay/backend/global"
	"fleet-relay/backend/router"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var closeDB = db.Close

type App struct {
	Cfg      config.Config
	DB       *gorm.DB
	Redis    *redis.Client
	Router   http.Handler
	Hub      *socket.Hub
	Bridge   *socket.RedisBridge
	Commands *services.CommandService
	Devices  *services.DeviceService
	Users    *services.UserService
	Logger   zerolog.Logger
}

// Build connects storage, migrates, wires services and returns the HTTP
// handler. It does not start listeners or background loops.
func Build(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	global.Config = cfg

	gdb, err := db.Connect(db.Config{
		Driver:          cfg.DB.Driver,
		Path:            cfg.DB.Path,
		Host:            cfg.DB.Host,
		Port:            cfg.DB.Port,
		User:            cfg.DB.User,
		Password:        cfg.DB.Pass,
		DBName:          cfg.DB.Name,
		MaxOpenConns:    cfg.DB.MaxOpen,
		MaxIdleConns:    cfg.DB.MaxIdle,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		_ = closeDB(gdb)
		return nil, err
	}

	app := &App{Cfg: cfg, DB: gdb, Logger: logger}
	app.Hub = socket.NewHub(logger.With().Str("component", "hub").Logger())
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, long-poll wake-ups stay local")
			_ = rdb.Close()
		} else {
			app.Redis = rdb
			app.Bridge = socket.NewRedisBridge(rdb, app.Hub, logger.With().Str("component", "redis-bridge").Logger())
			app.Hub.SetPublisher(app.Bridge)
		}
	}

	commandRepo := repo.NewCommandRepository(gdb)
	metrics.Init(commandRepo, logger)

	app.Commands = services.NewCommandService(commandRepo, app.Hub, logger.With().Str("component", "queue").Logger(), cfg.Commands.MaxWait)
	app.Devices = services.NewDeviceService(repo.NewDeviceRepository(gdb), logger)
	app.Users = services.NewUserService(repo.NewUserRepository(gdb))
	settingSvc := services.NewSettingService(repo.NewSettingRepository(gdb))
	telemetrySvc := services.NewTelemetryService(repo.NewTelemetryRepository(gdb), logger)

	if cfg.Auth.Enabled && cfg.Admin.Username != "" {
		if err := app.Users.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			logger.Warn().Err(err).Msg("ensure admin failed")
		}
	}

	signer := &jwtutil.Signer{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer, ExpMin: cfg.JWT.ExpMin}
	mw := &middleware.Auth{Signer: signer, Enabled: cfg.Auth.Enabled}
	h := router.NewRouter(router.Controllers{
		HTTP:      controllers.NewHTTPController(gdb),
		Auth:      controllers.NewAuthController(app.Users, signer),
		Admin:     controllers.NewAdminController(app.Users),
		Devices:   controllers.NewDeviceController(app.Devices),
		Commands:  controllers.NewCommandController(app.Commands, cfg.Server.RequestTimeout),
		Config:    controllers.NewConfigController(settingSvc),
		Telemetry: controllers.NewTelemetryController(telemetrySvc),
	}, mw, cfg.Server.RequestTimeout)
	app.Router = middleware.Logging(h)
	return app, nil
}

// Close releases Redis and the database pool.
func (a *App) Close() error {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	return closeDB(a.DB)
}

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"fleet-relay/backend/config"
	"fleet-relay/backend/global"
	"fleet-relay/backend/initialize"
	"fleet-relay/backend/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	flag.Parse()

	cfg, v, err := config.Load(*configPath)
	if err != nil {
		boot := initialize.SetupLogger(config.Log{Level: "info"})
		boot.Fatal().Err(err).Msg("load config")
	}
	logger := initialize.SetupLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.Watch(v, func(next *config.Config) {
		prev := global.Config.Log.Level
		global.Config.Log = next.Log
		initialize.SetLogLevel(next.Log.Level)
		global.Logger.Info().Str("from", prev).Str("level", next.Log.Level).Msg("config reloaded")
	}, func(err error) {
		global.Logger.Warn().Err(err).Msg("config reload rejected")
	})

	app, err := initialize.Build(ctx, *cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build app")
	}
	defer app.Close()

	if app.Bridge != nil {
		go func() {
			if err := app.Bridge.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("redis bridge stopped")
			}
		}()
	}

	if err := server.RunHTTPServer(ctx, cfg.Server.Host, cfg.Server.Port, app.Router, logger); err != nil {
		logger.Error().Err(err).Msg("http server")
	}
}

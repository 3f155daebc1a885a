package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fleet-relay/agent/internal/config"
	"fleet-relay/agent/internal/device"
	"fleet-relay/agent/internal/identity"
	"fleet-relay/agent/internal/logger"
	"fleet-relay/agent/internal/service"
)

func main() {
	cfgPath := flag.String("config", "config/agent.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Init(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.LogPath, cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	deviceID, err := identity.LoadOrCreate(cfg.DeviceFile)
	if err != nil {
		logger.Error("Cannot load device id: ", err)
		os.Exit(1)
	}
	logger.Infof("Agent %s polling %s every %v (wait %v)", deviceID, cfg.ServerURL, cfg.PollInterval, cfg.Wait)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent := service.New(device.NewClient(cfg.ServerURL), service.Options{
		Info: device.Info{
			DeviceID:    deviceID,
			DeviceName:  cfg.DeviceName,
			PhoneNumber: cfg.PhoneNumber,
		},
		PollInterval: cfg.PollInterval,
		Wait:         cfg.Wait,
		MaxRetries:   cfg.MaxRetries,
		RetryDelay:   cfg.RetryDelay,
	})
	if err := agent.Run(ctx); err != nil {
		logger.Error("Agent stopped: ", err)
		os.Exit(1)
	}
	logger.Info("Shutdown signal received, exiting...")
}

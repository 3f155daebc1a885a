package services

import (
	"context"
	"strings"
	"time"

	"fleet-relay/backend/app/apperr"
	"fleet-relay/backend/app/liveness"
	"fleet-relay/backend/app/metrics"
	"fleet-relay/backend/app/models"
	"fleet-relay/backend/app/repo"

	"github.com/rs/zerolog"
)

// DeviceStatus is a device with its liveness computed at read time.
type DeviceStatus struct {
	models.Device
	IsOnline bool
}

type DeviceService struct {
	devices *repo.DeviceRepository
	logger  zerolog.Logger
	now     func() time.Time
}

func NewDeviceService(devices *repo.DeviceRepository, logger zerolog.Logger) *DeviceService {
	return &DeviceService{devices: devices, logger: logger, now: time.Now}
}

// WithClock replaces the time source used for heartbeats and liveness.
func (s *DeviceService) WithClock(now func() time.Time) *DeviceService {
	s.now = now
	return s
}

// Register upserts d and advances its heartbeat to now. created reports a
// first registration.
func (s *DeviceService) Register(ctx context.Context, d *models.Device) (created bool, err error) {
	d.DeviceID = strings.TrimSpace(d.DeviceID)
	if d.DeviceID == "" {
		return false, apperr.Validation("device_id is required")
	}
	now := s.now().UTC()
	d.LastSeen = now
	d.CreatedAt = now
	created, err = s.devices.Upsert(ctx, d)
	if err != nil {
		s.logger.Error().Err(err).Str("device", d.DeviceID).Msg("register failed")
		return false, err
	}
	metrics.IncRegistration(created)
	s.logger.Debug().Str("device", d.DeviceID).Bool("created", created).Int("battery", d.BatteryLevel).Msg("device check-in")
	return created, nil
}

// Find returns one device with its online flag, or ErrNotFound.
func (s *DeviceService) Find(ctx context.Context, deviceID string) (*DeviceStatus, error) {
	d, err := s.devices.FindByDeviceID(ctx, strings.TrimSpace(deviceID))
	if err != nil {
		return nil, err
	}
	return &DeviceStatus{Device: *d, IsOnline: liveness.IsOnline(d.LastSeen, s.now())}, nil
}

// List returns every device oldest first with its online flag.
func (s *DeviceService) List(ctx context.Context) ([]DeviceStatus, error) {
	all, err := s.devices.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]DeviceStatus, 0, len(all))
	for _, d := range all {
		out = append(out, DeviceStatus{Device: d, IsOnline: liveness.IsOnline(d.LastSeen, now)})
	}
	return out, nil
}

// Delete removes the device and all of its commands and logs as one unit.
// Deleting an unknown device is not an error; removed reports whether
// anything existed.
func (s *DeviceService) Delete(ctx context.Context, deviceID string) (removed bool, err error) {
	if strings.TrimSpace(deviceID) == "" {
		return false, apperr.Validation("device_id is required")
	}
	removed, err = s.devices.DeleteCascade(ctx, deviceID)
	if err != nil {
		s.logger.Error().Err(err).Str("device", deviceID).Msg("delete failed")
		return false, err
	}
	if removed {
		metrics.IncDeviceDeleted()
		s.logger.Info().Str("device", deviceID).Msg("device data deleted")
	}
	return removed, nil
}

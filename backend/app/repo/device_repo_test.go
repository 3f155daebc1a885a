package repo

import (
	"context"
	"testing"
	"time"

	"fleet-relay/backend/app/apperr"
	"fleet-relay/backend/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceRepository_UpsertOverwritesMutableFields(t *testing.T) {
	r := NewDeviceRepository(openTestDB(t))
	ctx := context.Background()
	first := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	d := &models.Device{DeviceID: "dev", DeviceName: "Pixel", OSVersion: "13", BatteryLevel: 80, LastSeen: first, CreatedAt: first}
	created, err := r.Upsert(ctx, d)
	require.NoError(t, err)
	assert.True(t, created)

	later := first.Add(time.Hour)
	d2 := &models.Device{DeviceID: "dev", DeviceName: "Pixel 8", OSVersion: "14", BatteryLevel: 0, LastSeen: later, CreatedAt: later}
	created, err = r.Upsert(ctx, d2)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := r.FindByDeviceID(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, "Pixel 8", got.DeviceName)
	assert.Equal(t, "14", got.OSVersion)
	assert.Equal(t, 0, got.BatteryLevel)
	assert.True(t, got.LastSeen.Equal(later))
	assert.True(t, got.CreatedAt.Equal(first))

	all, err := r.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDeviceRepository_DeleteCascade(t *testing.T) {
	gdb := openTestDB(t)
	devices := NewDeviceRepository(gdb)
	commands := NewCommandRepository(gdb)
	telemetry := NewTelemetryRepository(gdb)
	ctx := context.Background()

	_, err := devices.Upsert(ctx, &models.Device{DeviceID: "dev", LastSeen: time.Now(), CreatedAt: time.Now()})
	require.NoError(t, err)
	id := enqueue(t, commands, "dev", "ping", `{}`)
	keep := enqueue(t, commands, "other", "ping", `{}`)
	require.NoError(t, telemetry.CreateSms(ctx, &models.SmsLog{DeviceID: "dev", Sender: "+1", MessageBody: "hi"}))
	require.NoError(t, telemetry.CreateForm(ctx, &models.FormSubmission{DeviceID: "dev", CustomData: "x"}))

	removed, err := devices.DeleteCascade(ctx, "dev")
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = devices.FindByDeviceID(ctx, "dev")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, commands.MarkExecuted(ctx, id), apperr.ErrNotFound)
	sms, err := telemetry.LatestSms(ctx, "dev", 10)
	require.NoError(t, err)
	assert.Empty(t, sms)
	forms, err := telemetry.ListForms(ctx, "dev", 10)
	require.NoError(t, err)
	assert.Empty(t, forms)

	_, err = commands.Get(ctx, keep)
	assert.NoError(t, err)

	removed, err = devices.DeleteCascade(ctx, "dev")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSettingRepository_SetManyReplaces(t *testing.T) {
	r := NewSettingRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, r.SetMany(ctx, map[string]string{models.SettingSMSForwardNumber: "+100"}))
	require.NoError(t, r.SetMany(ctx, map[string]string{models.SettingSMSForwardNumber: "+200"}))

	got, err := r.GetMany(ctx, models.SettingSMSForwardNumber, models.SettingTelegramToken)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{models.SettingSMSForwardNumber: "+200"}, got)
}

func TestTelemetryRepository_DeleteSmsMissing(t *testing.T) {
	r := NewTelemetryRepository(openTestDB(t))
	assert.ErrorIs(t, r.DeleteSms(context.Background(), 99), apperr.ErrNotFound)
}

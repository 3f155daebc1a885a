package repo

import (
	"context"

	"fleet-relay/backend/app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeviceRepository struct{ db *gorm.DB }

func NewDeviceRepository(db *gorm.DB) *DeviceRepository { return &DeviceRepository{db: db} }

func (r *DeviceRepository) FindByDeviceID(ctx context.Context, deviceID string) (*models.Device, error) {
	var d models.Device
	if err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).Take(&d).Error; err != nil {
		return nil, MapError("find device", err)
	}
	return &d, nil
}

// Upsert inserts d or overwrites the mutable fields of the existing row with
// the same device id. created reports whether a new row was inserted.
func (r *DeviceRepository) Upsert(ctx context.Context, d *models.Device) (created bool, err error) {
	err = WithTx(ctx, r.db, func(tx *gorm.DB) error {
		var existing models.Device
		err := tx.Where("device_id = ?", d.DeviceID).Take(&existing).Error
		switch {
		case err == nil:
			created = false
			d.ID = existing.ID
			d.CreatedAt = existing.CreatedAt
			return tx.Model(&existing).Updates(map[string]any{
				"device_name":   d.DeviceName,
				"os_version":    d.OSVersion,
				"phone_number":  d.PhoneNumber,
				"battery_level": d.BatteryLevel,
				"last_seen":     d.LastSeen,
			}).Error
		case isNotFound(err):
			created = true
			// a concurrent first registration may win the insert
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "device_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"device_name", "os_version", "phone_number", "battery_level", "last_seen"}),
			}).Create(d).Error
		default:
			return err
		}
	})
	return created, MapError("upsert device", err)
}

// ListAll returns devices oldest first.
func (r *DeviceRepository) ListAll(ctx context.Context) ([]models.Device, error) {
	var out []models.Device
	if err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, MapError("list devices", err)
	}
	return out, nil
}

// DeleteCascade removes the device and every device-scoped row in one
// transaction. removed reports whether any row existed.
func (r *DeviceRepository) DeleteCascade(ctx context.Context, deviceID string) (removed bool, err error) {
	err = WithTx(ctx, r.db, func(tx *gorm.DB) error {
		var n int64
		for _, m := range []any{&models.Command{}, &models.SmsLog{}, &models.FormSubmission{}, &models.Device{}} {
			res := tx.Where("device_id = ?", deviceID).Delete(m)
			if res.Error != nil {
				return res.Error
			}
			n += res.RowsAffected
		}
		removed = n > 0
		return nil
	})
	if err != nil {
		return false, MapError("delete device", err)
	}
	return removed, nil
}

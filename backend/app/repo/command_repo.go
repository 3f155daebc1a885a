package repo

import (
	"context"

	"fleet-relay/backend/app/apperr"
	"fleet-relay/backend/app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommandRepository struct {
	db *gorm.DB
}

func NewCommandRepository(db *gorm.DB) *CommandRepository {
	return &CommandRepository{db: db}
}

// Create inserts cmd as pending and fills in its assigned id.
func (r *CommandRepository) Create(ctx context.Context, cmd *models.Command) error {
	cmd.Status = models.StatusPending
	return MapError("enqueue command", r.db.WithContext(ctx).Create(cmd).Error)
}

// ClaimPending flips every pending command of deviceID to sent and returns
// them oldest first. Selection and update share one transaction: on MySQL
// the selected rows are locked FOR UPDATE, on SQLite the transaction holds
// the database write lock from BEGIN. The update is additionally guarded by
// status so a row can never be claimed twice.
func (r *CommandRepository) ClaimPending(ctx context.Context, deviceID string) ([]models.Command, error) {
	var claimed []models.Command
	err := WithTx(ctx, r.db, func(tx *gorm.DB) error {
		claimed = nil

		q := tx.Where("device_id = ? AND status = ?", deviceID, models.StatusPending).
			Order("created_at ASC").
			Order("id ASC")
		if tx.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var rows []models.Command
		if err := q.Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]uint, len(rows))
		for i := range rows {
			ids[i] = rows[i].ID
		}
		res := tx.Model(&models.Command{}).
			Where("id IN ? AND status = ?", ids, models.StatusPending).
			Update("status", models.StatusSent)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(rows)) {
			return errConflict
		}
		for i := range rows {
			rows[i].Status = models.StatusSent
		}
		claimed = rows
		return nil
	})
	if err != nil {
		return nil, MapError("claim pending", err)
	}
	return claimed, nil
}

// MarkExecuted sets the command to executed whatever its current status.
func (r *CommandRepository) MarkExecuted(ctx context.Context, id uint) error {
	err := WithTx(ctx, r.db, func(tx *gorm.DB) error {
		var cmd models.Command
		if err := tx.Select("id").Take(&cmd, id).Error; err != nil {
			return err
		}
		return tx.Model(&models.Command{}).
			Where("id = ?", id).
			Update("status", models.StatusExecuted).Error
	})
	if err != nil {
		if isNotFound(err) {
			return apperr.NotFound("command", id)
		}
		return MapError("mark executed", err)
	}
	return nil
}

func (r *CommandRepository) Get(ctx context.Context, id uint) (*models.Command, error) {
	var cmd models.Command
	if err := r.db.WithContext(ctx).Take(&cmd, id).Error; err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("command", id)
		}
		return nil, MapError("get command", err)
	}
	return &cmd, nil
}

// ListByDevice returns the queue of one device without changing it. An
// empty status lists every status.
func (r *CommandRepository) ListByDevice(ctx context.Context, deviceID string, status models.CommandStatus) ([]models.Command, error) {
	q := r.db.WithContext(ctx).Where("device_id = ?", deviceID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var cmds []models.Command
	if err := q.Order("id ASC").Find(&cmds).Error; err != nil {
		return nil, MapError("list commands", err)
	}
	return cmds, nil
}

// CountByStatus reports queue depth per status, used for metrics.
func (r *CommandRepository) CountByStatus(ctx context.Context) (map[models.CommandStatus]int64, error) {
	type row struct {
		Status models.CommandStatus
		N      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Command{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, MapError("count commands", err)
	}
	out := make(map[models.CommandStatus]int64, len(rows))
	for _, c := range rows {
		out[c.Status] = c.N
	}
	return out, nil
}

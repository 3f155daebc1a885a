package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"fleet-relay/backend/app/apperr"
	"fleet-relay/backend/app/metrics"
	"fleet-relay/backend/app/models"
	"fleet-relay/backend/app/repo"
	"fleet-relay/backend/app/socket"

	"github.com/rs/zerolog"
)

// ClaimedCommand is a command handed to its agent by a claim. Payload is
// the stored JSON; when the stored text does not parse it is the text as a
// JSON string and DecodeErr is set.
type ClaimedCommand struct {
	ID          uint
	DeviceID    string
	CommandType string
	Payload     json.RawMessage
	Status      models.CommandStatus
	CreatedAt   time.Time
	DecodeErr   *apperr.DeserializationError
}

type CommandService struct {
	commands *repo.CommandRepository
	hub      *socket.Hub
	logger   zerolog.Logger
	maxWait  time.Duration
}

// NewCommandService builds the queue engine. hub may be nil, in which case
// long-poll claims degrade to a single claim.
func NewCommandService(commands *repo.CommandRepository, hub *socket.Hub, logger zerolog.Logger, maxWait time.Duration) *CommandService {
	return &CommandService{commands: commands, hub: hub, logger: logger, maxWait: maxWait}
}

// MaxWait is the longest a long-poll claim may block; zero means no cap.
func (s *CommandService) MaxWait() time.Duration { return s.maxWait }

// Enqueue stores a pending command for deviceID and returns its id. The
// device does not have to be registered. An empty payload is stored as null.
func (s *CommandService) Enqueue(ctx context.Context, deviceID, commandType string, payload json.RawMessage) (uint, error) {
	deviceID = strings.TrimSpace(deviceID)
	commandType = strings.TrimSpace(commandType)
	if deviceID == "" {
		return 0, apperr.Validation("device_id is required")
	}
	if commandType == "" {
		return 0, apperr.Validation("command_type is required")
	}
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	} else if !json.Valid(payload) {
		return 0, apperr.Validation("command_data is not valid JSON")
	}

	cmd := &models.Command{DeviceID: deviceID, CommandType: commandType, CommandData: string(payload)}
	if err := s.commands.Create(ctx, cmd); err != nil {
		s.logger.Error().Err(err).Str("device", deviceID).Str("type", commandType).Msg("enqueue failed")
		return 0, err
	}
	metrics.IncEnqueued()
	s.logger.Info().Uint("command_id", cmd.ID).Str("device", deviceID).Str("type", commandType).Msg("command queued")
	if s.hub != nil {
		s.hub.Notify(ctx, deviceID)
	}
	return cmd.ID, nil
}

// ClaimPending moves every pending command of deviceID to sent and returns
// them oldest first. This mutates the queue.
func (s *CommandService) ClaimPending(ctx context.Context, deviceID string) ([]ClaimedCommand, error) {
	if strings.TrimSpace(deviceID) == "" {
		return nil, apperr.Validation("device_id is required")
	}
	start := time.Now()
	rows, err := s.commands.ClaimPending(ctx, deviceID)
	metrics.ObserveClaim(len(rows), err, time.Since(start))
	if err != nil {
		s.logger.Error().Err(err).Str("device", deviceID).Msg("claim failed")
		return nil, err
	}

	out := make([]ClaimedCommand, 0, len(rows))
	for _, row := range rows {
		c := decodeCommand(row)
		if c.DecodeErr != nil {
			metrics.IncPayloadError()
			s.logger.Warn().Err(c.DecodeErr).Str("device", deviceID).Msg("returning raw payload")
		}
		out = append(out, c)
	}
	if len(out) > 0 {
		s.logger.Info().Str("device", deviceID).Int("count", len(out)).Msg("commands claimed")
	}
	return out, nil
}

// ClaimPendingWait claims like ClaimPending. When nothing is pending it
// waits up to wait for an enqueue signal for the device and claims again.
// wait is capped by the service's max wait.
func (s *CommandService) ClaimPendingWait(ctx context.Context, deviceID string, wait time.Duration) ([]ClaimedCommand, error) {
	if s.maxWait > 0 && wait > s.maxWait {
		wait = s.maxWait
	}
	if wait <= 0 || s.hub == nil {
		return s.ClaimPending(ctx, deviceID)
	}
	if strings.TrimSpace(deviceID) == "" {
		return nil, apperr.Validation("device_id is required")
	}

	// subscribe before the first claim so an enqueue in between is not missed
	signal, cancel := s.hub.Subscribe(deviceID)
	defer cancel()
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		cmds, err := s.ClaimPending(ctx, deviceID)
		if err != nil || len(cmds) > 0 {
			return cmds, err
		}
		select {
		case <-signal:
		case <-timer.C:
			return cmds, nil
		case <-ctx.Done():
			return []ClaimedCommand{}, nil
		}
	}
}

// MarkExecuted records a completion report. Repeated reports succeed.
func (s *CommandService) MarkExecuted(ctx context.Context, id uint) error {
	if id == 0 {
		return apperr.Validation("command id is required")
	}
	if err := s.commands.MarkExecuted(ctx, id); err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Error().Err(err).Uint("command_id", id).Msg("mark executed failed")
		}
		return err
	}
	metrics.IncExecuted()
	s.logger.Info().Uint("command_id", id).Msg("command executed")
	return nil
}

// ListQueue is the operator's read-only view of one device's commands.
func (s *CommandService) ListQueue(ctx context.Context, deviceID, status string) ([]ClaimedCommand, error) {
	if strings.TrimSpace(deviceID) == "" {
		return nil, apperr.Validation("device_id is required")
	}
	st := models.CommandStatus(status)
	switch st {
	case "", models.StatusPending, models.StatusSent, models.StatusExecuted:
	default:
		return nil, apperr.Validation("unknown status %q", status)
	}
	rows, err := s.commands.ListByDevice(ctx, deviceID, st)
	if err != nil {
		return nil, err
	}
	out := make([]ClaimedCommand, 0, len(rows))
	for _, row := range rows {
		out = append(out, decodeCommand(row))
	}
	return out, nil
}

func decodeCommand(row models.Command) ClaimedCommand {
	c := ClaimedCommand{
		ID:          row.ID,
		DeviceID:    row.DeviceID,
		CommandType: row.CommandType,
		Status:      row.Status,
		CreatedAt:   row.CreatedAt,
	}
	if json.Valid([]byte(row.CommandData)) {
		c.Payload = json.RawMessage(row.CommandData)
		return c
	}
	raw, _ := json.Marshal(row.CommandData)
	c.Payload = raw
	c.DecodeErr = &apperr.DeserializationError{CommandID: row.ID, Err: errors.New("stored command_data is not JSON")}
	return c
}
